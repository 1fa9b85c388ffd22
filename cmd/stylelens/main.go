package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/stylelens/cmd"
	"github.com/xkilldash9x/stylelens/internal/observability"
)

const panicLogFile = "stylelens-panic.log"

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitFindings = 2
	exitPanic    = 3
)

// Function variables for mocking in tests.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
	execute     = cmd.Execute
)

func main() {
	defer handlePanic()

	// Set up a context that listens for interrupt signals (SIGINT, SIGTERM) for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx)
	observability.Sync()
	if code != exitOK {
		osExit(code)
	}
}

// run executes the command tree and maps its error to an exit code.
func run(ctx context.Context) int {
	err := execute(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		// Ctrl+C during capture or serve is a clean stop.
		return exitOK
	case errors.Is(err, cmd.ErrFindings):
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitFindings
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitError
	}
}

// handlePanic flushes the logs, writes the stack to panicLogFile and exits.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(exitPanic)
		return
	}
	fmt.Fprintf(os.Stderr, "stylelens crashed: %v\nDetails logged to %s\n", r, panicLogFile)
	osExit(exitPanic)
}
