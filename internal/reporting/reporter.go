// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
)

// Supported output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatSARIF = "sarif"
	FormatJUnit = "junit"
	FormatHTML  = "html"
)

// Formats lists every supported output format.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatSARIF, FormatJUnit, FormatHTML}
}

// Reporter defines the interface for writing inspection results to an output.
type Reporter interface {
	// Write processes a single inspection report.
	Write(report *schemas.InspectionReport) error
	// Close finalizes the output and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path. An empty path
// or "stdout" writes to standard output.
func New(format, outputPath string, logger *zap.Logger, toolVersion string) (Reporter, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatText
	}
	if !isSupported(format) {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		path, err := homedir.Expand(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to expand output path %s: %w", outputPath, err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		writer = f
	}
	return NewWithWriter(format, writer, logger, toolVersion)
}

// NewWithWriter creates a reporter that takes ownership of writer.
func NewWithWriter(format string, writer io.WriteCloser, logger *zap.Logger, toolVersion string) (Reporter, error) {
	switch strings.ToLower(format) {
	case FormatSARIF:
		return NewSARIFReporter(writer, logger, toolVersion), nil
	case FormatJSON:
		return NewJSONReporter(writer, logger), nil
	case FormatJUnit:
		return NewJUnitReporter(writer, logger), nil
	case FormatText, "":
		return NewTextReporter(writer, logger), nil
	case FormatHTML:
		return NewHTMLReporter(writer, logger, toolVersion), nil
	default:
		writer.Close()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func isSupported(format string) bool {
	for _, f := range Formats() {
		if f == format {
			return true
		}
	}
	return false
}
