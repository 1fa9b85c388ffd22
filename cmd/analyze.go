package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/config"
	"github.com/xkilldash9x/stylelens/internal/inspect"
	"github.com/xkilldash9x/stylelens/internal/observability"
	"github.com/xkilldash9x/stylelens/internal/profile"
	"github.com/xkilldash9x/stylelens/internal/reporting"
)

// ErrFindings is returned with --fail-on-findings when a report has mismatched properties
// or misaligned elements.
var ErrFindings = errors.New("inspection reported findings")

// analysisOptions configures one of the analysis commands.
type analysisOptions struct {
	sections       inspect.Sections
	requireProfile bool
}

type analysisFlags struct {
	snapshots      string
	failOnFindings bool
}

func newValidateCmd() *cobra.Command {
	return newAnalysisCmd(&cobra.Command{
		Use:   "validate",
		Short: "Validates captured elements against an expected style profile",
		Example: `  stylelens validate --snapshots selection.json --profiles expectedStyles.json --profile primary-button
  stylelens validate --snapshots selection.json --profile primary-button -f junit -o results.xml`,
	}, analysisOptions{sections: inspect.Sections{Validate: true}, requireProfile: true})
}

func newAlignCmd() *cobra.Command {
	return newAnalysisCmd(&cobra.Command{
		Use:     "align",
		Short:   "Reports how each element lines up with the first one on all six axes",
		Example: `  stylelens align --snapshots selection.json`,
	}, analysisOptions{sections: inspect.Sections{Alignment: true}})
}

func newSpacingCmd() *cobra.Command {
	return newAnalysisCmd(&cobra.Command{
		Use:     "spacing",
		Short:   "Measures the gap or overlap between consecutive pairs of elements",
		Example: `  stylelens spacing --snapshots selection.json -f html -o spacing.html`,
	}, analysisOptions{sections: inspect.Sections{Spacing: true}})
}

func newInspectCmd() *cobra.Command {
	return newAnalysisCmd(&cobra.Command{
		Use:   "inspect",
		Short: "Runs style validation, alignment and spacing in a single report",
		Long:  "Runs every analysis over the captured selection. Style validation is skipped when no profile is selected.",
		Example: `  stylelens inspect --snapshots selection.json --profile card
  stylelens capture --url https://example.com --selector h1 --selector p | stylelens inspect --snapshots -`,
	}, analysisOptions{sections: inspect.AllSections()})
}

func newAnalysisCmd(cmd *cobra.Command, opts analysisOptions) *cobra.Command {
	var flags analysisFlags

	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, flags, opts)
	}

	cmd.Flags().StringVar(&flags.snapshots, "snapshots", "", "Snapshot file written by `capture` (\"-\" reads stdin)")
	cmd.Flags().BoolVar(&flags.failOnFindings, "fail-on-findings", false, "Exit with an error when a report has mismatches or misaligned elements")
	cmd.Flags().StringP("format", "f", "", "Output format ("+strings.Join(reporting.Formats(), ", ")+")")
	cmd.Flags().StringP("output", "o", "", "Output file path (default stdout)")
	cmd.Flags().String("profiles", "", "Expected styles file (JSON or YAML)")
	cmd.Flags().String("profile", "", "Name of the profile to validate against")
	_ = cmd.MarkFlagRequired("snapshots")

	bindFlag(cmd, "format", "report.format")
	bindFlag(cmd, "output", "report.output")
	bindFlag(cmd, "profiles", "profiles.path")
	bindFlag(cmd, "profile", "profiles.default")
	return cmd
}

func runAnalysis(cmd *cobra.Command, flags analysisFlags, opts analysisOptions) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger := observability.GetLogger().Named(cmd.Name())

	docs, err := loadSnapshots(flags.snapshots)
	if err != nil {
		return err
	}

	var expected *schemas.ExpectedProfile
	if opts.sections.Validate {
		expected, err = resolveProfile(logger, cfg.Profiles(), opts.requireProfile)
		if err != nil {
			return err
		}
	}

	reporter, err := newReporter(cmd.OutOrStdout(), cfg.Report(), logger)
	if err != nil {
		return err
	}

	inspector := inspect.NewService(logger)
	findings := 0
	for i, doc := range docs {
		if err := cmd.Context().Err(); err != nil {
			reporter.Close()
			return err
		}
		if err := checkPreconditions(doc, opts); err != nil {
			reporter.Close()
			return fmt.Errorf("selection %d: %w", i+1, err)
		}
		report, err := inspector.Inspect(inspect.Request{
			Snapshots: doc.Snapshots,
			Profile:   expected,
			Source:    doc.Source,
			Sections:  opts.sections,
		})
		if err != nil {
			reporter.Close()
			return fmt.Errorf("selection %d: %w", i+1, err)
		}
		findings += report.Mismatches() + report.Misaligned()
		if err := reporter.Write(report); err != nil {
			reporter.Close()
			return err
		}
	}
	if err := reporter.Close(); err != nil {
		return err
	}

	if flags.failOnFindings && findings > 0 {
		return fmt.Errorf("%w: %d", ErrFindings, findings)
	}
	return nil
}

// checkPreconditions applies the single-analysis rules that Inspect relaxes: geometry needs
// at least two elements.
func checkPreconditions(doc snapshotDocument, opts analysisOptions) error {
	if len(doc.Snapshots) == 0 {
		return inspect.ErrNoElements
	}
	geometryOnly := !opts.sections.Validate && (opts.sections.Alignment || opts.sections.Spacing)
	if geometryOnly && len(doc.Snapshots) < 2 {
		return inspect.ErrTooFewElements
	}
	return nil
}

// resolveProfile loads the profile named by profiles.default. Without a name it returns
// inspect.ErrNoProfile when required, nil otherwise.
func resolveProfile(logger *zap.Logger, cfg config.ProfilesConfig, required bool) (*schemas.ExpectedProfile, error) {
	name := strings.TrimSpace(cfg.Default)
	if name == "" {
		if required {
			return nil, inspect.ErrNoProfile
		}
		return nil, nil
	}

	store := profile.NewStore(logger, cfg.Path)
	if err := store.Reload(); err != nil {
		return nil, err
	}
	if err := store.Select(name); err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(store.Names(), ", "))
	}
	p, _ := store.Active()
	return p, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// newReporter writes to out unless report.output names a file.
func newReporter(out io.Writer, cfg config.ReportConfig, logger *zap.Logger) (reporting.Reporter, error) {
	if cfg.Output == "" || cfg.Output == "stdout" {
		return reporting.NewWithWriter(cfg.Format, nopCloser{out}, logger, Version)
	}
	return reporting.New(cfg.Format, cfg.Output, logger, Version)
}
