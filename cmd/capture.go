package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/internal/capture"
	"github.com/xkilldash9x/stylelens/internal/config"
	"github.com/xkilldash9x/stylelens/internal/observability"
)

type captureFlags struct {
	url       string
	selectors []string
	targets   string
	output    string
}

func newCaptureCmd() *cobra.Command {
	var flags captureFlags

	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Captures computed styles and bounding boxes of page elements",
		Long: `Opens pages in a headless browser and snapshots the selected elements in selection order.
The output is a snapshot file for validate, align, spacing and inspect.`,
		Example: `  stylelens capture --url https://example.com --selector "#buy" --selector "#cancel" -o selection.json
  stylelens capture --targets targets.yaml -o pages.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			var docs []snapshotDocument
			var captureErr error
			if flags.targets != "" {
				docs, captureErr = captureTargets(cmd, cfg, logger, flags.targets)
			} else {
				docs, captureErr = captureURL(cmd, cfg, logger, flags.url, flags.selectors)
			}
			if len(docs) == 0 {
				return captureErr
			}

			if err := writeCaptureOutput(cmd.OutOrStdout(), flags.output, docs); err != nil {
				return err
			}
			return captureErr
		},
	}

	captureCmd.Flags().StringVar(&flags.url, "url", "", "Page to capture")
	captureCmd.Flags().StringArrayVarP(&flags.selectors, "selector", "s", nil, "CSS selector of an element to capture (repeatable, kept in order)")
	captureCmd.Flags().StringVar(&flags.targets, "targets", "", "YAML or JSON file listing pages and selectors to capture concurrently")
	captureCmd.Flags().StringVarP(&flags.output, "output", "o", "", "Snapshot file to write (default stdout)")
	captureCmd.Flags().Bool("headless", true, "Run the browser without a window")
	captureCmd.Flags().String("chrome", "", "Path to the Chrome or Chromium executable")
	captureCmd.Flags().Int("concurrency", 0, "Maximum number of pages open at once for --targets")

	captureCmd.MarkFlagsOneRequired("url", "targets")
	captureCmd.MarkFlagsMutuallyExclusive("url", "targets")
	captureCmd.MarkFlagsMutuallyExclusive("selector", "targets")
	captureCmd.MarkFlagsRequiredTogether("url", "selector")

	bindFlag(captureCmd, "headless", "browser.headless")
	bindFlag(captureCmd, "chrome", "browser.exec_path")
	bindFlag(captureCmd, "concurrency", "browser.concurrency")
	return captureCmd
}

func captureURL(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, url string, selectors []string) ([]snapshotDocument, error) {
	ctx := cmd.Context()
	session, err := capture.NewSession(logger, cfg.Browser(), cfg.Capture(), nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Stop(); err != nil {
			logger.Warn("Failed to stop browser session.", zap.Error(err))
		}
	}()

	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	if err := session.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := session.Select(ctx, selectors...); err != nil {
		return nil, err
	}
	snaps, err := session.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Captured selection.", zap.String("url", url), zap.Int("elements", len(snaps)))
	return []snapshotDocument{{Source: url, Snapshots: snaps}}, nil
}

// captureTargets returns the pages that were captured. A non-nil error alongside documents
// means some targets failed.
func captureTargets(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, path string) ([]snapshotDocument, error) {
	targets, err := capture.LoadTargets(path)
	if err != nil {
		return nil, err
	}

	capturer := capture.NewCapturer(logger, cfg.Browser(), cfg.Capture(), nil)
	results, err := capturer.CaptureTargets(cmd.Context(), targets)
	if err != nil && len(results) == 0 {
		return nil, err
	}

	docs := make([]snapshotDocument, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			docs = append(docs, snapshotDocument{Source: r.Target.URL, Snapshots: r.Snapshots})
		}
	}
	if failed := capture.Failed(results); failed > 0 {
		return docs, fmt.Errorf("%d of %d targets failed: %w", failed, len(results), capture.Errors(results))
	}
	return docs, err
}

func writeCaptureOutput(stdout io.Writer, output string, docs []snapshotDocument) error {
	if output == "" || output == "-" || output == "stdout" {
		return writeSnapshots(stdout, docs)
	}
	path, err := homedir.Expand(output)
	if err != nil {
		return fmt.Errorf("failed to expand output path %s: %w", output, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if err := writeSnapshots(f, docs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
