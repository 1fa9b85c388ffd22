package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/config"
	"github.com/xkilldash9x/stylelens/internal/style"
)

// Result is the outcome for one target. Err is set when that page could not be captured;
// the other targets are unaffected.
type Result struct {
	Target    Target                    `json:"target"`
	Snapshots []schemas.ElementSnapshot `json:"snapshots,omitempty"`
	Err       error                     `json:"-"`
}

// page is the subset of Session used for batch capture.
type page interface {
	Navigate(ctx context.Context, url string) error
	SnapshotSelectors(ctx context.Context, selectors []string) ([]schemas.ElementSnapshot, error)
	Stop() error
}

// browserOpener yields one tab per target and releases the shared browser when done.
type browserOpener interface {
	Open(ctx context.Context) (page, error)
	Close()
}

// Capturer snapshots several pages concurrently in one shared browser.
type Capturer struct {
	base    *zap.Logger
	logger  *zap.Logger
	browser config.BrowserConfig
	capture config.CaptureConfig
	schema  *style.Schema

	launch func(ctx context.Context) (browserOpener, error)
}

// NewCapturer creates a batch capturer.
func NewCapturer(logger *zap.Logger, browserCfg config.BrowserConfig, captureCfg config.CaptureConfig, schema *style.Schema) *Capturer {
	c := &Capturer{
		base:    logger,
		logger:  logger.Named("capture"),
		browser: browserCfg,
		capture: captureCfg,
		schema:  schema,
	}
	c.launch = c.launchChrome
	return c
}

// CaptureTargets navigates to every target and snapshots its selectors. At most
// browser.concurrency pages are open at once and navigations are throttled by
// capture.rate_limit. Results are returned in input order. The returned error is only set
// when the browser could not be launched or ctx ended early.
func (c *Capturer) CaptureTargets(ctx context.Context, targets []Target) ([]Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	opener, err := c.launch(ctx)
	if err != nil {
		return nil, err
	}
	defer opener.Close()

	limit := c.browser.Concurrency
	if limit <= 0 {
		limit = 1
	}
	burst := c.capture.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(c.capture.RateLimit), burst)
	if c.capture.RateLimit <= 0 {
		limiter = rate.NewLimiter(rate.Inf, burst)
	}

	results := make([]Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, target := range targets {
		i, target := i, target
		results[i].Target = target
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				results[i].Err = err
				return err
			}
			snaps, err := c.captureOne(gctx, opener, target)
			results[i].Snapshots = snaps
			results[i].Err = err
			if err != nil {
				c.logger.Warn("Failed to capture target.", zap.String("url", target.URL), zap.Error(err))
			}
			// Per-target failures must not cancel the other pages.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	c.logger.Info("Capture complete.", zap.Int("targets", len(targets)), zap.Int("failed", Failed(results)))
	return results, nil
}

func (c *Capturer) captureOne(ctx context.Context, opener browserOpener, target Target) ([]schemas.ElementSnapshot, error) {
	p, err := opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := p.Stop(); err != nil {
			c.logger.Debug("Error closing tab.", zap.Error(err))
		}
	}()

	if err := p.Navigate(ctx, target.URL); err != nil {
		return nil, err
	}
	return p.SnapshotSelectors(ctx, target.Selectors)
}

// Failed counts results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Errors joins the per-target errors, labelled with their URL.
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Target.URL, r.Err))
		}
	}
	return errors.Join(errs...)
}

// -- Chrome backed opener --

type chromeOpener struct {
	c           *Capturer
	browserCtx  context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

func (c *Capturer) launchChrome(ctx context.Context) (browserOpener, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(c.browser)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return &chromeOpener{c: c, browserCtx: browserCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (o *chromeOpener) Open(ctx context.Context) (page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := NewSession(o.c.base, o.c.browser, o.c.capture, o.c.schema)
	if err != nil {
		return nil, err
	}
	if err := s.attach(o.browserCtx, nil); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *chromeOpener) Close() {
	o.cancel()
	o.allocCancel()
}
