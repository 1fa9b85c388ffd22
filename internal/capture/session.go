// File: internal/capture/session.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/config"
	"github.com/xkilldash9x/stylelens/internal/style"
)

var (
	// ErrElementNotFound is wrapped with the offending selector.
	ErrElementNotFound = errors.New("no element matches selector")
	// ErrSessionClosed is returned by every call after Stop.
	ErrSessionClosed = errors.New("capture session is closed")
	// ErrNotStarted is returned when the browser has not been launched yet.
	ErrNotStarted = errors.New("capture session has not been started")
	// ErrNothingSelected is returned by Snapshots with an empty selection.
	ErrNothingSelected = errors.New("no elements selected")
)

// Session drives one browser tab. The selection lives here rather than in the page, in
// click order, as a list of CSS selectors.
type Session struct {
	id      string
	logger  *zap.Logger
	browser config.BrowserConfig
	capture config.CaptureConfig
	script  string

	mu          sync.Mutex
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	selected    []string
	isClosed    bool
}

// NewSession prepares a session. The snapshot script is generated here from schema; the
// browser is not launched until Start.
func NewSession(logger *zap.Logger, browserCfg config.BrowserConfig, captureCfg config.CaptureConfig, schema *style.Schema) (*Session, error) {
	if schema == nil {
		schema = style.DefaultSchema
	}
	script, err := buildSnapshotScript(computedKeys(schema, captureCfg.Properties))
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot script: %w", err)
	}
	id := uuid.New().String()
	return &Session{
		id:      id,
		logger:  logger.Named("capture").With(zap.String("session_id", id[:8])),
		browser: browserCfg,
		capture: captureCfg,
		script:  script,
	}, nil
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// execOptions translates the browser config into chromedp allocator options.
func execOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	w, h := cfg.ViewportSize()
	opts = append(opts, chromedp.WindowSize(w, h))

	for _, arg := range cfg.Args {
		arg = strings.TrimPrefix(arg, "--")
		if key, value, ok := strings.Cut(arg, "="); ok {
			opts = append(opts, chromedp.Flag(key, value))
			continue
		}
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// Start launches a dedicated browser and opens a tab. The browser lives until Stop or
// until parent is cancelled.
func (s *Session) Start(parent context.Context) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, execOptions(s.browser)...)
	if err := s.attach(allocCtx, allocCancel); err != nil {
		allocCancel()
		return err
	}
	return nil
}

// attach opens a tab under parent. When parent is an allocator context a browser is
// launched; when it is a browser context a new tab is opened in that browser. release is
// called on Stop and may be nil.
func (s *Session) attach(parent context.Context, release context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return ErrSessionClosed
	}
	if s.ctx != nil {
		return errors.New("capture session already started")
	}

	ctx, cancel := chromedp.NewContext(parent,
		chromedp.WithLogf(s.logger.Sugar().Debugf),
		chromedp.WithErrorf(s.logger.Sugar().Errorf),
	)

	w, h := s.browser.ViewportSize()
	// The first Run on a fresh context creates the target.
	if err := chromedp.Run(ctx, emulation.SetDeviceMetricsOverride(int64(w), int64(h), 1.0, false)); err != nil {
		cancel()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	s.allocCancel = release
	s.ctx = ctx
	s.cancel = cancel
	s.logger.Debug("Browser session started.", zap.Int("width", w), zap.Int("height", h))
	return nil
}

// browserContext returns the tab context, failing fast when the session is unusable.
func (s *Session) browserContext() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil, ErrSessionClosed
	}
	if s.ctx == nil {
		return nil, ErrNotStarted
	}
	return s.ctx, nil
}

// run executes actions on the tab, bounded by both ctx and the session lifetime.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	tabCtx, err := s.browserContext()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url, waits for the body and the configured settle time, and clears the
// selection since it belonged to the previous document.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))

	navCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.browser.NavigationTimeout > 0 {
		navCtx, cancel = context.WithTimeout(ctx, s.browser.NavigationTimeout)
	}
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if s.capture.SettleTime > 0 {
		actions = append(actions, chromedp.Sleep(s.capture.SettleTime))
	}
	if err := s.run(navCtx, actions...); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
	return nil
}

// missing returns the selectors that match nothing on the current page.
func (s *Session) missing(ctx context.Context, selectors []string) ([]string, error) {
	expr, err := invoke(existsScript, selectors)
	if err != nil {
		return nil, err
	}
	var found []bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return nil, fmt.Errorf("failed to query selectors: %w", err)
	}
	var out []string
	for i, ok := range found {
		if !ok && i < len(selectors) {
			out = append(out, selectors[i])
		}
	}
	return out, nil
}

// Toggle selects selector if it is not selected and deselects it otherwise, the way a
// click in selection mode does. It reports whether the element is selected afterwards.
func (s *Session) Toggle(ctx context.Context, selector string) (bool, error) {
	missing, err := s.missing(ctx, []string{selector})
	if err != nil {
		return false, err
	}
	if len(missing) > 0 {
		return false, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	s.mu.Lock()
	selected := true
	if i := slices.Index(s.selected, selector); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		selected = false
	} else {
		s.selected = append(s.selected, selector)
	}
	current := append([]string(nil), s.selected...)
	s.mu.Unlock()

	if err := s.highlight(ctx, current); err != nil {
		return selected, err
	}
	return selected, nil
}

// Select adds selectors to the selection in order. Already selected selectors keep their
// original position. Nothing is added if any selector is missing from the page.
func (s *Session) Select(ctx context.Context, selectors ...string) error {
	missing, err := s.missing(ctx, selectors)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrElementNotFound, strings.Join(missing, ", "))
	}

	s.mu.Lock()
	for _, sel := range selectors {
		if slices.Index(s.selected, sel) < 0 {
			s.selected = append(s.selected, sel)
		}
	}
	current := append([]string(nil), s.selected...)
	s.mu.Unlock()

	return s.highlight(ctx, current)
}

// Selected returns the current selection in click order.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

// Highlight redraws the selection outline on the page.
func (s *Session) Highlight(ctx context.Context) error {
	return s.highlight(ctx, s.Selected())
}

func (s *Session) highlight(ctx context.Context, selectors []string) error {
	if selectors == nil {
		selectors = []string{}
	}
	expr, err := invoke(highlightScript, selectors, selectedClass, overlayStyle, overlayCSS)
	if err != nil {
		return err
	}
	var marked int
	if err := s.run(ctx, chromedp.Evaluate(expr, &marked)); err != nil {
		return fmt.Errorf("failed to draw selection overlay: %w", err)
	}
	if marked != len(selectors) {
		s.logger.Debug("Some selected elements are no longer on the page.",
			zap.Int("selected", len(selectors)), zap.Int("outlined", marked))
	}
	return nil
}

// ClearSelection drops every selected element and removes the outlines.
func (s *Session) ClearSelection(ctx context.Context) error {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
	return s.highlight(ctx, nil)
}

// Snapshots captures the selected elements in selection order.
func (s *Session) Snapshots(ctx context.Context) ([]schemas.ElementSnapshot, error) {
	selectors := s.Selected()
	if len(selectors) == 0 {
		return nil, ErrNothingSelected
	}
	return s.SnapshotSelectors(ctx, selectors)
}

// SnapshotSelectors captures the given selectors without touching the selection.
func (s *Session) SnapshotSelectors(ctx context.Context, selectors []string) ([]schemas.ElementSnapshot, error) {
	expr, err := invoke(s.script, selectors)
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := s.run(ctx, chromedp.Evaluate(expr, &raw)); err != nil {
		return nil, fmt.Errorf("failed to evaluate snapshot script: %w", err)
	}
	snaps, err := decodeSnapshots(raw, selectors)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Captured element snapshots.", zap.Int("count", len(snaps)))
	return snaps, nil
}

// Stop closes the tab and the browser. It is safe to call more than once.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	ctx, cancel, allocCancel := s.ctx, s.cancel, s.allocCancel
	s.mu.Unlock()

	if ctx == nil {
		return nil
	}

	s.logger.Debug("Closing browser session.")
	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(ctx) }()

	var closeErr error
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			closeErr = fmt.Errorf("failed to close browser tab: %w", err)
		}
	case <-time.After(10 * time.Second):
		s.logger.Warn("Timed out waiting for browser tab to close.")
	}
	cancel()
	if allocCancel != nil {
		allocCancel()
	}
	return closeErr
}
