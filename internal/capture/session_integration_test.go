package capture

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/config"
)

const fixturePage = `<!DOCTYPE html>
<html><head><style>
  body { margin: 0; }
  .btn { position: absolute; top: 20px; width: 100px; height: 40px; color: #ffffff; font-size: 16px; }
  #buy { left: 10px; }
  #cancel { left: 130px; }
</style></head>
<body>
  <button id="buy" class="btn primary">Buy</button>
  <button id="cancel" class="btn">Cancel</button>
</body></html>`

// findChrome returns a browser binary or skips the test.
func findChrome(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	if p := os.Getenv("STYLELENS_CHROME"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome or Chromium binary found")
	return ""
}

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, fixturePage)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func browserConfig(execPath string) config.BrowserConfig {
	return config.BrowserConfig{
		Headless:          true,
		DisableGPU:        true,
		ExecPath:          execPath,
		Concurrency:       2,
		NavigationTimeout: 30 * time.Second,
		Viewport:          map[string]int{"width": 800, "height": 600},
	}
}

func TestSessionIntegration(t *testing.T) {
	execPath := findChrome(t)
	srv := fixtureServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s, err := NewSession(zaptest.NewLogger(t), browserConfig(execPath), config.CaptureConfig{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	defer func() { assert.NoError(t, s.Stop()) }()

	require.NoError(t, s.Navigate(ctx, srv.URL))

	selected, err := s.Toggle(ctx, "#cancel")
	require.NoError(t, err)
	assert.True(t, selected)
	require.NoError(t, s.Select(ctx, "#buy", "#cancel"))
	assert.Equal(t, []string{"#cancel", "#buy"}, s.Selected(), "click order is kept")

	_, err = s.Toggle(ctx, "#missing")
	assert.ErrorIs(t, err, ErrElementNotFound)

	snaps, err := s.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	cancelBtn, buy := snaps[0], snaps[1]
	assert.Equal(t, "BUTTON", buy.Tag)
	assert.Equal(t, "buy", buy.ID)
	assert.Equal(t, "btn primary", buy.Classes, "the overlay class is never captured")
	assert.Equal(t, 10.0, buy.Styles.Number(schemas.StyleAbsoluteX))
	assert.Equal(t, 20.0, buy.Styles.Number(schemas.StyleAbsoluteY))
	assert.Equal(t, 130.0, cancelBtn.Styles.Number(schemas.StyleAbsoluteX))
	assert.Equal(t, "rgb(255, 255, 255)", buy.Styles["color"])
	assert.Equal(t, "16px", buy.Styles["fontSize"])

	selected, err = s.Toggle(ctx, "#buy")
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Equal(t, []string{"#cancel"}, s.Selected())

	require.NoError(t, s.ClearSelection(ctx))
	assert.Empty(t, s.Selected())
}

func TestCaptureTargetsIntegration(t *testing.T) {
	execPath := findChrome(t)
	srv := fixtureServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	c := NewCapturer(zaptest.NewLogger(t), browserConfig(execPath), config.CaptureConfig{RateLimit: 10, Burst: 2}, nil)
	results, err := c.CaptureTargets(ctx, []Target{
		{URL: srv.URL + "/a", Selectors: []string{"#buy", "#cancel"}},
		{URL: srv.URL + "/b", Selectors: []string{"#cancel"}},
		{URL: srv.URL + "/c", Selectors: []string{"#nope"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Len(t, results[0].Snapshots, 2)
	require.NoError(t, results[1].Err)
	assert.Equal(t, "cancel", results[1].Snapshots[0].ID)
	assert.ErrorIs(t, results[2].Err, ErrElementNotFound)
}
