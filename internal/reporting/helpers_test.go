package reporting

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/inspect"
)

const testToolVersion = "v1.0.0-test"

// MockWriteCloser captures output and simulates I/O errors.
type MockWriteCloser struct {
	Buffer    *bytes.Buffer
	FailWrite bool
	FailClose bool
	Closed    bool
}

func newMockWriter() *MockWriteCloser {
	return &MockWriteCloser{Buffer: new(bytes.Buffer)}
}

func (m *MockWriteCloser) Write(p []byte) (int, error) {
	if m.FailWrite {
		return 0, errors.New("simulated write error")
	}
	return m.Buffer.Write(p)
}

func (m *MockWriteCloser) Close() error {
	m.Closed = true
	if m.FailClose {
		return errors.New("simulated close error")
	}
	return nil
}

// fixtureReport inspects three elements against a two property profile plus one property
// outside the card schema:
//
//	#buy     (0,0 100x40)    color matches, font-size matches
//	#cancel  (120,0 100x40)  color mismatches, font-size missing
//	span     (0,60 50x20)    nothing present
func fixtureReport(t *testing.T) *schemas.InspectionReport {
	t.Helper()
	buy := schemas.NewGeometrySnapshot("BUTTON", "buy", 0, 0, 100, 40)
	buy.Classes = "btn primary"
	buy.Styles["color"] = "rgb(255, 255, 255)"
	buy.Styles["fontSize"] = "16px"
	cancel := schemas.NewGeometrySnapshot("BUTTON", "cancel", 120, 0, 100, 40)
	cancel.Styles["color"] = "black"
	span := schemas.NewGeometrySnapshot("SPAN", "", 0, 60, 50, 20)

	profile := schemas.NewExpectedProfile("primary-button")
	require.NoError(t, profile.Set("color", "#fff"))
	require.NoError(t, profile.Set("font-size", "16px"))
	require.NoError(t, profile.Set("outline-color", "red"))

	svc := inspect.NewService(zaptest.NewLogger(t), inspect.WithClock(func() time.Time {
		return time.Date(2025, 10, 26, 10, 0, 0, 0, time.UTC)
	}))
	report, err := svc.Inspect(inspect.Request{
		Snapshots: []schemas.ElementSnapshot{buy, cancel, span},
		Profile:   profile,
		Source:    "https://example.com/checkout",
		Sections:  inspect.AllSections(),
	})
	require.NoError(t, err)
	return report
}
