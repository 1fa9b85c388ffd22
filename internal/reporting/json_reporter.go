package reporting

import (
	"fmt"
	"io"
	"sync"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
)

// JSONReporter buffers reports and writes them on Close: a single report as one object,
// several as an array.
type JSONReporter struct {
	writer  io.WriteCloser
	logger  *zap.Logger
	mu      sync.Mutex
	reports []*schemas.InspectionReport
}

// NewJSONReporter creates a reporter that writes indented JSON.
func NewJSONReporter(writer io.WriteCloser, logger *zap.Logger) *JSONReporter {
	return &JSONReporter{writer: writer, logger: logger.Named("json_reporter")}
}

// Write queues a report.
func (r *JSONReporter) Write(report *schemas.InspectionReport) error {
	if report == nil {
		return nil
	}
	r.mu.Lock()
	r.reports = append(r.reports, report)
	r.mu.Unlock()
	return nil
}

// Close encodes the queued reports and closes the writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payload any = r.reports
	if len(r.reports) == 1 {
		payload = r.reports[0]
	} else if r.reports == nil {
		payload = []*schemas.InspectionReport{}
	}

	encoder := json.ConfigCompatibleWithStandardLibrary.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	encodeErr := encoder.Encode(payload)
	closeErr := r.writer.Close()

	if encodeErr != nil {
		return fmt.Errorf("failed to encode JSON report: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	r.logger.Debug("Wrote JSON report.", zap.Int("reports", len(r.reports)))
	return nil
}
