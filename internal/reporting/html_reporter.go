package reporting

import (
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/style"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>stylelens report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.4rem; }
h2 { font-size: 1.15rem; margin-top: 2rem; border-bottom: 1px solid #ddd; }
h3 { font-size: 1rem; }
table { border-collapse: collapse; margin: 0.5rem 0 1rem; }
th, td { border: 1px solid #ddd; padding: 4px 8px; text-align: left; font-size: 0.9rem; }
th { background: #f5f5f5; }
.card { border: 1px solid #ccc; border-radius: 6px; padding: 0.5rem 1rem; margin: 1rem 0; }
.card.fail { border-color: #d33; }
.match { background: #e6f6e6; }
.mismatch { background: #fbe3e3; }
.not-asserted { background: #f0f0f0; color: #777; }
.expected { color: #a00; font-style: italic; }
.aligned { color: #197a19; }
.off { color: #c00; }
.meta { color: #666; font-size: 0.85rem; }
.note { color: #666; font-style: italic; }
</style>
</head>
<body>
<h1>stylelens report</h1>
<p class="meta">Generated {{.Generated}}{{with .Version}} by stylelens {{.}}{{end}}</p>
{{range .Reports}}
<section class="report" id="report-{{.ID}}">
<h2>Inspection {{.ID}}</h2>
<p class="meta">{{with .Source}}Source: {{.}} {{end}}{{with .Profile}}Profile: {{.}} {{end}}{{with .Generated}}Generated: {{.}}{{end}}</p>
<p class="summary">{{.Elements}} element(s), {{.Mismatches}} mismatched, {{.Misaligned}} misaligned</p>
{{range .Cards}}
<div class="card{{if not .Passed}} fail{{end}}" id="element-{{.Number}}">
<h3>{{.Label}}</h3>
{{if .Asserted}}<p class="verdict">{{if .Passed}}Passed{{else}}Failed{{end}}: {{.Summary.Matched}} matched, {{.Summary.Mismatched}} mismatched, {{.Summary.Unknown}} unknown</p>{{end}}
{{range .Sections}}
<h4>{{.Title}}</h4>
<table>
{{range .Rows}}<tr{{with .Status}} class="{{.}}"{{end}}><th>{{.Name}}</th><td>{{.Value}}{{if eq .Status "mismatch"}} <span class="expected">(Expected: {{.Expected}})</span>{{end}}</td></tr>
{{end}}</table>
{{end}}
</div>
{{end}}
{{if .HasAlign}}
<h3>Absolute Bounding Values</h3>
<table class="bounds">
<tr><th>Element</th><th>Tag/ID</th><th>Left</th><th>Top</th><th>Width</th><th>Height</th><th>Right</th><th>Bottom</th><th>Vertical Center</th><th>Horizontal Center</th></tr>
{{range .Bounds}}<tr><td>{{.Element}}</td><td>{{.TagID}}</td><td>{{.Left}}</td><td>{{.Top}}</td><td>{{.Width}}</td><td>{{.Height}}</td><td>{{.Right}}</td><td>{{.Bottom}}</td><td>{{.CenterX}}</td><td>{{.CenterY}}</td></tr>
{{end}}</table>
{{range .AxisCards}}
<div class="card axis" id="axis-{{.Axis}}">
<h3>{{.Title}}</h3>
<p class="meta">Reference: {{.Reference}}</p>
<table>
{{range .Rows}}<tr><td>{{.Label}}</td><td class="{{if .Aligned}}aligned{{else}}off{{end}}">{{.Cell}}</td></tr>
{{end}}</table>
</div>
{{end}}
{{end}}
{{if .HasSpacing}}
<h3>Spacing</h3>
<table class="spacing">
<tr><th>Pair</th><th>First</th><th>Second</th><th>Relation</th><th>Measurements</th><th>Note</th></tr>
{{range .Pairs}}<tr><td>{{.Pair}}</td><td>{{.First}}</td><td>{{.Second}}</td><td>{{.Relation}}</td><td>{{range $i, $d := .Details}}{{if $i}}<br>{{end}}{{$d.Label}}: {{$d.Value}}{{end}}</td><td>{{.Note}}</td></tr>
{{end}}</table>
{{with .OddNote}}<p class="note">{{.}}</p>{{end}}
{{end}}
</section>
{{end}}
</body>
</html>
`))

// HTMLReporter buffers reports and renders them into a single self-contained page on Close.
type HTMLReporter struct {
	writer  io.WriteCloser
	logger  *zap.Logger
	schema  *style.Schema
	version string
	now     func() time.Time

	mu    sync.Mutex
	views []reportView
}

// NewHTMLReporter creates an HTML reporter.
func NewHTMLReporter(writer io.WriteCloser, logger *zap.Logger, toolVersion string) *HTMLReporter {
	return &HTMLReporter{
		writer:  writer,
		logger:  logger.Named("html_reporter"),
		schema:  style.DefaultSchema,
		version: toolVersion,
		now:     time.Now,
	}
}

// Write queues a report for rendering.
func (r *HTMLReporter) Write(report *schemas.InspectionReport) error {
	if report == nil {
		return nil
	}
	r.mu.Lock()
	r.views = append(r.views, buildView(report, r.schema))
	r.mu.Unlock()
	return nil
}

// Close renders the page and closes the writer.
func (r *HTMLReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := struct {
		Generated string
		Version   string
		Reports   []reportView
	}{
		Generated: r.now().Format("2006-01-02 15:04:05 MST"),
		Version:   r.version,
		Reports:   r.views,
	}
	execErr := htmlTemplate.Execute(r.writer, data)
	closeErr := r.writer.Close()
	if execErr != nil {
		return fmt.Errorf("failed to render HTML report: %w", execErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	r.logger.Debug("Wrote HTML report.", zap.Int("reports", len(r.views)))
	return nil
}
