package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/style"
)

// Palette shared by the text writer. Colors degrade to plain text when the writer is not
// a terminal.
const (
	colorMatch    = lipgloss.Color("42")
	colorMismatch = lipgloss.Color("196")
	colorMuted    = lipgloss.Color("245")
	colorAccent   = lipgloss.Color("75")
)

// TextReporter prints each report as terminal tables as soon as it is written.
type TextReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	schema *style.Schema

	mu       sync.Mutex
	renderer *lipgloss.Renderer
	count    int
}

// NewTextReporter creates a human readable reporter.
func NewTextReporter(writer io.WriteCloser, logger *zap.Logger) *TextReporter {
	return &TextReporter{
		writer:   writer,
		logger:   logger.Named("text_reporter"),
		schema:   style.DefaultSchema,
		renderer: lipgloss.NewRenderer(writer),
	}
}

// Write renders one report.
func (r *TextReporter) Write(report *schemas.InspectionReport) error {
	if report == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	if r.count > 0 {
		b.WriteString("\n")
	}
	r.count++
	r.render(&b, buildView(report, r.schema))
	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}

func (r *TextReporter) style() lipgloss.Style {
	return r.renderer.NewStyle()
}

func (r *TextReporter) heading(b *strings.Builder, text string) {
	b.WriteString(r.style().Bold(true).Foreground(colorAccent).Render(text))
	b.WriteString("\n")
}

func (r *TextReporter) newTable(headers ...string) *table.Table {
	header := r.style().Bold(true).Padding(0, 1)
	cell := r.style().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.style().Foreground(colorMuted)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return header
			}
			return cell
		})
}

// headerRow is the row number a StyleFunc receives for the header; data rows follow it.
const headerRow = 0

// dataIndex maps a table row number passed to a StyleFunc onto the index of the data row.
func dataIndex(row int) int {
	return row - (headerRow + 1)
}

func (r *TextReporter) render(b *strings.Builder, v reportView) {
	title := "Inspection"
	if v.ID != "" {
		title += " " + v.ID
	}
	r.heading(b, title)

	muted := r.style().Foreground(colorMuted)
	if v.Source != "" {
		b.WriteString(muted.Render("Source:    ") + v.Source + "\n")
	}
	if v.Profile != "" {
		b.WriteString(muted.Render("Profile:   ") + v.Profile + "\n")
	}
	if v.Generated != "" {
		b.WriteString(muted.Render("Generated: ") + v.Generated + "\n")
	}
	b.WriteString(fmt.Sprintf("%d element(s), %d mismatched propert%s, %d misaligned offset(s)\n",
		v.Elements, v.Mismatches, plural(v.Mismatches, "y", "ies"), v.Misaligned))

	for _, card := range v.Cards {
		b.WriteString("\n")
		r.renderCard(b, card)
	}
	if v.HasAlign {
		b.WriteString("\n")
		r.renderAlignment(b, v)
	}
	if v.HasSpacing {
		b.WriteString("\n")
		r.renderSpacing(b, v)
	}
}

func (r *TextReporter) renderCard(b *strings.Builder, card elementCard) {
	verdict := ""
	switch {
	case !card.Asserted:
	case card.Passed:
		verdict = " " + r.style().Bold(true).Foreground(colorMatch).Render("PASS")
	default:
		verdict = " " + r.style().Bold(true).Foreground(colorMismatch).Render("FAIL")
	}
	r.heading(b, card.Label)
	if verdict != "" {
		b.WriteString(fmt.Sprintf("Validation:%s (%d matched, %d mismatched, %d unknown)\n",
			verdict, card.Summary.Matched, card.Summary.Mismatched, card.Summary.Unknown))
	}

	var rows []propertyRow
	var sections []string
	for _, sec := range card.Sections {
		for i, row := range sec.Rows {
			rows = append(rows, row)
			if i == 0 {
				sections = append(sections, sec.Title)
			} else {
				sections = append(sections, "")
			}
		}
	}

	headers := []string{"Group", "Property", "Value"}
	if card.Asserted {
		headers = append(headers, "Expected", "Status")
	}
	t := r.newTable(headers...)
	for i, row := range rows {
		cells := []string{sections[i], row.Name, row.Value}
		if card.Asserted {
			cells = append(cells, row.Expected, statusText(row.Status))
		}
		t.Row(cells...)
	}

	header := r.style().Bold(true).Padding(0, 1)
	cell := r.style().Padding(0, 1)
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == headerRow {
			return header
		}
		i := dataIndex(row)
		if i < 0 || i >= len(rows) || col < 1 {
			return cell
		}
		switch rows[i].Status {
		case statusMatch:
			return cell.Foreground(colorMatch)
		case statusMismatch:
			return cell.Foreground(colorMismatch)
		case statusNotAsserted:
			return cell.Foreground(colorMuted)
		}
		return cell
	})
	b.WriteString(t.Render())
	b.WriteString("\n")
}

func statusText(status string) string {
	switch status {
	case statusMatch:
		return "✓"
	case statusMismatch:
		return "✗"
	case statusNotAsserted:
		return "?"
	}
	return ""
}

func (r *TextReporter) renderAlignment(b *strings.Builder, v reportView) {
	r.heading(b, "Absolute Bounding Values")
	bounds := r.newTable("Element", "Tag/ID", "Left", "Top", "Width", "Height", "Right", "Bottom", "Vertical Center", "Horizontal Center")
	for _, row := range v.Bounds {
		bounds.Row(row.Element, row.TagID, row.Left, row.Top, row.Width, row.Height, row.Right, row.Bottom, row.CenterX, row.CenterY)
	}
	b.WriteString(bounds.Render())
	b.WriteString("\n")

	for _, card := range v.AxisCards {
		b.WriteString("\n")
		r.heading(b, card.Title)
		b.WriteString(r.style().Foreground(colorMuted).Render("Reference: ") + card.Reference + "\n")
		rows := card.Rows
		t := r.newTable("Element", "Offset")
		for _, row := range rows {
			t.Row(row.Label, row.Cell)
		}
		header := r.style().Bold(true).Padding(0, 1)
		cell := r.style().Padding(0, 1)
		t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return header
			}
			i := dataIndex(row)
			if col != 1 || i < 0 || i >= len(rows) {
				return cell
			}
			if rows[i].Aligned {
				return cell.Foreground(colorMatch)
			}
			return cell.Foreground(colorMismatch)
		})
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
}

func (r *TextReporter) renderSpacing(b *strings.Builder, v reportView) {
	r.heading(b, "Spacing")
	t := r.newTable("Pair", "First", "Second", "Relation", "Measurements", "Note")
	for _, row := range v.Pairs {
		details := make([]string, 0, len(row.Details))
		for _, d := range row.Details {
			details = append(details, d.Label+": "+d.Value)
		}
		t.Row(fmt.Sprintf("%d", row.Pair), row.First, row.Second, row.Relation, strings.Join(details, "\n"), row.Note)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	if v.OddNote != "" {
		b.WriteString(r.style().Foreground(colorMuted).Render(v.OddNote))
		b.WriteString("\n")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
