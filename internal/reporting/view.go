// internal/reporting/view.go
package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/geometry"
	"github.com/xkilldash9x/stylelens/internal/style"
)

// Row states of a property row. The values double as CSS classes in the HTML report.
const (
	statusNone        = ""
	statusMatch       = "match"
	statusMismatch    = "mismatch"
	statusNotAsserted = "not-asserted"
)

// extraSectionTitle holds asserted properties that have no row on the standard card.
const extraSectionTitle = "Additional Properties"

type propertyRow struct {
	Name     string
	Value    string
	Expected string
	Status   string
}

type cardSection struct {
	Title string
	Rows  []propertyRow
}

type elementCard struct {
	Number   int
	Tag      string
	ID       string
	Classes  string
	Label    string
	Passed   bool
	Asserted bool
	Summary  schemas.ValidationSummary
	Sections []cardSection
}

type boundsRow struct {
	Element string
	TagID   string
	Left    string
	Top     string
	Width   string
	Height  string
	Right   string
	Bottom  string
	CenterX string
	CenterY string
}

type axisRow struct {
	Label   string
	Cell    string
	Aligned bool
}

type axisCard struct {
	Axis      schemas.Axis
	Title     string
	Reference string
	Rows      []axisRow
}

type spacingDetail struct {
	Label string
	Value string
}

type spacingRow struct {
	Pair     int
	First    string
	Second   string
	Relation string
	Details  []spacingDetail
	Note     string
}

// reportView is the display model shared by the text and HTML writers. It mirrors the
// inspector panel: element cards, the absolute bounding values table, one card per axis
// and the pair spacing table.
type reportView struct {
	ID          string
	Generated   string
	Source      string
	Profile     string
	Elements    int
	Mismatches  int
	Misaligned  int
	Cards       []elementCard
	Bounds      []boundsRow
	AxisCards   []axisCard
	Pairs       []spacingRow
	OddNote     string
	HasSpacing  bool
	HasAlign    bool
	HasValidate bool
}

func buildView(r *schemas.InspectionReport, schema *style.Schema) reportView {
	if schema == nil {
		schema = style.DefaultSchema
	}
	v := reportView{
		ID:          r.ID,
		Source:      r.Source,
		Profile:     r.ProfileName,
		Elements:    len(r.Elements),
		Mismatches:  r.Mismatches(),
		Misaligned:  r.Misaligned(),
		HasValidate: len(r.Validations) > 0,
		HasAlign:    r.Alignment != nil && r.Alignment.Reference != nil,
		HasSpacing:  r.Spacing != nil,
	}
	if !r.GeneratedAt.IsZero() {
		v.Generated = r.GeneratedAt.Format("2006-01-02 15:04:05 MST")
	}

	results := make(map[int]schemas.ElementValidation, len(r.Validations))
	for _, ev := range r.Validations {
		results[ev.Position] = ev
	}
	for i, snap := range r.Elements {
		ev, ok := results[i]
		v.Cards = append(v.Cards, buildCard(i, snap, ev, ok, r.Profile, schema))
	}

	if v.HasAlign {
		v.Bounds = buildBounds(r.Alignment.Values)
		v.AxisCards = buildAxisCards(r.Alignment)
	}
	if v.HasSpacing {
		v.Pairs, v.OddNote = buildPairs(r.Spacing)
	}
	return v
}

func buildCard(pos int, snap schemas.ElementSnapshot, ev schemas.ElementValidation, asserted bool, profile *schemas.ExpectedProfile, schema *style.Schema) elementCard {
	card := elementCard{
		Number:   pos + 1,
		Tag:      strings.ToLower(snap.Tag),
		ID:       snap.ID,
		Label:    schemas.ElementLabel(pos, snap.Identity),
		Asserted: asserted,
		Passed:   !asserted || ev.Passed(),
		Summary:  ev.Summary,
	}
	if classes := snap.ClassList(); len(classes) > 0 {
		card.Classes = strings.Join(classes, ".")
	}

	row := func(p style.Property, value string) propertyRow {
		name := p.Label
		if name == "" {
			name = p.Kebab
		}
		out := propertyRow{Name: name, Value: value}
		if !asserted {
			return out
		}
		verdict, ok := ev.Results[p.Kebab]
		if !ok {
			return out
		}
		switch verdict {
		case schemas.VerdictMatch:
			out.Status = statusMatch
		case schemas.VerdictMismatch:
			out.Status = statusMismatch
			out.Expected = expectedValue(profile, p.Kebab)
		default:
			out.Status = statusNotAsserted
		}
		return out
	}

	for _, g := range style.Groups() {
		section := cardSection{Title: string(g)}
		for _, p := range schema.InGroup(g) {
			section.Rows = append(section.Rows, row(p, propertyValue(snap, p)))
		}
		card.Sections = append(card.Sections, section)
	}

	if asserted && profile != nil {
		extra := cardSection{Title: extraSectionTitle}
		for _, key := range profile.Keys() {
			if _, known := schema.Lookup(key); known {
				continue
			}
			p := style.Property{Kebab: key, Camel: schema.CamelName(key)}
			raw, _ := snap.Styles.Lookup(p.Camel)
			extra.Rows = append(extra.Rows, row(p, displayValue(raw)))
		}
		if len(extra.Rows) > 0 {
			card.Sections = append(card.Sections, extra)
		}
	}
	return card
}

// propertyValue reads the displayed value of one card row.
func propertyValue(snap schemas.ElementSnapshot, p style.Property) string {
	if p.Element {
		switch p.Camel {
		case schemas.StyleTagName:
			return snap.Tag
		case schemas.StyleID:
			return orNone(snap.ID)
		case schemas.StyleClassList:
			return orNone(snap.Classes)
		}
	}
	raw, _ := snap.Styles.Lookup(p.Camel)
	return displayValue(raw)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func expectedValue(profile *schemas.ExpectedProfile, key string) string {
	if profile == nil {
		return ""
	}
	raw, _ := profile.Get(key)
	return displayValue(raw)
}

// displayValue prints raw snapshot and profile values. Numbers use their shortest form.
func displayValue(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	}
	return fmt.Sprint(raw)
}

func shortLabel(pos int, id schemas.Identity) string {
	tag := strings.ToLower(id.Tag)
	if tag == "" {
		tag = "unknown"
	}
	label := "Element #" + strconv.Itoa(pos+1) + " - <" + tag + ">"
	if id.ID != "" {
		label += " #" + id.ID
	}
	return label
}

func buildBounds(values []schemas.AxisValues) []boundsRow {
	rows := make([]boundsRow, 0, len(values))
	for _, av := range values {
		tagID := "<" + strings.ToLower(av.Element.Tag) + ">"
		if av.Element.ID != "" {
			tagID += " #" + av.Element.ID
		}
		rows = append(rows, boundsRow{
			Element: "Element #" + strconv.Itoa(av.Position+1),
			TagID:   tagID,
			Left:    geometry.FormatPixels(av.Left),
			Top:     geometry.FormatPixels(av.Top),
			Width:   geometry.FormatPixels(av.Width),
			Height:  geometry.FormatPixels(av.Height),
			Right:   geometry.FormatPixels(av.Right),
			Bottom:  geometry.FormatPixels(av.Bottom),
			CenterX: geometry.FormatFixed2(av.CenterX) + "px",
			CenterY: geometry.FormatFixed2(av.CenterY) + "px",
		})
	}
	return rows
}

// diffCell renders an offset the way the alignment cards do: "✓ Aligned" or "+3px off".
func diffCell(e schemas.AxisEntry) string {
	if e.Aligned() {
		return "✓ Aligned"
	}
	sign := ""
	if e.Diff > 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(e.Diff, 'f', -1, 64) + "px off"
}

func buildAxisCards(a *schemas.AlignmentReport) []axisCard {
	reference := shortLabel(0, *a.Reference) + " (reference)"
	cards := make([]axisCard, 0, len(schemas.Axes()))
	for _, axis := range schemas.Axes() {
		card := axisCard{Axis: axis, Title: axis.Title() + " Alignment", Reference: reference}
		for _, e := range a.Entries(axis) {
			card.Rows = append(card.Rows, axisRow{
				Label:   shortLabel(e.Position, e.Element),
				Cell:    diffCell(e),
				Aligned: e.Aligned(),
			})
		}
		cards = append(cards, card)
	}
	return cards
}

func buildPairs(p *schemas.PairReport) ([]spacingRow, string) {
	rows := make([]spacingRow, 0, len(p.Pairs))
	for _, pr := range p.Pairs {
		row := spacingRow{
			Pair:     pr.Index + 1,
			First:    schemas.ElementLabel(pr.FirstAt, pr.First),
			Second:   schemas.ElementLabel(pr.SecondAt, pr.Second),
			Relation: string(pr.Spacing.Relation),
			Note:     pr.Spacing.Note,
		}
		if d := pr.Spacing.Distances; pr.Spacing.Relation == schemas.RelationFullOverlap && d != nil {
			row.Details = []spacingDetail{
				{"Left to Left", geometry.FormatPixels(d.LeftToLeft)},
				{"Right to Right", geometry.FormatPixels(d.RightToRight)},
				{"Top to Top", geometry.FormatPixels(d.TopToTop)},
				{"Bottom to Bottom", geometry.FormatPixels(d.BottomToBottom)},
			}
		} else {
			row.Details = []spacingDetail{
				{"Horizontal Spacing", geometry.FormatPixels(pr.Spacing.HorizontalSpacing)},
				{"Vertical Spacing", geometry.FormatPixels(pr.Spacing.VerticalSpacing)},
			}
		}
		rows = append(rows, row)
	}
	note := ""
	if p.Unpaired != nil {
		note = fmt.Sprintf("Element #%d skipped due to odd number of elements.", p.Unpaired.Position+1)
	}
	return rows, note
}

func camelName(kebab string) string {
	return style.DefaultSchema.CamelName(kebab)
}
