package schemas

import (
	"strconv"
	"time"
)

// -- Inspection Report Schemas --

// InspectionReport bundles every analysis run over one captured selection. Each section is
// optional; writers skip what is absent.
type InspectionReport struct {
	ID          string              `json:"id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Source      string              `json:"source,omitempty"`
	ProfileName string              `json:"profile,omitempty"`
	Profile     *ExpectedProfile    `json:"expected,omitempty"`
	Elements    []ElementSnapshot   `json:"elements"`
	Validations []ElementValidation `json:"validations,omitempty"`
	Alignment   *AlignmentReport    `json:"alignment,omitempty"`
	Spacing     *PairReport         `json:"spacing,omitempty"`
}

// ElementLabel is the 1-based display label for the element at position, e.g.
// `Element #2 - <span> #price .tag`.
func ElementLabel(position int, id Identity) string {
	return "Element #" + strconv.Itoa(position+1) + " - " + id.Label()
}

// Mismatches counts mismatched properties across all validations.
func (r *InspectionReport) Mismatches() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, v := range r.Validations {
		n += v.Summary.Mismatched
	}
	return n
}

// Misaligned counts axis entries that are not on the reference line.
func (r *InspectionReport) Misaligned() int {
	if r == nil || r.Alignment == nil {
		return 0
	}
	n := 0
	for _, entries := range r.Alignment.Axes {
		for _, e := range entries {
			if !e.Aligned() {
				n++
			}
		}
	}
	return n
}
