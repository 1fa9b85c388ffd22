package schemas

import (
	stdjson "encoding/json"
	"strconv"
	"strings"
)

// -- Element Snapshot Schemas --

// Geometry keys written by the capture script into every StyleMap. They describe the
// element's bounding box in page coordinates (viewport rect plus scroll offset).
const (
	StyleAbsoluteX      = "absoluteX"
	StyleAbsoluteY      = "absoluteY"
	StyleAbsoluteWidth  = "absoluteWidth"
	StyleAbsoluteHeight = "absoluteHeight"
)

// Identity keys are copied from the element itself rather than from its computed style.
const (
	StyleTagName   = "tagName"
	StyleID        = "id"
	StyleClassList = "classList"
)

// Identity names a captured element. Classes is the element's class list joined by single
// spaces, in DOM order.
type Identity struct {
	Tag     string `json:"tag"`
	ID      string `json:"id,omitempty"`
	Classes string `json:"classes,omitempty"`
}

// ClassList splits Classes into its tokens.
func (i Identity) ClassList() []string {
	return strings.Fields(i.Classes)
}

// Label renders the identity the way the inspector panel does: `<div> #hero .card.wide`.
func (i Identity) Label() string {
	tag := strings.ToLower(i.Tag)
	if tag == "" {
		tag = "unknown"
	}
	var b strings.Builder
	b.WriteString("<" + tag + ">")
	if i.ID != "" {
		b.WriteString(" #" + i.ID)
	}
	if classes := i.ClassList(); len(classes) > 0 {
		b.WriteString(" ." + strings.Join(classes, "."))
	}
	return b.String()
}

// StyleMap is a flat mapping from camelCase CSS property name to the computed value.
// Values are strings or numbers; the four absolute geometry keys are always numeric.
type StyleMap map[string]any

// Lookup returns the raw value for a camelCase key. A present key holding nil is reported
// as absent.
func (m StyleMap) Lookup(key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Number coerces the value stored under key to a float64. Missing or non-numeric values
// yield 0.
func (m StyleMap) Number(key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case stdjson.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return 0
}

// ElementSnapshot is an immutable record of one element's identity and computed styles
// at capture time.
type ElementSnapshot struct {
	Identity
	Styles StyleMap `json:"styles"`
}

// NewGeometrySnapshot builds a snapshot that only carries the absolute bounding box.
// It is mostly useful for tests and synthetic inputs.
func NewGeometrySnapshot(tag, id string, x, y, width, height float64) ElementSnapshot {
	return ElementSnapshot{
		Identity: Identity{Tag: tag, ID: id},
		Styles: StyleMap{
			StyleAbsoluteX:      x,
			StyleAbsoluteY:      y,
			StyleAbsoluteWidth:  width,
			StyleAbsoluteHeight: height,
		},
	}
}
