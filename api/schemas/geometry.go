package schemas

// -- Geometry Schemas --

// BoundingBox is the page-coordinate box of a captured element, derived from the
// absolute geometry keys of its StyleMap.
type BoundingBox struct {
	Identity
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Axis names an alignment axis.
type Axis string

// The six alignment axes. The two center axes keep the names used by the inspector panel:
// AxisVerticalCenter is measured along x (left + width/2) and AxisHorizontalCenter along y
// (top + height/2). Renderers label columns with these names, so they are not swapped.
const (
	AxisTop              Axis = "top"
	AxisBottom           Axis = "bottom"
	AxisLeft             Axis = "left"
	AxisRight            Axis = "right"
	AxisVerticalCenter   Axis = "verticalCenter"
	AxisHorizontalCenter Axis = "horizontalCenter"
)

// Axes lists every axis in display order.
func Axes() []Axis {
	return []Axis{AxisTop, AxisBottom, AxisLeft, AxisRight, AxisVerticalCenter, AxisHorizontalCenter}
}

// Title is the human readable axis label.
func (a Axis) Title() string {
	switch a {
	case AxisTop:
		return "Top"
	case AxisBottom:
		return "Bottom"
	case AxisLeft:
		return "Left"
	case AxisRight:
		return "Right"
	case AxisVerticalCenter:
		return "Vertical Center"
	case AxisHorizontalCenter:
		return "Horizontal Center"
	}
	return string(a)
}

// AxisEntry is one non-reference element's offset from the reference along an axis.
// Diff is zero when within half a pixel, otherwise signed and rounded to two decimals.
type AxisEntry struct {
	Element  Identity `json:"element"`
	Position int      `json:"position"`
	Diff     float64  `json:"diff"`
}

// Aligned reports whether the entry sits on the reference line.
func (e AxisEntry) Aligned() bool {
	return e.Diff == 0
}

// AxisValues are the absolute bounding values of one element, as shown in the alignment
// summary table. CenterX and CenterY are the verticalCenter and horizontalCenter values.
type AxisValues struct {
	Element  Identity `json:"element"`
	Position int      `json:"position"`
	Left     float64  `json:"left"`
	Top      float64  `json:"top"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Right    float64  `json:"right"`
	Bottom   float64  `json:"bottom"`
	CenterX  float64  `json:"centerX"`
	CenterY  float64  `json:"centerY"`
}

// AlignmentReport holds, per axis, the offsets of every element after the first from the
// first (reference) element. With fewer than two elements all six axes are present and empty
// and Reference is nil.
type AlignmentReport struct {
	Reference *Identity            `json:"reference,omitempty"`
	Axes      map[Axis][]AxisEntry `json:"axes"`
	Values    []AxisValues         `json:"values,omitempty"`
}

// Entries returns the sequence for one axis.
func (r *AlignmentReport) Entries(axis Axis) []AxisEntry {
	if r == nil {
		return nil
	}
	return r.Axes[axis]
}

// Relation classifies the geometric relationship of two bounding boxes.
type Relation string

const (
	RelationFullOverlap       Relation = "Full Overlap"
	RelationNoOverlap         Relation = "No Overlap"
	RelationPartialVertical   Relation = "Partial Vertical Overlap"
	RelationPartialHorizontal Relation = "Partial Horizontal Overlap"
	RelationPartialBoth       Relation = "Partial Horizontal + Vertical Overlap"
)

// Note is the fixed description shown next to a relation.
func (r Relation) Note() string {
	switch r {
	case RelationFullOverlap:
		return "One element fully contains the other"
	case RelationNoOverlap:
		return "Elements separated horizontally and vertically"
	case RelationPartialVertical:
		return "Elements overlap horizontally but separated vertically"
	case RelationPartialHorizontal:
		return "Elements overlap vertically but separated horizontally"
	case RelationPartialBoth:
		return "Elements overlap both horizontally and vertically partially"
	}
	return ""
}

// OverlapDistances are the absolute differences between corresponding edges of two boxes
// where one contains the other.
type OverlapDistances struct {
	LeftToLeft     float64 `json:"leftToLeft"`
	RightToRight   float64 `json:"rightToRight"`
	TopToTop       float64 `json:"topToTop"`
	BottomToBottom float64 `json:"bottomToBottom"`
}

// PairSpacing is the classified relationship of two elements. Distances is only set for
// RelationFullOverlap.
type PairSpacing struct {
	Relation          Relation          `json:"relation"`
	Distances         *OverlapDistances `json:"distances,omitempty"`
	HorizontalSpacing float64           `json:"horizontalSpacing"`
	VerticalSpacing   float64           `json:"verticalSpacing"`
	Note              string            `json:"note"`
}

// PairResult ties a PairSpacing to the two elements it was computed from. Index is the
// zero-based pair number.
type PairResult struct {
	Index    int         `json:"index"`
	First    Identity    `json:"first"`
	Second   Identity    `json:"second"`
	FirstAt  int         `json:"firstPosition"`
	SecondAt int         `json:"secondPosition"`
	Spacing  PairSpacing `json:"spacing"`
}

// UnpairedElement is the trailing element of an odd-length selection.
type UnpairedElement struct {
	Element  Identity `json:"element"`
	Position int      `json:"position"`
}

// PairReport is the ordered spacing analysis of consecutive disjoint pairs.
type PairReport struct {
	Pairs    []PairResult     `json:"pairs"`
	Unpaired *UnpairedElement `json:"unpaired,omitempty"`
}
