package geometry

import (
	"math"

	"github.com/xkilldash9x/stylelens/api/schemas"
)

// CalculatePairSpacing classifies how two elements' boxes relate and measures the gaps or,
// for containment, the edge-to-edge distances.
func CalculatePairSpacing(a, b schemas.ElementSnapshot) schemas.PairSpacing {
	return spacingOf(ToBoundingBox(a), ToBoundingBox(b))
}

func spacingOf(r1, r2 schemas.BoundingBox) schemas.PairSpacing {
	if isFullOverlap(r1, r2) {
		return schemas.PairSpacing{
			Relation: schemas.RelationFullOverlap,
			Distances: &schemas.OverlapDistances{
				LeftToLeft:     math.Abs(r1.Left - r2.Left),
				RightToRight:   math.Abs(r1.Right - r2.Right),
				TopToTop:       math.Abs(r1.Top - r2.Top),
				BottomToBottom: math.Abs(r1.Bottom - r2.Bottom),
			},
			Note: schemas.RelationFullOverlap.Note(),
		}
	}

	h := overlapsHorizontally(r1, r2)
	v := overlapsVertically(r1, r2)

	var out schemas.PairSpacing
	switch {
	case !h && !v:
		out = schemas.PairSpacing{
			Relation:          schemas.RelationNoOverlap,
			HorizontalSpacing: horizontalGap(r1, r2),
			VerticalSpacing:   verticalGap(r1, r2),
		}
	case h && !v:
		out = schemas.PairSpacing{
			Relation:        schemas.RelationPartialVertical,
			VerticalSpacing: verticalGap(r1, r2),
		}
	case !h && v:
		out = schemas.PairSpacing{
			Relation:          schemas.RelationPartialHorizontal,
			HorizontalSpacing: horizontalGap(r1, r2),
		}
	default:
		out = schemas.PairSpacing{Relation: schemas.RelationPartialBoth}
	}
	out.Note = out.Relation.Note()
	return out
}

// AnalyzePairs runs CalculatePairSpacing over (0,1), (2,3), ... An odd trailing element is
// returned in Unpaired rather than dropped.
func AnalyzePairs(snapshots []schemas.ElementSnapshot) schemas.PairReport {
	report := schemas.PairReport{Pairs: make([]schemas.PairResult, 0, len(snapshots)/2)}
	for i := 0; i+1 < len(snapshots); i += 2 {
		report.Pairs = append(report.Pairs, schemas.PairResult{
			Index:    i / 2,
			First:    snapshots[i].Identity,
			Second:   snapshots[i+1].Identity,
			FirstAt:  i,
			SecondAt: i + 1,
			Spacing:  CalculatePairSpacing(snapshots[i], snapshots[i+1]),
		})
	}
	if n := len(snapshots); n >= 2 && n%2 == 1 {
		report.Unpaired = &schemas.UnpairedElement{
			Element:  snapshots[n-1].Identity,
			Position: n - 1,
		}
	}
	return report
}

// isFullOverlap holds when one span contains the other on each axis. The containing box may
// differ per axis.
func isFullOverlap(r1, r2 schemas.BoundingBox) bool {
	horizontal := (r1.Left <= r2.Left && r1.Right >= r2.Right) ||
		(r2.Left <= r1.Left && r2.Right >= r1.Right)
	vertical := (r1.Top <= r2.Top && r1.Bottom >= r2.Bottom) ||
		(r2.Top <= r1.Top && r2.Bottom >= r1.Bottom)
	return horizontal && vertical
}

// Touching edges do not overlap.
func overlapsHorizontally(r1, r2 schemas.BoundingBox) bool {
	return !(r1.Right <= r2.Left || r2.Right <= r1.Left)
}

func overlapsVertically(r1, r2 schemas.BoundingBox) bool {
	return !(r1.Bottom <= r2.Top || r2.Bottom <= r1.Top)
}

func horizontalGap(r1, r2 schemas.BoundingBox) float64 {
	switch {
	case r1.Right <= r2.Left:
		return r2.Left - r1.Right
	case r2.Right <= r1.Left:
		return r1.Left - r2.Right
	}
	return 0
}

func verticalGap(r1, r2 schemas.BoundingBox) float64 {
	switch {
	case r1.Bottom <= r2.Top:
		return r2.Top - r1.Bottom
	case r2.Bottom <= r1.Top:
		return r1.Top - r2.Bottom
	}
	return 0
}
