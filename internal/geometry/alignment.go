package geometry

import "github.com/xkilldash9x/stylelens/api/schemas"

// ValidateAlignment measures every element after the first against the first, along all six
// axes. With fewer than two elements every axis is present and empty.
func ValidateAlignment(snapshots []schemas.ElementSnapshot) schemas.AlignmentReport {
	report := schemas.AlignmentReport{
		Axes:   make(map[schemas.Axis][]schemas.AxisEntry, len(schemas.Axes())),
		Values: make([]schemas.AxisValues, 0, len(snapshots)),
	}
	for _, axis := range schemas.Axes() {
		report.Axes[axis] = []schemas.AxisEntry{}
	}

	boxes := make([]schemas.BoundingBox, len(snapshots))
	for i, s := range snapshots {
		boxes[i] = ToBoundingBox(s)
		report.Values = append(report.Values, axisValues(i, boxes[i]))
	}

	if len(boxes) < 2 {
		return report
	}

	ref := boxes[0]
	refID := ref.Identity
	report.Reference = &refID

	for i := 1; i < len(boxes); i++ {
		for _, axis := range schemas.Axes() {
			report.Axes[axis] = append(report.Axes[axis], schemas.AxisEntry{
				Element:  boxes[i].Identity,
				Position: i,
				Diff:     PixelDiff(AxisValue(boxes[i], axis), AxisValue(ref, axis)),
			})
		}
	}
	return report
}

func axisValues(pos int, b schemas.BoundingBox) schemas.AxisValues {
	return schemas.AxisValues{
		Element:  b.Identity,
		Position: pos,
		Left:     b.Left,
		Top:      b.Top,
		Width:    b.Width,
		Height:   b.Height,
		Right:    b.Right,
		Bottom:   b.Bottom,
		CenterX:  VerticalCenter(b),
		CenterY:  HorizontalCenter(b),
	}
}
