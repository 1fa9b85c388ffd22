// Package geometry derives bounding boxes from captured snapshots and analyzes how the boxes
// line up and space out relative to each other. Every function is pure over its input.
package geometry

import (
	"math"
	"math/big"
	"strconv"

	"github.com/xkilldash9x/stylelens/api/schemas"
)

// ToBoundingBox reads the absolute geometry keys of a snapshot. Missing keys read as zero.
func ToBoundingBox(s schemas.ElementSnapshot) schemas.BoundingBox {
	x := s.Styles.Number(schemas.StyleAbsoluteX)
	y := s.Styles.Number(schemas.StyleAbsoluteY)
	w := s.Styles.Number(schemas.StyleAbsoluteWidth)
	h := s.Styles.Number(schemas.StyleAbsoluteHeight)
	return schemas.BoundingBox{
		Identity: s.Identity,
		Left:     x,
		Top:      y,
		Right:    x + w,
		Bottom:   y + h,
		Width:    w,
		Height:   h,
	}
}

// VerticalCenter is left + width/2. The name follows the panel's axis naming, which measures
// this center along x.
func VerticalCenter(b schemas.BoundingBox) float64 {
	return b.Left + b.Width/2
}

// HorizontalCenter is top + height/2, measured along y.
func HorizontalCenter(b schemas.BoundingBox) float64 {
	return b.Top + b.Height/2
}

// AxisValue returns the coordinate of b along one alignment axis.
func AxisValue(b schemas.BoundingBox, axis schemas.Axis) float64 {
	switch axis {
	case schemas.AxisTop:
		return b.Top
	case schemas.AxisBottom:
		return b.Bottom
	case schemas.AxisLeft:
		return b.Left
	case schemas.AxisRight:
		return b.Right
	case schemas.AxisVerticalCenter:
		return VerticalCenter(b)
	case schemas.AxisHorizontalCenter:
		return HorizontalCenter(b)
	}
	return math.NaN()
}

// PixelTolerance is the largest distance still reported as aligned.
const PixelTolerance = 0.5

// PixelDiff returns 0 when a and b are within PixelTolerance and otherwise a-b rounded to
// two decimals, sign kept. Halfway cases round away from zero.
func PixelDiff(a, b float64) float64 {
	d := a - b
	if math.Abs(d) <= PixelTolerance {
		return 0
	}
	return roundHundredths(d)
}

// roundHundredths rounds on the exact binary value of d, so 1.005 (stored as 1.00499...)
// becomes 1 while 0.625 becomes 0.63.
func roundHundredths(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return d
	}
	x := new(big.Float).SetPrec(256).SetFloat64(math.Abs(d))
	x.Mul(x, big.NewFloat(100))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	r, err := strconv.ParseFloat(n.String()+"e-2", 64)
	if err != nil {
		return d
	}
	if d < 0 {
		r = -r
	}
	return r
}

// FormatFixed2 renders v with exactly two decimals using the same halfway rule as
// PixelDiff, so a center of 12.125 prints as "12.13".
func FormatFixed2(v float64) string {
	return strconv.FormatFloat(roundHundredths(v), 'f', 2, 64)
}

// FormatPixels renders v in the shortest form followed by "px", e.g. "12.5px".
func FormatPixels(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
