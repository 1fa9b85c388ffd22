// internal/style/color.go
package style

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Color is an sRGB color with a straight alpha in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

// Opaque reports whether the color has full alpha.
func (c Color) Opaque() bool {
	return c.A >= 1
}

// Canonical serializes the color as `rgb(r, g, b)` when opaque and `rgba(r, g, b, a)`
// otherwise, with alpha rounded to three decimals.
func (c Color) Canonical() string {
	alpha := math.Round(c.A*1000) / 1000
	if alpha == 0 {
		alpha = 0 // drops the sign of -0
	}
	opaque := alpha >= 1

	var b strings.Builder
	if opaque {
		b.WriteString("rgb(")
	} else {
		b.WriteString("rgba(")
	}
	b.WriteString(strconv.Itoa(int(c.R)))
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(int(c.G)))
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(int(c.B)))
	if !opaque {
		b.WriteString(", ")
		b.WriteString(strconv.FormatFloat(alpha, 'f', -1, 64))
	}
	b.WriteString(")")
	return b.String()
}

// ColorResolver turns a CSS color string into its canonical serialization. ok is false when
// the input is not a color the resolver understands.
type ColorResolver interface {
	Resolve(value string) (canonical string, ok bool)
}

// CSSColorResolver parses CSS Color 4 syntax without a browser: named colors, hex,
// rgb()/rgba() and hsl()/hsla().
type CSSColorResolver struct{}

// Resolve implements ColorResolver.
func (CSSColorResolver) Resolve(value string) (string, bool) {
	c, ok := ParseColor(value)
	if !ok {
		return "", false
	}
	return c.Canonical(), true
}

// IsNamedColor reports whether value is one of the CSS named colors or `transparent`.
func IsNamedColor(value string) bool {
	if value == "transparent" {
		return true
	}
	_, ok := colornames.Map[value]
	return ok
}

// ParseColor parses a CSS color value. Input is trimmed and lowercased first.
func ParseColor(value string) (Color, bool) {
	value = strings.TrimSpace(strings.ToLower(value))

	if value == "transparent" {
		return Color{A: 0}, true
	}
	if named, ok := colornames.Map[value]; ok {
		return Color{R: named.R, G: named.G, B: named.B, A: 1}, true
	}

	switch {
	case strings.HasPrefix(value, "#"):
		return parseHexColor(value)
	case strings.HasPrefix(value, "rgb"):
		return parseRGBColor(value)
	case strings.HasPrefix(value, "hsl"):
		return parseHSLColor(value)
	}

	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	hex = strings.TrimPrefix(hex, "#")
	for i := 0; i < len(hex); i++ {
		if _, ok := hexDigit(hex[i]); !ok {
			return Color{}, false
		}
	}

	d := func(i int) uint8 { v, _ := hexDigit(hex[i]); return v }
	c := Color{A: 1}

	switch len(hex) {
	case 3, 4:
		c.R, c.G, c.B = d(0)*17, d(1)*17, d(2)*17
		if len(hex) == 4 {
			c.A = float64(d(3)*17) / 255
		}
	case 6, 8:
		c.R = d(0)<<4 | d(1)
		c.G = d(2)<<4 | d(3)
		c.B = d(4)<<4 | d(5)
		if len(hex) == 8 {
			c.A = float64(d(6)<<4|d(7)) / 255
		}
	default:
		return Color{}, false
	}
	return c, true
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

var (
	rgbRegex = regexp.MustCompile(`^rgba?\((.*)\)$`)
	hslRegex = regexp.MustCompile(`^hsla?\((.*)\)$`)
)

// colorArgs splits the argument list of a functional color notation. Both the legacy comma
// form and the space form with a `/ alpha` suffix are accepted.
func colorArgs(body string) ([]string, bool) {
	parts := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '/' || r == '\t'
	})
	if len(parts) < 3 || len(parts) > 4 {
		return nil, false
	}
	return parts, true
}

func parseRGBColor(value string) (Color, bool) {
	matches := rgbRegex.FindStringSubmatch(value)
	if len(matches) != 2 {
		return Color{}, false
	}
	args, ok := colorArgs(matches[1])
	if !ok {
		return Color{}, false
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(args[i])
		if !ok {
			return Color{}, false
		}
		channels[i] = v
	}

	c := Color{R: channels[0], G: channels[1], B: channels[2], A: 1}
	if len(args) == 4 {
		if c.A, ok = parseAlpha(args[3]); !ok {
			return Color{}, false
		}
	}
	return c, true
}

func parseHSLColor(value string) (Color, bool) {
	matches := hslRegex.FindStringSubmatch(value)
	if len(matches) != 2 {
		return Color{}, false
	}
	args, ok := colorArgs(matches[1])
	if !ok {
		return Color{}, false
	}

	hue, ok := parseHue(args[0])
	if !ok {
		return Color{}, false
	}
	sat, ok := parsePercentage(args[1])
	if !ok {
		return Color{}, false
	}
	light, ok := parsePercentage(args[2])
	if !ok {
		return Color{}, false
	}

	r, g, b := colorful.Hsl(hue, sat, light).Clamped().RGB255()
	c := Color{R: r, G: g, B: b, A: 1}
	if len(args) == 4 {
		if c.A, ok = parseAlpha(args[3]); !ok {
			return Color{}, false
		}
	}
	return c, true
}

// parseChannel reads an rgb channel given as a number in [0, 255] or a percentage.
func parseChannel(value string) (uint8, bool) {
	if strings.HasSuffix(value, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return 0, false
		}
		return uint8(clamp(percent/100.0*255.0+0.5, 0, 255)), true
	}
	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return uint8(clamp(val+0.5, 0, 255)), true
}

func parseAlpha(value string) (float64, bool) {
	if strings.HasSuffix(value, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp(percent/100.0, 0, 1), true
	}
	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return clamp(val, 0, 1), true
}

// parsePercentage returns a fraction in [0, 1]. The % sign is optional.
func parsePercentage(value string) (float64, bool) {
	val, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	if err != nil {
		return 0, false
	}
	return clamp(val/100.0, 0, 1), true
}

// parseHue returns degrees in [0, 360).
func parseHue(value string) (float64, bool) {
	unit := 1.0
	switch {
	case strings.HasSuffix(value, "deg"):
		value = strings.TrimSuffix(value, "deg")
	case strings.HasSuffix(value, "grad"):
		value, unit = strings.TrimSuffix(value, "grad"), 0.9
	case strings.HasSuffix(value, "rad"):
		value, unit = strings.TrimSuffix(value, "rad"), 180/math.Pi
	case strings.HasSuffix(value, "turn"):
		value, unit = strings.TrimSuffix(value, "turn"), 360
	}
	val, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	deg := math.Mod(val*unit, 360)
	if deg < 0 {
		deg += 360
	}
	return deg, true
}

func clamp(v, min, max float64) float64 {
	if math.IsNaN(v) {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
