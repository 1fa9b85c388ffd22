package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input     string
		canonical string
		ok        bool
	}{
		// Keywords
		{"red", "rgb(255, 0, 0)", true},
		{"Green", "rgb(0, 128, 0)", true},
		{"rebeccapurple", "", false},
		{"transparent", "rgba(0, 0, 0, 0)", true},
		// Hex
		{"#ff0099", "rgb(255, 0, 153)", true},
		{"#F09", "rgb(255, 0, 153)", true},
		{"#ff009988", "rgba(255, 0, 153, 0.533)", true},
		{"#f098", "rgba(255, 0, 153, 0.533)", true},
		{"#ff0000ff", "rgb(255, 0, 0)", true},
		// RGB/RGBA
		{"rgb(255, 0, 153)", "rgb(255, 0, 153)", true},
		{"rgb(255,0,153)", "rgb(255, 0, 153)", true},
		{"rgba(0, 0, 0, 0.5)", "rgba(0, 0, 0, 0.5)", true},
		{"rgb(100%, 50%, 0%)", "rgb(255, 128, 0)", true}, // 127.5 rounds up
		{"rgb(255 0 0 / 50%)", "rgba(255, 0, 0, 0.5)", true},
		{"rgb(300, -20, 12.4)", "rgb(255, 0, 12)", true},
		{"rgba(1, 2, 3, 1)", "rgb(1, 2, 3)", true},
		// HSL
		{"hsl(0, 100%, 50%)", "rgb(255, 0, 0)", true},
		{"hsl(120, 100%, 25%)", "rgb(0, 128, 0)", true},
		{"hsl(0.5turn 100% 50%)", "rgb(0, 255, 255)", true},
		{"hsla(0, 0%, 0%, 0.25)", "rgba(0, 0, 0, 0.25)", true},
		// Invalid
		{"invalidcolor", "", false},
		{"#12345", "", false},
		{"#ggg", "", false},
		{"rgb(1, 2)", "", false},
		{"rgb(a, b, c)", "", false},
		{"hsl(red, 1%, 1%)", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			actual, ok := ParseColor(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.canonical, actual.Canonical())
			}
		})
	}
}

func TestColorCanonicalIsStable(t *testing.T) {
	inputs := []string{"#ff009988", "rgba(10, 20, 30, 0.3333)", "hsl(200, 40%, 40%)", "transparent", "rgba(0,0,0,0.9999)"}
	for _, in := range inputs {
		c, ok := ParseColor(in)
		assert.True(t, ok, in)
		again, ok := ParseColor(c.Canonical())
		assert.True(t, ok, in)
		assert.Equal(t, c.Canonical(), again.Canonical(), "canonical form of %q must reparse to itself", in)
	}
}

func TestParseHue(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"90", 90},
		{"90deg", 90},
		{"-90", 270},
		{"400grad", 0},
		{"0.25turn", 90},
		{"720", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			deg, ok := parseHue(tt.input)
			assert.True(t, ok)
			assert.InDelta(t, tt.expected, deg, 1e-9)
		})
	}

	rad, ok := parseHue("3.14159265358979rad")
	assert.True(t, ok)
	assert.InDelta(t, 180, rad, 1e-6)
}

func TestIsNamedColor(t *testing.T) {
	assert.True(t, IsNamedColor("red"))
	assert.True(t, IsNamedColor("transparent"))
	assert.True(t, IsNamedColor("lightgoldenrodyellow"))
	assert.False(t, IsNamedColor("solid"))
	assert.False(t, IsNamedColor("Red"), "callers lowercase before asking")
}
