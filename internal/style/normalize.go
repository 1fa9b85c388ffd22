// internal/style/normalize.go
package style

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies what a normalized value represents.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindColor
	KindKeyword
	KindBool
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindColor:
		return "color"
	case KindKeyword:
		return "keyword"
	case KindBool:
		return "bool"
	default:
		return "other"
	}
}

// Primitive is the comparable form of a CSS value. Exactly one of Number or Text is
// meaningful, depending on Kind.
type Primitive struct {
	Kind   Kind
	Number float64
	Text   string
}

// Equal is strict: same kind and identical value. NaN never equals anything.
func (p Primitive) Equal(o Primitive) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case KindNumber:
		return p.Number == o.Number
	case KindNull:
		return true
	default:
		return p.Text == o.Text
	}
}

func (p Primitive) String() string {
	switch p.Kind {
	case KindNumber:
		return strconv.FormatFloat(p.Number, 'f', -1, 64)
	case KindNull:
		return "null"
	default:
		return p.Text
	}
}

// Normalizer converts raw computed or expected CSS values into Primitives.
type Normalizer struct {
	Colors ColorResolver
}

// NewNormalizer creates a normalizer. A nil resolver selects CSSColorResolver.
func NewNormalizer(colors ColorResolver) *Normalizer {
	if colors == nil {
		colors = CSSColorResolver{}
	}
	return &Normalizer{Colors: colors}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize uses the package default normalizer.
func Normalize(raw any) Primitive {
	return defaultNormalizer.Normalize(raw)
}

// Normalize maps raw to its canonical comparable form:
//   - non-string values pass through (numbers stay numbers, a Primitive is returned as is)
//   - strings are trimmed and lowercased
//   - color-looking strings become the canonical rgb()/rgba() serialization
//   - strings with a leading number become that number, units discarded
//   - anything else is a keyword
func (n *Normalizer) Normalize(raw any) Primitive {
	switch v := raw.(type) {
	case Primitive:
		return v
	case nil:
		return Primitive{Kind: KindNull}
	case string:
		return n.normalizeString(v)
	case float64:
		return Primitive{Kind: KindNumber, Number: v}
	case float32:
		return Primitive{Kind: KindNumber, Number: float64(v)}
	case int:
		return Primitive{Kind: KindNumber, Number: float64(v)}
	case int32:
		return Primitive{Kind: KindNumber, Number: float64(v)}
	case int64:
		return Primitive{Kind: KindNumber, Number: float64(v)}
	case uint:
		return Primitive{Kind: KindNumber, Number: float64(v)}
	case uint64:
		return Primitive{Kind: KindNumber, Number: float64(v)}
	case bool:
		if v {
			return Primitive{Kind: KindBool, Text: "true"}
		}
		return Primitive{Kind: KindBool, Text: "false"}
	case fmt.Stringer:
		return Primitive{Kind: KindOther, Text: v.String()}
	default:
		return Primitive{Kind: KindOther, Text: fmt.Sprintf("%v", v)}
	}
}

func (n *Normalizer) normalizeString(s string) Primitive {
	s = strings.ToLower(strings.TrimSpace(s))

	if LooksLikeColor(s) {
		if canonical, ok := n.Colors.Resolve(s); ok {
			return Primitive{Kind: KindColor, Text: canonical}
		}
		return Primitive{Kind: KindKeyword, Text: s}
	}

	if num, ok := LeadingNumber(s); ok {
		return Primitive{Kind: KindNumber, Number: num}
	}
	return Primitive{Kind: KindKeyword, Text: s}
}

// LooksLikeColor reports whether a trimmed, lowercased value should be treated as a color.
func LooksLikeColor(s string) bool {
	return strings.HasPrefix(s, "rgb") ||
		strings.HasPrefix(s, "#") ||
		strings.HasPrefix(s, "hsl") ||
		IsNamedColor(s)
}

var leadingNumber = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`)

// LeadingNumber parses the longest numeric prefix of s, so "12.5px" is 12.5 and ".5em" is 0.5.
func LeadingNumber(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f")
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	// The only possible error is a range error, and ParseFloat still returns ±Inf for it.
	f, _ := strconv.ParseFloat(m, 64)
	return f, true
}
