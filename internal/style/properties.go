// internal/style/properties.go
package style

import (
	"fmt"
	"strings"
)

// Group is a display section of the element card.
type Group string

const (
	GroupTagInfo      Group = "Tag Info"
	GroupLayout       Group = "Layout"
	GroupMargin       Group = "Margin"
	GroupPadding      Group = "Padding"
	GroupBorderRadius Group = "Border Radius"
	GroupTypography   Group = "Typography"
	GroupColor        Group = "Color & Background"
)

// Groups lists the card sections in display order.
func Groups() []Group {
	return []Group{GroupTagInfo, GroupLayout, GroupMargin, GroupPadding, GroupBorderRadius, GroupTypography, GroupColor}
}

// Property is one entry of the naming table. Kebab is the profile-facing name, Camel the
// StyleMap key and Label the row title on an element card.
type Property struct {
	Kebab string
	Camel string
	Label string
	Group Group
	// Element is set for identity rows read off the element rather than its computed style.
	Element bool
}

// Schema is a validated bidirectional kebab/camel lookup over a fixed property list.
type Schema struct {
	props   []Property
	byKebab map[string]int
	byCamel map[string]int
}

// BuildSchema validates props and indexes them. Names must be unique in both conventions and
// the camel name must be the mechanical conversion of the kebab name.
func BuildSchema(props []Property) (*Schema, error) {
	s := &Schema{
		props:   make([]Property, 0, len(props)),
		byKebab: make(map[string]int, len(props)),
		byCamel: make(map[string]int, len(props)),
	}
	for _, p := range props {
		if p.Kebab == "" || p.Camel == "" {
			return nil, fmt.Errorf("property %+v: empty name", p)
		}
		if p.Kebab != strings.ToLower(p.Kebab) {
			return nil, fmt.Errorf("property %q: kebab name must be lowercase", p.Kebab)
		}
		if want := KebabToCamel(p.Kebab); want != p.Camel {
			return nil, fmt.Errorf("property %q: camel name %q does not match %q", p.Kebab, p.Camel, want)
		}
		if _, dup := s.byKebab[p.Kebab]; dup {
			return nil, fmt.Errorf("property %q declared twice", p.Kebab)
		}
		if _, dup := s.byCamel[p.Camel]; dup {
			return nil, fmt.Errorf("property %q declared twice", p.Camel)
		}
		if p.Label == "" {
			p.Label = p.Kebab
		}
		s.byKebab[p.Kebab] = len(s.props)
		s.byCamel[p.Camel] = len(s.props)
		s.props = append(s.props, p)
	}
	return s, nil
}

// MustBuildSchema is BuildSchema for package-level tables; it panics on an invalid table.
func MustBuildSchema(props []Property) *Schema {
	s, err := BuildSchema(props)
	if err != nil {
		panic("style: invalid property schema: " + err.Error())
	}
	return s
}

// Lookup finds a property by its kebab-case name.
func (s *Schema) Lookup(kebab string) (Property, bool) {
	i, ok := s.byKebab[kebab]
	if !ok {
		return Property{}, false
	}
	return s.props[i], true
}

// CamelName returns the StyleMap key for a kebab-case property. Properties outside the table
// fall back to the mechanical conversion.
func (s *Schema) CamelName(kebab string) string {
	if i, ok := s.byKebab[kebab]; ok {
		return s.props[i].Camel
	}
	return KebabToCamel(kebab)
}

// KebabName is the inverse of CamelName.
func (s *Schema) KebabName(camel string) string {
	if i, ok := s.byCamel[camel]; ok {
		return s.props[i].Kebab
	}
	return CamelToKebab(camel)
}

// Properties returns the full table in declaration order.
func (s *Schema) Properties() []Property {
	out := make([]Property, len(s.props))
	copy(out, s.props)
	return out
}

// InGroup returns the properties of one card section in display order.
func (s *Schema) InGroup(g Group) []Property {
	var out []Property
	for _, p := range s.props {
		if p.Group == g {
			out = append(out, p)
		}
	}
	return out
}

// ComputedKeys lists the camelCase keys read from getComputedStyle.
func (s *Schema) ComputedKeys() []string {
	var out []string
	for _, p := range s.props {
		if !p.Element {
			out = append(out, p.Camel)
		}
	}
	return out
}

// KebabToCamel upper-cases every lowercase letter that follows a hyphen and drops the hyphen.
// Other hyphens are kept, so "--x" stays "-X".
func KebabToCamel(kebab string) string {
	var b strings.Builder
	b.Grow(len(kebab))
	for i := 0; i < len(kebab); i++ {
		c := kebab[i]
		if c == '-' && i+1 < len(kebab) && kebab[i+1] >= 'a' && kebab[i+1] <= 'z' {
			b.WriteByte(kebab[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// CamelToKebab lower-cases every ASCII uppercase letter and prefixes it with a hyphen.
func CamelToKebab(camel string) string {
	var b strings.Builder
	b.Grow(len(camel) + 4)
	for i := 0; i < len(camel); i++ {
		c := camel[i]
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('-')
			b.WriteByte(c - 'A' + 'a')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func props(g Group, kebabs ...string) []Property {
	out := make([]Property, 0, len(kebabs))
	for _, k := range kebabs {
		out = append(out, Property{Kebab: k, Camel: KebabToCamel(k), Group: g})
	}
	return out
}

func defaultProperties() []Property {
	all := []Property{
		{Kebab: "tag-name", Camel: "tagName", Label: "Tag", Group: GroupTagInfo, Element: true},
		{Kebab: "id", Camel: "id", Label: "Id", Group: GroupTagInfo, Element: true},
		{Kebab: "class-list", Camel: "classList", Label: "Classes", Group: GroupTagInfo, Element: true},
	}
	all = append(all, props(GroupLayout,
		"display", "position", "top", "right", "bottom", "left", "width", "height",
		"max-width", "max-height", "min-width", "min-height", "box-sizing")...)
	all = append(all, props(GroupMargin, "margin-top", "margin-right", "margin-bottom", "margin-left")...)
	all = append(all, props(GroupPadding, "padding-top", "padding-right", "padding-bottom", "padding-left")...)
	all = append(all, props(GroupBorderRadius,
		"border-top-left-radius", "border-top-right-radius",
		"border-bottom-right-radius", "border-bottom-left-radius")...)
	all = append(all, props(GroupTypography,
		"font-family", "font-size", "font-weight", "font-style", "font-variant",
		"letter-spacing", "line-height", "text-align", "text-decoration", "text-indent",
		"text-shadow", "text-transform", "white-space", "word-spacing", "word-break", "word-wrap")...)
	all = append(all, props(GroupColor,
		"color", "background", "background-color", "background-image", "background-position",
		"background-repeat", "background-size", "background-attachment", "opacity")...)
	return all
}

// DefaultSchema covers every property shown on an element card.
var DefaultSchema = MustBuildSchema(defaultProperties())
