package schemas

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// -- Expected Profile Schemas --

// ExpectedProfile is a named, ordered mapping from kebab-case CSS property to the expected raw
// value. Values are strings or float64s. Declaration order is kept so that renderers can list
// results the way the profile author wrote them.
type ExpectedProfile struct {
	Name   string
	keys   []string
	values map[string]any
}

// NewExpectedProfile creates an empty profile.
func NewExpectedProfile(name string) *ExpectedProfile {
	return &ExpectedProfile{Name: name, values: make(map[string]any)}
}

// Set assigns a value, appending the key if it is new. Only strings and numbers are accepted.
func (p *ExpectedProfile) Set(key string, value any) error {
	v, err := coerceExpected(value)
	if err != nil {
		return fmt.Errorf("property %q: %w", key, err)
	}
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
	return nil
}

// Get returns the raw expected value for a kebab-case key.
func (p *ExpectedProfile) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Keys returns the property names in declaration order.
func (p *ExpectedProfile) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len is the number of declared properties.
func (p *ExpectedProfile) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// MarshalJSON writes the properties as a JSON object in declaration order.
func (p *ExpectedProfile) MarshalJSON() ([]byte, error) {
	stream := json.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer json.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, k := range p.keys {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(k)
		stream.WriteVal(p.values[k])
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON reads a flat JSON object, keeping key order. The profile name is not part of
// the object and is left untouched.
func (p *ExpectedProfile) UnmarshalJSON(data []byte) error {
	iter := json.ParseBytes(json.ConfigCompatibleWithStandardLibrary, data)
	decoded, err := DecodeExpectedProfile(iter, p.Name)
	if err != nil {
		return err
	}
	p.keys, p.values = decoded.keys, decoded.values
	return nil
}

// DecodeExpectedProfile reads one flat object from iter. It is shared by the single-profile
// unmarshaller and the profile set loader so both reject the same shapes.
func DecodeExpectedProfile(iter *json.Iterator, name string) (*ExpectedProfile, error) {
	if next := iter.WhatIsNext(); next != json.ObjectValue {
		return nil, fmt.Errorf("profile %q: expected an object of properties", name)
	}
	profile := NewExpectedProfile(name)
	var setErr error
	iter.ReadMapCB(func(it *json.Iterator, field string) bool {
		switch it.WhatIsNext() {
		case json.StringValue:
			setErr = profile.Set(field, it.ReadString())
		case json.NumberValue:
			setErr = profile.Set(field, it.ReadFloat64())
		default:
			setErr = fmt.Errorf("profile %q property %q: value must be a string or number", name, field)
		}
		return setErr == nil
	})
	if setErr != nil {
		return nil, setErr
	}
	if iter.Error != nil {
		return nil, fmt.Errorf("profile %q: %w", name, iter.Error)
	}
	return profile, nil
}

func coerceExpected(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("unsupported expected value type %T", value)
}

// -- Validation Result Schemas --

// Verdict is the tri-state outcome for one expected property.
type Verdict int

const (
	// VerdictUnknown means the property was absent on the element. It is not a failure.
	VerdictUnknown Verdict = iota
	VerdictMatch
	VerdictMismatch
)

// VerdictOf converts a boolean comparison into a Verdict.
func VerdictOf(match bool) Verdict {
	if match {
		return VerdictMatch
	}
	return VerdictMismatch
}

func (v Verdict) String() string {
	switch v {
	case VerdictMatch:
		return "match"
	case VerdictMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the verdict as true, false or null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictMatch:
		return []byte("true"), nil
	case VerdictMismatch:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false or null.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*v = VerdictMatch
	case "false":
		*v = VerdictMismatch
	case "null":
		*v = VerdictUnknown
	default:
		return fmt.Errorf("invalid verdict %s", data)
	}
	return nil
}

// ValidationResult maps each kebab-case property of a profile to its verdict. Use the
// profile's Keys for a stable iteration order.
type ValidationResult map[string]Verdict

// ValidationSummary counts verdicts per outcome.
type ValidationSummary struct {
	Matched    int `json:"matched"`
	Mismatched int `json:"mismatched"`
	Unknown    int `json:"unknown"`
}

// Summarize tallies a result.
func (r ValidationResult) Summarize() ValidationSummary {
	var s ValidationSummary
	for _, v := range r {
		switch v {
		case VerdictMatch:
			s.Matched++
		case VerdictMismatch:
			s.Mismatched++
		default:
			s.Unknown++
		}
	}
	return s
}

// ElementValidation is the validation outcome for one captured element. Position is the
// zero-based index in the captured sequence.
type ElementValidation struct {
	Element  Identity          `json:"element"`
	Position int               `json:"position"`
	Results  ValidationResult  `json:"results"`
	Summary  ValidationSummary `json:"summary"`
}

// Passed reports whether no asserted property mismatched.
func (e ElementValidation) Passed() bool {
	return e.Summary.Mismatched == 0
}
