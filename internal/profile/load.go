// Package profile loads named expected-style profiles and tracks the active selection.
package profile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/stylelens/api/schemas"
)

var (
	// ErrMalformed is returned when the resource is not a mapping of name to flat property map.
	ErrMalformed = errors.New("malformed profile data")
	// ErrNoProfiles is returned for an empty resource and by an emptied Store.
	ErrNoProfiles = errors.New("no profiles available")
	// ErrProfileNotFound is returned when selecting or fetching an unknown name.
	ErrProfileNotFound = errors.New("profile not found")
)

// Format is the encoding of a profile resource.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Set is an ordered collection of profiles keyed by name.
type Set struct {
	names    []string
	profiles map[string]*schemas.ExpectedProfile
}

// NewSet builds a set from profiles, keeping their order. Later duplicates replace earlier ones.
func NewSet(profiles ...*schemas.ExpectedProfile) *Set {
	s := &Set{profiles: make(map[string]*schemas.ExpectedProfile, len(profiles))}
	for _, p := range profiles {
		s.add(p)
	}
	return s
}

func (s *Set) add(p *schemas.ExpectedProfile) {
	if _, exists := s.profiles[p.Name]; !exists {
		s.names = append(s.names, p.Name)
	}
	s.profiles[p.Name] = p
}

// Names lists profile names in declaration order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Get returns a profile by name.
func (s *Set) Get(name string) (*schemas.ExpectedProfile, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.profiles[name]
	return p, ok
}

// Len is the number of profiles.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Load reads and parses a profile file. A leading ~ is expanded.
func Load(path string) (*Set, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand profile path '%s': %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles from '%s': %w", expanded, err)
	}
	set, err := Parse(data, FormatFromPath(expanded))
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles from '%s': %w", expanded, err)
	}
	return set, nil
}

// Parse decodes a resource whose top-level keys are profile names and whose values are flat
// mappings of kebab-case property to string or number.
func Parse(data []byte, format Format) (*Set, error) {
	var (
		set *Set
		err error
	)
	switch format {
	case FormatYAML:
		set, err = parseYAML(data)
	case FormatJSON, "":
		set, err = parseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return nil, ErrNoProfiles
	}
	return set, nil
}

func parseJSON(data []byte) (*Set, error) {
	iter := json.ParseBytes(json.ConfigCompatibleWithStandardLibrary, data)
	if iter.WhatIsNext() != json.ObjectValue {
		return nil, fmt.Errorf("%w: top level must be an object of profiles", ErrMalformed)
	}

	set := NewSet()
	var decodeErr error
	iter.ReadMapCB(func(it *json.Iterator, name string) bool {
		p, err := schemas.DecodeExpectedProfile(it, name)
		if err != nil {
			decodeErr = err
			return false
		}
		set.add(p)
		return true
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, decodeErr)
	}
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, iter.Error)
	}
	return set, nil
}

func parseYAML(data []byte) (*Set, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewSet(), nil
	}
	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping of profiles", ErrMalformed)
	}

	set := NewSet()
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		body := resolve(root.Content[i+1])
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: profile %q must be a mapping", ErrMalformed, name)
		}
		p := schemas.NewExpectedProfile(name)
		for j := 0; j+1 < len(body.Content); j += 2 {
			key := body.Content[j].Value
			value, err := yamlScalar(resolve(body.Content[j+1]))
			if err != nil {
				return nil, fmt.Errorf("%w: profile %q property %q: %v", ErrMalformed, name, key, err)
			}
			if err := p.Set(key, value); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		}
		set.add(p)
	}
	return set, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func yamlScalar(n *yaml.Node) (any, error) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return nil, errors.New("value must be a string or number")
	}
	switch n.ShortTag() {
	case "!!str":
		return n.Value, nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported value %q (%s)", n.Value, n.ShortTag())
}
