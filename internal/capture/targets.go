package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// ErrNoTargets is returned for a targets resource without entries.
var ErrNoTargets = errors.New("no capture targets defined")

// Target is one page to capture and the elements to snapshot on it, in order.
type Target struct {
	URL       string   `json:"url" yaml:"url"`
	Selectors []string `json:"selectors" yaml:"selectors"`
}

// Validate checks that the target can be captured.
func (t Target) Validate() error {
	if strings.TrimSpace(t.URL) == "" {
		return errors.New("target url is required")
	}
	if len(t.Selectors) == 0 {
		return fmt.Errorf("target %s has no selectors", t.URL)
	}
	for i, sel := range t.Selectors {
		if strings.TrimSpace(sel) == "" {
			return fmt.Errorf("target %s has an empty selector at position %d", t.URL, i+1)
		}
	}
	return nil
}

// LoadTargets reads a YAML (.yaml/.yml) or JSON list of targets.
func LoadTargets(path string) ([]Target, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand targets path '%s': %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets from '%s': %w", expanded, err)
	}

	var targets []Target
	switch strings.ToLower(filepath.Ext(expanded)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &targets)
	default:
		err = json.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &targets)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse targets from '%s': %w", expanded, err)
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return targets, nil
}
