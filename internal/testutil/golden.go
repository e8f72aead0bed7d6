// Package testutil provides shared test helpers for wordbind tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the scenarios.
const ScenariosDir = "testdata/scenarios"

// Scenario is one golden case loaded from a YAML file.
type Scenario struct {
	// Name is the file name without its extension.
	Name string `yaml:"-"`

	Cmd    []string       `yaml:"cmd"`
	Lib    string         `yaml:"lib,omitempty"`
	Parent string         `yaml:"parent,omitempty"`
	Source string         `yaml:"source"`
	Meta   *ScenarioMeta  `yaml:"meta,omitempty"`
	Expect ExpectedResult `yaml:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Tags []string `yaml:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode       int    `yaml:"exitCode"`
	StdoutText     string `yaml:"stdoutText,omitempty"`
	StdoutContains string `yaml:"stdoutContains,omitempty"`
	ErrorCode      string `yaml:"errorCode,omitempty"`
	Unbound        *int   `yaml:"unbound,omitempty"`
}

// LoadScenario decodes the scenario at path. Unknown fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	if len(s.Cmd) == 0 {
		return nil, errors.Errorf("%s: cmd is empty", path)
	}
	s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &s, nil
}

// ListScenarios returns the scenario files under root, sorted by name.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// HasFlag reports whether the scenario command carries flag.
func (s *Scenario) HasFlag(flag string) bool {
	for _, arg := range s.Cmd[1:] {
		if arg == flag {
			return true
		}
	}
	return false
}
