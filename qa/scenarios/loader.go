// Package scenarios runs YAML delivery scenarios against an event bus. A
// scenario registers each and last callbacks for events.Sample, pushes
// values, processes the bus and compares what every callback received with
// the expected deliveries.
package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Step is one action of a scenario. Exactly one field must be set.
type Step struct {
	Push     []int  `yaml:"push,omitempty"`
	Process  bool   `yaml:"process,omitempty"`
	Flush    bool   `yaml:"flush,omitempty"`
	Register string `yaml:"register,omitempty"`
}

func (s Step) validate() error {
	n := 0
	if len(s.Push) > 0 {
		n++
	}
	if s.Process {
		n++
	}
	if s.Flush {
		n++
	}
	if s.Register != "" {
		if s.Register != "each" && s.Register != "last" {
			return fmt.Errorf("unknown callback mode %q", s.Register)
		}
		n++
	}
	if n != 1 {
		return fmt.Errorf("step must define exactly one action, got %d", n)
	}
	return nil
}

// Pending is the number of values still queued per mode.
type Pending struct {
	Each int `yaml:"each"`
	Last int `yaml:"last"`
}

// Expected lists, per callback in registration order, the values it
// received.
type Expected struct {
	Each    [][]int  `yaml:"each"`
	Last    [][]int  `yaml:"last"`
	Pending *Pending `yaml:"pending,omitempty"`
}

type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Steps       []Step   `yaml:"steps"`
	Expected    Expected `yaml:"expected"`
}

// Validate checks the scenario structure.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("%s step %d: %w", sc.Name, i+1, err)
		}
	}
	return nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadAll loads path, or every *.yaml file in it when path is a directory.
func LoadAll(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	files := []string{path}
	if info.IsDir() {
		if files, err = filepath.Glob(filepath.Join(path, "*.yaml")); err != nil {
			return nil, err
		}
		sort.Strings(files)
	}
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
