package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a template
type Definition struct {
	DoActions bool        `yaml:"doActions,omitempty"`
	Regions   []RegionDef `yaml:"regions"`
}

type RegionDef struct {
	Initial string     `yaml:"initial"`
	History bool       `yaml:"history,omitempty"`
	States  []StateDef `yaml:"states"`
}

type StateDef struct {
	Name        string          `yaml:"name"`
	Entry       string          `yaml:"entry,omitempty"`
	Exit        string          `yaml:"exit,omitempty"`
	Do          string          `yaml:"do,omitempty"`
	Transitions []TransitionDef `yaml:"transitions,omitempty"`
	Regions     []RegionDef     `yaml:"regions,omitempty"`
}

// TransitionDef declares a transition. An empty Event declares a
// completion transition; From restricts the source configuration.
type TransitionDef struct {
	Name   string   `yaml:"name"`
	Event  string   `yaml:"event,omitempty"`
	From   []string `yaml:"from,omitempty"`
	To     []string `yaml:"to"`
	Guard  string   `yaml:"guard,omitempty"`
	Action string   `yaml:"action,omitempty"`
}

// Parse decodes and validates a YAML definition. Unknown fields are rejected.
func Parse(data []byte) (*Definition, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a YAML definition from r
func Decode(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Definition
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
		}
		return nil, errors.Join(ErrFailedToParseYAML, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile reads a definition from a YAML file
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definition: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Marshal encodes d as YAML
func (d *Definition) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Validate checks the shape of the definition. Names, targets and nesting
// rules are checked again by the Builder when compiling.
func (d *Definition) Validate() error {
	if len(d.Regions) != 1 {
		return fmt.Errorf("%w: expected exactly one root region, got %d", ErrInvalidDefinition, len(d.Regions))
	}
	return validateRegion(d.Regions[0], "regions[0]")
}

func validateRegion(r RegionDef, path string) error {
	if r.Initial == "" {
		return fmt.Errorf("%w: %s: missing initial state", ErrInvalidDefinition, path)
	}
	if len(r.States) == 0 {
		return fmt.Errorf("%w: %s: region has no states", ErrInvalidDefinition, path)
	}
	for i, s := range r.States {
		statePath := fmt.Sprintf("%s.states[%d]", path, i)
		if s.Name == "" {
			return fmt.Errorf("%w: %s: missing name", ErrInvalidDefinition, statePath)
		}
		for j, t := range s.Transitions {
			transitionPath := fmt.Sprintf("%s.transitions[%d]", statePath, j)
			if t.Name == "" {
				return fmt.Errorf("%w: %s: missing name", ErrInvalidDefinition, transitionPath)
			}
			if len(t.To) == 0 {
				return fmt.Errorf("%w: %s: transition '%s' has no target", ErrInvalidDefinition, transitionPath, t.Name)
			}
		}
		for j, sub := range s.Regions {
			if err := validateRegion(sub, fmt.Sprintf("%s.regions[%d]", statePath, j)); err != nil {
				return err
			}
		}
	}
	return nil
}
