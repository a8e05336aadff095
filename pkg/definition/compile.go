package definition

import (
	"fmt"

	"github.com/anggasct/statechart"
)

// Compile resolves the callback names of d in reg and builds the template.
// A nil registry is fine for definitions without callbacks.
func (d *Definition) Compile(reg *Registry, opts ...statechart.TemplateOption) (*statechart.Template, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if d.DoActions {
		opts = append([]statechart.TemplateOption{statechart.WithDoActions()}, opts...)
	}

	c := &compiler{b: statechart.NewBuilder(opts...), reg: reg}
	if err := c.region(d.Regions[0], "regions[0]"); err != nil {
		return nil, err
	}
	return c.b.Build()
}

type compiler struct {
	b   *statechart.Builder
	reg *Registry
}

func (c *compiler) region(r RegionDef, path string) error {
	c.b.Region(r.Initial, r.History)
	for i, s := range r.States {
		if err := c.state(s, fmt.Sprintf("%s.states[%d]", path, i)); err != nil {
			return err
		}
	}
	c.b.EndRegion()
	return nil
}

func (c *compiler) state(s StateDef, path string) error {
	var opts []statechart.StateOption
	if s.Entry != "" {
		fn, err := c.reg.action(s.Entry)
		if err != nil {
			return fmt.Errorf("%s: entry: %w", path, err)
		}
		opts = append(opts, statechart.OnEntry(fn))
	}
	if s.Exit != "" {
		fn, err := c.reg.action(s.Exit)
		if err != nil {
			return fmt.Errorf("%s: exit: %w", path, err)
		}
		opts = append(opts, statechart.OnExit(fn))
	}
	if s.Do != "" {
		fn, err := c.reg.doAction(s.Do)
		if err != nil {
			return fmt.Errorf("%s: do: %w", path, err)
		}
		opts = append(opts, statechart.OnDo(fn))
	}

	c.b.State(s.Name, opts...)
	for i, t := range s.Transitions {
		if err := c.transition(t, fmt.Sprintf("%s.transitions[%d]", path, i)); err != nil {
			return err
		}
	}
	for i, sub := range s.Regions {
		if err := c.region(sub, fmt.Sprintf("%s.regions[%d]", path, i)); err != nil {
			return err
		}
	}
	c.b.EndState()
	return nil
}

func (c *compiler) transition(t TransitionDef, path string) error {
	var opts []statechart.TransitionOption
	if len(t.From) > 0 {
		opts = append(opts, statechart.From(t.From...))
	}
	if t.Guard != "" {
		fn, err := c.reg.guard(t.Guard)
		if err != nil {
			return fmt.Errorf("%s: guard: %w", path, err)
		}
		opts = append(opts, statechart.When(fn))
	}
	if t.Action != "" {
		fn, err := c.reg.action(t.Action)
		if err != nil {
			return fmt.Errorf("%s: action: %w", path, err)
		}
		opts = append(opts, statechart.Do(fn))
	}

	var event any
	if t.Event != "" {
		event = t.Event
	}
	c.b.Transition(t.Name, event, t.To, opts...)
	return nil
}

// CompileFile loads and compiles a YAML definition file
func CompileFile(path string, reg *Registry, opts ...statechart.TemplateOption) (*statechart.Template, error) {
	d, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return d.Compile(reg, opts...)
}
