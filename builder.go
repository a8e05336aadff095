package statechart

import (
	"reflect"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_]*|[0-9]+)$`)

// scope is an open Region or State on the builder stack
type scope struct {
	region  RegionID
	state   StateID
	isState bool
}

// Builder constructs a Template through nested Region/State scopes:
//
//	b := statechart.NewBuilder()
//	b.Region("State1", false).
//		State("State1").
//		Transition("T1", "Event1", []string{"State2"}).
//		EndState().
//		State("State2").
//		EndState().
//		EndRegion()
//	tmpl, err := b.Build()
//
// Closing the root region validates and freezes the template. The first
// error is sticky: later calls are ignored and Build returns it.
type Builder struct {
	t     *Template
	stack []scope
	err   error
}

// NewBuilder creates a builder for a new template
func NewBuilder(opts ...TemplateOption) *Builder {
	return &Builder{t: newTemplate(opts...)}
}

// Err returns the first error recorded by the builder
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) ok(element string) bool {
	if b.err != nil {
		return false
	}
	if b.t.frozen {
		b.fail(NewBuildError(ErrCodeTemplateFrozen, element, "template is already frozen"))
		return false
	}
	return true
}

func (b *Builder) top() (scope, bool) {
	if len(b.stack) == 0 {
		return scope{}, false
	}
	return b.stack[len(b.stack)-1], true
}

// Region opens a region whose initial state is initialState. The root region
// is the first call; every other region must be opened inside a State.
func (b *Builder) Region(initialState string, history bool) *Builder {
	if !b.ok("Region") {
		return b
	}

	parent := Wildcard
	if top, open := b.top(); open {
		if !top.isState {
			return b.fail(NewBuildError(ErrCodeInvalidNesting, "Region", "Region must be inside State"))
		}
		parent = top.state
	} else if len(b.t.regions) > 0 {
		return b.fail(NewBuildError(ErrCodeInvalidNesting, "Region", "Region must be inside State"))
	} else if history {
		return b.fail(NewBuildError(ErrCodeHistoryOnRoot, "Region", "history cannot be activated on the root region"))
	}

	id := RegionID(len(b.t.regions))
	b.t.regions = append(b.t.regions, Region{
		id:           id,
		parent:       parent,
		initialName:  initialState,
		initial:      Wildcard,
		history:      history,
		historyIndex: -1,
	})
	if parent == Wildcard {
		b.t.rootID = id
	} else {
		b.t.states[parent].regions = append(b.t.states[parent].regions, id)
	}

	b.stack = append(b.stack, scope{region: id})
	return b
}

// EndRegion closes the current region. Closing the root region freezes the
// template.
func (b *Builder) EndRegion() *Builder {
	if !b.ok("EndRegion") {
		return b
	}
	top, open := b.top()
	if !open || top.isState {
		return b.fail(NewBuildError(ErrCodeInvalidNesting, "EndRegion", "EndRegion does not match an open Region"))
	}

	region := &b.t.regions[top.region]
	label := b.t.regionLabel(top.region)
	if len(region.states) == 0 {
		return b.fail(NewBuildError(ErrCodeInvalidNesting, "Region "+label, "region has no states"))
	}
	for _, s := range region.states {
		if b.t.states[s].name == region.initialName {
			region.initial = s
		}
	}
	if region.initial == Wildcard {
		return b.fail(NewBuildError(ErrCodeUnknownState, "Region "+label,
			"initial state '%s' is not a state of this region", region.initialName))
	}

	b.stack = b.stack[:len(b.stack)-1]
	if len(b.stack) == 0 {
		if err := b.t.freeze(); err != nil {
			return b.fail(err)
		}
	}
	return b
}

// State opens a state inside the current region
func (b *Builder) State(name string, opts ...StateOption) *Builder {
	if !b.ok("State") {
		return b
	}
	top, open := b.top()
	if !open || top.isState {
		return b.fail(NewBuildError(ErrCodeInvalidNesting, "State '"+name+"'", "State must be inside Region"))
	}
	if !identifierPattern.MatchString(name) {
		return b.fail(NewBuildError(ErrCodeInvalidName, "State", "'%s' is not a valid state name", name))
	}
	if _, exists := b.t.stateIndex[name]; exists {
		return b.fail(NewBuildError(ErrCodeDuplicateName, "State", "state '%s' is already defined", name))
	}

	state := State{
		id:     StateID(len(b.t.states)),
		name:   name,
		parent: top.region,
	}
	for _, opt := range opts {
		opt(&state)
	}
	if state.do != nil && !b.t.doActions {
		return b.fail(NewBuildError(ErrCodeDoActionsDisabled, "State '"+name+"'", "do-actions are not enabled for this template"))
	}

	b.t.states = append(b.t.states, state)
	b.t.stateIndex[name] = state.id
	b.t.regions[top.region].states = append(b.t.regions[top.region].states, state.id)
	b.stack = append(b.stack, scope{region: top.region, state: state.id, isState: true})
	return b
}

// EndState closes the current state
func (b *Builder) EndState() *Builder {
	if !b.ok("EndState") {
		return b
	}
	top, open := b.top()
	if !open || !top.isState {
		return b.fail(NewBuildError(ErrCodeInvalidNesting, "EndState", "EndState does not match an open State"))
	}
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

// Transition anchors a transition on the current state. A nil event declares
// a completion transition. Targets may name states anywhere in the template,
// including ones declared later; several targets designate concurrent states.
func (b *Builder) Transition(name string, event any, targets []string, opts ...TransitionOption) *Builder {
	if !b.ok("Transition") {
		return b
	}
	top, open := b.top()
	if !open || !top.isState {
		return b.fail(NewBuildError(ErrCodeInvalidNesting, "Transition '"+name+"'", "Transition must be inside State"))
	}
	if !identifierPattern.MatchString(name) {
		return b.fail(NewBuildError(ErrCodeInvalidName, "Transition", "'%s' is not a valid transition name", name))
	}
	if _, exists := b.t.transitionIndex[name]; exists {
		return b.fail(NewBuildError(ErrCodeDuplicateName, "Transition", "transition '%s' is already defined", name))
	}
	if len(targets) == 0 {
		return b.fail(NewBuildError(ErrCodeNoTarget, "Transition '"+name+"'", "no target state"))
	}
	if event != nil && !reflect.TypeOf(event).Comparable() {
		return b.fail(NewBuildError(ErrCodeInvalidEvent, "Transition '"+name+"'", "trigger event of type %T is not comparable", event))
	}

	tr := Transition{
		id:          TransitionID(len(b.t.transitions)),
		name:        name,
		anchor:      top.state,
		event:       event,
		targetNames: append([]string(nil), targets...),
		lca:         NoRegion,
	}
	for _, opt := range opts {
		opt(&tr)
	}

	b.t.transitions = append(b.t.transitions, tr)
	b.t.transitionIndex[name] = tr.id
	b.t.states[top.state].transitions = append(b.t.states[top.state].transitions, tr.id)
	return b
}

// Build returns the frozen template or the first error encountered
func (b *Builder) Build() (*Template, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.t.frozen {
		return nil, ErrTemplateNotClosed
	}
	return b.t, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Template {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
