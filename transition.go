package statechart

// TransitionID is a handle to a transition inside its Template
type TransitionID int

// Transition is an immutable, prioritized transition anchored on a state
type Transition struct {
	id          TransitionID
	name        string
	anchor      StateID
	event       any
	sourceNames []string
	targetNames []string
	guard       GuardFunc
	action      ActionFunc
	source      *StateConfiguration
	target      *StateConfiguration
	lca         RegionID
}

// ID returns the transition handle
func (t *Transition) ID() TransitionID {
	return t.id
}

// Name returns the transition name
func (t *Transition) Name() string {
	return t.name
}

// Anchor returns the state that owns the transition
func (t *Transition) Anchor() StateID {
	return t.anchor
}

// TriggerEvent returns the event value that enables the transition, or nil
// for a completion transition
func (t *Transition) TriggerEvent() any {
	return t.event
}

// IsCompletion reports whether the transition has no trigger event
func (t *Transition) IsCompletion() bool {
	return t.event == nil
}

// HasGuard reports whether a guard is attached
func (t *Transition) HasGuard() bool {
	return t.guard != nil
}

// HasAction reports whether a transition action is attached
func (t *Transition) HasAction() bool {
	return t.action != nil
}

// Source returns the (partial) configuration that must be active for the
// transition to fire
func (t *Transition) Source() *StateConfiguration {
	return t.source.Clone()
}

// Target returns the (partial) configuration the transition leads to
func (t *Transition) Target() *StateConfiguration {
	return t.target.Clone()
}

// LeastCommonAncestor returns the region that bounds the exit and entry scope
func (t *Transition) LeastCommonAncestor() RegionID {
	return t.lca
}

// matches reports whether the transition is a candidate for event
func (t *Transition) matches(event any) bool {
	return t.event == event
}

// TransitionOption configures a transition declared through Builder.Transition
type TransitionOption func(*Transition)

// From overrides the source states. By default the source is the anchor
// state; naming a descendant lets an ancestor-anchored transition react to a
// nested configuration with the ancestor's priority.
func From(states ...string) TransitionOption {
	return func(t *Transition) { t.sourceNames = append(t.sourceNames, states...) }
}

// When attaches a guard to the transition
func When(guard GuardFunc) TransitionOption {
	return func(t *Transition) { t.guard = guard }
}

// Do attaches an action executed between the exit and entry phases
func Do(action ActionFunc) TransitionOption {
	return func(t *Transition) { t.action = action }
}
