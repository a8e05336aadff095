package statechart

// StateID is a handle to a state inside its Template
type StateID int

// Wildcard marks an unspecified slot of a StateConfiguration. It never
// designates a real state.
const Wildcard StateID = -1

// ActionFunc is an entry, exit or transition action. A returned error aborts
// the current dispatch and is reported to the caller as an *ActionError.
type ActionFunc func(m *StateMachine, event any, args any) error

// GuardFunc decides whether an otherwise enabled transition may fire
type GuardFunc func(m *StateMachine, event any, args any) bool

// DoActionFunc is invoked for every active state after each dispatch step
// when the template was built with do-actions enabled
type DoActionFunc func(m *StateMachine) error

// State is an immutable node of the template graph
type State struct {
	id          StateID
	name        string
	parent      RegionID
	regions     []RegionID
	transitions []TransitionID
	entry       ActionFunc
	exit        ActionFunc
	do          DoActionFunc
	depth       int
}

// ID returns the state handle
func (s *State) ID() StateID {
	return s.id
}

// Name returns the state name, unique across the template
func (s *State) Name() string {
	return s.name
}

// Parent returns the region that contains the state
func (s *State) Parent() RegionID {
	return s.parent
}

// Regions returns the concurrent sub-regions of the state in declaration order
func (s *State) Regions() []RegionID {
	return s.regions
}

// Transitions returns the transitions anchored on the state in priority order
func (s *State) Transitions() []TransitionID {
	return s.transitions
}

// IsBase reports whether the state has no sub-regions
func (s *State) IsBase() bool {
	return len(s.regions) == 0
}

// Depth returns the number of regions between the root region and the state
func (s *State) Depth() int {
	return s.depth
}

// HasEntryAction reports whether an entry action is attached
func (s *State) HasEntryAction() bool {
	return s.entry != nil
}

// HasExitAction reports whether an exit action is attached
func (s *State) HasExitAction() bool {
	return s.exit != nil
}

// HasDoAction reports whether a do-action is attached
func (s *State) HasDoAction() bool {
	return s.do != nil
}

// StateOption configures a state declared through Builder.State
type StateOption func(*State)

// OnEntry sets the entry action of the state
func OnEntry(action ActionFunc) StateOption {
	return func(s *State) { s.entry = action }
}

// OnExit sets the exit action of the state
func OnExit(action ActionFunc) StateOption {
	return func(s *State) { s.exit = action }
}

// OnDo sets the do-action of the state. The template must be built with
// WithDoActions.
func OnDo(action DoActionFunc) StateOption {
	return func(s *State) { s.do = action }
}
