package statechart

// RegionID is a handle to a region inside its Template
type RegionID int

// NoRegion is returned where no region applies
const NoRegion RegionID = -1

// Region is an ordered set of mutually exclusive sibling states
type Region struct {
	id           RegionID
	parent       StateID
	states       []StateID
	initialName  string
	initial      StateID
	history      bool
	slot         int
	historyIndex int
}

// ID returns the region handle
func (r *Region) ID() RegionID {
	return r.id
}

// Parent returns the owning state, or Wildcard for the root region
func (r *Region) Parent() StateID {
	return r.parent
}

// IsRoot reports whether the region is the template root
func (r *Region) IsRoot() bool {
	return r.parent == Wildcard
}

// States returns the sibling states in declaration order
func (r *Region) States() []StateID {
	return r.states
}

// InitialState returns the state entered when nothing else is designated
func (r *Region) InitialState() StateID {
	return r.initial
}

// HasHistory reports whether the region remembers its last active state
func (r *Region) HasHistory() bool {
	return r.history
}

// SlotIndex returns the slot this region occupies in every StateConfiguration
func (r *Region) SlotIndex() int {
	return r.slot
}

// HistoryIndex returns the index into the history table, or -1 when the
// region has no history
func (r *Region) HistoryIndex() int {
	return r.historyIndex
}
