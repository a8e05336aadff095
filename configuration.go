package statechart

import "strings"

// StateConfiguration designates one state (or Wildcard) per region slot.
//
// A fully resolved configuration is what a running StateMachine is in: every
// slot reachable from the root holds a state. A partial configuration leaves
// slots as Wildcard and is used for transition sources and targets and for
// IsInState queries, where Wildcard means "don't care".
//
// Slots of mutually exclusive branches are shared, so only slots reachable
// from the root through designated states carry meaning; every operation
// traverses the configuration from the root.
type StateConfiguration struct {
	template *Template
	slots    []StateID
}

func newConfiguration(t *Template) *StateConfiguration {
	c := &StateConfiguration{
		template: t,
		slots:    make([]StateID, t.slotCount),
	}
	c.clear()
	return c
}

// Template returns the template the configuration belongs to
func (c *StateConfiguration) Template() *Template {
	return c.template
}

// Len returns the number of slots, always Template.StateConfigurationMax
func (c *StateConfiguration) Len() int {
	return len(c.slots)
}

// Slot returns the state designated for slot i
func (c *StateConfiguration) Slot(i int) StateID {
	return c.slots[i]
}

// StateIn returns the state designated for region r
func (c *StateConfiguration) StateIn(r RegionID) StateID {
	return c.slots[c.template.regions[r].slot]
}

// IsEmpty reports whether not even the root region has a designated state
func (c *StateConfiguration) IsEmpty() bool {
	return c.slots[c.template.root().slot] == Wildcard
}

// Clone returns an independent copy
func (c *StateConfiguration) Clone() *StateConfiguration {
	if c == nil {
		return nil
	}
	clone := &StateConfiguration{
		template: c.template,
		slots:    make([]StateID, len(c.slots)),
	}
	copy(clone.slots, c.slots)
	return clone
}

func (c *StateConfiguration) copyFrom(other *StateConfiguration) {
	copy(c.slots, other.slots)
}

func (c *StateConfiguration) clear() {
	for i := range c.slots {
		c.slots[i] = Wildcard
	}
}

// IsMatching compares both configurations region by region starting at the
// root. A slot matches when either side is Wildcard or both designate the
// same state; the comparison then descends into the sub-regions of the
// designated state. The first mismatch fails the whole comparison.
func (c *StateConfiguration) IsMatching(other *StateConfiguration) bool {
	if other == nil || c.template != other.template {
		return false
	}
	return c.matchRegion(other, c.template.rootID)
}

func (c *StateConfiguration) matchRegion(other *StateConfiguration, r RegionID) bool {
	slot := c.template.regions[r].slot
	a, b := c.slots[slot], other.slots[slot]
	if a != Wildcard && b != Wildcard && a != b {
		return false
	}
	s := a
	if s == Wildcard {
		s = b
	}
	if s == Wildcard {
		return true
	}
	for _, sub := range c.template.states[s].regions {
		if !c.matchRegion(other, sub) {
			return false
		}
	}
	return true
}

// Equal reports whether both configurations designate exactly the same states
// along every path reachable from the root, Wildcards included
func (c *StateConfiguration) Equal(other *StateConfiguration) bool {
	if other == nil || c.template != other.template {
		return false
	}
	return c.equalRegion(other, c.template.rootID)
}

func (c *StateConfiguration) equalRegion(other *StateConfiguration, r RegionID) bool {
	slot := c.template.regions[r].slot
	if c.slots[slot] != other.slots[slot] {
		return false
	}
	if c.slots[slot] == Wildcard {
		return true
	}
	for _, sub := range c.template.states[c.slots[slot]].regions {
		if !c.equalRegion(other, sub) {
			return false
		}
	}
	return true
}

// Walk visits every designated state reachable from the root in preorder,
// together with the region it occupies. Sub-regions are visited in
// declaration order.
func (c *StateConfiguration) Walk(fn func(region *Region, state *State)) {
	c.walkRegion(c.template.rootID, fn)
}

// WalkFrom is Walk restricted to the subtree of region r. Together with
// Transition.LeastCommonAncestor it yields the states a transition exited
// (walking the old configuration) or entered (walking the new one).
func (c *StateConfiguration) WalkFrom(r RegionID, fn func(region *Region, state *State)) {
	if r < 0 || int(r) >= len(c.template.regions) {
		return
	}
	c.walkRegion(r, fn)
}

func (c *StateConfiguration) walkRegion(r RegionID, fn func(*Region, *State)) {
	region := &c.template.regions[r]
	s := c.slots[region.slot]
	if s == Wildcard {
		return
	}
	state := &c.template.states[s]
	fn(region, state)
	for _, sub := range state.regions {
		c.walkRegion(sub, fn)
	}
}

// BaseStates returns the designated states that have no sub-regions, in
// preorder. For a fully resolved configuration they determine every other slot.
func (c *StateConfiguration) BaseStates() []StateID {
	var leaves []StateID
	c.Walk(func(_ *Region, s *State) {
		if s.IsBase() {
			leaves = append(leaves, s.id)
		}
	})
	return leaves
}

// String renders the configuration as State(sub1,sub2,...), recursively,
// with '*' for Wildcard slots
func (c *StateConfiguration) String() string {
	var sb strings.Builder
	c.render(&sb, c.template.rootID)
	return sb.String()
}

func (c *StateConfiguration) render(sb *strings.Builder, r RegionID) {
	s := c.slots[c.template.regions[r].slot]
	if s == Wildcard {
		sb.WriteByte('*')
		return
	}
	state := &c.template.states[s]
	sb.WriteString(state.name)
	if len(state.regions) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, sub := range state.regions {
		if i > 0 {
			sb.WriteByte(',')
		}
		c.render(sb, sub)
	}
	sb.WriteByte(')')
}

// designate puts s and all of its ancestors into their slots. It fails when
// a slot on that path already holds a different state.
func (c *StateConfiguration) designate(s StateID) error {
	for s != Wildcard {
		state := &c.template.states[s]
		region := &c.template.regions[state.parent]
		switch current := c.slots[region.slot]; current {
		case Wildcard:
			c.slots[region.slot] = s
		case s:
		default:
			return NewBuildError(ErrCodeConflictingStates, "StateConfiguration",
				"states '%s' and '%s' cannot be active at the same time", c.template.states[current].name, state.name)
		}
		s = region.parent
	}
	return nil
}

// initializeAndResolve copies base (or clears the configuration when base is
// nil), then rewrites the subtree of region from: slots designated by target
// are taken over, Wildcard slots fall back to the history table for history
// regions and to the region's initial state otherwise.
func (c *StateConfiguration) initializeAndResolve(base, target *StateConfiguration, from RegionID, history []StateID) {
	if base == nil {
		c.clear()
	} else if base != c {
		c.copyFrom(base)
	}
	c.resolveRegion(target, from, history)
}

func (c *StateConfiguration) resolveRegion(target *StateConfiguration, r RegionID, history []StateID) {
	region := &c.template.regions[r]
	s := Wildcard
	if target != nil {
		s = target.slots[region.slot]
	}
	if s == Wildcard && region.history && history != nil {
		s = history[region.historyIndex]
	}
	if s == Wildcard {
		s = region.initial
	}
	c.slots[region.slot] = s
	for _, sub := range c.template.states[s].regions {
		c.resolveRegion(target, sub, history)
	}
}

// stateAt returns the state in region r, panicking when the slot is
// unresolved. A running machine always has a resolved path.
func (c *StateConfiguration) stateAt(r RegionID) *State {
	s := c.slots[c.template.regions[r].slot]
	if s == Wildcard {
		panic("statechart: unresolved slot " + c.template.regionLabel(r) + " in active configuration")
	}
	return &c.template.states[s]
}
