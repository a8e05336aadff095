package statechart

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashFunc condenses the structural description of a template into the
// signature written to and checked against persisted state
type HashFunc func(structure []byte) string

// DefaultSignatureHash hashes the structure with BLAKE2b-256
func DefaultSignatureHash(structure []byte) string {
	sum := blake2b.Sum256(structure)
	return hex.EncodeToString(sum[:])
}

// TemplateOption configures a template before building starts
type TemplateOption func(*Template)

// WithDoActions enables do-actions for the template
func WithDoActions() TemplateOption {
	return func(t *Template) { t.doActions = true }
}

// WithSignatureHash replaces the hash used for the structural signature
func WithSignatureHash(hash HashFunc) TemplateOption {
	return func(t *Template) {
		if hash != nil {
			t.hash = hash
		}
	}
}

// Template is the immutable, validated statechart graph. It is built once
// with a Builder and may be shared by any number of StateMachine instances.
type Template struct {
	regions     []Region
	states      []State
	transitions []Transition

	stateIndex      map[string]StateID
	transitionIndex map[string]TransitionID

	rootID         RegionID
	historyRegions []RegionID
	slotCount      int
	concurrency    int
	historyCount   int
	signature      string
	structure      string

	doActions bool
	hash      HashFunc
	frozen    bool
}

func newTemplate(opts ...TemplateOption) *Template {
	t := &Template{
		stateIndex:      make(map[string]StateID),
		transitionIndex: make(map[string]TransitionID),
		rootID:          NoRegion,
		hash:            DefaultSignatureHash,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the root region
func (t *Template) Root() *Region {
	return t.root()
}

func (t *Template) root() *Region {
	return &t.regions[t.rootID]
}

// Region returns the region with handle id
func (t *Template) Region(id RegionID) *Region {
	return &t.regions[id]
}

// State returns the state with handle id
func (t *Template) State(id StateID) *State {
	return &t.states[id]
}

// Transition returns the transition with handle id
func (t *Template) Transition(id TransitionID) *Transition {
	return &t.transitions[id]
}

// StateByName looks up a state handle
func (t *Template) StateByName(name string) (StateID, bool) {
	id, ok := t.stateIndex[name]
	return id, ok
}

// TransitionByName looks up a transition handle
func (t *Template) TransitionByName(name string) (TransitionID, bool) {
	id, ok := t.transitionIndex[name]
	return id, ok
}

// StateCount returns the number of states
func (t *Template) StateCount() int {
	return len(t.states)
}

// RegionCount returns the number of regions
func (t *Template) RegionCount() int {
	return len(t.regions)
}

// TransitionCount returns the number of transitions
func (t *Template) TransitionCount() int {
	return len(t.transitions)
}

// StateConfigurationMax returns the number of slots of every StateConfiguration
func (t *Template) StateConfigurationMax() int {
	return t.slotCount
}

// ConcurrencyDegree returns the maximum number of base states that can be
// active at the same time
func (t *Template) ConcurrencyDegree() int {
	return t.concurrency
}

// HistoryMax returns the number of history-enabled regions
func (t *Template) HistoryMax() int {
	return t.historyCount
}

// Signature returns the hashed structural signature
func (t *Template) Signature() string {
	return t.signature
}

// Structure returns the unhashed structural description the signature is computed from
func (t *Template) Structure() string {
	return t.structure
}

// DoActionsEnabled reports whether the template was built with WithDoActions
func (t *Template) DoActionsEnabled() bool {
	return t.doActions
}

// NewConfiguration builds a partial configuration designating the named
// states and all of their ancestors. With no names every slot is Wildcard.
func (t *Template) NewConfiguration(names ...string) (*StateConfiguration, error) {
	c := newConfiguration(t)
	for _, name := range names {
		id, ok := t.stateIndex[name]
		if !ok {
			return nil, NewBuildError(ErrCodeUnknownState, "StateConfiguration", "state '%s' not found", name)
		}
		if err := c.designate(id); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNewConfiguration is like NewConfiguration but panics on error
func (t *Template) MustNewConfiguration(names ...string) *StateConfiguration {
	c, err := t.NewConfiguration(names...)
	if err != nil {
		panic(err)
	}
	return c
}

// Walk visits every state of the template in preorder together with the
// region that contains it
func (t *Template) Walk(fn func(region *Region, state *State)) {
	t.walkRegion(t.rootID, fn)
}

func (t *Template) walkRegion(r RegionID, fn func(*Region, *State)) {
	region := &t.regions[r]
	for _, s := range region.states {
		state := &t.states[s]
		fn(region, state)
		for _, sub := range state.regions {
			t.walkRegion(sub, fn)
		}
	}
}

// IsAncestorOrSelf reports whether ancestor is s itself or contains s in one
// of its sub-regions, at any depth
func (t *Template) IsAncestorOrSelf(ancestor, s StateID) bool {
	for s != Wildcard {
		if s == ancestor {
			return true
		}
		s = t.regions[t.states[s].parent].parent
	}
	return false
}

func (t *Template) regionLabel(r RegionID) string {
	region := &t.regions[r]
	if region.parent == Wildcard {
		return "root"
	}
	return t.states[region.parent].name + "/" + strconv.Itoa(int(r))
}

// freeze derives slot layout, metrics, transition configurations and the
// structural signature. The template is immutable afterwards.
func (t *Template) freeze() error {
	t.slotCount = t.assignSlots(t.rootID, 0)
	t.assignDepth(t.rootID, 0)
	t.assignHistory(t.rootID)
	t.concurrency = t.baseSlots(t.rootID)

	for i := range t.transitions {
		if err := t.resolveTransition(&t.transitions[i]); err != nil {
			return err
		}
	}

	sig := &signature{hash: t.hash}
	if err := sig.writeRegion(t, t.rootID); err != nil {
		return err
	}
	sum, err := sig.sum()
	if err != nil {
		return err
	}
	t.structure = sig.sb.String()
	t.signature = sum
	t.frozen = true
	return nil
}

// assignSlots gives region r the slot base and lays out the sub-regions of
// each of its states after it. Orthogonal sub-regions get disjoint slot
// ranges; the states of one region are mutually exclusive and reuse the same
// range. It returns the number of slots the region needs.
func (t *Template) assignSlots(r RegionID, base int) int {
	region := &t.regions[r]
	region.slot = base
	widest := 0
	for _, s := range region.states {
		offset := base + 1
		for _, sub := range t.states[s].regions {
			offset += t.assignSlots(sub, offset)
		}
		if used := offset - (base + 1); used > widest {
			widest = used
		}
	}
	return 1 + widest
}

func (t *Template) assignDepth(r RegionID, depth int) {
	for _, s := range t.regions[r].states {
		t.states[s].depth = depth
		for _, sub := range t.states[s].regions {
			t.assignDepth(sub, depth+1)
		}
	}
}

func (t *Template) assignHistory(r RegionID) {
	region := &t.regions[r]
	region.historyIndex = -1
	if region.history {
		region.historyIndex = t.historyCount
		t.historyRegions = append(t.historyRegions, r)
		t.historyCount++
	}
	for _, s := range region.states {
		for _, sub := range t.states[s].regions {
			t.assignHistory(sub)
		}
	}
}

// baseSlots returns how many base states of region r can be active at once
func (t *Template) baseSlots(r RegionID) int {
	widest := 0
	for _, s := range t.regions[r].states {
		n := 1
		if subs := t.states[s].regions; len(subs) > 0 {
			n = 0
			for _, sub := range subs {
				n += t.baseSlots(sub)
			}
		}
		if n > widest {
			widest = n
		}
	}
	return widest
}

func (t *Template) resolveTransition(tr *Transition) error {
	element := "Transition '" + tr.name + "'"
	anchor := &t.states[tr.anchor]

	sources := tr.sourceNames
	if len(sources) == 0 {
		sources = []string{anchor.name}
	}
	tr.source = newConfiguration(t)
	for _, name := range sources {
		id, ok := t.stateIndex[name]
		if !ok {
			return NewBuildError(ErrCodeUnknownState, element, "source state '%s' not found", name)
		}
		if !t.IsAncestorOrSelf(tr.anchor, id) {
			return NewBuildError(ErrCodeSourceNotUnderAnchor, element,
				"source state '%s' is not '%s' or one of its descendants; the transition is meaningless", name, anchor.name)
		}
		if err := tr.source.designate(id); err != nil {
			return NewBuildError(ErrCodeConflictingStates, element, "invalid source: %s", err.(*BuildError).Message)
		}
	}

	tr.target = newConfiguration(t)
	for _, name := range tr.targetNames {
		id, ok := t.stateIndex[name]
		if !ok {
			return NewBuildError(ErrCodeUnknownState, element, "target state '%s' not found", name)
		}
		if err := tr.target.designate(id); err != nil {
			return NewBuildError(ErrCodeConflictingStates, element, "invalid target: %s", err.(*BuildError).Message)
		}
	}

	tr.lca = t.leastCommonAncestor(tr.anchor, t.envelope(tr.target))
	return nil
}

// envelope returns the most specific state containing every designated slot
// of target: it descends from the root state while exactly one sub-region is
// designated and stops at the first state with zero or several designated
// sub-regions.
func (t *Template) envelope(target *StateConfiguration) StateID {
	s := target.slots[t.root().slot]
	for {
		next, designated := Wildcard, 0
		for _, sub := range t.states[s].regions {
			if v := target.slots[t.regions[sub].slot]; v != Wildcard {
				next = v
				designated++
			}
		}
		if designated != 1 {
			return s
		}
		s = next
	}
}

// leastCommonAncestor returns the innermost region that contains both the
// anchor and the envelope state
func (t *Template) leastCommonAncestor(anchor, envelope StateID) RegionID {
	anchorPath := make(map[RegionID]struct{})
	for s := anchor; s != Wildcard; s = t.regions[t.states[s].parent].parent {
		anchorPath[t.states[s].parent] = struct{}{}
	}
	r := t.states[envelope].parent
	for {
		if _, ok := anchorPath[r]; ok {
			return r
		}
		r = t.states[t.regions[r].parent].parent
	}
}

// signature accumulates the structural description hashed into
// Template.Signature. It is sealed by sum.
type signature struct {
	sb     strings.Builder
	hash   HashFunc
	sealed bool
}

func (g *signature) write(parts ...string) error {
	if g.sealed {
		return NewBuildError(ErrCodeSignatureSealed, "Signature", "signature already computed")
	}
	for _, p := range parts {
		g.sb.WriteString(p)
	}
	return nil
}

func (g *signature) writeRegion(t *Template, r RegionID) error {
	region := &t.regions[r]
	history := "-"
	if region.history {
		history = "H"
	}
	if err := g.write("R", strconv.Itoa(region.slot), history, "{"); err != nil {
		return err
	}
	for i, s := range region.states {
		state := &t.states[s]
		if i > 0 {
			if err := g.write(","); err != nil {
				return err
			}
		}
		if err := g.write(state.name); err != nil {
			return err
		}
		if len(state.regions) == 0 {
			continue
		}
		if err := g.write("("); err != nil {
			return err
		}
		for _, sub := range state.regions {
			if err := g.writeRegion(t, sub); err != nil {
				return err
			}
		}
		if err := g.write(")"); err != nil {
			return err
		}
	}
	return g.write("}")
}

func (g *signature) sum() (string, error) {
	if g.sealed {
		return "", NewBuildError(ErrCodeSignatureSealed, "Signature", "signature already computed")
	}
	g.sealed = true
	return g.hash([]byte(g.sb.String())), nil
}

// String summarizes the template metrics
func (t *Template) String() string {
	return fmt.Sprintf("Template{states: %d, regions: %d, transitions: %d, slots: %d, concurrency: %d, history: %d}",
		len(t.states), len(t.regions), len(t.transitions), t.slotCount, t.concurrency, t.historyCount)
}
