package observers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/anggasct/statechart"
)

// ValidationTracer checks observed behaviour against declared expectations.
//
// Expected states are reported by GetUnvisitedStates until they are entered.
// Once any allowed transition is registered, firing a transition outside the
// allowed set is a violation. Once any allowed change is registered, moving
// between configurations outside the allowed pairs is a violation. Every
// reported error is a violation as well.
type ValidationTracer struct {
	expectedStates     map[string]bool
	visitedStates      map[string]bool
	allowedTransitions map[string]bool
	allowedChanges     map[string]map[string]bool
	violations         []string
	mutex              sync.RWMutex
}

// NewValidationTracer creates a new validation tracer
func NewValidationTracer() *ValidationTracer {
	return &ValidationTracer{
		expectedStates:     make(map[string]bool),
		visitedStates:      make(map[string]bool),
		allowedTransitions: make(map[string]bool),
		allowedChanges:     make(map[string]map[string]bool),
		violations:         make([]string, 0),
	}
}

// AddExpectedState adds states that should be entered at some point
func (o *ValidationTracer) AddExpectedState(names ...string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	for _, name := range names {
		o.expectedStates[name] = true
	}
}

// AddAllowedTransition allows the named transitions to fire
func (o *ValidationTracer) AddAllowedTransition(names ...string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	for _, name := range names {
		o.allowedTransitions[name] = true
	}
}

// AddAllowedChange allows a change between two configurations, given in
// their String rendering such as "On(A1,B1)"
func (o *ValidationTracer) AddAllowedChange(from, to string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedChanges[from]; !exists {
		o.allowedChanges[from] = make(map[string]bool)
	}
	o.allowedChanges[from][to] = true
}

// TraceDispatchTriggerEvent implements statechart.Tracer
func (o *ValidationTracer) TraceDispatchTriggerEvent(m *statechart.StateMachine, event any, args any) {
}

// TraceTestTransition implements statechart.Tracer
func (o *ValidationTracer) TraceTestTransition(m *statechart.StateMachine, t *statechart.Transition, event any, args any) {
}

// TraceStateChange validates the fired transition and the configuration change
func (o *ValidationTracer) TraceStateChange(m *statechart.StateMachine, from, to *statechart.StateConfiguration, t *statechart.Transition) {
	_, entered := changedStates(from, to, t)

	o.mutex.Lock()
	defer o.mutex.Unlock()

	for _, name := range entered {
		o.visitedStates[name] = true
	}

	// lifecycle changes are not transitions
	if t == nil {
		return
	}

	if len(o.allowedTransitions) > 0 && !o.allowedTransitions[t.Name()] {
		o.violations = append(o.violations, fmt.Sprintf(
			"Unexpected transition '%s' from '%s' to '%s'", t.Name(), from, to))
	}

	if allowed, exists := o.allowedChanges[from.String()]; len(o.allowedChanges) > 0 && (!exists || !allowed[to.String()]) {
		o.violations = append(o.violations, fmt.Sprintf(
			"Invalid change from '%s' to '%s' by transition '%s'", from, to, t.Name()))
	}
}

// TraceError implements statechart.ErrorTracer
func (o *ValidationTracer) TraceError(m *statechart.StateMachine, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violations = append(o.violations, fmt.Sprintf("Error occurred: %v", err))
}

// GetViolations returns all validation violations
func (o *ValidationTracer) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUnvisitedStates returns states that were expected but not entered, sorted
func (o *ValidationTracer) GetUnvisitedStates() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var unvisited []string
	for state := range o.expectedStates {
		if !o.visitedStates[state] {
			unvisited = append(unvisited, state)
		}
	}
	sort.Strings(unvisited)
	return unvisited
}

// HasViolations returns whether any violations occurred
func (o *ValidationTracer) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset clears visited states and violations but keeps the expectations
func (o *ValidationTracer) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedStates = make(map[string]bool)
	o.violations = make([]string, 0)
}
