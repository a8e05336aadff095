package statechart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTracer records every trace hook for assertions
type TestTracer struct {
	Dispatched []any
	Tested     []string
	Changes    []StateChangeEvent
	Errors     []error
}

type StateChangeEvent struct {
	From       string
	To         string
	Transition string
}

func NewTestTracer() *TestTracer {
	return &TestTracer{}
}

func (tt *TestTracer) TraceDispatchTriggerEvent(m *StateMachine, event any, args any) {
	tt.Dispatched = append(tt.Dispatched, event)
}

func (tt *TestTracer) TraceTestTransition(m *StateMachine, t *Transition, event any, args any) {
	tt.Tested = append(tt.Tested, t.Name())
}

func (tt *TestTracer) TraceStateChange(m *StateMachine, from, to *StateConfiguration, t *Transition) {
	name := ""
	if t != nil {
		name = t.Name()
	}
	tt.Changes = append(tt.Changes, StateChangeEvent{From: from.String(), To: to.String(), Transition: name})
}

func (tt *TestTracer) TraceError(m *StateMachine, err error) {
	tt.Errors = append(tt.Errors, err)
}

// LastChange returns the most recent state change
func (tt *TestTracer) LastChange() *StateChangeEvent {
	if len(tt.Changes) == 0 {
		return nil
	}
	return &tt.Changes[len(tt.Changes)-1]
}

// CallLog records entry, exit and transition actions in invocation order
type CallLog struct {
	Calls []string
}

func (l *CallLog) Entry(name string) StateOption {
	return OnEntry(func(m *StateMachine, event, args any) error {
		l.Calls = append(l.Calls, "enter "+name)
		return nil
	})
}

func (l *CallLog) Exit(name string) StateOption {
	return OnExit(func(m *StateMachine, event, args any) error {
		l.Calls = append(l.Calls, "exit "+name)
		return nil
	})
}

func (l *CallLog) Action(name string) TransitionOption {
	return Do(func(m *StateMachine, event, args any) error {
		l.Calls = append(l.Calls, "action "+name)
		return nil
	})
}

// Logged returns both entry and exit options for a state
func (l *CallLog) Logged(name string) []StateOption {
	return []StateOption{l.Entry(name), l.Exit(name)}
}

func (l *CallLog) Reset() {
	l.Calls = nil
}

// fakeClock stands in for the timer a caller owns
type fakeClock struct {
	elapsed bool
}

func elapsedGuard(m *StateMachine, event, args any) bool {
	return MustContextAs[*fakeClock](m).elapsed
}

// Test templates - common statechart shapes for testing

// CreateTwoStateTemplate builds State1 --Event1--> State2 --(completion, elapsed)--> State1
func CreateTwoStateTemplate(t *testing.T) *Template {
	t.Helper()
	tmpl, err := NewBuilder().
		Region("State1", false).
		State("State1").
		Transition("T1", "Event1", []string{"State2"}).
		EndState().
		State("State2").
		Transition("T2", nil, []string{"State1"}, When(elapsedGuard)).
		EndState().
		EndRegion().
		Build()
	require.NoError(t, err)
	return tmpl
}

// CreateOrthogonalTemplate builds Off/On where On runs regions A and B
// concurrently, both reacting to Step
func CreateOrthogonalTemplate(t *testing.T, log *CallLog) *Template {
	t.Helper()
	tmpl, err := NewBuilder().
		Region("Off", false).
		State("Off", log.Logged("Off")...).
		Transition("SwitchOn", "On", []string{"On"}).
		EndState().
		State("On", log.Logged("On")...).
		Transition("SwitchOff", "Off", []string{"Off"}).
		Region("A1", false).
		State("A1", log.Logged("A1")...).
		Transition("StepA", "Step", []string{"A2"}).
		EndState().
		State("A2", log.Logged("A2")...).
		EndState().
		EndRegion().
		Region("B1", false).
		State("B1", log.Logged("B1")...).
		Transition("StepB", "Step", []string{"B2"}).
		EndState().
		State("B2", log.Logged("B2")...).
		Transition("Join", "Join", []string{"A1", "B1"}).
		EndState().
		EndRegion().
		EndState().
		EndRegion().
		Build()
	require.NoError(t, err)
	return tmpl
}

// CreateHierarchicalTemplate builds Idle/Active where Active holds a
// history region Low/High
func CreateHierarchicalTemplate(t *testing.T, log *CallLog) *Template {
	t.Helper()
	tmpl, err := NewBuilder().
		Region("Idle", false).
		State("Idle", log.Logged("Idle")...).
		Transition("Start", "Start", []string{"Active"}).
		Transition("StartHigh", "StartHigh", []string{"High"}).
		EndState().
		State("Active", log.Logged("Active")...).
		Transition("Stop", "Stop", []string{"Idle"}, log.Action("Stop")).
		Transition("Panic", "Panic", []string{"Idle"}).
		Transition("Drop", "Drop", []string{"Idle"}, From("High")).
		Region("Low", true).
		State("Low", log.Logged("Low")...).
		Transition("Up", "Up", []string{"High"}, log.Action("Up")).
		Transition("LowPanic", "Panic", []string{"High"}).
		Transition("Again", "Again", []string{"Low"}).
		EndState().
		State("High", log.Logged("High")...).
		Transition("Down", "Down", []string{"Low"}).
		Transition("HighDrop", "Drop", []string{"Low"}).
		EndState().
		EndRegion().
		EndState().
		EndRegion().
		Build()
	require.NoError(t, err)
	return tmpl
}

// Test assertions and utilities

// AssertConfiguration checks the rendered active configuration
func AssertConfiguration(t *testing.T, m *StateMachine, expected string) {
	t.Helper()
	assert.Equal(t, expected, m.ActiveStateConfiguration().String())
}

// AssertSteps checks that sending event executed the expected number of transitions
func AssertSteps(t *testing.T, m *StateMachine, event any, expected int) {
	t.Helper()
	steps, err := m.SendTriggerEvent(event, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, steps, "steps for event %v", event)
}

// StartMachine creates and starts a machine from tmpl
func StartMachine(t *testing.T, tmpl *Template, opts ...MachineOption) *StateMachine {
	t.Helper()
	m := tmpl.CreateStateMachine(opts...)
	require.NoError(t, m.Startup())
	return m
}
