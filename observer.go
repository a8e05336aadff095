package statechart

import (
	"fmt"
	"reflect"
)

// Tracer observes the dispatch of a StateMachine. Trace hooks never alter
// control flow: a panicking tracer is isolated and reported to TraceError
// of the tracers implementing ErrorTracer.
type Tracer interface {
	// TraceDispatchTriggerEvent is called for every event taken from the
	// queue, including the completion (nil) event
	TraceDispatchTriggerEvent(m *StateMachine, event any, args any)

	// TraceTestTransition is called for every candidate transition before its
	// source configuration and guard are checked
	TraceTestTransition(m *StateMachine, t *Transition, event any, args any)

	// TraceStateChange is called after the active configuration changed.
	// The transition is nil for Startup, Resume and Finish.
	TraceStateChange(m *StateMachine, from, to *StateConfiguration, t *Transition)
}

// ErrorTracer provides an additional optional hook for failures
type ErrorTracer interface {
	Tracer

	// TraceError is called when a callback failed or a tracer panicked
	TraceError(m *StateMachine, err error)
}

// BaseTracer provides a default implementation with no-op methods
type BaseTracer struct{}

// TraceDispatchTriggerEvent implements Tracer
func (BaseTracer) TraceDispatchTriggerEvent(m *StateMachine, event any, args any) {}

// TraceTestTransition implements Tracer
func (BaseTracer) TraceTestTransition(m *StateMachine, t *Transition, event any, args any) {}

// TraceStateChange implements Tracer
func (BaseTracer) TraceStateChange(m *StateMachine, from, to *StateConfiguration, t *Transition) {}

// TraceError implements ErrorTracer
func (BaseTracer) TraceError(m *StateMachine, err error) {}

// tracerSet fans trace hooks out to the registered tracers
type tracerSet struct {
	tracers []Tracer
}

func (ts *tracerSet) add(t Tracer) {
	if t != nil {
		ts.tracers = append(ts.tracers, t)
	}
}

// remove drops the first tracer equal to t. Tracers of uncomparable types
// (struct values holding slices or maps) are never matched; register those
// by pointer to be able to remove them.
func (ts *tracerSet) remove(t Tracer) {
	if t == nil || !reflect.TypeOf(t).Comparable() {
		return
	}
	for i, existing := range ts.tracers {
		if existing == t {
			ts.tracers = append(ts.tracers[:i:i], ts.tracers[i+1:]...)
			return
		}
	}
}

func (ts *tracerSet) empty() bool {
	return len(ts.tracers) == 0
}

// each calls fn for every tracer, recovering panics
func (ts *tracerSet) each(m *StateMachine, hook string, fn func(Tracer)) {
	for _, tracer := range ts.tracers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					ts.reportPanic(m, tracer, fmt.Errorf("tracer panic in %s: %v", hook, r))
				}
			}()
			fn(tracer)
		}()
	}
}

func (ts *tracerSet) reportPanic(m *StateMachine, culprit Tracer, err error) {
	for _, tracer := range ts.tracers {
		if et, ok := tracer.(ErrorTracer); ok && tracer != culprit {
			func() {
				defer func() { _ = recover() }()
				et.TraceError(m, err)
			}()
		}
	}
}

func (ts *tracerSet) dispatch(m *StateMachine, event, args any) {
	ts.each(m, "TraceDispatchTriggerEvent", func(t Tracer) {
		t.TraceDispatchTriggerEvent(m, event, args)
	})
}

func (ts *tracerSet) test(m *StateMachine, tr *Transition, event, args any) {
	ts.each(m, "TraceTestTransition", func(t Tracer) {
		t.TraceTestTransition(m, tr, event, args)
	})
}

func (ts *tracerSet) stateChange(m *StateMachine, from, to *StateConfiguration, tr *Transition) {
	ts.each(m, "TraceStateChange", func(t Tracer) {
		t.TraceStateChange(m, from, to, tr)
	})
}

func (ts *tracerSet) failure(m *StateMachine, err error) {
	ts.each(m, "TraceError", func(t Tracer) {
		if et, ok := t.(ErrorTracer); ok {
			et.TraceError(m, err)
		}
	})
}
