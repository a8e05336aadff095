package observers

import (
	"fmt"
	"sync"
	"time"

	"github.com/anggasct/statechart"
)

// MetricsTracer collects metrics about state machine execution.
// It is safe to read the metrics while machines are dispatching.
type MetricsTracer struct {
	stateVisits      map[string]int
	stateTimeSpent   map[string]time.Duration
	eventCounts      map[string]int
	transitionCounts map[string]int
	testCount        int
	errorCount       int
	lastStateEntry   map[string]time.Time
	now              func() time.Time
	mutex            sync.RWMutex
}

// MetricsOption configures a MetricsTracer
type MetricsOption func(*MetricsTracer)

// WithClock replaces time.Now as the source of state entry and exit times
func WithClock(now func() time.Time) MetricsOption {
	return func(o *MetricsTracer) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMetricsTracer creates a new metrics tracer
func NewMetricsTracer(opts ...MetricsOption) *MetricsTracer {
	o := &MetricsTracer{now: time.Now}
	o.reset()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TraceDispatchTriggerEvent counts dispatched events. Completion passes are
// counted under "<completion>".
func (o *MetricsTracer) TraceDispatchTriggerEvent(m *statechart.StateMachine, event any, args any) {
	key := "<completion>"
	if event != nil {
		key = fmt.Sprint(event)
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.eventCounts[key]++
}

// TraceTestTransition implements statechart.Tracer
func (o *MetricsTracer) TraceTestTransition(m *statechart.StateMachine, t *statechart.Transition, event any, args any) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.testCount++
}

// TraceStateChange records visits and dwell time of the exited and entered
// states and counts the fired transition
func (o *MetricsTracer) TraceStateChange(m *statechart.StateMachine, from, to *statechart.StateConfiguration, t *statechart.Transition) {
	exited, entered := changedStates(from, to, t)
	now := o.now()

	o.mutex.Lock()
	defer o.mutex.Unlock()

	for _, name := range exited {
		if entryTime, ok := o.lastStateEntry[name]; ok {
			o.stateTimeSpent[name] += now.Sub(entryTime)
			delete(o.lastStateEntry, name)
		}
	}
	for _, name := range entered {
		o.stateVisits[name]++
		o.lastStateEntry[name] = now
	}
	if t != nil {
		o.transitionCounts[t.Name()]++
	}
}

// TraceError implements statechart.ErrorTracer
func (o *MetricsTracer) TraceError(m *statechart.StateMachine, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.errorCount++
}

// GetStateVisitCounts returns the number of times each state was entered
func (o *MetricsTracer) GetStateVisitCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.stateVisits)
}

// GetStateTimeSpent returns the time spent in each state that has been left
func (o *MetricsTracer) GetStateTimeSpent() map[string]time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.stateTimeSpent)
}

// GetEventCounts returns the number of times each event was dispatched
func (o *MetricsTracer) GetEventCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.eventCounts)
}

// GetTransitionCounts returns the number of times each transition fired
func (o *MetricsTracer) GetTransitionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.transitionCounts)
}

// GetTestCount returns the number of transitions tested
func (o *MetricsTracer) GetTestCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.testCount
}

// GetErrorCount returns the number of errors
func (o *MetricsTracer) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount
}

// Reset resets all metrics
func (o *MetricsTracer) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.reset()
}

func (o *MetricsTracer) reset() {
	o.stateVisits = make(map[string]int)
	o.stateTimeSpent = make(map[string]time.Duration)
	o.eventCounts = make(map[string]int)
	o.transitionCounts = make(map[string]int)
	o.lastStateEntry = make(map[string]time.Time)
	o.testCount = 0
	o.errorCount = 0
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
