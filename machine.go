package statechart

import (
	"log/slog"

	"github.com/google/uuid"
)

// Status represents the lifecycle stage of a StateMachine
type Status int

const (
	// Machine was created but Startup or Resume was not called yet
	StatusUnstarted Status = iota
	// Machine holds an active configuration and processes trigger events
	StatusRunning
	// Machine was stopped with Finish
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusUnstarted:
		return "Unstarted"
	case StatusRunning:
		return "Running"
	case StatusFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// MachineOption configures a StateMachine at creation
type MachineOption func(*StateMachine)

// WithContext attaches an opaque application value, see ContextAs
func WithContext(ctx any) MachineOption {
	return func(m *StateMachine) { m.context = ctx }
}

// WithTracer registers a tracer at creation
func WithTracer(t Tracer) MachineOption {
	return func(m *StateMachine) { m.tracers.add(t) }
}

// WithLogger sets the structured logger. The default discards every record.
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *StateMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithID overrides the generated machine identifier
func WithID(id string) MachineOption {
	return func(m *StateMachine) {
		if id != "" {
			m.id = id
		}
	}
}

// StateMachine is one running instance of a Template. It owns the active
// configuration, the history table and the event queue; the template is
// shared.
//
// A StateMachine is not safe for concurrent use. Callbacks run synchronously
// on the goroutine that called Startup, SendTriggerEvent, Resume or Finish and
// may call SendTriggerEvent, which then only queues the event.
type StateMachine struct {
	id       string
	template *Template
	context  any
	logger   *slog.Logger
	tracers  tracerSet

	status   Status
	active   *StateConfiguration
	previous *StateConfiguration
	snapshot *StateConfiguration
	history  []StateID

	queue       eventQueue
	dispatching bool
}

// CreateStateMachine creates a new machine instance in StatusUnstarted
func (t *Template) CreateStateMachine(opts ...MachineOption) *StateMachine {
	m := &StateMachine{
		id:       uuid.NewString(),
		template: t,
		logger:   slog.New(slog.DiscardHandler),
		status:   StatusUnstarted,
		active:   newConfiguration(t),
		previous: newConfiguration(t),
		snapshot: newConfiguration(t),
		history:  make([]StateID, t.historyCount),
	}
	for i := range m.history {
		m.history[i] = Wildcard
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("machine_id", m.id))
	return m
}

// ID returns the machine identifier
func (m *StateMachine) ID() string {
	return m.id
}

// Template returns the template the machine was created from
func (m *StateMachine) Template() *Template {
	return m.template
}

// Status returns the lifecycle stage
func (m *StateMachine) Status() Status {
	return m.status
}

// AddTracer registers a tracer
func (m *StateMachine) AddTracer(t Tracer) {
	m.tracers.add(t)
}

// RemoveTracer unregisters a tracer
func (m *StateMachine) RemoveTracer(t Tracer) {
	m.tracers.remove(t)
}

// Startup enters the initial configuration: every history slot is seeded
// with its region's initial state, the configuration is resolved from the
// root and entry actions run top-down. With do-actions enabled one do-action
// pass follows. Events queued by these callbacks are dispatched before
// Startup returns.
func (m *StateMachine) Startup() error {
	if m.dispatching {
		return NewDispatchingError("Startup")
	}
	if m.status == StatusRunning {
		return NewAlreadyRunningError("Startup")
	}

	done := m.beginDispatch()
	defer done()

	t := m.template
	for i, r := range t.historyRegions {
		m.history[i] = t.regions[r].initial
	}
	m.queue.clear()
	m.active.initializeAndResolve(nil, nil, t.rootID, m.history)
	m.status = StatusRunning

	m.logger.Info("state machine started", slog.String("configuration", m.active.String()))
	m.traceStateChange(newConfiguration(t), nil)

	if err := m.enterRegion(t.rootID, nil, nil); err != nil {
		return m.fail(err)
	}
	return m.settle()
}

// Finish exits every active state bottom-up and leaves the machine in
// StatusFinished. It does nothing when the machine is not running.
func (m *StateMachine) Finish() error {
	if m.dispatching {
		return NewDispatchingError("Finish")
	}
	if m.status != StatusRunning {
		return nil
	}

	done := m.beginDispatch()
	defer done()

	if err := m.exitRegion(m.template.rootID, nil, nil); err != nil {
		return m.fail(err)
	}

	m.previous.copyFrom(m.active)
	m.active.clear()
	m.queue.clear()
	m.status = StatusFinished

	m.logger.Info("state machine finished", slog.String("configuration", m.previous.String()))
	m.traceStateChange(m.previous, nil)
	return nil
}

// SendTriggerEvent queues event and, unless the machine is already
// dispatching, processes the queue to completion. A nil event is the
// completion event. It returns the number of transitions executed.
//
// When called from a callback it returns 0 immediately; the event is
// processed later by the outer dispatch.
func (m *StateMachine) SendTriggerEvent(event, args any) (int, error) {
	if m.status != StatusRunning {
		return 0, NewNotRunningError("SendTriggerEvent")
	}
	if !isComparableEvent(event) {
		return 0, NewInvalidEventError(event)
	}

	m.queue.push(event, args)
	if m.dispatching {
		return 0, nil
	}

	done := m.beginDispatch()
	defer done()

	steps, err := m.dispatch(0)
	if err != nil {
		return steps, m.fail(err)
	}
	return steps, nil
}

// beginDispatch marks the machine as dispatching. The returned func ends the
// dispatch; when it runs while a callback panic unwinds, the events queued so
// far are dropped with the aborted dispatch.
func (m *StateMachine) beginDispatch() func() {
	m.dispatching = true
	return func() {
		if r := recover(); r != nil {
			m.queue.clear()
			m.dispatching = false
			panic(r)
		}
		m.dispatching = false
	}
}

// settle runs the initial do-action pass of Startup and Resume and
// dispatches whatever their callbacks queued
func (m *StateMachine) settle() error {
	doPasses := 0
	if m.template.doActions {
		if err := m.runDoActions(); err != nil {
			return m.fail(err)
		}
		doPasses++
	}
	if m.queue.len() == 0 {
		return nil
	}
	if _, err := m.dispatch(doPasses); err != nil {
		return m.fail(err)
	}
	return nil
}

// dispatch drains the queue, then offers the completion event until a pass
// changes nothing. Do-actions run after each changing pass, or once at the
// end when no pass changed anything; events they queue keep the loop going.
func (m *StateMachine) dispatch(doPasses int) (int, error) {
	steps := 0
	retest := true
	for {
		var next queuedEvent
		if e, ok := m.queue.pop(); ok {
			next = e
		} else if retest {
			next = queuedEvent{}
			retest = false
		} else if m.template.doActions && doPasses == 0 {
			doPasses++
			if err := m.runDoActions(); err != nil {
				return steps, err
			}
			continue
		} else {
			return steps, nil
		}

		n, err := m.pass(next.event, next.args)
		steps += n
		if err != nil {
			return steps, err
		}
		if n == 0 {
			if next.event == nil {
				retest = false
			}
			continue
		}
		retest = true
		if m.template.doActions {
			doPasses++
			if err := m.runDoActions(); err != nil {
				return steps, err
			}
		}
	}
}

// pass offers one event to every region of a snapshot of the active
// configuration
func (m *StateMachine) pass(event, args any) (int, error) {
	m.tracers.dispatch(m, event, args)
	m.logger.Debug("dispatching trigger event", slog.Any("event", event))
	m.snapshot.copyFrom(m.active)
	return m.testRegion(m.template.rootID, event, args)
}

// testRegion tests the transitions of the state active in r in declaration
// order. The first enabled transition executes and preempts the sub-regions
// of that state; otherwise every sub-region is tested independently.
func (m *StateMachine) testRegion(r RegionID, event, args any) (int, error) {
	t := m.template
	s := m.snapshot.stateAt(r)
	for _, id := range s.transitions {
		tr := &t.transitions[id]
		if !tr.matches(event) {
			continue
		}
		m.tracers.test(m, tr, event, args)
		if !m.active.IsMatching(tr.source) {
			continue
		}
		if tr.guard != nil && !tr.guard(m, event, args) {
			continue
		}
		return 1, m.execute(tr, event, args)
	}

	steps := 0
	for _, sub := range s.regions {
		n, err := m.testRegion(sub, event, args)
		steps += n
		if err != nil {
			return steps, err
		}
	}
	return steps, nil
}

// execute performs one external transition: exit below the least common
// ancestor, run the action, switch configurations and enter the new states
func (m *StateMachine) execute(tr *Transition, event, args any) error {
	next := m.previous
	next.initializeAndResolve(m.active, tr.target, tr.lca, m.history)

	if err := m.exitRegion(tr.lca, event, args); err != nil {
		return err
	}
	if tr.action != nil {
		if err := tr.action(m, event, args); err != nil {
			return NewActionError(tr.name, m.template.states[tr.anchor].name, err)
		}
	}

	m.previous, m.active = m.active, next
	m.logger.Debug("state changed",
		slog.String("transition", tr.name),
		slog.String("from", m.previous.String()),
		slog.String("to", m.active.String()))
	m.traceStateChange(m.previous, tr)

	return m.enterRegion(tr.lca, event, args)
}

// exitRegion runs exit actions of the active subtree of r bottom-up, the
// sub-regions of a state in reverse declaration order
func (m *StateMachine) exitRegion(r RegionID, event, args any) error {
	s := m.active.stateAt(r)
	for i := len(s.regions) - 1; i >= 0; i-- {
		if err := m.exitRegion(s.regions[i], event, args); err != nil {
			return err
		}
	}
	if s.exit != nil {
		if err := s.exit(m, event, args); err != nil {
			return NewActionError("exit", s.name, err)
		}
	}
	return nil
}

// enterRegion records history and runs entry actions of the active subtree
// of r top-down
func (m *StateMachine) enterRegion(r RegionID, event, args any) error {
	region := &m.template.regions[r]
	s := m.active.stateAt(r)
	if region.history {
		m.history[region.historyIndex] = s.id
	}
	if s.entry != nil {
		if err := s.entry(m, event, args); err != nil {
			return NewActionError("entry", s.name, err)
		}
	}
	for _, sub := range s.regions {
		if err := m.enterRegion(sub, event, args); err != nil {
			return err
		}
	}
	return nil
}

func (m *StateMachine) runDoActions() error {
	return m.doRegion(m.template.rootID)
}

func (m *StateMachine) doRegion(r RegionID) error {
	s := m.active.stateAt(r)
	if s.do != nil {
		if err := s.do(m); err != nil {
			return NewActionError("do", s.name, err)
		}
	}
	for _, sub := range s.regions {
		if err := m.doRegion(sub); err != nil {
			return err
		}
	}
	return nil
}

// fail discards pending events and reports err to the tracers
func (m *StateMachine) fail(err error) error {
	m.queue.clear()
	m.logger.Error("state machine callback failed", slog.String("error", err.Error()))
	m.tracers.failure(m, err)
	return err
}

func (m *StateMachine) traceStateChange(from *StateConfiguration, tr *Transition) {
	if m.tracers.empty() {
		return
	}
	m.tracers.stateChange(m, from.Clone(), m.active.Clone(), tr)
}

// IsInState reports whether the active configuration matches c, Wildcard
// slots of c matching anything. It is false when the machine is not running.
func (m *StateMachine) IsInState(c *StateConfiguration) bool {
	if m.status != StatusRunning || c == nil {
		return false
	}
	return m.active.IsMatching(c)
}

// IsInStates is IsInState for the partial configuration designating names
func (m *StateMachine) IsInStates(names ...string) (bool, error) {
	c, err := m.template.NewConfiguration(names...)
	if err != nil {
		return false, err
	}
	return m.IsInState(c), nil
}

// ActiveStateConfiguration returns a copy of the active configuration. It is
// empty unless the machine is running.
func (m *StateMachine) ActiveStateConfiguration() *StateConfiguration {
	return m.active.Clone()
}

// HistoryState returns the state last entered in history region r, or
// Wildcard when r keeps no history or nothing was recorded yet
func (m *StateMachine) HistoryState(r RegionID) StateID {
	region := &m.template.regions[r]
	if !region.history {
		return Wildcard
	}
	return m.history[region.historyIndex]
}
