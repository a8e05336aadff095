package observers

import (
	"context"
	"log/slog"

	"github.com/anggasct/statechart"
	"github.com/anggasct/statechart/pkg/logger"
)

// LoggingTracer logs state machine trace hooks through slog.
//
// Dispatches and transition tests are logged at the trace level (Debug by
// default), state changes at Info and failures at Error.
type LoggingTracer struct {
	log        *slog.Logger
	traceLevel slog.Level
}

// LoggingOption configures a LoggingTracer
type LoggingOption func(*LoggingTracer)

// WithTraceLevel sets the level used for dispatch and test records
func WithTraceLevel(l slog.Level) LoggingOption {
	return func(t *LoggingTracer) { t.traceLevel = l }
}

// NewLoggingTracer creates a tracer writing to log. A nil logger falls back
// to slog.Default().
func NewLoggingTracer(log *slog.Logger, opts ...LoggingOption) *LoggingTracer {
	if log == nil {
		log = slog.Default()
	}
	t := &LoggingTracer{
		log:        log.With(slog.String("component", "statechart")),
		traceLevel: slog.LevelDebug,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewDefaultLoggingTracer creates a logging tracer with text output at Info level
func NewDefaultLoggingTracer() *LoggingTracer {
	return NewLoggingTracer(logger.New(logger.WithFormat(logger.FormatText)))
}

// TraceDispatchTriggerEvent implements statechart.Tracer
func (t *LoggingTracer) TraceDispatchTriggerEvent(m *statechart.StateMachine, event any, args any) {
	t.log.LogAttrs(context.Background(), t.traceLevel, "dispatching event",
		logger.MachineID(m.ID()),
		logger.Event(event),
	)
}

// TraceTestTransition implements statechart.Tracer
func (t *LoggingTracer) TraceTestTransition(m *statechart.StateMachine, tr *statechart.Transition, event any, args any) {
	t.log.LogAttrs(context.Background(), t.traceLevel, "testing transition",
		logger.MachineID(m.ID()),
		logger.Transition(tr.Name()),
		logger.Event(event),
	)
}

// TraceStateChange implements statechart.Tracer
func (t *LoggingTracer) TraceStateChange(m *statechart.StateMachine, from, to *statechart.StateConfiguration, tr *statechart.Transition) {
	exited, entered := changedStates(from, to, tr)
	attrs := []slog.Attr{
		logger.MachineID(m.ID()),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Any("exited", exited),
		slog.Any("entered", entered),
	}
	if tr != nil {
		attrs = append(attrs, logger.Transition(tr.Name()))
	}
	t.log.LogAttrs(context.Background(), slog.LevelInfo, "state changed", attrs...)
}

// TraceError implements statechart.ErrorTracer
func (t *LoggingTracer) TraceError(m *statechart.StateMachine, err error) {
	t.log.LogAttrs(context.Background(), slog.LevelError, "state machine error",
		logger.MachineID(m.ID()),
		logger.Error(err),
	)
}
