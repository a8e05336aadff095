package observers

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/anggasct/statechart"
)

const instrumentationName = "github.com/anggasct/statechart"

// Span names emitted by OTelTracer
const (
	SpanDispatch   = "statechart.dispatch"
	SpanTransition = "statechart.transition"
	SpanLifecycle  = "statechart.lifecycle"
	SpanError      = "statechart.error"
)

// Attribute keys set on OTelTracer spans
const (
	AttrMachineID  = attribute.Key("statechart.machine_id")
	AttrEvent      = attribute.Key("statechart.event")
	AttrTransition = attribute.Key("statechart.transition")
	AttrFrom       = attribute.Key("statechart.from")
	AttrTo         = attribute.Key("statechart.to")
	AttrEntered    = attribute.Key("statechart.entered")
	AttrExited     = attribute.Key("statechart.exited")
)

// OTelTracer emits an OpenTelemetry span for every dispatched event, state
// change and failure. Trace hooks carry no context, so spans are children of
// the context given with WithSpanContext.
type OTelTracer struct {
	tracer trace.Tracer
	ctx    context.Context
}

// OTelOption configures an OTelTracer
type OTelOption func(*OTelTracer)

// WithTracerProvider takes the tracer from p instead of the global provider
func WithTracerProvider(p trace.TracerProvider) OTelOption {
	return func(o *OTelTracer) {
		if p != nil {
			o.tracer = p.Tracer(instrumentationName)
		}
	}
}

// WithSpanContext sets the parent context of every emitted span
func WithSpanContext(ctx context.Context) OTelOption {
	return func(o *OTelTracer) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// NewOTelTracer creates a tracer using the global tracer provider
func NewOTelTracer(opts ...OTelOption) *OTelTracer {
	o := &OTelTracer{
		tracer: otel.Tracer(instrumentationName),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TraceDispatchTriggerEvent implements statechart.Tracer
func (o *OTelTracer) TraceDispatchTriggerEvent(m *statechart.StateMachine, event any, args any) {
	_, span := o.tracer.Start(o.ctx, SpanDispatch, trace.WithAttributes(
		AttrMachineID.String(m.ID()),
		AttrEvent.String(eventName(event)),
	))
	span.End()
}

// TraceTestTransition implements statechart.Tracer. Tests are too frequent
// to be worth a span each.
func (o *OTelTracer) TraceTestTransition(m *statechart.StateMachine, t *statechart.Transition, event any, args any) {
}

// TraceStateChange implements statechart.Tracer
func (o *OTelTracer) TraceStateChange(m *statechart.StateMachine, from, to *statechart.StateConfiguration, t *statechart.Transition) {
	exited, entered := changedStates(from, to, t)
	name := SpanTransition
	if t == nil {
		name = SpanLifecycle
	}

	attrs := []attribute.KeyValue{
		AttrMachineID.String(m.ID()),
		AttrFrom.String(from.String()),
		AttrTo.String(to.String()),
		AttrExited.StringSlice(exited),
		AttrEntered.StringSlice(entered),
	}
	if t != nil {
		attrs = append(attrs, AttrTransition.String(t.Name()))
	}

	_, span := o.tracer.Start(o.ctx, name, trace.WithAttributes(attrs...))
	span.End()
}

// TraceError implements statechart.ErrorTracer
func (o *OTelTracer) TraceError(m *statechart.StateMachine, err error) {
	_, span := o.tracer.Start(o.ctx, SpanError, trace.WithAttributes(AttrMachineID.String(m.ID())))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
}

func eventName(event any) string {
	if event == nil {
		return "<completion>"
	}
	return fmt.Sprint(event)
}
