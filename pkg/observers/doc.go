// Package observers provides ready-made tracers for monitoring state
// machines.
//
// Every type in this package implements statechart.ErrorTracer and can be
// attached with statechart.WithTracer or StateMachine.AddTracer:
//
//   - LoggingTracer writes each trace hook to a slog.Logger
//   - MetricsTracer counts events, transitions and state visits and
//     measures the time spent in each state
//   - ValidationTracer checks the observed behaviour against expectations
//   - OTelTracer emits OpenTelemetry spans
package observers
