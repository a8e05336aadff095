// Package logger builds slog loggers for statechart services and tools.
//
// New returns a *slog.Logger writing JSON or text records at the configured
// level. The attribute helpers keep the keys used by the engine and the
// tracers consistent:
//
//	log := logger.New(logger.WithFormat(logger.FormatText), logger.WithLevel(slog.LevelDebug))
//	m := tmpl.CreateStateMachine(statechart.WithLogger(log))
package logger
