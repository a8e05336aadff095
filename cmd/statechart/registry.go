package main

import (
	"log/slog"

	"github.com/anggasct/statechart"
	"github.com/anggasct/statechart/pkg/definition"
	"github.com/anggasct/statechart/pkg/logger"
)

// builtinRegistry provides the callbacks definitions may reference when run
// from the command line
func builtinRegistry(log *slog.Logger) *definition.Registry {
	logAction := func(msg string) statechart.ActionFunc {
		return func(m *statechart.StateMachine, event, args any) error {
			log.Info(msg, logger.MachineID(m.ID()), logger.Event(event))
			return nil
		}
	}
	return definition.NewRegistry().
		MustRegisterAction("log", logAction("action")).
		MustRegisterAction("logEntry", logAction("entered")).
		MustRegisterAction("logExit", logAction("exited")).
		MustRegisterGuard("always", func(m *statechart.StateMachine, event, args any) bool { return true }).
		MustRegisterGuard("never", func(m *statechart.StateMachine, event, args any) bool { return false }).
		MustRegisterDoAction("logDo", func(m *statechart.StateMachine) error {
			log.Debug("do", logger.MachineID(m.ID()))
			return nil
		})
}
