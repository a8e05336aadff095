package logger

import (
	"fmt"
	"log/slog"
)

// Attribute keys shared by the engine, the tracers and the CLI.
const (
	KeyMachineID     = "machine_id"
	KeyEvent         = "event"
	KeyTransition    = "transition"
	KeyConfiguration = "configuration"
	KeyError         = "error"
)

func MachineID(id string) slog.Attr {
	return slog.String(KeyMachineID, id)
}

// Event renders a trigger event. The completion event nil is rendered as
// "<completion>".
func Event(event any) slog.Attr {
	if event == nil {
		return slog.String(KeyEvent, "<completion>")
	}
	return slog.String(KeyEvent, fmt.Sprint(event))
}

func Transition(name string) slog.Attr {
	return slog.String(KeyTransition, name)
}

func Configuration(c fmt.Stringer) slog.Attr {
	return slog.String(KeyConfiguration, c.String())
}

// Error returns an error attribute, or an empty Attr for a nil error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Errors groups multiple non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.String(fmt.Sprintf("%d", i), err.Error()))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}
