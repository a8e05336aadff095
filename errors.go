package statechart

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error conditions of the engine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Region/State/EndRegion/EndState calls are not properly nested
	ErrCodeInvalidNesting
	// A state or transition name does not match the identifier grammar
	ErrCodeInvalidName
	// A state or transition name was declared twice
	ErrCodeDuplicateName
	// A referenced state name does not exist
	ErrCodeUnknownState
	// A transition source is not the anchor state or one of its descendants
	ErrCodeSourceNotUnderAnchor
	// Two names require different states in the same region slot
	ErrCodeConflictingStates
	// The template was already frozen
	ErrCodeTemplateFrozen
	// The template was not completed by closing the root region
	ErrCodeTemplateNotClosed
	// A do-action was declared on a template without do-action support
	ErrCodeDoActionsDisabled
	// History was requested for the root region
	ErrCodeHistoryOnRoot
	// The structural signature was already computed
	ErrCodeSignatureSealed
	// A transition declares no target state
	ErrCodeNoTarget
	// A trigger event value cannot be compared with ==
	ErrCodeInvalidEvent
	// Machine is not running
	ErrCodeNotRunning
	// Machine is already running
	ErrCodeAlreadyRunning
	// Operation is not allowed from inside a callback
	ErrCodeDispatching
	// A callback returned an error
	ErrCodeActionFailed
	// A persisted state stream could not be decoded
	ErrCodeInvalidFormat
	// A persisted state stream belongs to a different template shape
	ErrCodeSignatureMismatch
)

var (
	// ErrFormat is wrapped by every persisted-state decode failure
	ErrFormat = errors.New("invalid persisted state format")

	// ErrSignatureMismatch is wrapped when a persisted state was saved from a template of a different shape
	ErrSignatureMismatch = errors.New("template signature mismatch")

	// ErrTemplateNotClosed is returned by Build when the root region is still open
	ErrTemplateNotClosed = &BuildError{Code: ErrCodeTemplateNotClosed, Element: "Template", Message: "root region is not closed"}
)

// BuildError represents a structural error detected while building a template
type BuildError struct {
	Code    ErrorCode
	Element string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("template error in %s: %s", e.Element, e.Message)
}

// Is matches build errors by code so errors.Is works against the exported sentinels
func (e *BuildError) Is(target error) bool {
	t, ok := target.(*BuildError)
	return ok && t.Code == e.Code
}

// NewBuildError creates a new build error
func NewBuildError(code ErrorCode, element, format string, args ...any) *BuildError {
	return &BuildError{
		Code:    code,
		Element: element,
		Message: fmt.Sprintf(format, args...),
	}
}

// MachineError represents state machine lifecycle errors
type MachineError struct {
	Code      ErrorCode
	Operation string
	Message   string
}

func (e *MachineError) Error() string {
	return fmt.Sprintf("machine error during %s: %s", e.Operation, e.Message)
}

// NewNotRunningError creates a new machine not running error
func NewNotRunningError(operation string) *MachineError {
	return &MachineError{
		Code:      ErrCodeNotRunning,
		Operation: operation,
		Message:   "state machine is not running",
	}
}

// NewAlreadyRunningError creates a new machine already running error
func NewAlreadyRunningError(operation string) *MachineError {
	return &MachineError{
		Code:      ErrCodeAlreadyRunning,
		Operation: operation,
		Message:   "state machine is already running",
	}
}

// NewDispatchingError creates a new error for lifecycle calls made from inside a callback
func NewDispatchingError(operation string) *MachineError {
	return &MachineError{
		Code:      ErrCodeDispatching,
		Operation: operation,
		Message:   "not allowed while the state machine is dispatching",
	}
}

// NewInvalidEventError creates a new error for trigger events that cannot be compared
func NewInvalidEventError(event any) *MachineError {
	return &MachineError{
		Code:      ErrCodeInvalidEvent,
		Operation: "SendTriggerEvent",
		Message:   fmt.Sprintf("trigger event of type %T is not comparable", event),
	}
}

// FormatError represents a persisted state decode failure
type FormatError struct {
	Offset  int64
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("persisted state error at offset %d: %s: %v", e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("persisted state error at offset %d: %s", e.Offset, e.Message)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// ActionError represents a failure returned by an entry, exit, transition or do action
type ActionError struct {
	Action      string
	State       string
	OriginalErr error
}

func (e *ActionError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("action '%s' failed in state '%s': %v", e.Action, e.State, e.OriginalErr)
	}
	return fmt.Sprintf("action '%s' failed in state '%s'", e.Action, e.State)
}

func (e *ActionError) Unwrap() error {
	return e.OriginalErr
}

// NewActionError creates a new action execution error
func NewActionError(action, state string, err error) *ActionError {
	return &ActionError{
		Action:      action,
		State:       state,
		OriginalErr: err,
	}
}

// IsBuildError checks if an error is a BuildError
func IsBuildError(err error) bool {
	var e *BuildError
	return errors.As(err, &e)
}

// IsMachineError checks if an error is a MachineError
func IsMachineError(err error) bool {
	var e *MachineError
	return errors.As(err, &e)
}

// IsFormatError checks if an error is a FormatError
func IsFormatError(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

// IsActionError checks if an error is an ActionError
func IsActionError(err error) bool {
	var e *ActionError
	return errors.As(err, &e)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var (
		buildErr  *BuildError
		machErr   *MachineError
		formatErr *FormatError
		actionErr *ActionError
	)
	switch {
	case errors.As(err, &buildErr):
		return buildErr.Code
	case errors.As(err, &machErr):
		return machErr.Code
	case errors.As(err, &formatErr):
		if errors.Is(formatErr, ErrSignatureMismatch) {
			return ErrCodeSignatureMismatch
		}
		return ErrCodeInvalidFormat
	case errors.As(err, &actionErr):
		return ErrCodeActionFailed
	default:
		return ErrCodeNone
	}
}
