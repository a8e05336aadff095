package definition

import "errors"

var (
	ErrInvalidDefinition = errors.New("invalid statechart definition")
	ErrFailedToParseYAML = errors.New("failed to parse statechart definition")
	ErrUnknownAction     = errors.New("unknown action")
	ErrUnknownGuard      = errors.New("unknown guard")
	ErrUnknownDoAction   = errors.New("unknown do-action")
	ErrDuplicateName     = errors.New("callback name already registered")
)
