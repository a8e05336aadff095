package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when a nil pointer is provided to Parse
	ErrNilPointer = errors.New("nil pointer provided to config loader")

	// ErrInvalidConfig is returned by Validate for inconsistent settings
	ErrInvalidConfig = errors.New("invalid configuration")
)
