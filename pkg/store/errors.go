package store

import "errors"

var (
	ErrNotFound       = errors.New("snapshot not found")
	ErrEmptyID        = errors.New("empty machine id")
	ErrNotReady       = errors.New("store did not become ready within the given time period")
	ErrUnknownDriver  = errors.New("unknown store driver")
	ErrInvalidTable   = errors.New("invalid snapshot table name")
	ErrFailedToSave   = errors.New("failed to save snapshot")
	ErrFailedToLoad   = errors.New("failed to load snapshot")
	ErrFailedToDelete = errors.New("failed to delete snapshot")
)
