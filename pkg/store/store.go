package store

import (
	"bytes"
	"context"
	"errors"

	"github.com/anggasct/statechart"
)

// Store persists snapshots keyed by machine ID
type Store interface {
	// Save stores data under id, replacing any previous snapshot
	Save(ctx context.Context, id string, data []byte) error
	// Load returns the snapshot stored under id or ErrNotFound
	Load(ctx context.Context, id string) ([]byte, error)
	// Delete removes the snapshot stored under id. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, id string) error
}

// Checkpoint saves the state of the running machine m under its ID
func Checkpoint(ctx context.Context, s Store, m *statechart.StateMachine) error {
	var buf bytes.Buffer
	if err := m.SaveState(&buf); err != nil {
		return err
	}
	return s.Save(ctx, m.ID(), buf.Bytes())
}

// Restore resumes m from the snapshot stored under its ID. With enter set,
// the entry actions of the restored configuration run.
func Restore(ctx context.Context, s Store, m *statechart.StateMachine, enter bool) error {
	data, err := s.Load(ctx, m.ID())
	if err != nil {
		return err
	}
	return m.Resume(bytes.NewReader(data), enter)
}

// RestoreOrStart resumes m when a snapshot exists and starts it otherwise.
// It reports whether the machine was restored.
func RestoreOrStart(ctx context.Context, s Store, m *statechart.StateMachine, enter bool) (bool, error) {
	err := Restore(ctx, s, m, enter)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, m.Startup()
	default:
		return false, err
	}
}

func checkID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return nil
}
