// Package store keeps persisted state machine snapshots in memory, Redis,
// PostgreSQL or MongoDB.
//
// Snapshots are the bytes written by StateMachine.SaveState, keyed by the
// machine ID. Checkpoint and Restore connect a Store to a machine:
//
//	s := store.NewMemory()
//	if err := store.Checkpoint(ctx, s, m); err != nil {
//		return err
//	}
//	// later, possibly in another process
//	m := tmpl.CreateStateMachine(statechart.WithID(id))
//	err := store.Restore(ctx, s, m, false)
//
// Restore returns ErrNotFound when no snapshot exists for the machine ID.
package store
