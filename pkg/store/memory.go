package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is a Store backed by a map. It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{snapshots: make(map[string][]byte)}
}

func (s *Memory) Save(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[id] = slices.Clone(data)
	return nil
}

func (s *Memory) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.snapshots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (s *Memory) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

// Len returns the number of stored snapshots
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

func (s *Memory) Close() error {
	return nil
}
