package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"finhealth/internal/core"
	"finhealth/internal/persist"
)

var _ persist.StateStore = (*Store)(nil)

// Store keeps the serialized snapshot in memory. Snapshots are stored as JSON
// so a round trip behaves exactly like the durable backends.
type Store struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func New() *Store {
	return &Store{}
}

// NewFromFile seeds the store from a JSON snapshot on disk. A missing or
// unreadable file yields an empty store.
func NewFromFile(path string) *Store {
	s := New()
	b, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var probe core.AppState
	if json.Unmarshal(b, &probe) == nil {
		s.data = b
	}
	return s
}

func (s *Store) Load(_ context.Context) (core.AppState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return core.AppState{}, false, nil
	}
	var st core.AppState
	if err := json.Unmarshal(s.data, &st); err != nil {
		return core.AppState{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, true, nil
}

func (s *Store) Save(_ context.Context, st core.AppState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = b
	s.saves++
	return nil
}

// Saves reports how many snapshots were written.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Raw returns the last serialized snapshot.
func (s *Store) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
