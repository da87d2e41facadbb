package history

import (
	"context"
	"sync"

	"github.com/tubegrab/tubegrab/internal/types"
)

// MemoryStore is the in-process Store backend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []types.HistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(_ context.Context, entry types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = prepend(s.entries, entry)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]types.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// prepend inserts entry at the front and enforces the MaxEntries cap.
func prepend(entries []types.HistoryEntry, entry types.HistoryEntry) []types.HistoryEntry {
	out := make([]types.HistoryEntry, 0, len(entries)+1)
	out = append(out, entry)
	out = append(out, entries...)
	if len(out) > MaxEntries {
		out = out[:MaxEntries]
	}
	return out
}
