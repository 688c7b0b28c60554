package memory

import (
	"context"
	"sync"

	"finledger/internal/core"
	"finledger/internal/storage"
)

var _ storage.Repository = (*Store)(nil)

// Store keeps the ledger in process memory. Load and Save exchange copies, so
// callers never share a slice with the store.
type Store struct {
	mu      sync.Mutex
	items   []core.Entry
	skipped []storage.SkippedRecord
}

func New(seed ...core.Entry) *Store {
	return &Store{items: clone(seed)}
}

// Load returns a copy of the stored entries.
func (s *Store) Load(_ context.Context) (storage.LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.LoadResult{
		Entries: clone(s.items),
		Skipped: append([]storage.SkippedRecord(nil), s.skipped...),
	}, nil
}

// Save replaces the stored entries.
func (s *Store) Save(_ context.Context, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = clone(entries)
	s.skipped = nil
	return nil
}

// MarkSkipped makes the next Load report rec as skipped, mimicking a corrupt
// row in a file-backed store.
func (s *Store) MarkSkipped(rec storage.SkippedRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped = append(s.skipped, rec)
}

func clone(in []core.Entry) []core.Entry {
	out := make([]core.Entry, len(in))
	copy(out, in)
	return out
}
