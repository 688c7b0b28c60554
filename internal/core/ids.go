package core

import (
	"fmt"
	"strings"
)

const (
	// Monotonic allocates max(existing)+1 and leaves surviving IDs untouched on delete.
	Monotonic IDPolicy = "monotonic"
	// Dense renumbers the survivors 1..N after every delete.
	Dense IDPolicy = "dense"
)

// IDPolicy selects how identities behave across deletes.
type IDPolicy string

func (p IDPolicy) String() string {
	return string(p)
}

// ParseIDPolicy maps configuration text to a policy. Empty text is Monotonic.
func ParseIDPolicy(text string) (IDPolicy, error) {
	switch IDPolicy(strings.ToLower(strings.TrimSpace(text))) {
	case "", Monotonic:
		return Monotonic, nil
	case Dense:
		return Dense, nil
	default:
		return "", fmt.Errorf("unknown id policy %q: must be %q or %q", text, Monotonic, Dense)
	}
}

// NextID returns max(existing ids)+1, or 1 for an empty ledger.
func NextID(entries []Entry) int64 {
	var highest int64
	for _, e := range entries {
		if e.ID > highest {
			highest = e.ID
		}
	}
	return highest + 1
}

// Renumber returns a copy of entries with IDs 1..N in their current order.
func Renumber(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.ID = int64(i + 1)
		out[i] = e
	}
	return out
}

// Backfill returns a copy of entries where every entry without an ID gets a
// fresh one, allocated in order after the largest existing ID. The second
// result is the number of IDs assigned.
func Backfill(entries []Entry) ([]Entry, int) {
	next := NextID(entries)
	out := make([]Entry, len(entries))
	assigned := 0
	for i, e := range entries {
		if e.ID <= 0 {
			e.ID = next
			next++
			assigned++
		}
		out[i] = e
	}
	return out, assigned
}
