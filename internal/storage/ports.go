// Package storage defines the persistence contract of the ledger and the
// tabular record format shared by the file, database and spreadsheet
// adapters.
package storage

import (
	"context"
	"errors"

	"finledger/internal/core"
)

var (
	// ErrCorruptRecord marks a stored record that could not be decoded. Such
	// records are skipped on load, never fatal.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrUnsupportedSchema is returned when the stored header lacks a
	// required column.
	ErrUnsupportedSchema = errors.New("unsupported schema")
)

type (
	// Repository loads and saves the complete entry set. Save replaces
	// whatever was stored before with exactly the given entries, in order.
	Repository interface {
		Load(ctx context.Context) (LoadResult, error)
		Save(ctx context.Context, entries []core.Entry) error
	}

	// LoadResult is what a Repository read back. Entries without an ID in
	// storage come back with ID 0.
	LoadResult struct {
		Entries []core.Entry
		Skipped []SkippedRecord
	}

	// SkippedRecord describes a record dropped while loading.
	SkippedRecord struct {
		Line int // 1-based position in the backing store, header included
		Err  error
	}
)

func (s SkippedRecord) Error() string {
	return s.Err.Error()
}

func (s SkippedRecord) Unwrap() error {
	return s.Err
}
