package backend

import (
	"context"

	"finledger/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the repository and an optional cleanup function
type Result struct {
	Repository storage.Repository
	Cleanup    CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates repositories based on configuration
type Factory interface {
	CreateRepository(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for repository creation
type Config struct {
	Type BackendType

	// csv
	FilePath string

	// sqlite
	SQLiteDBPath string

	// sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
