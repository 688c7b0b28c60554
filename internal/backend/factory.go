package backend

import (
	"context"
	"fmt"

	"finledger/internal/log"
	"finledger/internal/storage/csvfile"
	gsheet "finledger/internal/storage/google"
	"finledger/internal/storage/memory"
	"finledger/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new repository factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateRepository implements Factory.CreateRepository
func (f *DefaultFactory) CreateRepository(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		f.logger.InfoContext(ctx, "Initialized CSV backend", "path", config.FilePath)
		return &Result{Repository: csvfile.New(config.FilePath)}, nil
	case SQLiteBackend:
		return f.createSQLite(ctx, config)
	case SheetsBackend:
		return f.createSheets(ctx, config)
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend; entries are lost on exit")
		return &Result{Repository: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLite(ctx context.Context, config Config) (*Result, error) {
	repo, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{Repository: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSheets(ctx context.Context, config Config) (*Result, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
	return &Result{Repository: cli}, nil
}
