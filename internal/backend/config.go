package backend

import (
	"fmt"

	"finledger/internal/config"
)

// FromAppConfig builds the configuration of the primary ledger repository.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := sheetsConfig(appConfig)
	cfg.Type = backendType
	cfg.FilePath = appConfig.LedgerFile
	cfg.SQLiteDBPath = appConfig.SQLiteDBPath
	return cfg, nil
}

// MirrorFromAppConfig builds the configuration of the mirror target. For
// file-based mirrors MIRROR_FILE is the path, whatever the backend.
func MirrorFromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.MirrorBackend)
	if !backendType.IsValid() || backendType == MemoryBackend {
		return Config{}, fmt.Errorf("invalid mirror backend in config: %s", appConfig.MirrorBackend)
	}

	cfg := sheetsConfig(appConfig)
	cfg.Type = backendType
	cfg.FilePath = appConfig.MirrorFile
	cfg.SQLiteDBPath = appConfig.MirrorFile
	return cfg, nil
}

func sheetsConfig(appConfig *config.Config) Config {
	return Config{
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.FilePath == "" {
			return fmt.Errorf("file path is required for csv backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, SQLiteBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
