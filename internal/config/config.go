// Package config reads the ledger configuration from the environment and an
// optional config file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"finledger/internal/core"
	"finledger/internal/log"
)

// Backend names accepted by DATA_BACKEND and MIRROR_BACKEND.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int // 0 disables throttling

	// Primary storage
	DataBackend  string
	LedgerFile   string
	SQLiteDBPath string
	IDPolicy     string

	// Presentation
	CurrencyPrefix string

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP; empty URL disables events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker
	MirrorBackend string
	MirrorFile    string
	SyncInterval  time.Duration
}

var defaults = map[string]any{
	"PORT":              "8081",
	"RATE_LIMIT_RPM":    120,
	"DATA_BACKEND":      BackendCSV,
	"LEDGER_FILE":       "./data/ledger.csv",
	"SQLITE_DB_PATH":    "./data/ledger.db",
	"ID_POLICY":         string(core.Monotonic),
	"CURRENCY_PREFIX":   "Rs.",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "text",
	"AMQP_URL":          "",
	"AMQP_EXCHANGE":     "ledger",
	"AMQP_QUEUE":        "ledger_events",
	"GOOGLE_SHEET_NAME": "Ledger",
	"MIRROR_BACKEND":    BackendSheets,
	"SYNC_INTERVAL":     "5m",
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path (any format viper understands) with
// environment variables taking precedence. An empty path reads the
// environment only.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_RPM"),

		DataBackend:  strings.ToLower(v.GetString("DATA_BACKEND")),
		LedgerFile:   v.GetString("LEDGER_FILE"),
		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),
		IDPolicy:     v.GetString("ID_POLICY"),

		CurrencyPrefix: v.GetString("CURRENCY_PREFIX"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		GoogleSpreadsheetID:      v.GetString("GOOGLE_SPREADSHEET_ID"),
		GoogleSheetName:          v.GetString("GOOGLE_SHEET_NAME"),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleServiceAccountFile: v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),

		MirrorBackend: strings.ToLower(v.GetString("MIRROR_BACKEND")),
		MirrorFile:    v.GetString("MIRROR_FILE"),
	}

	interval, err := time.ParseDuration(v.GetString("SYNC_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL %q: %w", v.GetString("SYNC_INTERVAL"), err)
	}
	cfg.SyncInterval = interval

	return cfg, nil
}

// Policy returns the parsed ID policy. Call Validate first.
func (c *Config) Policy() core.IDPolicy {
	p, _ := core.ParseIDPolicy(c.IDPolicy)
	return p
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be zero or positive", c.RateLimitPerMinute))
	}

	validBackends := []string{BackendCSV, BackendSQLite, BackendSheets, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	errors = append(errors, c.backendProblems(c.DataBackend, c.LedgerFile)...)

	if _, err := core.ParseIDPolicy(c.IDPolicy); err != nil {
		errors = append(errors, err.Error())
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	return joinProblems(errors)
}

// ValidateMirror checks the settings only the mirror worker needs.
func (c *Config) ValidateMirror() error {
	var errors []string
	validMirrors := []string{BackendCSV, BackendSQLite, BackendSheets}
	if !slices.Contains(validMirrors, c.MirrorBackend) {
		errors = append(errors, fmt.Sprintf("invalid mirror backend '%s': must be one of %v", c.MirrorBackend, validMirrors))
	}
	if c.MirrorBackend != BackendSheets && c.MirrorFile == "" {
		errors = append(errors, "MIRROR_FILE is required for file-based mirror backends")
	}
	if c.MirrorBackend == c.DataBackend && c.MirrorBackend != BackendSheets && c.MirrorFile == c.primaryPath() {
		errors = append(errors, "mirror target must differ from the primary ledger")
	}
	errors = append(errors, c.backendProblems(c.MirrorBackend, c.MirrorFile)...)
	return joinProblems(errors)
}

func (c *Config) primaryPath() string {
	if c.DataBackend == BackendSQLite {
		return c.SQLiteDBPath
	}
	return c.LedgerFile
}

func (c *Config) backendProblems(backend, file string) []string {
	var errors []string
	switch backend {
	case BackendCSV:
		if file == "" {
			errors = append(errors, "ledger file path cannot be empty when using csv backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" && file == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}
	return errors
}

func joinProblems(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
