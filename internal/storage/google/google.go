// Package google stores the ledger in one tab of a Google Sheets spreadsheet,
// using the same header and column order as the CSV file.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finledger/internal/core"
	"finledger/internal/storage"
)

var _ storage.Repository = (*Client)(nil)

// Config identifies the spreadsheet tab and the service account used to
// reach it. CredentialsJSON wins over CredentialsFile; with neither set,
// GOOGLE_APPLICATION_CREDENTIALS is consulted.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets client authenticated with service account
// credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service. An empty sheet name means
// "Ledger".
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Ledger"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// quotedSheet returns the tab name in A1 notation, which allows spaces.
func (c *Client) quotedSheet() string {
	return "'" + strings.ReplaceAll(c.sheetName, "'", "''") + "'"
}

func (c *Client) dataRange() string {
	return c.quotedSheet() + "!A:F"
}

// Load reads the whole tab. A tab that does not exist yet is an empty
// ledger.
func (c *Client) Load(ctx context.Context) (storage.LoadResult, error) {
	if c.svc == nil {
		return storage.LoadResult{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.dataRange()).Context(ctx).Do()
	if err != nil {
		if isMissingSheet(err) {
			return storage.LoadResult{Entries: []core.Entry{}}, nil
		}
		return storage.LoadResult{}, fmt.Errorf("read %s: %w", c.dataRange(), err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		rows = append(rows, toStrings(row))
	}
	res, err := storage.DecodeTable(rows)
	if err != nil {
		return storage.LoadResult{}, fmt.Errorf("sheet %s: %w", c.sheetName, err)
	}
	return res, nil
}

// Save clears the tab and writes header plus entries. The two calls are not
// atomic: a failure between them leaves the tab empty until the next Save.
func (c *Client) Save(ctx context.Context, entries []core.Entry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.dataRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", c.dataRange(), err)
	}

	table := storage.EncodeTable(entries)
	values := make([][]any, len(table))
	for i, row := range table {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	rng := c.quotedSheet() + "!A1"
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func isMissingSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}
