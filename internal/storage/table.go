package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"finledger/internal/core"
)

// Column names in the order they are written.
const (
	ColID          = "id"
	ColDate        = "date"
	ColKind        = "kind"
	ColCategory    = "category"
	ColAmount      = "amount"
	ColDescription = "description"
)

// Columns is the stable on-disk column order.
var Columns = []string{ColID, ColDate, ColKind, ColCategory, ColAmount, ColDescription}

var columnAliases = map[string]string{
	"type": ColKind,
}

var required = []string{ColDate, ColCategory, ColAmount}

// Older ledgers stored full timestamps.
var dateLayouts = []string{
	core.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Header returns a copy of the column row.
func Header() []string {
	return append([]string(nil), Columns...)
}

// EncodeRow renders an entry as cells in Columns order.
func EncodeRow(e core.Entry) []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Date.String(),
		e.Kind.String(),
		e.Category,
		e.Amount.String(),
		e.Description,
	}
}

// EncodeTable renders the header followed by one row per entry.
func EncodeTable(entries []core.Entry) [][]string {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, Header())
	for _, e := range entries {
		rows = append(rows, EncodeRow(e))
	}
	return rows
}

// DecodeTable parses rows whose first row is a header. Columns are matched by
// name, in any order and case, so files written by older versions (no id
// column, "type" instead of "kind") still load. Rows that fail to decode are
// reported in Skipped; a blank table is an empty ledger.
func DecodeTable(rows [][]string) (LoadResult, error) {
	return DecodeLines(rows, nil)
}

// DecodeLines is DecodeTable for sources where rows do not map one to one
// onto lines: lines[i] is the line rows[i] starts on. A nil lines means
// rows[i] sits on line i+1.
func DecodeLines(rows [][]string, lines []int) (LoadResult, error) {
	res := LoadResult{Entries: []core.Entry{}}
	if len(rows) == 0 || blank(rows[0]) {
		return res, nil
	}

	idx, err := headerIndex(rows[0])
	if err != nil {
		return LoadResult{}, err
	}

	seen := map[int64]struct{}{}
	for i, row := range rows[1:] {
		line := i + 2
		if lines != nil {
			line = lines[i+1]
		}
		if blank(row) {
			continue
		}
		e, err := decodeRow(row, idx)
		if err == nil && e.ID != 0 {
			if _, dup := seen[e.ID]; dup {
				err = fmt.Errorf("duplicate id %d", e.ID)
			}
		}
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{
				Line: line,
				Err:  fmt.Errorf("%w: line %d: %v", ErrCorruptRecord, line, err),
			})
			continue
		}
		if e.ID != 0 {
			seen[e.ID] = struct{}{}
		}
		res.Entries = append(res.Entries, e)
	}
	return res, nil
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s) %s", ErrUnsupportedSchema, strings.Join(missing, ", "))
	}
	return idx, nil
}

func decodeRow(row []string, idx map[string]int) (core.Entry, error) {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var e core.Entry
	if raw := cell(ColID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return core.Entry{}, fmt.Errorf("invalid id %q", raw)
		}
		e.ID = id
	}

	date, err := parseStoredDate(cell(ColDate))
	if err != nil {
		return core.Entry{}, err
	}
	e.Date = date

	if e.Kind, err = core.ParseKind(cell(ColKind)); err != nil {
		return core.Entry{}, err
	}
	if e.Category, err = core.NormalizeCategory(cell(ColCategory)); err != nil {
		return core.Entry{}, err
	}
	if e.Amount, err = core.ValidateAmount(cell(ColAmount)); err != nil {
		return core.Entry{}, err
	}
	e.Description = cell(ColDescription)
	return e, nil
}

func parseStoredDate(text string) (core.Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.ValidateDate(text)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
