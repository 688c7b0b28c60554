// Package csvfile stores the ledger as a flat CSV file with a header row.
package csvfile

import (
	"bytes"
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"finledger/internal/core"
	"finledger/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

// Repository reads and rewrites a single CSV file. It holds no state between
// calls, so another process may edit the file in between.
type Repository struct {
	path string
}

func New(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the backing file.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the file. A missing file is an empty ledger.
func (r *Repository) Load(ctx context.Context) (storage.LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.LoadResult{}, err
	}
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.LoadResult{Entries: []core.Entry{}}, nil
	}
	if err != nil {
		return storage.LoadResult{}, fmt.Errorf("read %s: %w", r.path, err)
	}

	rows, lines, unreadable, err := readRows(data)
	if err != nil {
		return storage.LoadResult{}, fmt.Errorf("read %s: %w", r.path, err)
	}
	res, err := storage.DecodeLines(rows, lines)
	if err != nil {
		return storage.LoadResult{}, fmt.Errorf("%s: %w", r.path, err)
	}
	if len(unreadable) > 0 {
		res.Skipped = append(res.Skipped, unreadable...)
		slices.SortStableFunc(res.Skipped, func(a, b storage.SkippedRecord) int {
			return cmp.Compare(a.Line, b.Line)
		})
	}
	return res, nil
}

// Save writes all entries to a temporary file next to the target and renames
// it into place, so readers never observe a half-written ledger.
func (r *Repository) Save(ctx context.Context, entries []core.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(storage.EncodeTable(entries)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}

func newReader(data []byte, lazy bool) *csv.Reader {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = lazy
	return cr
}

// readRows splits data into records and the line each one starts on. A line
// with a stray quote inside an unquoted field is re-read leniently. A record
// that still cannot be parsed is reported as unreadable and reading resumes
// on the line after it starts.
func readRows(data []byte) (rows [][]string, lines []int, unreadable []storage.SkippedRecord, err error) {
	starts := lineStarts(data)
	offset := func(line int) int {
		if line-1 < len(starts) {
			return starts[line-1]
		}
		return len(data)
	}

	next := 1
	for next <= len(starts) {
		base := next - 1
		cr := newReader(data[offset(next):], false)
		resume := 0
		for resume == 0 {
			rec, rerr := cr.Read()
			if errors.Is(rerr, io.EOF) {
				return rows, lines, unreadable, nil
			}
			var pe *csv.ParseError
			if !errors.As(rerr, &pe) {
				if rerr != nil {
					return nil, nil, nil, rerr
				}
				line, _ := cr.FieldPos(0)
				rows = append(rows, rec)
				lines = append(lines, base+line)
				continue
			}

			first, last := base+pe.StartLine, base+pe.Line
			if errors.Is(pe.Err, csv.ErrBareQuote) {
				lr := newReader(data[offset(first):offset(last+1)], true)
				for {
					rec, lerr := lr.Read()
					if errors.Is(lerr, io.EOF) {
						break
					}
					if lerr != nil {
						unreadable = append(unreadable, storage.SkippedRecord{
							Line: first,
							Err:  fmt.Errorf("%w: line %d: %v", storage.ErrCorruptRecord, first, lerr),
						})
						break
					}
					line, _ := lr.FieldPos(0)
					rows = append(rows, rec)
					lines = append(lines, first-1+line)
				}
				resume = last + 1
				continue
			}
			unreadable = append(unreadable, storage.SkippedRecord{
				Line: first,
				Err:  fmt.Errorf("%w: line %d: %v", storage.ErrCorruptRecord, first, pe.Err),
			})
			resume = first + 1
		}
		next = resume
	}
	return rows, lines, unreadable, nil
}

// lineStarts returns the byte offset of every line in data.
func lineStarts(data []byte) []int {
	if len(data) == 0 {
		return nil
	}
	starts := []int{0}
	for i, b := range data {
		if b == '\n' && i+1 < len(data) {
			starts = append(starts, i+1)
		}
	}
	return starts
}
