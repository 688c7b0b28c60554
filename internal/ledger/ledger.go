// Package ledger owns the in-memory entry set and keeps it consistent with
// the backing repository.
//
// Every operation first reloads from the repository, so edits made by another
// process between two calls are picked up. Mutations build the new entry set
// on the side and swap it in only after the repository accepted it: a failed
// add or delete leaves both the store and storage as they were.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// Publisher is notified after a mutation has been persisted.
type Publisher interface {
	PublishEntryAdded(ctx context.Context, e core.Entry) error
	PublishEntryDeleted(ctx context.Context, e core.Entry) error
}

// Ledger serialises its operations with a mutex. That only protects callers
// in the same process; other writers are handled by reload-before-write.
type Ledger struct {
	mu        sync.Mutex
	repo      storage.Repository
	policy    core.IDPolicy
	publisher Publisher
	logger    *log.Logger

	entries   []core.Entry
	highWater int64 // largest ID handed out or seen by this process
}

type Option func(*Ledger)

func WithIDPolicy(p core.IDPolicy) Option {
	return func(l *Ledger) { l.policy = p }
}

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func New(repo storage.Repository, opts ...Option) *Ledger {
	l := &Ledger{
		repo:    repo,
		policy:  core.Monotonic,
		entries: []core.Entry{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.FromContext(context.Background()).WithComponent(log.ComponentLedger)
	}
	return l
}

// LoadReport describes the outcome of a reload.
type LoadReport struct {
	Count      int
	Skipped    []storage.SkippedRecord
	Backfilled int // entries that had no ID in storage
}

// ListOptions orders a listing. The zero value sorts by date, ascending.
type ListOptions struct {
	SortBy core.SortField
	Desc   bool
}

// Load replaces the in-memory entries with the repository's contents.
func (l *Ledger) Load(ctx context.Context) (LoadReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reload(ctx)
}

// Entries returns a snapshot of the in-memory entries as of the last reload,
// in stored order.
func (l *Ledger) Entries() []core.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Entry(nil), l.entries...)
}

// Replace persists entries as the complete ledger and swaps them in. Every
// entry must be valid and IDs must be unique.
func (l *Ledger) Replace(ctx context.Context, entries []core.Entry) error {
	seen := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate id %d: %w", e.ID, core.ErrInvalidID)
		}
		seen[e.ID] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commit(ctx, append([]core.Entry(nil), entries...))
}

// AddEntry validates the input, assigns a fresh ID and persists the new
// entry. Invalid input never reaches storage.
func (l *Ledger) AddEntry(ctx context.Context, in core.EntryInput) (core.Entry, error) {
	e, err := in.Build()
	if err != nil {
		return core.Entry{}, err
	}
	if e, err = l.add(ctx, e); err != nil {
		return core.Entry{}, err
	}

	if l.publisher != nil {
		if err := l.publisher.PublishEntryAdded(ctx, e); err != nil {
			l.logger.WarnContext(ctx, "Failed to publish entry added event",
				log.FieldEntryID, e.ID, log.FieldError, err)
		}
	}
	return e, nil
}

func (l *Ledger) add(ctx context.Context, e core.Entry) (core.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.reload(ctx); err != nil {
		return core.Entry{}, err
	}

	e.ID = l.nextID()
	next := make([]core.Entry, 0, len(l.entries)+1)
	next = append(next, l.entries...)
	next = append(next, e)

	if err := l.commit(ctx, next); err != nil {
		return core.Entry{}, err
	}
	l.logger.InfoContext(ctx, "Entry added", log.NewFields().WithEntry(e).WithOperation(log.OpAdd).ToSlice()...)
	return e, nil
}

// DeleteEntry removes the entry with the given ID. Under the dense policy the
// survivors are renumbered 1..N.
func (l *Ledger) DeleteEntry(ctx context.Context, id int64) error {
	removed, err := l.remove(ctx, id)
	if err != nil {
		return err
	}

	if l.publisher != nil {
		if err := l.publisher.PublishEntryDeleted(ctx, removed); err != nil {
			l.logger.WarnContext(ctx, "Failed to publish entry deleted event",
				log.FieldEntryID, removed.ID, log.FieldError, err)
		}
	}
	return nil
}

func (l *Ledger) remove(ctx context.Context, id int64) (core.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.reload(ctx); err != nil {
		return core.Entry{}, err
	}

	idx := -1
	for i, e := range l.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Entry{}, fmt.Errorf("%w: id %d", ErrEntryNotFound, id)
	}
	removed := l.entries[idx]

	next := make([]core.Entry, 0, len(l.entries)-1)
	next = append(next, l.entries[:idx]...)
	next = append(next, l.entries[idx+1:]...)
	if l.policy == core.Dense {
		next = core.Renumber(next)
	}

	if err := l.commit(ctx, next); err != nil {
		return core.Entry{}, err
	}
	l.logger.InfoContext(ctx, "Entry deleted", log.NewFields().WithEntry(removed).WithOperation(log.OpDelete).ToSlice()...)
	return removed, nil
}

// ListEntries returns every entry, sorted.
func (l *Ledger) ListEntries(ctx context.Context, opts ListOptions) ([]core.Entry, error) {
	entries, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.SortEntries(entries, opts.SortBy, opts.Desc), nil
}

// Summary returns income, expense and savings over all entries.
func (l *Ledger) Summary(ctx context.Context) (core.Totals, error) {
	entries, err := l.snapshot(ctx)
	if err != nil {
		return core.Totals{}, err
	}
	return core.TotalsByKind(entries), nil
}

// MonthlySummary returns the breakdown of one YYYY-MM month.
func (l *Ledger) MonthlySummary(ctx context.Context, yearMonth string) (core.MonthBreakdown, error) {
	if _, err := core.ParseYearMonth(yearMonth); err != nil {
		return core.MonthBreakdown{}, err
	}
	entries, err := l.snapshot(ctx)
	if err != nil {
		return core.MonthBreakdown{}, err
	}
	return core.MonthlyBreakdown(entries, yearMonth)
}

// Months returns the distinct months that have entries, ascending.
func (l *Ledger) Months(ctx context.Context) ([]string, error) {
	entries, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.MonthsPresent(entries), nil
}

// Search filters entries by category, date or description keyword.
func (l *Ledger) Search(ctx context.Context, mode core.SearchMode, query string) ([]core.Entry, error) {
	mode, err := core.ParseSearchMode(string(mode))
	if err != nil {
		return nil, err
	}
	entries, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.Search(entries, mode, query)
}

func (l *Ledger) snapshot(ctx context.Context) ([]core.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.reload(ctx); err != nil {
		return nil, err
	}
	return append([]core.Entry(nil), l.entries...), nil
}

// reload must be called with l.mu held.
func (l *Ledger) reload(ctx context.Context) (LoadReport, error) {
	res, err := l.repo.Load(ctx)
	if err != nil {
		return LoadReport{}, &PersistenceError{Op: log.OpLoad, Err: err}
	}

	for _, s := range res.Skipped {
		l.logger.WarnContext(ctx, "Skipped corrupt record",
			log.FieldLine, s.Line, log.FieldError, s.Err)
	}

	entries, backfilled := core.Backfill(res.Entries)
	if backfilled > 0 {
		l.logger.InfoContext(ctx, "Assigned IDs to entries stored without one",
			log.FieldCount, backfilled)
	}

	l.entries = entries
	l.observe(entries)
	return LoadReport{
		Count:      len(entries),
		Skipped:    res.Skipped,
		Backfilled: backfilled,
	}, nil
}

// commit persists next and, only on success, makes it the current set.
func (l *Ledger) commit(ctx context.Context, next []core.Entry) error {
	if err := l.repo.Save(ctx, next); err != nil {
		l.logger.ErrorContext(ctx, "Failed to persist ledger",
			log.FieldOperation, log.OpSave, log.FieldError, err)
		return &PersistenceError{Op: log.OpSave, Err: err}
	}
	l.entries = next
	l.observe(next)
	return nil
}

func (l *Ledger) observe(entries []core.Entry) {
	if l.policy == core.Dense {
		l.highWater = int64(len(entries))
		return
	}
	for _, e := range entries {
		if e.ID > l.highWater {
			l.highWater = e.ID
		}
	}
}

// nextID never hands out an ID this process has already seen, even if the
// entry holding it was deleted since.
func (l *Ledger) nextID() int64 {
	id := core.NextID(l.entries)
	if l.policy == core.Monotonic && id <= l.highWater {
		id = l.highWater + 1
	}
	return id
}
