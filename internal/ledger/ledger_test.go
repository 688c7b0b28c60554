package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
	"finledger/internal/storage/csvfile"
	"finledger/internal/storage/memory"
)

// flakyRepo wraps a memory store and fails on demand.
type flakyRepo struct {
	*memory.Store
	failLoad bool
	failSave bool
	saves    int
}

func (r *flakyRepo) Load(ctx context.Context) (storage.LoadResult, error) {
	if r.failLoad {
		return storage.LoadResult{}, errors.New("disk on fire")
	}
	return r.Store.Load(ctx)
}

func (r *flakyRepo) Save(ctx context.Context, entries []core.Entry) error {
	if r.failSave {
		return errors.New("read-only file system")
	}
	r.saves++
	return r.Store.Save(ctx, entries)
}

type recordingPublisher struct {
	mu      sync.Mutex
	added   []core.Entry
	deleted []core.Entry
	err     error
}

func (p *recordingPublisher) PublishEntryAdded(_ context.Context, e core.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.added = append(p.added, e)
	return p.err
}

func (p *recordingPublisher) PublishEntryDeleted(_ context.Context, e core.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, e)
	return p.err
}

func newLedger(repo storage.Repository, opts ...Option) *Ledger {
	return New(repo, append([]Option{WithLogger(log.Discard())}, opts...)...)
}

func input(date, kind, category, amount, desc string) core.EntryInput {
	return core.EntryInput{Date: date, Kind: kind, Category: category, Amount: amount, Description: desc}
}

func seed(t *testing.T, l *Ledger) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []core.EntryInput{
		input("2024-01-05", "expense", "food", "100", "lunch"),
		input("2024-01-20", "expense", "FOOD", "50", "dinner"),
		input("2024-02-01", "income", "salary", "1000", ""),
	} {
		_, err := l.AddEntry(ctx, in)
		require.NoError(t, err)
	}
}

func TestAddThenList(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.New())

	e, err := l.AddEntry(ctx, input("2024-03-04", "", " eating out ", "12,50", " pizza "))
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.ID)
	assert.Equal(t, core.Expense, e.Kind)
	assert.Equal(t, "Eating Out", e.Category)
	assert.Equal(t, int64(1250), e.Amount.Cents)
	assert.Equal(t, "pizza", e.Description)

	list, err := l.ListEntries(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []core.Entry{e}, list)
}

func TestWorkedExample(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.New())
	seed(t, l)

	totals, err := l.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), totals.Income.Cents)
	assert.Equal(t, int64(15000), totals.Expense.Cents)
	assert.Equal(t, int64(85000), totals.Savings.Cents)

	jan, err := l.MonthlySummary(ctx, "2024-01")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), jan.Total.Cents)
	require.Len(t, jan.ByCategory, 1)
	assert.Equal(t, "Food", jan.ByCategory[0].Name)
	assert.Equal(t, 100.0, jan.ByCategory[0].Percentage)

	months, err := l.Months(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01", "2024-02"}, months)

	found, err := l.Search(ctx, core.ByDescription, "LUNCH")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found[0].ID)
}

func TestAddRejectsInvalidInputWithoutWriting(t *testing.T) {
	repo := &flakyRepo{Store: memory.New()}
	l := newLedger(repo)

	cases := map[string]struct {
		in   core.EntryInput
		want error
	}{
		"bad date":        {input("2024-13-40", "", "Food", "1", ""), core.ErrInvalidDateFormat},
		"bad amount":      {input("2024-01-01", "", "Food", "abc", ""), core.ErrInvalidAmountFormat},
		"negative amount": {input("2024-01-01", "", "Food", "-5", ""), core.ErrNonPositiveAmount},
		"empty category":  {input("2024-01-01", "", "  ", "1", ""), core.ErrEmptyCategory},
		"unknown kind":    {input("2024-01-01", "gift", "Food", "1", ""), core.ErrInvalidKind},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := l.AddEntry(context.Background(), tc.in)
			require.ErrorIs(t, err, tc.want)
			var verr *core.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
	assert.Zero(t, repo.saves)
	assert.Empty(t, l.Entries())
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.New())
	seed(t, l)

	require.NoError(t, l.DeleteEntry(ctx, 2))
	list, err := l.ListEntries(ctx, ListOptions{SortBy: core.SortByID})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(list))
}

func TestDeleteUnknownIDLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{Store: memory.New()}
	l := newLedger(repo)
	seed(t, l)
	savesBefore := repo.saves

	err := l.DeleteEntry(ctx, 42)
	require.ErrorIs(t, err, ErrEntryNotFound)
	assert.Equal(t, savesBefore, repo.saves)

	list, err := l.ListEntries(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestMonotonicIDsAreNotReusedAfterDeletingTheLast(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.New())
	seed(t, l)

	require.NoError(t, l.DeleteEntry(ctx, 3))
	e, err := l.AddEntry(ctx, input("2024-03-01", "", "Misc", "1", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(4), e.ID)

	require.NoError(t, l.DeleteEntry(ctx, 1))
	require.NoError(t, l.DeleteEntry(ctx, 2))
	require.NoError(t, l.DeleteEntry(ctx, 4))
	e, err = l.AddEntry(ctx, input("2024-03-02", "", "Misc", "1", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.ID)
}

func TestDensePolicyRenumbers(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.New(), WithIDPolicy(core.Dense))
	seed(t, l)

	require.NoError(t, l.DeleteEntry(ctx, 1))
	list, err := l.ListEntries(ctx, ListOptions{SortBy: core.SortByID})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(list))
	assert.Equal(t, "dinner", list[0].Description)

	e, err := l.AddEntry(ctx, input("2024-03-01", "", "Misc", "1", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.ID)

	require.NoError(t, l.DeleteEntry(ctx, 1))
	require.NoError(t, l.DeleteEntry(ctx, 1))
	require.NoError(t, l.DeleteEntry(ctx, 1))
	e, err = l.AddEntry(ctx, input("2024-03-02", "", "Misc", "1", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.ID)
}

func TestFailedSaveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{Store: memory.New()}
	l := newLedger(repo)
	seed(t, l)
	before := l.Entries()

	repo.failSave = true
	_, err := l.AddEntry(ctx, input("2024-03-01", "", "Misc", "1", ""))
	require.ErrorIs(t, err, ErrPersistenceUnavailable)
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "save", perr.Op)
	assert.Equal(t, before, l.Entries())

	err = l.DeleteEntry(ctx, 1)
	require.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.Equal(t, before, l.Entries())

	repo.failSave = false
	list, err := l.ListEntries(ctx, ListOptions{SortBy: core.SortByID})
	require.NoError(t, err)
	assert.Equal(t, before, list)
}

func TestLoadFailureSurfacesAsPersistenceError(t *testing.T) {
	repo := &flakyRepo{Store: memory.New(), failLoad: true}
	l := newLedger(repo)

	_, err := l.Summary(context.Background())
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	_, err = l.AddEntry(context.Background(), input("2024-01-01", "", "Food", "1", ""))
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.Zero(t, repo.saves)
}

func TestReloadPicksUpOutOfBandChanges(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.csv")
	a := newLedger(csvfile.New(path))
	b := newLedger(csvfile.New(path))

	first, err := a.AddEntry(ctx, input("2024-01-01", "", "Food", "1", ""))
	require.NoError(t, err)
	second, err := b.AddEntry(ctx, input("2024-01-02", "", "Food", "2", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID, "second writer must see the first entry")

	list, err := a.ListEntries(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestLoadBackfillsMissingIDs(t *testing.T) {
	ctx := context.Background()
	store := memory.New(
		core.Entry{Date: core.NewDate(2024, 1, 1), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 1}},
		core.Entry{ID: 7, Date: core.NewDate(2024, 1, 2), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 2}},
		core.Entry{Date: core.NewDate(2024, 1, 3), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 3}},
	)
	store.MarkSkipped(storage.SkippedRecord{Line: 4, Err: storage.ErrCorruptRecord})
	l := newLedger(store)

	report, err := l.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Count)
	assert.Equal(t, 2, report.Backfilled)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, []int64{8, 7, 9}, ids(l.Entries()))

	e, err := l.AddEntry(ctx, input("2024-01-04", "", "Food", "4", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(10), e.ID)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 7, 9, 10}, ids(persisted.Entries))
}

func TestPublisherNotifiedAndFailuresIgnored(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	l := newLedger(memory.New(), WithPublisher(pub))

	e, err := l.AddEntry(ctx, input("2024-01-01", "", "Food", "1", ""))
	require.NoError(t, err)
	require.NoError(t, l.DeleteEntry(ctx, e.ID))

	assert.Equal(t, []core.Entry{e}, pub.added)
	assert.Equal(t, []core.Entry{e}, pub.deleted)
}

func TestMonthlySummaryRejectsBadMonth(t *testing.T) {
	_, err := newLedger(memory.New()).MonthlySummary(context.Background(), "2024-13")
	assert.ErrorIs(t, err, core.ErrInvalidYearMonth)
}

func TestSearchModes(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.New())
	seed(t, l)

	got, err := l.Search(ctx, core.ByCategory, "food")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(got))

	got, err = l.Search(ctx, core.ByDate, "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(got))

	got, err = l.Search(ctx, core.SearchMode("description"), "DINNER")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(got))

	got, err = l.Search(ctx, core.SearchMode(" Category "), "salary")
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(got))

	_, err = l.Search(ctx, core.SearchMode("amount"), "1")
	assert.ErrorIs(t, err, core.ErrInvalidSearchMode)
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPublisher) PublishEntryAdded(context.Context, core.Entry) error {
	p.entered <- struct{}{}
	<-p.release
	return nil
}

func (p *blockingPublisher) PublishEntryDeleted(context.Context, core.Entry) error {
	p.entered <- struct{}{}
	<-p.release
	return nil
}

func TestSlowPublisherDoesNotBlockReaders(t *testing.T) {
	ctx := context.Background()
	pub := &blockingPublisher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	l := newLedger(memory.New(), WithPublisher(pub))

	added := make(chan error, 1)
	go func() {
		_, err := l.AddEntry(ctx, input("2024-01-01", "", "Food", "1", ""))
		added <- err
	}()
	<-pub.entered

	read := make(chan error, 1)
	go func() {
		_, err := l.Summary(ctx)
		read <- err
	}()
	select {
	case err := <-read:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("summary blocked while an event was being published")
	}

	close(pub.release)
	require.NoError(t, <-added)
}

func TestReplaceValidates(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.New())
	good := core.Entry{ID: 1, Date: core.NewDate(2024, 1, 1), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 1}}

	require.ErrorIs(t, l.Replace(ctx, []core.Entry{good, good}), core.ErrInvalidID)
	require.NoError(t, l.Replace(ctx, []core.Entry{good}))
	assert.Equal(t, []core.Entry{good}, l.Entries())
}

func TestConcurrentAddsProduceUniqueIDs(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.New())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.AddEntry(ctx, input("2024-01-01", "", "Food", "1", ""))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := l.ListEntries(ctx, ListOptions{SortBy: core.SortByID})
	require.NoError(t, err)
	require.Len(t, list, 20)
	for i, e := range list {
		assert.Equal(t, int64(i+1), e.ID)
	}
}

func ids(entries []core.Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
