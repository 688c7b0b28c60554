package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finledger/internal/core"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "db", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestEmptyDatabase(t *testing.T) {
	res, err := newRepo(t).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
}

func TestSaveReplacesContents(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	first := []core.Entry{
		{ID: 1, Date: core.NewDate(2024, 1, 5), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 10000}, Description: "lunch"},
		{ID: 2, Date: core.NewDate(2024, 1, 20), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 5000}, Description: "dinner"},
	}
	require.NoError(t, repo.Save(ctx, first))

	second := []core.Entry{
		first[1],
		{ID: 3, Date: core.NewDate(2024, 2, 1), Kind: core.Income, Category: "Salary", Amount: core.Money{Cents: 100000}},
	}
	require.NoError(t, repo.Save(ctx, second))

	res, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, res.Entries)
}

func TestFailedSaveKeepsPreviousContents(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	good := []core.Entry{{ID: 1, Date: core.NewDate(2024, 1, 5), Kind: core.Expense, Category: "Food", Amount: core.Money{Cents: 100}}}
	require.NoError(t, repo.Save(ctx, good))

	dup := []core.Entry{good[0], good[0]}
	require.Error(t, repo.Save(ctx, dup))

	res, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, good, res.Entries)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
