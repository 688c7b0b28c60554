package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	return []Entry{
		{ID: 1, Date: NewDate(2024, 1, 5), Kind: Expense, Category: "Food", Amount: Money{Cents: 10000}, Description: "lunch"},
		{ID: 2, Date: NewDate(2024, 1, 20), Kind: Expense, Category: "Food", Amount: Money{Cents: 5000}, Description: "dinner"},
		{ID: 3, Date: NewDate(2024, 2, 1), Kind: Income, Category: "Salary", Amount: Money{Cents: 100000}},
	}
}

func TestTotalsByKind(t *testing.T) {
	totals := TotalsByKind(sampleEntries())
	assert.Equal(t, Money{Cents: 100000}, totals.Income)
	assert.Equal(t, Money{Cents: 15000}, totals.Expense)
	assert.Equal(t, Money{Cents: 85000}, totals.Savings)
	assert.Equal(t, 3, totals.Count)
}

func TestTotalsByKindEmpty(t *testing.T) {
	totals := TotalsByKind(nil)
	assert.Equal(t, Totals{}, totals)
}

func TestTotalsSavingsIdentity(t *testing.T) {
	entries := append(sampleEntries(),
		Entry{ID: 4, Date: NewDate(2024, 2, 3), Kind: Expense, Category: "Rent", Amount: Money{Cents: 200000}},
	)
	totals := TotalsByKind(entries)
	assert.Equal(t, totals.Income.Cents-totals.Expense.Cents, totals.Savings.Cents)
	assert.Negative(t, totals.Savings.Cents)
}

func TestMonthsPresent(t *testing.T) {
	entries := append(sampleEntries(),
		Entry{ID: 4, Date: NewDate(2023, 12, 31), Kind: Expense, Category: "Gifts", Amount: Money{Cents: 1}},
	)
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-02"}, MonthsPresent(entries))
	assert.Empty(t, MonthsPresent(nil))
}

func TestMonthlyBreakdown(t *testing.T) {
	b, err := MonthlyBreakdown(sampleEntries(), "2024-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01", b.YearMonth)
	assert.Equal(t, Money{Cents: 15000}, b.Total)
	assert.Equal(t, Money{Cents: 15000}, b.Expense)
	assert.Equal(t, Money{}, b.Income)
	assert.Equal(t, 2, b.Count)
	require.Len(t, b.ByCategory, 1)
	assert.Equal(t, CategoryAmount{Name: "Food", Amount: Money{Cents: 15000}, Percentage: 100.0}, b.ByCategory[0])
	assert.Equal(t, Money{Cents: 15000}, b.Amount("Food"))
}

func TestMonthlyBreakdownMixedKinds(t *testing.T) {
	entries := []Entry{
		{ID: 1, Date: NewDate(2024, 3, 1), Kind: Income, Category: "Salary", Amount: Money{Cents: 300000}},
		{ID: 2, Date: NewDate(2024, 3, 2), Kind: Expense, Category: "Rent", Amount: Money{Cents: 75000}},
		{ID: 3, Date: NewDate(2024, 3, 9), Kind: Expense, Category: "Food", Amount: Money{Cents: 25000}},
		{ID: 4, Date: NewDate(2024, 4, 1), Kind: Expense, Category: "Food", Amount: Money{Cents: 99999}},
	}
	b, err := MonthlyBreakdown(entries, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, Money{Cents: 300000}, b.Income)
	assert.Equal(t, Money{Cents: 100000}, b.Expense)
	assert.Equal(t, Money{Cents: 200000}, b.Savings)
	require.Len(t, b.ByCategory, 2)
	assert.Equal(t, "Rent", b.ByCategory[0].Name)
	assert.Equal(t, 75.0, b.ByCategory[0].Percentage)
	assert.Equal(t, "Food", b.ByCategory[1].Name)
	assert.Equal(t, 25.0, b.ByCategory[1].Percentage)
	assert.Zero(t, b.Amount("Salary"))
}

func TestMonthlyBreakdownNoExpenses(t *testing.T) {
	b, err := MonthlyBreakdown(sampleEntries(), "2024-02")
	require.NoError(t, err)
	assert.Equal(t, Money{}, b.Total)
	assert.Empty(t, b.ByCategory)
	assert.Equal(t, Money{Cents: 100000}, b.Savings)
}

func TestMonthlyBreakdownInvalidMonth(t *testing.T) {
	_, err := MonthlyBreakdown(sampleEntries(), "January")
	assert.ErrorIs(t, err, ErrInvalidYearMonth)
}
