package core

import (
	"sort"
)

// Totals is the overall income/expense position of a set of entries.
type Totals struct {
	Income  Money
	Expense Money
	Savings Money // Income - Expense, may be negative
	Count   int
}

// CategoryAmount represents an expense amount aggregated by category name.
type CategoryAmount struct {
	Name       string
	Amount     Money
	Percentage float64 // share of the month's expense total, 0 when that total is 0
}

// MonthBreakdown is a compact summary for a specific year-month.
type MonthBreakdown struct {
	YearMonth  string
	Income     Money
	Expense    Money
	Savings    Money
	Total      Money // expense total; the base of every Percentage
	Count      int
	ByCategory []CategoryAmount // expenses only, largest first
}

// Amount returns the category total, or zero when the category is absent.
func (b MonthBreakdown) Amount(category string) Money {
	for _, c := range b.ByCategory {
		if c.Name == category {
			return c.Amount
		}
	}
	return Money{}
}

// TotalsByKind sums amounts per kind. An empty slice yields all-zero totals.
func TotalsByKind(entries []Entry) Totals {
	var t Totals
	for _, e := range entries {
		switch e.Kind {
		case Income:
			t.Income = t.Income.Add(e.Amount)
		default:
			t.Expense = t.Expense.Add(e.Amount)
		}
	}
	t.Savings = t.Income.Sub(t.Expense)
	t.Count = len(entries)
	return t
}

// MonthsPresent returns the distinct YYYY-MM keys of the entries, ascending.
func MonthsPresent(entries []Entry) []string {
	seen := map[string]struct{}{}
	months := make([]string, 0)
	for _, e := range entries {
		key := e.Date.YearMonth()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	sort.Strings(months)
	return months
}

// MonthlyBreakdown summarises the entries dated in yearMonth. Income, expense
// and savings cover both kinds; the category breakdown covers expenses only
// and is keyed by the normalized category.
func MonthlyBreakdown(entries []Entry, yearMonth string) (MonthBreakdown, error) {
	key, err := ParseYearMonth(yearMonth)
	if err != nil {
		return MonthBreakdown{}, err
	}

	b := MonthBreakdown{YearMonth: key}
	byCat := map[string]Money{}
	for _, e := range entries {
		if e.Date.YearMonth() != key {
			continue
		}
		b.Count++
		if e.Kind == Income {
			b.Income = b.Income.Add(e.Amount)
			continue
		}
		b.Expense = b.Expense.Add(e.Amount)
		byCat[e.Category] = byCat[e.Category].Add(e.Amount)
	}
	b.Savings = b.Income.Sub(b.Expense)
	b.Total = b.Expense

	b.ByCategory = make([]CategoryAmount, 0, len(byCat))
	for name, amt := range byCat {
		b.ByCategory = append(b.ByCategory, CategoryAmount{
			Name:       name,
			Amount:     amt,
			Percentage: amt.Percent(b.Total),
		})
	}
	sort.Slice(b.ByCategory, func(i, j int) bool {
		ci, cj := b.ByCategory[i], b.ByCategory[j]
		if ci.Amount.Cents != cj.Amount.Cents {
			return ci.Amount.Cents > cj.Amount.Cents
		}
		return ci.Name < cj.Name
	})
	return b, nil
}
