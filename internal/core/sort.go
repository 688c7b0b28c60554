package core

import (
	"sort"
	"strings"
)

const (
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"
	SortByID       SortField = "id"
)

// SortField names the key used to order a listing.
type SortField string

// ParseSortField maps text to a field; empty text sorts by date.
func ParseSortField(text string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(text))); f {
	case "":
		return SortByDate, nil
	case SortByDate, SortByAmount, SortByCategory, SortByID:
		return f, nil
	default:
		return "", invalid("sort", text, ErrInvalidSortField)
	}
}

// SortEntries returns a sorted copy. Ties are broken by ID so that the order
// is deterministic; desc reverses the whole ordering.
func SortEntries(entries []Entry, field SortField, desc bool) []Entry {
	out := append([]Entry(nil), entries...)
	less := func(a, b Entry) bool {
		switch field {
		case SortByAmount:
			if a.Amount.Cents != b.Amount.Cents {
				return a.Amount.Cents < b.Amount.Cents
			}
		case SortByCategory:
			if a.Category != b.Category {
				return a.Category < b.Category
			}
		case SortByID:
		default:
			if !a.Date.Equal(b.Date.Time) {
				return a.Date.Before(b.Date.Time)
			}
		}
		return a.ID < b.ID
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
