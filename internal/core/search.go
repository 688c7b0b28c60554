package core

import (
	"errors"
	"strings"
)

const (
	ByCategory    SearchMode = "category"
	ByDate        SearchMode = "date"
	ByDescription SearchMode = "keyword"
)

// SearchMode selects which field a search query is matched against.
type SearchMode string

// ParseSearchMode accepts "category", "date", "keyword" or "description".
func ParseSearchMode(text string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "category":
		return ByCategory, nil
	case "date":
		return ByDate, nil
	case "keyword", "description":
		return ByDescription, nil
	default:
		return "", invalid("mode", text, ErrInvalidSearchMode)
	}
}

// Search filters entries by mode. Category matching happens after
// normalization, dates must match exactly and description keywords match as
// a case-insensitive substring. No match is an empty result, not an error.
func Search(entries []Entry, mode SearchMode, query string) ([]Entry, error) {
	var match func(Entry) bool

	switch mode {
	case ByCategory:
		category, err := NormalizeCategory(query)
		if errors.Is(err, ErrEmptyCategory) {
			return []Entry{}, nil
		}
		match = func(e Entry) bool { return e.Category == category }
	case ByDate:
		date, err := ValidateDate(query)
		if err != nil {
			return nil, err
		}
		match = func(e Entry) bool { return e.Date.Equal(date.Time) }
	case ByDescription:
		keyword := strings.ToLower(strings.TrimSpace(query))
		match = func(e Entry) bool { return strings.Contains(strings.ToLower(e.Description), keyword) }
	default:
		return nil, invalid("mode", string(mode), ErrInvalidSearchMode)
	}

	out := make([]Entry, 0)
	for _, e := range entries {
		if match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
