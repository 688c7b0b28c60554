package core

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ValidateDate parses text as a YYYY-MM-DD calendar date. No other layout is
// accepted, so "2024-1-5", "05/01/2024" and "2024-13-40" are all rejected.
func ValidateDate(text string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(text))
	if err != nil {
		return Date{}, invalid("date", text, ErrInvalidDateFormat)
	}
	return DateOf(t), nil
}

// IsValidDate reports whether text is a YYYY-MM-DD date.
func IsValidDate(text string) bool {
	_, err := ValidateDate(text)
	return err == nil
}

// ValidateAmount parses a strictly positive amount.
// Non-numeric text fails with ErrInvalidAmountFormat, zero or negative values
// with ErrNonPositiveAmount.
func ValidateAmount(text string) (Money, error) {
	cents, err := ParseDecimalToCents(text)
	if err != nil {
		return Money{}, invalid("amount", text, err)
	}
	return Money{Cents: cents}, nil
}

// NormalizeCategory trims and title-cases a category so that "food", "FOOD"
// and " Food " share one aggregation bucket. Inner whitespace runs collapse
// to a single space.
func NormalizeCategory(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", invalid("category", text, ErrEmptyCategory)
	}
	// Casers are stateful, one per call.
	caser := cases.Title(language.Und)
	return caser.String(strings.Join(fields, " ")), nil
}

// ParseKind accepts "income" or "expense" in any case. Empty text defaults to
// Expense, matching ledgers written before the kind column existed.
func ParseKind(text string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "expense":
		return Expense, nil
	case "income":
		return Income, nil
	default:
		return "", invalid("kind", text, ErrInvalidKind)
	}
}

// ParseYearMonth validates a YYYY-MM key and returns it in canonical form.
func ParseYearMonth(text string) (string, error) {
	t, err := time.Parse(YearMonthLayout, strings.TrimSpace(text))
	if err != nil {
		return "", invalid("month", text, ErrInvalidYearMonth)
	}
	return t.Format(YearMonthLayout), nil
}
