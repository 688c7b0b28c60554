package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

// DateLayout is the only accepted textual date format.
const DateLayout = "2006-01-02"

// YearMonthLayout is the textual form of a year-month key.
const YearMonthLayout = "2006-01"

type (
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is one recorded financial transaction.
	Entry struct {
		ID          int64
		Date        Date
		Kind        Kind
		Category    string // title-cased
		Amount      Money
		Description string
	}

	// EntryInput carries the raw, unvalidated fields of a new entry as typed by a user.
	EntryInput struct {
		Date        string
		Kind        string
		Category    string
		Amount      string
		Description string
	}
)

var (
	ErrInvalidDateFormat   = errors.New("invalid date format")
	ErrInvalidAmountFormat = errors.New("invalid amount format")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidKind         = errors.New("invalid kind")
	ErrInvalidYearMonth    = errors.New("invalid year-month")
	ErrInvalidSearchMode   = errors.New("invalid search mode")
	ErrInvalidSortField    = errors.New("invalid sort field")
	ErrInvalidID           = errors.New("id must be positive")
)

// ValidationError reports which input field was rejected. It unwraps to one
// of the sentinel errors above.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, value string, err error) error {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// YearMonth returns the aggregation bucket key (YYYY-MM) of the date.
func (d Date) YearMonth() string {
	return d.Format(YearMonthLayout)
}

func (k Kind) String() string {
	return string(k)
}

// IsValid returns true for Income and Expense.
func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrNonPositiveAmount
	}
	return nil
}

// Validate checks the invariants every stored entry must hold.
func (e Entry) Validate() error {
	if e.ID <= 0 {
		return invalid("id", fmt.Sprint(e.ID), ErrInvalidID)
	}
	if e.Date.IsZero() {
		return invalid("date", "", ErrInvalidDateFormat)
	}
	if !e.Kind.IsValid() {
		return invalid("kind", string(e.Kind), ErrInvalidKind)
	}
	if strings.TrimSpace(e.Category) == "" {
		return invalid("category", e.Category, ErrEmptyCategory)
	}
	if err := e.Amount.Validate(); err != nil {
		return invalid("amount", e.Amount.String(), err)
	}
	return nil
}

// Build validates the raw input and returns an entry without an ID. Nothing is
// constructed unless every field passes.
func (in EntryInput) Build() (Entry, error) {
	date, err := ValidateDate(in.Date)
	if err != nil {
		return Entry{}, err
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return Entry{}, err
	}
	category, err := NormalizeCategory(in.Category)
	if err != nil {
		return Entry{}, err
	}
	amount, err := ValidateAmount(in.Amount)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Date:        date,
		Kind:        kind,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
	}, nil
}
