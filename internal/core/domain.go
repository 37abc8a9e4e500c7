package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindIncome  CategoryKind = "income"
	KindExpense CategoryKind = "expense"

	// DateLayout is the wire and storage format of a calendar date.
	DateLayout = "2006-01-02"

	// UncategorizedName labels transactions without a category in aggregates.
	UncategorizedName = "Uncategorized"
)

type (
	CategoryKind string

	// Date is a calendar date without time-of-day semantics. The wrapped
	// time is always midnight UTC.
	Date struct {
		time.Time
	}

	Category struct {
		ID      string       `json:"id"`
		Name    string       `json:"name"`
		Color   string       `json:"color"`
		Kind    CategoryKind `json:"kind"`
		OwnerID string       `json:"ownerId"`
	}

	// Transaction is a single ledger entry. A positive amount is income, a
	// negative amount is an expense.
	Transaction struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		OwnerID     string          `json:"ownerId"`
		CategoryID  string          `json:"categoryId,omitempty"`
		Category    *Category       `json:"category,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// MonthEnd returns the last day of d's month.
func (d Date) MonthEnd() Date {
	return NewDate(d.Year(), d.Month()+1, 0)
}

// AddMonths moves the month start of d by n calendar months.
func (d Date) AddMonths(n int) Date {
	return NewDate(d.Year(), d.Month()+time.Month(n), 1)
}

// Before and After compare calendar dates only.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Valid reports whether k is a known category kind.
func (k CategoryKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense:
		return true
	default:
		return false
	}
}

// IsIncome reports whether the transaction counts as income.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// CategoryName returns the attached category's name or UncategorizedName.
func (t Transaction) CategoryName() string {
	if t.Category == nil || t.Category.Name == "" {
		return UncategorizedName
	}
	return t.Category.Name
}
