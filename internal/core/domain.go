package core

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar-day layout used for storage and transport.
const DateLayout = "2006-01-02"

const (
	maxCategoryLength = 100
	maxTextLength     = 20000
	maxNoteLength     = 500
)

type (
	// Date is a calendar day, always held at UTC midnight.
	Date struct {
		time.Time
	}

	// DiaryEntry is identified by its (Date, Category) pair: saving the same
	// pair again replaces the previous text.
	DiaryEntry struct {
		Date      Date      `json:"date" yaml:"date"`
		Category  string    `json:"category" yaml:"category"`
		Text      string    `json:"text" yaml:"text"`
		Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	}

	// FinanceCategory names are not unique.
	FinanceCategory struct {
		ID   int64  `json:"id" yaml:"id"`
		Name string `json:"name" yaml:"name"`
	}

	// FinanceRecord.Category is free-form text, not a reference to a
	// FinanceCategory id; records survive the deletion of their category.
	FinanceRecord struct {
		ID        int64           `json:"id" yaml:"id"`
		Date      Date            `json:"date" yaml:"date"`
		Category  string          `json:"category" yaml:"category"`
		Amount    decimal.Decimal `json:"amount" yaml:"amount"`
		Note      string          `json:"note,omitempty" yaml:"note,omitempty"`
		Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	}
)

// DefaultFinanceCategories seed the financeCategories collection when it is created.
var DefaultFinanceCategories = []string{"meal", "transport", "salary", "entertainment", "shopping"}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Err: fmt.Errorf("%w: %q", ErrInvalidDate, s)}
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is an earlier day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// WeekStart returns the most recent Sunday on or before d.
func (d Date) WeekStart() Date {
	return d.AddDays(-int(d.Weekday()))
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return d.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer; dates are stored as YYYY-MM-DD text.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = DateOf(v)
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (e DiaryEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if len(e.Category) > maxCategoryLength {
		return &ValidationError{Field: "category", Err: errors.New("category too long (max 100 characters)")}
	}
	if strings.TrimSpace(e.Text) == "" {
		return &ValidationError{Field: "text", Err: ErrEmptyText}
	}
	if len(e.Text) > maxTextLength {
		return &ValidationError{Field: "text", Err: errors.New("text too long (max 20000 characters)")}
	}
	return nil
}

func (c FinanceCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if len(c.Name) > maxCategoryLength {
		return &ValidationError{Field: "name", Err: errors.New("name too long (max 100 characters)")}
	}
	return nil
}

func (r FinanceRecord) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if len(r.Category) > maxCategoryLength {
		return &ValidationError{Field: "category", Err: errors.New("category too long (max 100 characters)")}
	}
	if r.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if len(r.Note) > maxNoteLength {
		return &ValidationError{Field: "note", Err: errors.New("note too long (max 500 characters)")}
	}
	return nil
}
