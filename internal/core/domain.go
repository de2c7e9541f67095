package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// MaxNoteLength bounds the free-text note attached to an expense.
const MaxNoteLength = 200

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Shopping      Category = "Shopping"
	Bills         Category = "Bills"
	Entertainment Category = "Entertainment"
	Health        Category = "Health"
	Other         Category = "Other"
)

type (
	// Category is one label of the fixed category enumeration.
	Category string

	// Date is a calendar date. Only year, month and day are meaningful; the
	// underlying time is kept at midnight UTC.
	Date struct {
		time.Time
	}

	Expense struct {
		ID       string          `json:"id"`
		Date     Date            `json:"date"`
		Amount   decimal.Decimal `json:"amount"`
		Category Category        `json:"category"`
		Note     string          `json:"note,omitempty"`
	}
)

// Categories lists every accepted category in display order.
var Categories = []Category{Food, Transport, Shopping, Bills, Entertainment, Health, Other}

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrNoteTooLong     = errors.New("note too long")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// At returns midnight of the date in loc.
func (d Date) At(loc *time.Location) time.Time {
	y, m, day := d.Date()
	return StartOfDay(y, m, day, loc)
}

// StartOfDay returns the first instant of the calendar day y-m-d in loc.
// Out-of-range days normalize as in time.Date. Where a clock change skips
// local midnight, the day starts at the end of the change.
func StartOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	want := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if sameDay(t, want) {
		return t
	}
	// time.Date resolved the missing midnight into the previous day.
	if _, end := t.ZoneBounds(); !end.IsZero() && sameDay(end, want) {
		return end
	}
	for !sameDay(t, want) && t.Before(want.AddDate(0, 0, 2)) {
		t = t.Add(time.Minute)
	}
	return t
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// ParseCategory matches s against the enumeration, ignoring case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Validate() error {
	if _, err := ParseCategory(string(c)); err != nil {
		return err
	}
	return nil
}

func (c Category) String() string {
	return string(c)
}

// Validate checks the producer-side invariants of an expense. The weekly
// engine never calls it: aggregation takes amounts as given.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(e.Note) > MaxNoteLength {
		return fmt.Errorf("%w (max %d characters)", ErrNoteTooLong, MaxNoteLength)
	}
	return nil
}
