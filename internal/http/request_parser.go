package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"weekspend/internal/core"
)

// maxBodyBytes bounds expense request bodies.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a JSON or form-encoded body once and serves its
// fields by name. HTMX posts forms; API clients post JSON.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object, as a form
// otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	switch {
	case trimmed == "":
		p.formData = url.Values{}
	case trimmed[0] == '{':
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
	default:
		p.formData, p.err = url.ParseQuery(trimmed)
	}
	return p.err
}

// Get returns the sanitized value of key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// FieldError names the input field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseExpenseInput builds an expense from date, amount, category and note.
// A missing date means today.
func ParseExpenseInput(p *RequestBodyParser, today core.Date) (core.Expense, error) {
	var e core.Expense

	e.Date = today
	if raw := p.Get("date"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return core.Expense{}, &FieldError{Field: "date", Err: err}
		}
		e.Date = d
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Expense{}, &FieldError{Field: "amount", Err: err}
	}
	e.Amount = amount

	category, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return core.Expense{}, &FieldError{Field: "category", Err: err}
	}
	e.Category = category

	e.Note = p.Get("note")
	if utf8.RuneCountInString(e.Note) > core.MaxNoteLength {
		return core.Expense{}, &FieldError{Field: "note", Err: core.ErrNoteTooLong}
	}
	return e, nil
}

// isValidationError reports whether err comes from input validation.
func isValidationError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrNoteTooLong)
}

// validationMessage turns a validation error into text for the form.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Date must be a valid YYYY-MM-DD day"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number, e.g. 12.50 or 12,50"
	case errors.Is(err, core.ErrInvalidCategory):
		return "Pick one of the listed categories"
	case errors.Is(err, core.ErrNoteTooLong):
		return fmt.Sprintf("Note must be at most %d characters", core.MaxNoteLength)
	default:
		return "Invalid expense"
	}
}
