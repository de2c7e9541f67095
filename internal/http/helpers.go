package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"weekspend/internal/core"
	"weekspend/internal/log"
)

// referenceTime picks the instant a week request is about: midnight of
// ?date=YYYY-MM-DD in the calendar location, or the reporter's now.
func (s *Server) referenceTime(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return s.reports.Now(), nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return d.At(s.location()), nil
}

func (s *Server) location() *time.Location {
	if loc := s.reports.Engine().Calendar().Location; loc != nil {
		return loc
	}
	return time.Local
}

// today is the current calendar date in the calendar location.
func (s *Server) today() core.Date {
	return core.DateOf(s.reports.Now().In(s.location()))
}

// wantsJSON reports whether the caller asked for JSON rather than an HTMX
// fragment. The /api/ routes always answer JSON.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode JSON response",
			log.FieldError, err, log.FieldPath, r.URL.Path)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError answers with JSON or an HTMX error fragment depending on the
// caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if wantsJSON(r) {
		s.writeJSON(w, r, status, errorBody{Error: msg})
		return
	}
	ErrorResponse(status, msg).Write(w)
}

// sanitizeInput removes control characters except tab and newlines, then
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func formatDay(t time.Time) string {
	return t.Format(core.DateLayout)
}

func badDateMessage(raw string) string {
	return fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", raw)
}
