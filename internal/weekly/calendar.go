// Package weekly computes the rolling view of the current calendar week:
// the week window, the expenses that fall inside it, their totals by
// category and by day, and the display forms of those totals.
//
// Everything in this package is a pure function of its inputs. Callers pass
// the full expense collection and a reference instant on every call.
package weekly

import (
	"fmt"
	"strings"
	"time"

	"weekspend/internal/core"
)

// DefaultFirstDay is the start-of-week used when none is configured.
const DefaultFirstDay = time.Sunday

// Calendar fixes the two conventions the week window depends on: the
// location in which calendar days are observed and the first day of a week.
type Calendar struct {
	Location *time.Location
	FirstDay time.Weekday
}

// WeekWindow is the half-open interval [Start, End) covering one week plus
// the midnight of each of its seven days.
type WeekWindow struct {
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`
	Days  [7]time.Time `json:"days"`
}

func NewCalendar(loc *time.Location, firstDay time.Weekday) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{Location: loc, FirstDay: firstDay}
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Window returns the week containing reference.
//
// Days are built from calendar fields, so a week that crosses a daylight
// saving transition still yields seven distinct consecutive dates. A day whose
// local midnight is skipped starts at the first instant that exists.
func (c Calendar) Window(reference time.Time) WeekWindow {
	loc := c.location()
	ref := reference.In(loc)
	offset := (int(ref.Weekday()) - int(c.FirstDay) + 7) % 7

	y, m, d := ref.Date()
	var w WeekWindow
	for i := range w.Days {
		w.Days[i] = core.StartOfDay(y, m, d-offset+i, loc)
	}
	w.Start = w.Days[0]
	w.End = core.StartOfDay(y, m, d-offset+7, loc)
	return w
}

// Contains reports whether t falls inside [Start, End).
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Location is the location the window was computed in.
func (w WeekWindow) Location() *time.Location {
	return w.Start.Location()
}

// daysBetween counts whole calendar days from the date of a to the date of b,
// each observed in its own location.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ca := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	cb := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(cb.Sub(ca) / (24 * time.Hour))
}

// ParseWeekday accepts an English weekday name or its three-letter prefix.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}
