package weekly

import (
	"time"

	"github.com/shopspring/decimal"

	"weekspend/internal/core"
)

// Clock supplies the reference instant. Tests swap it for a fixed time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// ChartSeries is the numeric payload of one chart: labels and values are
// index-aligned and values are rounded for display.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Report is everything the week page renders. It is plain data and must be
// treated as read-only: memoized reports are shared between callers.
type Report struct {
	Window     WeekWindow           `json:"window"`
	Expenses   []core.Expense       `json:"expenses"`
	Total      decimal.Decimal      `json:"total"`
	ByCategory []core.CategoryTotal `json:"by_category"`
	ByDay      DailyTotals          `json:"by_day"`
}

// Engine binds a Calendar and a Formatter.
type Engine struct {
	calendar  Calendar
	formatter Formatter
}

func NewEngine(calendar Calendar, formatter Formatter) *Engine {
	return &Engine{calendar: calendar, formatter: formatter}
}

func (e *Engine) Calendar() Calendar   { return e.calendar }
func (e *Engine) Formatter() Formatter { return e.formatter }

// Report builds the week report for the week containing now.
func (e *Engine) Report(expenses []core.Expense, now time.Time) Report {
	window := e.calendar.Window(now)
	filtered := InWindow(expenses, window)
	agg := Aggregate(filtered, window.Days)
	agg.ByDay.Labels = e.formatter.DayLabels(window.Days)

	return Report{
		Window:     window,
		Expenses:   filtered,
		Total:      agg.Total,
		ByCategory: agg.ByCategory,
		ByDay:      agg.ByDay,
	}
}

// CategoryChart shapes ByCategory for the proportion chart.
func (r Report) CategoryChart() ChartSeries {
	s := ChartSeries{
		Labels: make([]string, 0, len(r.ByCategory)),
		Values: make([]float64, 0, len(r.ByCategory)),
	}
	for _, c := range r.ByCategory {
		s.Labels = append(s.Labels, c.Category.String())
		s.Values = append(s.Values, RoundForDisplay(c.Total))
	}
	return s
}

// DailyChart shapes ByDay for the per-day bar chart.
func (r Report) DailyChart() ChartSeries {
	s := ChartSeries{
		Labels: make([]string, 7),
		Values: make([]float64, 7),
	}
	for i := range r.ByDay.Totals {
		s.Labels[i] = r.ByDay.Labels[i]
		s.Values[i] = RoundForDisplay(r.ByDay.Totals[i])
	}
	return s
}

// ActiveDays counts the days with a non-zero total.
func (r Report) ActiveDays() int {
	n := 0
	for _, t := range r.ByDay.Totals {
		if !t.IsZero() {
			n++
		}
	}
	return n
}
