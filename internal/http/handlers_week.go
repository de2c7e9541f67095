package http

import (
	"bytes"
	"net/http"

	"github.com/shopspring/decimal"

	"weekspend/internal/core"
	"weekspend/internal/log"
	"weekspend/internal/weekly"
)

type expenseRow struct {
	ID       string
	Date     string
	Day      string
	Category string
	Note     string
	Amount   string
}

type categoryRow struct {
	Name   string
	Amount string
	Width  int
}

type dayRow struct {
	Label  string
	Date   string
	Amount string
	Active bool
}

// weekView is the week partial's template data. Every amount is already
// formatted.
type weekView struct {
	Date          string
	Prev          string
	Next          string
	First         string
	Last          string
	Total         string
	CategoryCount int
	ActiveDays    int
	Expenses      []expenseRow
	Categories    []categoryRow
	Days          []dayRow
}

type indexView struct {
	Today      string
	Categories []core.Category
	MaxNote    int
	Week       weekView
}

func (s *Server) buildWeekView(report weekly.Report, ref string) weekView {
	f := s.reports.Engine().Formatter()
	w := report.Window

	v := weekView{
		Date:          ref,
		Prev:          formatDay(w.Start.AddDate(0, 0, -7)),
		Next:          formatDay(w.Start.AddDate(0, 0, 7)),
		First:         formatDay(w.Days[0]),
		Last:          formatDay(w.Days[6]),
		Total:         f.FormatCurrency(report.Total),
		CategoryCount: len(report.ByCategory),
		ActiveDays:    report.ActiveDays(),
	}

	for _, e := range report.Expenses {
		v.Expenses = append(v.Expenses, expenseRow{
			ID:       e.ID,
			Date:     e.Date.String(),
			Day:      f.DayLabel(e.Date.At(w.Location())),
			Category: e.Category.String(),
			Note:     e.Note,
			Amount:   f.FormatCurrency(e.Amount),
		})
	}

	// Bars scale against the largest category; ByCategory is sorted so that
	// is the first entry.
	var largest decimal.Decimal
	if len(report.ByCategory) > 0 {
		largest = report.ByCategory[0].Total
	}
	for _, c := range report.ByCategory {
		width := 0
		if largest.IsPositive() && c.Total.IsPositive() {
			width = int(c.Total.Mul(decimal.NewFromInt(100)).Div(largest).Round(0).IntPart())
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		v.Categories = append(v.Categories, categoryRow{
			Name:   c.Category.String(),
			Amount: f.FormatCurrency(c.Total),
			Width:  width,
		})
	}

	for i, d := range w.Days {
		v.Days = append(v.Days, dayRow{
			Label:  report.ByDay.Labels[i],
			Date:   formatDay(d),
			Amount: f.FormatCurrency(report.ByDay.Totals[i]),
			Active: !report.ByDay.Totals[i].IsZero(),
		})
	}
	return v
}

// loadWeek resolves ?date= and builds the report. It writes the error
// response itself and returns ok=false on failure.
func (s *Server) loadWeek(w http.ResponseWriter, r *http.Request) (weekly.Report, string, bool) {
	ctx := r.Context()
	ref, err := s.referenceTime(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, badDateMessage(r.URL.Query().Get("date")))
		return weekly.Report{}, "", false
	}

	report, err := s.reports.WeekOf(ctx, ref)
	if err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Week report failed", err, log.OpReport,
			log.NewFields().WithComponent(log.ComponentReport))
		s.writeError(w, r, http.StatusInternalServerError, "Could not load this week's expenses")
		return weekly.Report{}, "", false
	}
	return report, formatDay(ref.In(s.location())), true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate,
			"template", name)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	report, ref, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	s.render(w, r, "index.html", indexView{
		Today:      s.today().String(),
		Categories: core.Categories,
		MaxNote:    core.MaxNoteLength,
		Week:       s.buildWeekView(report, ref),
	})
}

// handleWeekPartial renders the summary cards and the week table.
func (s *Server) handleWeekPartial(w http.ResponseWriter, r *http.Request) {
	report, ref, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	s.render(w, r, "week", s.buildWeekView(report, ref))
}

type amountJSON struct {
	Amount  decimal.Decimal `json:"amount"`
	Display string          `json:"display"`
}

type categoryJSON struct {
	Category core.Category `json:"category"`
	amountJSON
}

type dayJSON struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	amountJSON
}

type weekResponse struct {
	Reference  string         `json:"reference"`
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Timezone   string         `json:"timezone"`
	Locale     string         `json:"locale"`
	Currency   string         `json:"currency"`
	Total      amountJSON     `json:"total"`
	ByCategory []categoryJSON `json:"by_category"`
	ByDay      []dayJSON      `json:"by_day"`
	Expenses   []core.Expense `json:"expenses"`
}

type chartsResponse struct {
	Reference string             `json:"reference"`
	Category  weekly.ChartSeries `json:"category"`
	Daily     weekly.ChartSeries `json:"daily"`
}

// handleWeekJSON serves the full report. End is exclusive.
func (s *Server) handleWeekJSON(w http.ResponseWriter, r *http.Request) {
	report, ref, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	f := s.reports.Engine().Formatter()
	money := func(d decimal.Decimal) amountJSON {
		return amountJSON{Amount: d, Display: f.FormatCurrency(d)}
	}

	resp := weekResponse{
		Reference:  ref,
		Start:      formatDay(report.Window.Start),
		End:        formatDay(report.Window.End),
		Timezone:   report.Window.Location().String(),
		Locale:     f.Locale(),
		Currency:   f.Currency(),
		Total:      money(report.Total),
		ByCategory: make([]categoryJSON, 0, len(report.ByCategory)),
		ByDay:      make([]dayJSON, 0, 7),
		Expenses:   report.Expenses,
	}
	for _, c := range report.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryJSON{Category: c.Category, amountJSON: money(c.Total)})
	}
	for i, d := range report.Window.Days {
		resp.ByDay = append(resp.ByDay, dayJSON{
			Date:       formatDay(d),
			Label:      report.ByDay.Labels[i],
			amountJSON: money(report.ByDay.Totals[i]),
		})
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

// handleWeekCharts serves the two chart series the page draws.
func (s *Server) handleWeekCharts(w http.ResponseWriter, r *http.Request) {
	report, ref, ok := s.loadWeek(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, chartsResponse{
		Reference: ref,
		Category:  report.CategoryChart(),
		Daily:     report.DailyChart(),
	})
}
