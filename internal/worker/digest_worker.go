package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"weekspend/internal/amqp"
	"weekspend/internal/core"
	"weekspend/internal/weekly"
)

// ReportSource is the part of services.ReportService the worker needs.
type ReportSource interface {
	CurrentWeek(ctx context.Context) (weekly.Report, error)
}

// Digest is the one-line summary logged for the current week.
type Digest struct {
	Start       time.Time
	End         time.Time
	Total       decimal.Decimal
	Expenses    int
	TopCategory core.Category
	TopTotal    decimal.Decimal
	ActiveDays  int
}

// Summarize reduces a report to its digest.
func Summarize(r weekly.Report) Digest {
	d := Digest{
		Start:      r.Window.Start,
		End:        r.Window.End,
		Total:      r.Total,
		Expenses:   len(r.Expenses),
		TopTotal:   decimal.Zero,
		ActiveDays: r.ActiveDays(),
	}
	if len(r.ByCategory) > 0 {
		d.TopCategory = r.ByCategory[0].Category
		d.TopTotal = r.ByCategory[0].Total
	}
	return d
}

// DigestWorker recomputes the weekly digest whenever an expense changes.
type DigestWorker struct {
	reports   ReportSource
	formatter weekly.Formatter

	mu   sync.Mutex
	last Digest
}

func NewDigestWorker(reports ReportSource, formatter weekly.Formatter) *DigestWorker {
	return &DigestWorker{reports: reports, formatter: formatter}
}

// HandleExpenseEvent processes one AMQP expense event.
func (w *DigestWorker) HandleExpenseEvent(ctx context.Context, evt *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"type", evt.Type,
		"id", evt.ID,
		"date", evt.Date.String())

	d, err := w.refresh(ctx)
	if err != nil {
		return err
	}

	if evt.Type == amqp.ExpenseCreated && !evt.Date.IsZero() &&
		!weekContains(d, evt.Date) {
		slog.DebugContext(ctx, "Expense dated outside the current week",
			"id", evt.ID, "date", evt.Date.String())
	}
	return nil
}

// StartupDigest logs the digest once before consuming begins.
func (w *DigestWorker) StartupDigest(ctx context.Context) error {
	_, err := w.refresh(ctx)
	return err
}

// LastDigest returns the most recent digest.
func (w *DigestWorker) LastDigest() Digest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *DigestWorker) refresh(ctx context.Context) (Digest, error) {
	r, err := w.reports.CurrentWeek(ctx)
	if err != nil {
		return Digest{}, fmt.Errorf("build week report: %w", err)
	}
	d := Summarize(r)

	w.mu.Lock()
	w.last = d
	w.mu.Unlock()

	attrs := []any{
		"week_start", d.Start.Format(core.DateLayout),
		"total", w.formatter.FormatCurrency(d.Total),
		"expenses", d.Expenses,
		"active_days", d.ActiveDays,
	}
	if d.TopCategory != "" {
		attrs = append(attrs,
			"top_category", d.TopCategory,
			"top_total", w.formatter.FormatCurrency(d.TopTotal))
	}
	slog.InfoContext(ctx, "Weekly digest", attrs...)
	return d, nil
}

func weekContains(d Digest, date core.Date) bool {
	t := date.At(d.Start.Location())
	return !t.Before(d.Start) && t.Before(d.End)
}
