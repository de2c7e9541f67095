package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"weekspend/internal/cache"
	"weekspend/internal/core"
	"weekspend/internal/store"
	"weekspend/internal/weekly"
)

// ReportService loads the expense history and runs the weekly engine on it.
type ReportService struct {
	reader store.ExpenseReader
	engine *weekly.Engine
	clock  weekly.Clock
	memo   cache.Cache[weekly.Report]
	group  singleflight.Group
}

// NewReportService builds a report service. clock defaults to the system
// clock. memo may be nil; it is only consulted when reader also implements
// store.Versioner.
func NewReportService(reader store.ExpenseReader, engine *weekly.Engine, clock weekly.Clock, memo cache.Cache[weekly.Report]) *ReportService {
	if clock == nil {
		clock = weekly.SystemClock
	}
	return &ReportService{
		reader: reader,
		engine: engine,
		clock:  clock,
		memo:   memo,
	}
}

func (s *ReportService) Engine() *weekly.Engine { return s.engine }

// Now is the service clock's current instant.
func (s *ReportService) Now() time.Time { return s.clock.Now() }

// CurrentWeek reports on the week containing the clock's now.
func (s *ReportService) CurrentWeek(ctx context.Context) (weekly.Report, error) {
	return s.WeekOf(ctx, s.clock.Now())
}

// WeekOf reports on the week containing ref.
func (s *ReportService) WeekOf(ctx context.Context, ref time.Time) (weekly.Report, error) {
	key, ok := s.memoKey(ctx, ref)
	if !ok {
		return s.build(ctx, ref)
	}

	if r, hit := s.memo.Get(key); hit {
		return r, nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		r, err := s.build(ctx, ref)
		if err != nil {
			return weekly.Report{}, err
		}
		s.memo.Set(key, r)
		return r, nil
	})
	if err != nil {
		return weekly.Report{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Week report shared between callers", "key", key)
	}
	return v.(weekly.Report), nil
}

func (s *ReportService) build(ctx context.Context, ref time.Time) (weekly.Report, error) {
	expenses, err := s.reader.ListExpenses(ctx)
	if err != nil {
		return weekly.Report{}, fmt.Errorf("list expenses: %w", err)
	}
	return s.engine.Report(expenses, ref), nil
}

// memoKey identifies a report by store version, the reference day as
// observed in the calendar location and the week start.
func (s *ReportService) memoKey(ctx context.Context, ref time.Time) (string, bool) {
	if s.memo == nil {
		return "", false
	}
	versioner, ok := s.reader.(store.Versioner)
	if !ok {
		return "", false
	}
	version, err := versioner.Version(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Store version unavailable, skipping report memo", "error", err)
		return "", false
	}

	cal := s.engine.Calendar()
	loc := cal.Location
	if loc == nil {
		loc = time.Local
	}
	day := core.DateOf(ref.In(loc))
	return fmt.Sprintf("week:%d:%s:%s:%d", version, day, loc, cal.FirstDay), true
}
