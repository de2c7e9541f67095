package weekly

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"weekspend/internal/core"
)

// DailyTotals holds one label and one sum per day, index-aligned with
// WeekWindow.Days.
type DailyTotals struct {
	Labels [7]string          `json:"labels"`
	Totals [7]decimal.Decimal `json:"totals"`
}

// Aggregates is what Aggregate derives from a filtered expense set.
type Aggregates struct {
	Total      decimal.Decimal      `json:"total"`
	ByCategory []core.CategoryTotal `json:"by_category"`
	ByDay      DailyTotals          `json:"by_day"`
}

// Aggregate sums filtered in three ways: overall, per category and per day.
//
// ByCategory only lists categories present in filtered, ordered by total
// descending with ties kept in first-encounter order. Each expense lands in
// the ByDay slot whose calendar date matches its own; an expense dated
// outside days is left out of ByDay only, so the three views add up to the
// same amount whenever filtered came from InWindow over the same week.
// Expenses with a zero date are skipped entirely.
func Aggregate(filtered []core.Expense, days [7]time.Time) Aggregates {
	agg := Aggregates{
		Total:      decimal.Zero,
		ByCategory: []core.CategoryTotal{},
	}
	for i, d := range days {
		agg.ByDay.Labels[i] = shortWeekday(d.Weekday())
		agg.ByDay.Totals[i] = decimal.Zero
	}

	index := make(map[core.Category]int)
	for _, e := range filtered {
		if e.Date.IsZero() {
			continue
		}
		agg.Total = agg.Total.Add(e.Amount)
		if offset := daysBetween(days[0], e.Date.Time); offset >= 0 && offset <= 6 {
			agg.ByDay.Totals[offset] = agg.ByDay.Totals[offset].Add(e.Amount)
		}

		i, ok := index[e.Category]
		if !ok {
			i = len(agg.ByCategory)
			index[e.Category] = i
			agg.ByCategory = append(agg.ByCategory, core.CategoryTotal{Category: e.Category, Total: decimal.Zero})
		}
		agg.ByCategory[i].Total = agg.ByCategory[i].Total.Add(e.Amount)
	}

	sort.SliceStable(agg.ByCategory, func(i, j int) bool {
		return agg.ByCategory[i].Total.GreaterThan(agg.ByCategory[j].Total)
	})
	return agg
}

func shortWeekday(d time.Weekday) string {
	return d.String()[:3]
}
