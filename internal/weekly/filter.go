package weekly

import "weekspend/internal/core"

// InWindow returns the expenses whose date falls inside w, in input order.
// An expense date is placed at midnight in the window's location before the
// comparison. Expenses with a zero date are treated as malformed and dropped.
func InWindow(expenses []core.Expense, w WeekWindow) []core.Expense {
	loc := w.Location()
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		if w.Contains(e.Date.At(loc)) {
			out = append(out, e)
		}
	}
	return out
}
