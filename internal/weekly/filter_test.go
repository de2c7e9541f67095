package weekly

import (
	"testing"
	"time"

	"weekspend/internal/core"
)

func expense(id string, date core.Date, amount string, cat core.Category) core.Expense {
	return core.Expense{ID: id, Date: date, Amount: core.MustAmount(amount), Category: cat}
}

func ids(expenses []core.Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInWindowBoundaries(t *testing.T) {
	w := NewCalendar(time.UTC, time.Sunday).Window(time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC))

	input := []core.Expense{
		expense("before", core.NewDate(2024, 5, 11), "1", core.Food),
		expense("start", core.NewDate(2024, 5, 12), "2", core.Food),
		expense("mid", core.NewDate(2024, 5, 15), "3", core.Food),
		expense("last", core.NewDate(2024, 5, 18), "4", core.Food),
		expense("end", core.NewDate(2024, 5, 19), "5", core.Food),
		{ID: "zero", Amount: core.MustAmount("6"), Category: core.Food},
	}

	got := ids(InWindow(input, w))
	want := []string{"start", "mid", "last"}
	if !equalStrings(got, want) {
		t.Fatalf("InWindow = %v, want %v", got, want)
	}
}

func TestInWindowKeepsInputOrder(t *testing.T) {
	w := NewCalendar(time.UTC, time.Sunday).Window(time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC))

	input := []core.Expense{
		expense("c", core.NewDate(2024, 5, 17), "1", core.Food),
		expense("x", core.NewDate(2024, 4, 1), "1", core.Food),
		expense("a", core.NewDate(2024, 5, 12), "1", core.Bills),
		expense("b", core.NewDate(2024, 5, 17), "1", core.Health),
	}

	got := ids(InWindow(input, w))
	if want := []string{"c", "a", "b"}; !equalStrings(got, want) {
		t.Fatalf("InWindow = %v, want %v", got, want)
	}
}

func TestInWindowIdempotent(t *testing.T) {
	w := NewCalendar(time.UTC, time.Monday).Window(time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC))

	input := []core.Expense{
		expense("1", core.NewDate(2024, 12, 29), "1", core.Food),
		expense("2", core.NewDate(2024, 12, 30), "1", core.Food),
		expense("3", core.NewDate(2025, 1, 5), "1", core.Food),
		expense("4", core.NewDate(2025, 1, 6), "1", core.Food),
	}

	once := InWindow(input, w)
	twice := InWindow(once, w)
	if !equalStrings(ids(once), ids(twice)) {
		t.Fatalf("second pass changed result: %v -> %v", ids(once), ids(twice))
	}
	if want := []string{"2", "3"}; !equalStrings(ids(once), want) {
		t.Fatalf("InWindow = %v, want %v", ids(once), want)
	}
}

func TestInWindowEmpty(t *testing.T) {
	w := NewCalendar(time.UTC, time.Sunday).Window(time.Now())
	got := InWindow(nil, w)
	if got == nil || len(got) != 0 {
		t.Fatalf("InWindow(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestInWindowObservesWindowLocation(t *testing.T) {
	// A date is a whole calendar day in the window's location, no matter
	// how far that location is from UTC.
	auckland := mustLoad(t, "Pacific/Auckland")
	w := NewCalendar(auckland, time.Sunday).Window(time.Date(2024, 5, 15, 12, 0, 0, 0, auckland))

	input := []core.Expense{
		expense("sun", core.NewDate(2024, 5, 12), "1", core.Food),
		expense("sat", core.NewDate(2024, 5, 18), "1", core.Food),
		expense("next", core.NewDate(2024, 5, 19), "1", core.Food),
	}
	if got, want := ids(InWindow(input, w)), []string{"sun", "sat"}; !equalStrings(got, want) {
		t.Fatalf("InWindow = %v, want %v", got, want)
	}
}
