package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"weekspend/internal/core"
	"weekspend/internal/services"
	"weekspend/internal/store/memory"
	"weekspend/internal/weekly"
)

// Wednesday; the Sunday-start week runs 2024-05-12 to 2024-05-18.
var testNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func seedExpenses() []core.Expense {
	return []core.Expense{
		{ID: "e1", Date: core.NewDate(2024, 5, 13), Amount: core.MustAmount("12.50"), Category: core.Food, Note: "lunch"},
		{ID: "e2", Date: core.NewDate(2024, 5, 14), Amount: core.MustAmount("30"), Category: core.Transport},
		{ID: "e3", Date: core.NewDate(2024, 5, 15), Amount: core.MustAmount("7.50"), Category: core.Food},
		{ID: "old", Date: core.NewDate(2024, 5, 1), Amount: core.MustAmount("100"), Category: core.Bills},
	}
}

type testEnv struct {
	srv   *Server
	store *memory.Store
}

func newTestServer(t *testing.T, mutate func(*Dependencies)) testEnv {
	t.Helper()
	st := memory.New(seedExpenses()...)
	engine := weekly.NewEngine(weekly.NewCalendar(time.UTC, time.Sunday), weekly.DefaultFormatter())
	deps := Dependencies{
		Expenses: services.NewExpenseService(st, nil),
		Reports:  services.NewReportService(st, engine, weekly.FixedClock(testNow), nil),
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv, err := NewServer(":0", deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return testEnv{srv: srv, store: st}
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNewServerRequiresCollaborators(t *testing.T) {
	if _, err := NewServer(":0", Dependencies{}); err == nil {
		t.Fatal("expected error without services")
	}
}

func TestIndexAndPartial(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"Weekly spending", "$50.00", "lunch", `value="2024-05-15"`, "2024-05-12 to 2024-05-18"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if strings.Contains(body, "$100.00") {
		t.Error("index shows an expense from another week")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id not echoed")
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/ui/week?date=2024-05-01", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("partial status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "$100.00") || strings.Contains(rr.Body.String(), "<html") {
		t.Fatalf("partial body unexpected: %s", rr.Body.String())
	}
}

func TestUnknownPathIs404(t *testing.T) {
	env := newTestServer(t, nil)
	if rr := env.do(httptest.NewRequest(http.MethodGet, "/nope", nil)); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestWeekJSON(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/week", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got weekResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Start != "2024-05-12" || got.End != "2024-05-19" || got.Reference != "2024-05-15" {
		t.Fatalf("window = %s..%s ref %s", got.Start, got.End, got.Reference)
	}
	if got.Total.Display != "$50.00" {
		t.Fatalf("total = %s", got.Total.Display)
	}
	if len(got.ByCategory) != 2 || got.ByCategory[0].Category != core.Transport || got.ByCategory[1].Display != "$20.00" {
		t.Fatalf("by_category = %+v", got.ByCategory)
	}
	if len(got.ByDay) != 7 || got.ByDay[1].Display != "$12.50" || got.ByDay[0].Label != "Sun" {
		t.Fatalf("by_day = %+v", got.ByDay)
	}
	if len(got.Expenses) != 3 {
		t.Fatalf("expenses = %d, want 3", len(got.Expenses))
	}
}

func TestWeekCharts(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/week/charts?date=2024-05-18", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got chartsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(got.Category.Labels, ",") != "Transport,Food" {
		t.Fatalf("category labels = %v", got.Category.Labels)
	}
	if got.Category.Values[1] != 20 {
		t.Fatalf("category values = %v", got.Category.Values)
	}
	want := []float64{0, 12.5, 30, 7.5, 0, 0, 0}
	for i, v := range want {
		if got.Daily.Values[i] != v {
			t.Fatalf("daily values = %v, want %v", got.Daily.Values, want)
		}
	}
}

func TestBadReferenceDate(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/week?date=2024-13-01", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("api error not JSON: %s", rr.Header().Get("Content-Type"))
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/ui/week?date=yesterday", nil))
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), `class="error"`) {
		t.Fatalf("partial error = %d %s", rr.Code, rr.Body.String())
	}
}

func TestCreateExpense(t *testing.T) {
	env := newTestServer(t, nil)

	tests := []struct {
		name string
		form url.Values
		want int
	}{
		{"bad amount", url.Values{"amount": {"abc"}, "category": {"Food"}}, http.StatusUnprocessableEntity},
		{"zero amount", url.Values{"amount": {"0"}, "category": {"Food"}}, http.StatusUnprocessableEntity},
		{"bad category", url.Values{"amount": {"3"}, "category": {"Rent"}}, http.StatusUnprocessableEntity},
		{"bad date", url.Values{"amount": {"3"}, "category": {"Food"}, "date": {"15/05/2024"}}, http.StatusUnprocessableEntity},
		{"long note", url.Values{"amount": {"3"}, "category": {"Food"}, "note": {strings.Repeat("x", core.MaxNoteLength+1)}}, http.StatusUnprocessableEntity},
		{"ok", url.Values{"amount": {"4,20"}, "category": {"health"}, "note": {"pharmacy"}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(postForm("/expenses", tt.form))
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	items, _ := env.store.ListExpenses(context.Background())
	added := items[len(items)-1]
	if added.Category != core.Health || added.Date.String() != "2024-05-15" || added.Amount.StringFixed(2) != "4.20" {
		t.Fatalf("stored %+v", added)
	}
}

func TestCreateExpenseTriggers(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(postForm("/expenses", url.Values{"amount": {"9.99"}, "category": {"Food"}, "date": {"2024-05-16"}}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, part := range []string{`"expense:created"`, `"week:refresh"`, `"form:reset"`, `"date":"2024-05-16"`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %s: %s", part, trigger)
		}
	}
	if !strings.Contains(rr.Body.String(), "$9.99") {
		t.Fatalf("body = %s", rr.Body.String())
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/week", nil))
	var got weekResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total.Display != "$59.99" {
		t.Fatalf("total after create = %s", got.Total.Display)
	}
}

func TestCreateExpenseJSON(t *testing.T) {
	env := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/expenses",
		strings.NewReader(`{"date":"2024-05-17","amount":4.2,"category":"Entertainment"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := env.do(req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var saved core.Expense
	if err := json.Unmarshal(rr.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.ID == "" || saved.Amount.StringFixed(2) != "4.20" {
		t.Fatalf("saved = %+v", saved)
	}

	req = httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(`{"amount":`))
	req.Header.Set("Content-Type", "application/json")
	if rr := env.do(req); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON status=%d", rr.Code)
	}
}

func TestDeleteExpense(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(httptest.NewRequest(http.MethodDelete, "/expenses/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status=%d", rr.Code)
	}

	rr = env.do(httptest.NewRequest(http.MethodDelete, "/expenses/e2", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"expense:deleted"`) {
		t.Fatalf("HX-Trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	rr = env.do(postForm("/expenses/e1/delete", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("form delete status=%d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/expenses/e3", nil)
	req.Header.Set("Accept", "application/json")
	if rr := env.do(req); rr.Code != http.StatusNoContent {
		t.Fatalf("JSON delete status=%d", rr.Code)
	}

	items, _ := env.store.ListExpenses(context.Background())
	if len(items) != 1 || items[0].ID != "old" {
		t.Fatalf("remaining = %+v", items)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestServer(t, nil)
	rr := env.do(httptest.NewRequest(http.MethodGet, "/expenses", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	env := newTestServer(t, func(d *Dependencies) { d.RateLimit = 1 })

	form := url.Values{"amount": {"1"}, "category": {"Food"}}
	if rr := env.do(postForm("/expenses", form)); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := env.do(postForm("/expenses", form))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rr.Code)
	}
	// Reads are not limited.
	if rr := env.do(httptest.NewRequest(http.MethodGet, "/api/week", nil)); rr.Code != http.StatusOK {
		t.Fatalf("read status=%d", rr.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	env := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		if rr := env.do(httptest.NewRequest(http.MethodGet, path, nil)); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestServer(t, func(d *Dependencies) {
		d.Ping = func(context.Context) error { return errors.New("db gone") }
	})
	rr := down.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), "db gone") {
		t.Fatalf("readyz = %d %s", rr.Code, rr.Body.String())
	}
}

func TestMetricsCountRequests(t *testing.T) {
	env := newTestServer(t, nil)
	env.do(postForm("/expenses", url.Values{"amount": {"1"}, "category": {"Food"}}))
	rr := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{"expenses_created_total 1", "http_requests_total 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}
