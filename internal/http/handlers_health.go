package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Uptime    string         `json:"uptime,omitempty"`
	Checks    map[string]any `json:"checks,omitempty"`
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks the store and reports limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"templates": "ok",
		"rate_limiter": map[string]any{
			"active_clients": s.rateLimiter.ActiveClients(),
		},
	}

	if s.ping == nil {
		checks["store"] = "ok"
	} else if err := s.ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	s.writeJSON(w, r, code, healthResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	write := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	write("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	write("http_request_duration_avg_seconds", "gauge", "Average request duration", traceMetrics.AverageResponseTime.Seconds())
	write("expenses_created_total", "counter", "Expenses created through HTTP", s.metrics.created.Load())
	write("expenses_deleted_total", "counter", "Expenses deleted through HTTP", s.metrics.deleted.Load())
	write("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limitMetrics.TotalHits)
	write("active_rate_limit_clients", "gauge", "Clients tracked by the rate limiter", limitMetrics.ClientCount)
	write("uptime_seconds", "gauge", "Process uptime", int64(time.Since(s.metrics.started).Seconds()))
}
