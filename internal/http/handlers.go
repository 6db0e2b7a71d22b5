package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady checks templates and that the API answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.backend == nil {
		checks["api"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if _, err := s.backend.ListConfigs(ctx); err != nil {
		checks["api"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["api"] = "ok"
	}

	checks["sessions"] = map[string]any{
		"forms": s.forms.Len(),
		"lists": s.lists.Len(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP transactions_submitted_total Transactions accepted by the API\n")
	fmt.Fprintf(w, "# TYPE transactions_submitted_total counter\n")
	fmt.Fprintf(w, "transactions_submitted_total %d\n\n", s.appMetrics.submitted.Load())

	fmt.Fprintf(w, "# HELP transactions_submit_failures_total Submits the API rejected or that failed to reach it\n")
	fmt.Fprintf(w, "# TYPE transactions_submit_failures_total counter\n")
	fmt.Fprintf(w, "transactions_submit_failures_total %d\n\n", s.appMetrics.submitFails.Load())

	fmt.Fprintf(w, "# HELP template_render_failures_total Template executions that failed\n")
	fmt.Fprintf(w, "# TYPE template_render_failures_total counter\n")
	fmt.Fprintf(w, "template_render_failures_total %d\n\n", s.appMetrics.renderFails.Load())

	fmt.Fprintf(w, "# HELP ui_sessions Live page sessions\n")
	fmt.Fprintf(w, "# TYPE ui_sessions gauge\n")
	fmt.Fprintf(w, "ui_sessions{kind=\"form\"} %d\n", s.forms.Len())
	fmt.Fprintf(w, "ui_sessions{kind=\"list\"} %d\n\n", s.lists.Len())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}
