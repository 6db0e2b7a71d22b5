package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"finsheet/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).String(),
	})
}

// handleReady checks that the config registry answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if _, err := s.configs.List(ctx, s.userID); err != nil {
		checks["sheet_configs"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
	} else {
		checks["sheet_configs"] = "ok"
	}
	if s.rows == nil {
		checks["rows"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["rows"] = "ok"
	}
	checks["events"] = "disabled"
	if s.events != nil {
		checks["events"] = "ok"
	}
	checks["idempotency"] = map[string]any{"entries": s.idem.Cache().Size()}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traffic := s.traceMiddleware.GetMetrics()
	limits := s.rateLimiter.GetMetrics()
	sec := s.securityDetector.GetMetrics()

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	counter("http_requests_total", "Total number of HTTP requests", traffic.TotalRequests)
	counter("http_server_errors_total", "Responses with a 5xx status", traffic.ServerErrors)
	counter("transactions_appended_total", "Rows appended", s.metrics.appended.Load())
	counter("transactions_duplicate_total", "Appends answered from the idempotency cache", s.metrics.duplicates.Load())
	counter("transactions_deleted_total", "Rows deleted", s.metrics.deleted.Load())
	counter("transactions_cloned_total", "Rows cloned", s.metrics.cloned.Load())
	counter("activity_publish_errors_total", "Activity events that failed to publish", s.metrics.publishErr.Load())
	counter("rate_limit_hits_total", "Requests rejected by the rate limiter", limits.TotalHits)
	counter("suspicious_requests_total", "Suspicious requests detected", sec.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n# TYPE uptime_seconds gauge\nuptime_seconds %.0f\n",
		time.Since(s.metrics.started).Seconds())
}
