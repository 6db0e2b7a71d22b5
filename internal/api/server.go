// Package api serves the JSON and text endpoints the web front end calls:
// appending, reading, deleting and cloning transaction rows, and registering
// the spreadsheets they live in.
package api

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finsheet/internal/core"
	"finsheet/internal/idempotency"
	"finsheet/internal/log"
	"finsheet/internal/middleware/ratelimit"
	"finsheet/internal/middleware/security"
	"finsheet/internal/middleware/trace"
	"finsheet/internal/sheetconfig"
	ports "finsheet/internal/sheets"
)

// EventPublisher announces completed row mutations.
type EventPublisher interface {
	Publish(ctx context.Context, e core.ActivityEvent) error
}

// Deps are the collaborators of the API server.
type Deps struct {
	Rows        ports.RowStore
	Configs     *sheetconfig.Service
	Idempotency *idempotency.Store
	// Events is optional; nil disables activity events.
	Events EventPublisher
	// ServiceAccount is shown to users so they can share their sheet.
	ServiceAccount     string
	UserID             string
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server

	rows           ports.RowStore
	configs        *sheetconfig.Service
	idem           *idempotency.Store
	events         EventPublisher
	serviceAccount string
	userID         string

	logger           *log.Logger
	structuredLogger *log.StructuredLogger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	appended   atomic.Int64
	duplicates atomic.Int64
	deleted    atomic.Int64
	cloned     atomic.Int64
	publishErr atomic.Int64
	started    time.Time
}

// NewServer wires routes and middleware and returns a server ready for
// ListenAndServe.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	idem := deps.Idempotency
	if idem == nil {
		idem = idempotency.NewStore(idempotency.DefaultMaxEntries, 5*time.Minute)
	}
	apiLogger := logger.WithComponent(log.ComponentAPI)

	s := &Server{
		rows:             deps.Rows,
		configs:          deps.Configs,
		idem:             idem,
		events:           deps.Events,
		serviceAccount:   deps.ServiceAccount,
		userID:           deps.UserID,
		logger:           apiLogger,
		structuredLogger: log.NewStructuredLogger(apiLogger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
			Methods:           []string{http.MethodPost, http.MethodDelete},
		}),
		securityDetector: security.NewDetector(),
	}
	s.metrics.started = time.Now()
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /append", s.handleAppend)
	mux.HandleFunc("GET /read-sheet", s.handleReadSheet)
	mux.HandleFunc("DELETE /delete-row/{rowIndex}", s.handleDeleteRow)
	mux.HandleFunc("DELETE /delete-rows", s.handleDeleteRows)
	mux.HandleFunc("POST /clone-row", s.handleCloneRow)

	mux.HandleFunc("POST /setup-sheet", s.handleSetupSheet)
	mux.HandleFunc("GET /sheet-configs", s.handleListConfigs)
	mux.HandleFunc("GET /sheet-configs/{id}", s.handleGetConfig)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, nil)(h)
	h = security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(h)
	h = s.securityDetector.Middleware(logger)(h)
	h = s.traceMiddleware.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// publish sends an activity event. Failures never reach the caller.
func (s *Server) publish(ctx context.Context, e core.ActivityEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.metrics.publishErr.Add(1)
		s.logger.WarnContext(ctx, "Failed to publish activity event",
			log.FieldError, err,
			log.FieldConfigID, e.ConfigID,
			"kind", e.Kind)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
