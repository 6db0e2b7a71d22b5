// Package http serves the browser front end: the home page, sheet setup,
// the transaction form and the transaction list, with HTMX partials for
// every interactive step.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finsheet/internal/apiclient"
	"finsheet/internal/cache"
	"finsheet/internal/idempotency"
	"finsheet/internal/log"
	"finsheet/internal/middleware/ratelimit"
	"finsheet/internal/middleware/security"
	"finsheet/internal/middleware/trace"
	"finsheet/internal/sheetconfig"
	"finsheet/internal/taxonomy"
	"finsheet/internal/ui"
	appweb "finsheet/web"
)

const (
	sessionTTL        = 30 * time.Minute
	maxSessions       = 500
	cacheCleanupEvery = 5 * time.Minute
)

// Backend is everything the pages need from the API.
type Backend interface {
	ui.Submitter
	ui.RowsAPI
	ListConfigs(ctx context.Context) ([]sheetconfig.SheetConfig, error)
	GetConfig(ctx context.Context, id string) (sheetconfig.SheetConfig, error)
	SetupSheet(ctx context.Context, req sheetconfig.Request) (apiclient.SetupResult, error)
}

var _ Backend = (*apiclient.Client)(nil)

// Options configure the front end server.
type Options struct {
	Backend Backend
	Index   *taxonomy.Index
	Scheme  idempotency.Scheme
	// ServiceAccount is shown on the setup page before the first submit.
	ServiceAccount     string
	RateLimitPerMinute int
	Logger             *log.Logger
	Now                func() time.Time
}

type Server struct {
	http.Server

	templates      *template.Template
	backend        Backend
	index          *taxonomy.Index
	scheme         idempotency.Scheme
	serviceAccount string
	now            func() time.Time

	forms *ui.Sessions[*ui.FormController]
	lists *ui.Sessions[*ui.ListController]
	cache *cache.Manager

	logger           *log.Logger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	submitted   atomic.Int64
	submitFails atomic.Int64
	renderFails atomic.Int64
	uptime      time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.Index == nil {
		opts.Index = taxonomy.Build(taxonomy.Default())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scheme == "" {
		opts.Scheme = idempotency.SchemeSHA256
	}
	httpLogger := logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		backend:        opts.Backend,
		index:          opts.Index,
		scheme:         opts.Scheme,
		serviceAccount: opts.ServiceAccount,
		now:            opts.Now,
		forms:          ui.NewSessions[*ui.FormController](maxSessions, sessionTTL),
		lists:          ui.NewSessions[*ui.ListController](maxSessions, sessionTTL),
		cache:          cache.NewManager(),
		logger:         httpLogger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Methods:           []string{http.MethodPost},
		}),
		securityDetector: security.NewDetector(),
	}
	s.appMetrics.uptime = time.Now()
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	s.cache.Register(s.forms.Cache())
	s.cache.Register(s.lists.Cache())
	s.cache.StartCleanup(cacheCleanupEvery)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		httpLogger.Warn("Failed parsing templates", log.FieldError, err)
		t = nil
	}
	s.templates = t

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		httpLogger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Pages
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /sheet-configs/new", s.handleSetupPage)
	mux.HandleFunc("POST /sheet-configs", s.handleSetupSubmit)
	mux.HandleFunc("GET /add", s.handleAddPage)
	mux.HandleFunc("GET /transactions", s.handleTransactionsPage)

	// Form partials
	mux.HandleFunc("POST /ui/subgroups", s.handleGroupChanged)
	mux.HandleFunc("POST /ui/categories", s.handleSubgroupChanged)
	mux.HandleFunc("POST /ui/suggest", s.handleSuggest)
	mux.HandleFunc("POST /ui/resolve", s.handleResolve)
	mux.HandleFunc("POST /ui/amount", s.handleAmount)
	mux.HandleFunc("POST /ui/reset", s.handleReset)
	mux.HandleFunc("POST /transactions/submit", s.handleSubmit)

	// List partials and actions
	mux.HandleFunc("GET /transactions/table", s.handleTable)
	mux.HandleFunc("POST /transactions/delete", s.handleDelete)
	mux.HandleFunc("POST /transactions/delete-selected", s.handleDeleteSelected)
	mux.HandleFunc("POST /transactions/clone", s.handleClone)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
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

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cache.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// onRateLimited answers throttled HTMX posts with a notification instead of
// a bare 429 page.
func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		Header("HX-Reswap", "none").
		TriggerErrorNotification("Too many requests. Please try again later.").
		BodyString("Rate limit exceeded. Please try again later.").
		Write(w)
}

// render executes a named template into a buffer so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	html, err := executeTemplate(s.templates, name, data)
	if err != nil {
		s.appMetrics.renderFails.Add(1)
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	b.BodyHTML(html).Write(w)
}
