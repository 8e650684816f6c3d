package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"paychart/internal/app"
	"paychart/internal/cache"
	applog "paychart/internal/log"
	"paychart/internal/middleware/ratelimit"
	"paychart/internal/middleware/security"
	"paychart/internal/middleware/trace"
	"paychart/internal/session"
	"paychart/internal/sheets"
	"paychart/internal/source"
	"paychart/internal/status"
	appweb "paychart/web"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "paychart_session"

const (
	defaultSessionTTL  = 24 * time.Hour
	defaultMaxSessions = 1000
	importTimeout      = 15 * time.Second
	readyTimeout       = 5 * time.Second
)

// Deps are the collaborators requests are routed to. Only Pipeline and
// Sessions matter for behavior; the rest default to in-process versions
// when left nil.
type Deps struct {
	Pipeline *app.Pipeline
	Sessions session.Store
	// Importer is nil when Google Sheets import is not configured.
	Importer sheets.SalaryReader
	// Ready backs /readyz; nil means always ready.
	Ready     func(ctx context.Context) error
	Loader    *source.FileLoader
	Limiter   *ratelimit.Limiter
	Detector  *security.Detector
	Reporters *cache.LRUCache[*status.Reporter]
	Logger    *applog.Logger

	SessionTTL     time.Duration
	MaxUploadBytes int64
}

// Server serves the chart page and its htmx actions.
type Server struct {
	http.Server
	templates *template.Template

	pipeline  *app.Pipeline
	sessions  session.Store
	importer  sheets.SalaryReader
	ready     func(ctx context.Context) error
	loader    *source.FileLoader
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	reporters *cache.LRUCache[*status.Reporter]
	trace     *trace.Middleware

	log *applog.Logger
	sl  *applog.StructuredLogger

	sessionTTL     time.Duration
	maxUploadBytes int64
	now            func() time.Time
	shutdownOnce   sync.Once
}

// NewReporterCache holds one status reporter per session. Evicted
// reporters have their pending dismissal stopped.
func NewReporterCache(maxSessions int, ttl time.Duration) *cache.LRUCache[*status.Reporter] {
	return cache.NewLRUCache[*status.Reporter](maxSessions, ttl,
		cache.WithEvictHook(func(_ string, r *status.Reporter) { r.Clear() }))
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = applog.New(applog.DefaultConfig())
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = defaultSessionTTL
	}
	if d.Pipeline == nil {
		d.Pipeline = app.NewPipeline(app.WithLogger(d.Logger))
	}
	if d.Sessions == nil {
		d.Sessions = session.NewMemoryStore(defaultMaxSessions, d.SessionTTL)
	}
	if d.Loader == nil {
		d.Loader = source.NewFileLoader(d.MaxUploadBytes)
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = source.DefaultMaxBytes
	}
	if d.Detector == nil {
		d.Detector = security.NewDetector()
	}
	if d.Reporters == nil {
		d.Reporters = NewReporterCache(defaultMaxSessions, d.SessionTTL)
	}

	logger := d.Logger.WithComponent(applog.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		pipeline:       d.Pipeline,
		sessions:       d.Sessions,
		importer:       d.Importer,
		ready:          d.Ready,
		loader:         d.Loader,
		limiter:        d.Limiter,
		detector:       d.Detector,
		reporters:      d.Reporters,
		trace:          trace.NewMiddleware(d.Detector.ClientIP, d.Logger),
		log:            logger,
		sl:             applog.NewStructuredLogger(logger),
		sessionTTL:     d.SessionTTL,
		maxUploadBytes: d.MaxUploadBytes,
		now:            time.Now,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.Handle("/chart/sample", s.limited(s.handleSample))
	mux.Handle("/chart/update", s.limited(s.handleUpdate))
	mux.Handle("/chart/toggle", s.limited(s.handleToggle))
	mux.Handle("/chart/upload", s.limited(s.handleUpload))
	mux.Handle("/chart/import", s.limited(s.handleImport))
	mux.HandleFunc("/chart/option", s.handleOption)
	mux.HandleFunc("/chart.png", s.handlePNG)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.trace.Middleware(headers.Middleware(s.flagSuspicious(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// limited applies the per-client rate limit to an action handler.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return h
	}
	return s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.log.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ClientIP(r),
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").
			TriggerErrorNotification("Too many requests, please slow down").
			Write(w)
	})(h)
}

// flagSuspicious logs requests that look like scanner probes. They are
// still routed normally and usually end in a 404.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			s.log.WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, s.detector.ClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// TraceMetrics exposes request counters from the tracing middleware.
func (s *Server) TraceMetrics() trace.Metrics {
	return s.trace.GetMetrics()
}
