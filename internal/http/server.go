package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"diarybook/internal/core"
	"diarybook/internal/log"
	"diarybook/internal/middleware/ratelimit"
	"diarybook/internal/middleware/security"
	"diarybook/internal/middleware/trace"
)

// Journal is the set of operations the API exposes. *services.Journal
// implements it.
type Journal interface {
	Today() core.Date
	Ready(ctx context.Context) error
	SaveDiaryEntry(ctx context.Context, date core.Date, category, text string) (core.DiaryEntry, error)
	LoadDiaryEntries(ctx context.Context, date core.Date) ([]core.DiaryEntry, error)
	SaveFinanceRecordOn(ctx context.Context, date core.Date, category, amount, note string) (core.FinanceRecord, error)
	LoadFinanceRecords(ctx context.Context, date core.Date) ([]core.FinanceRecord, error)
	ListFinanceCategories(ctx context.Context) ([]core.FinanceCategory, error)
	AddFinanceCategory(ctx context.Context, name string) (core.FinanceCategory, error)
	DeleteFinanceCategory(ctx context.Context, id int64) error
	ComputeStats(ctx context.Context, today core.Date) (core.Stats, error)
}

// Config configures the API server.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	// TrustedProxies lists the CIDR ranges allowed to set forwarding headers.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server
	journal Journal
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	clients *clientIPResolver
	logger  *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config, journal Journal) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	clients := newClientIPResolver(cfg.TrustedProxies, logger)
	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		journal: journal,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(clients.ClientIP, logger),
		clients: clients,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /entries", s.handleSaveEntry)
	mux.HandleFunc("GET /entries", s.handleListEntries)

	mux.HandleFunc("POST /finance/records", s.handleSaveRecord)
	mux.HandleFunc("GET /finance/records", s.handleListRecords)

	mux.HandleFunc("GET /finance/categories", s.handleListCategories)
	mux.HandleFunc("POST /finance/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /finance/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /stats", s.handleStats)

	limited := s.limiter.Middleware(clients.ClientIP, s.onRateLimit, http.MethodPost, http.MethodDelete)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(limited(mux)))

	return s
}

// Shutdown gracefully shuts down the server and the rate limiter
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request counters for the trace and rate-limit middleware.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics()
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clients.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// handleReady reports whether the store can be opened and upgraded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.journal.Ready(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
