// Package http is the JSON API surface. Handlers parse and validate input,
// call the services, and translate domain errors to status codes; no business
// rules live here.
package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"loadbook/internal/log"
	"loadbook/internal/middleware/ratelimit"
	"loadbook/internal/middleware/security"
	"loadbook/internal/services"
)

type Server struct {
	http.Server

	loads     *services.LoadService
	expenses  *services.ExpenseService
	directory *services.DirectoryService
	reports   *services.ReportService
	backup    *services.ExportService

	limiter *ratelimit.Limiter
}

type Config struct {
	Addr               string
	CORSAllowedOrigins []string
	// RateLimitPerMinute caps requests per client IP. Zero disables limiting.
	RateLimitPerMinute int
	Logger             *log.Logger
}

func NewServer(cfg Config,
	loads *services.LoadService,
	expenses *services.ExpenseService,
	directory *services.DirectoryService,
	reports *services.ReportService,
	backup *services.ExportService,
) *Server {
	s := &Server{
		loads:     loads,
		expenses:  expenses,
		directory: directory,
		reports:   reports,
		backup:    backup,
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	if cfg.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		})
		r.Use(s.limiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			respondJSON(w, http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded, retry in a minute",
			})
		}))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/loads", func(r chi.Router) {
			r.Get("/", s.handleListLoads)
			r.Post("/", s.handleCreateLoad)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetLoad)
				r.Put("/", s.handleUpdateLoad)
				r.Delete("/", s.handleCancelLoad)
				r.Post("/start", s.handleStartLoad)
				r.Post("/complete", s.handleCompleteLoad)
				r.Post("/invoice", s.handleInvoiceLoad)
				r.Get("/invoice", s.handleGetInvoice)
				r.Put("/status", s.handleOverrideStatus)
				r.Get("/action", s.handleNextAction)
				r.Get("/expenses", s.handleListLoadExpenses)
			})
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/{id}", s.handleGetExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", s.handleListCompanies)
			r.Post("/", s.handleCreateCompany)
			r.Get("/{id}", s.handleGetCompany)
			r.Put("/{id}", s.handleUpdateCompany)
			r.Delete("/{id}", s.handleDeleteCompany)
		})

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleSaveProfile)

		r.Get("/dashboard/kpis", s.handleKPIs)
		r.Get("/reports/settlement", s.handleSettlement)
		r.Get("/reports/settlement.xlsx", s.handleSettlementWorkbook)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.Server.Shutdown(ctx)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
