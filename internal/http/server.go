package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
)

const sessionCookieName = "session"

// Server wires the JSON API routes over the service layer.
type Server struct {
	http.Server

	auth          *services.AuthService
	categories    *services.CategoryService
	expenses      *services.ExpenseService
	transactions  *services.TransactionService
	fixedExpenses *services.FixedExpenseService

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once

	readyCheck func(ctx context.Context) error
}

// Config carries the server's construction parameters.
type Config struct {
	Addr            string
	RateLimitPerMin int
	Auth            *services.AuthService
	Categories      *services.CategoryService
	Expenses        *services.ExpenseService
	Transactions    *services.TransactionService
	FixedExpenses   *services.FixedExpenseService
	ReadyCheck      func(ctx context.Context) error
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(cfg Config) *Server {
	s := &Server{
		auth:          cfg.Auth,
		categories:    cfg.Categories,
		expenses:      cfg.Expenses,
		transactions:  cfg.Transactions,
		fixedExpenses: cfg.FixedExpenses,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMin,
		}),
		readyCheck: cfg.ReadyCheck,
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	traced := trace.Middleware(clientIP)
	limited := s.limiter.Middleware(clientIP, s.handleRateLimited)

	chain := func(h http.HandlerFunc) http.Handler {
		return headers.Middleware(traced(limited(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("/login", chain(s.handleLogin))
	mux.Handle("/logout", chain(s.handleLogout))
	mux.Handle("/categories", chain(s.handleCategories))
	mux.Handle("/expenses", chain(s.handleExpenses))
	mux.Handle("/transactions", chain(s.handleTransactions))
	mux.Handle("/fixed-expenses", chain(s.handleFixedExpenses))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the HTTP server and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// currentUserID resolves the session cookie to a user id. An absent or
// stale session yields "", which read handlers treat as "no data" and write
// handlers as forbidden.
func (s *Server) currentUserID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", nil
	}
	return s.auth.ResolveSession(r.Context(), cookie.Value)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	NewResponse().
		Status(http.StatusTooManyRequests).
		Header("Retry-After", "60").
		Write(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readyCheck != nil {
		if err := s.readyCheck(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
