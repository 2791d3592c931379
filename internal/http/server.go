// Package http serves the expense tracker web UI: session-aware pages,
// htmx partials and the export endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"centavo/internal/auth"
	"centavo/internal/cache"
	"centavo/internal/config"
	"centavo/internal/core"
	"centavo/internal/services"
	appweb "centavo/web"
)

const cacheTTL = 5 * time.Minute

type Server struct {
	http.Server
	templates  *template.Template
	auth       *auth.Service
	expenses   *services.ExpenseService
	sessionTTL time.Duration
	secure     bool

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Per-user view caches, invalidated wholesale after any write.
	overviewCache *cache.LRUCache[core.Summary]
	listCache     *cache.LRUCache[[]core.Expense]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes, templates and middleware into a ready-to-run
// http.Server.
func NewServer(cfg *config.Config, authSvc *auth.Service, expenseSvc *services.ExpenseService) (*Server, error) {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		auth:          authSvc,
		expenses:      expenseSvc,
		sessionTTL:    cfg.SessionTTL,
		secure:        cfg.Production(),
		rateLimiter:   newRateLimiter(),
		metrics:       &securityMetrics{},
		overviewCache: cache.NewLRUCache[core.Summary](100, cacheTTL),
		listCache:     cache.NewLRUCache[[]core.Expense](200, cacheTTL),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static fs: %w", err)
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(static)))
	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
		fileServer.ServeHTTP(w, r)
	}))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /login", s.wrap(s.handleLoginPage))
	mux.HandleFunc("POST /login", s.wrap(s.handleLogin))
	mux.HandleFunc("GET /register", s.wrap(s.handleRegisterPage))
	mux.HandleFunc("POST /register", s.wrap(s.handleRegister))
	mux.HandleFunc("POST /logout", s.wrap(s.handleLogout))

	mux.HandleFunc("GET /{$}", s.wrap(s.requireUser(s.handleIndex)))

	mux.HandleFunc("POST /expenses", s.wrap(s.requireUser(s.handleCreateExpense)))
	mux.HandleFunc("GET /expenses/{id}/edit", s.wrap(s.requireUser(s.handleEditExpenseForm)))
	mux.HandleFunc("PUT /expenses/{id}", s.wrap(s.requireUser(s.handleUpdateExpense)))
	mux.HandleFunc("DELETE /expenses/{id}", s.wrap(s.requireUser(s.handleDeleteExpense)))
	// Plain-form fallbacks for clients without htmx.
	mux.HandleFunc("POST /expenses/{id}", s.wrap(s.requireUser(s.handleUpdateExpense)))
	mux.HandleFunc("POST /expenses/{id}/delete", s.wrap(s.requireUser(s.handleDeleteExpense)))

	mux.HandleFunc("GET /ui/overview", s.wrap(s.requireUser(s.handleOverview)))
	mux.HandleFunc("GET /ui/expenses", s.wrap(s.requireUser(s.handleExpenseList)))

	mux.HandleFunc("GET /export/csv", s.wrap(s.requireUser(s.handleExportCSV)))
	mux.HandleFunc("GET /export/print", s.wrap(s.requireUser(s.handleExportPrint)))

	return s, nil
}

// wrap adds request logging, security headers and rate limiting.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "suspicious request",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.String())
		}

		// Rate limit writes only; reads are cached and cheap.
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type requestIDKey struct{}

// userHandler is a handler that only runs with a resolved session.
type userHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// requireUser resolves the session cookie and rejects the request when
// it is missing or invalid. Page requests are redirected to the login
// form; htmx requests get an HX-Redirect so the browser follows it.
func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		user, err := s.auth.CurrentUser(r.Context(), token)
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				slog.ErrorContext(r.Context(), "session lookup failed", "error", err)
				http.Error(w, "Something went wrong", http.StatusInternalServerError)
				return
			}
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/login")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "readiness check failed", "error", err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateUserViews drops every cached view for the user. Called
// after any expense write.
func (s *Server) invalidateUserViews(userID string) {
	s.overviewCache.DeletePrefix(userID + "|")
	s.listCache.DeletePrefix(userID + "|")
}

func (s *Server) cachedOverview(ctx context.Context, userID string, from, to *time.Time) (core.Summary, error) {
	key := userID + "|" + rangeKey(from, to)
	if summary, ok := s.overviewCache.Get(key); ok {
		return summary, nil
	}
	summary, err := s.expenses.Overview(ctx, userID, from, to)
	if err != nil {
		return core.Summary{}, err
	}
	s.overviewCache.Set(key, summary)
	return summary, nil
}

func (s *Server) cachedList(ctx context.Context, userID string, from, to *time.Time) ([]core.Expense, error) {
	key := userID + "|" + rangeKey(from, to)
	if items, ok := s.listCache.Get(key); ok {
		out := make([]core.Expense, len(items))
		copy(out, items)
		return out, nil
	}
	items, err := s.expenses.List(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(key, items)
	return items, nil
}

// Shutdown stops the HTTP server and the background cache sweeps.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
