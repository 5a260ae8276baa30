// Package http is the web layer: session-gated HTML pages rendered from
// embedded templates, backed by the ledger service.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"cashflow/internal/services"
	"cashflow/internal/users"
	appweb "cashflow/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	ledger      *services.LedgerService
	users       users.Repository
	sessions    *sessionStore
	rateLimiter *rateLimiter
	uploadDir   string

	shutdownOnce sync.Once
}

// Options carries the wiring NewServer needs beyond the service handles.
type Options struct {
	Addr       string
	SessionTTL time.Duration
	UploadDir  string
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options, ledger *services.LedgerService, userRepo users.Repository) *Server {
	mux := http.NewServeMux()

	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "./data/uploads"
	}
	if err := os.MkdirAll(opts.UploadDir, 0755); err != nil {
		slog.Warn("Failed to create upload directory", "dir", opts.UploadDir, "error", err)
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		ledger:      ledger,
		users:       userRepo,
		sessions:    newSessionStore(opts.SessionTTL),
		rateLimiter: newRateLimiter(),
		uploadDir:   opts.UploadDir,
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /ping", s.withSecurityHeaders(s.handlePing))

	mux.HandleFunc("GET /login", s.withSecurityHeaders(s.handleLoginPage))
	mux.HandleFunc("POST /login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("GET /logout", s.withSecurityHeaders(s.handleLogout))

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.requireAuth(s.handleDashboard)))
	mux.HandleFunc("GET /data", s.withSecurityHeaders(s.requireAuth(s.handleData)))
	mux.HandleFunc("GET /stats", s.withSecurityHeaders(s.requireAuth(s.handleStats)))

	mux.HandleFunc("POST /add", s.withSecurityHeaders(s.requireAuth(s.handleAdd)))
	mux.HandleFunc("POST /edit", s.withSecurityHeaders(s.requireAuth(s.handleEdit)))
	mux.HandleFunc("GET /delete/{id}", s.withSecurityHeaders(s.requireAuth(s.handleDelete)))

	mux.HandleFunc("GET /settings", s.withSecurityHeaders(s.requireAuth(s.handleSettings)))
	mux.HandleFunc("POST /settings/profile", s.withSecurityHeaders(s.requireAuth(s.handleProfileUpdate)))
	mux.HandleFunc("POST /settings/pin", s.withSecurityHeaders(s.requireAuth(s.handlePINChange)))
	mux.HandleFunc("POST /categories/add", s.withSecurityHeaders(s.requireAuth(s.handleCategoryAdd)))
	mux.HandleFunc("POST /categories/rename", s.withSecurityHeaders(s.requireAuth(s.handleCategoryRename)))
	mux.HandleFunc("GET /categories/delete/{name}", s.withSecurityHeaders(s.requireAuth(s.handleCategoryDelete)))
	mux.HandleFunc("GET /uploads/{file}", s.withSecurityHeaders(s.requireAuth(s.handleUpload)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.sessions != nil {
			s.sessions.stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate-limit writes only; page loads stay cheap.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	usernameKey  contextKey = "username"
)

// requireAuth resolves the session cookie and rejects anonymous requests
// with a redirect to the login page.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		username, ok := s.sessions.resolve(token)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), usernameKey, username)
		next(w, r.WithContext(ctx))
	}
}

// currentUser loads the logged-in user for a request that passed requireAuth.
func (s *Server) currentUser(r *http.Request) (users.User, bool) {
	username, _ := r.Context().Value(usernameKey).(string)
	if username == "" {
		return users.User{}, false
	}
	u, err := s.users.FindByUsername(username)
	if err != nil {
		return users.User{}, false
	}
	return u, true
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handlePing is a cheap keepalive endpoint for uptime monitors.
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"awake"}`))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
