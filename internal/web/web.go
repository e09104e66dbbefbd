package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aical/internal/config"
	appLog "aical/internal/log"
	"aical/internal/model"
	"aical/internal/store"
	"aical/internal/subscribe"
	"aical/internal/view"
)

// Importer turns free text into stored events.
type Importer interface {
	Import(ctx context.Context, text, reference string) ([]model.Event, error)
}

// Refresher re-reads subscribed feeds.
type Refresher interface {
	Refresh(ctx context.Context) (subscribe.Result, error)
}

// Capturer renders a page URL to PNG.
type Capturer interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}

// Deps are the collaborators the HTTP layer drives. Importer, Refresher and
// Capturer are optional; their endpoints answer 503 when unset.
type Deps struct {
	Store      *store.Store
	Controller *view.Controller
	Importer   Importer
	Refresher  Refresher
	Capturer   Capturer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server provides the JSON API, the server-rendered calendar pages and the
// PNG preview.
type Server struct {
	cfg    *config.Config
	deps   Deps
	router *mux.Router
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Store == nil {
		deps.Store = store.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Controller == nil {
		deps.Controller = view.NewController(deps.Store, clockOf(cfg), deps.Now)
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="aical", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// recoveryMiddleware turns handler panics into a 500.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				appLog.Error("panic recovered", errors.New("handler panic"),
					"panic", rec,
					"method", r.Method,
					"url", r.URL.String(),
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// StartServer serves cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, deps Deps) error {
	s := NewServer(cfg, deps)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(recoveryMiddleware, metricsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleCreateEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", s.handleGetEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}", s.handleUpdateEvent).Methods(http.MethodPut)
	api.HandleFunc("/events/{id}", s.handleDeleteEvent).Methods(http.MethodDelete)

	api.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/export.ics", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/import.ics", s.handleImportICS).Methods(http.MethodPost)

	api.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/state/step", s.handleStateStep).Methods(http.MethodPost)
	api.HandleFunc("/state/view", s.handleStateView).Methods(http.MethodPost)
	api.HandleFunc("/state/date", s.handleStateDate).Methods(http.MethodPost)
	api.HandleFunc("/state/month", s.handleStateMonth).Methods(http.MethodPost)
	api.HandleFunc("/state/today", s.handleStateToday).Methods(http.MethodPost)

	api.HandleFunc("/subscriptions/refresh", s.handleRefresh).Methods(http.MethodPost)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/calendar", s.handleCalendar).Methods(http.MethodGet)
	r.HandleFunc("/preview.png", s.handlePreview).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

type errResp struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}
