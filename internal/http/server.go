package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-secops-console-api/internal/config"
	"go-secops-console-api/internal/connectors/inference"
	mysqlstore "go-secops-console-api/internal/connectors/mysql"
	"go-secops-console-api/internal/connectors/userprefs"
	"go-secops-console-api/internal/dispatch"
	"go-secops-console-api/internal/history"
)

// sessionHeader carries the browser session identity. The server mints one
// when a request arrives without it and echoes it back on every response.
const sessionHeader = "X-Session-ID"

type sessionCtxKey struct{}

// Server wraps an HTTP server and route handlers.
type Server struct {
	httpServer  *nethttp.Server
	usersStore  *mysqlstore.Store
	prefsStore  *userprefs.Store
	history     *history.Store
	sweepPeriod time.Duration
	sweepCancel context.CancelFunc
}

// NewServer creates a configured HTTP server with v1 endpoints.
func NewServer(cfg config.Config) (*Server, error) {
	endpoints, err := config.LoadEndpoints(cfg.EndpointsPath)
	if err != nil {
		log.Printf("endpoints config %s unavailable: %v (modules report not configured)", cfg.EndpointsPath, err)
		endpoints = nil
	}
	apiBase := endpoints.Base()
	if strings.TrimSpace(cfg.APIBase) != "" {
		apiBase = strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	}

	var usersStore *mysqlstore.Store
	if cfg.DBEnabled {
		createdStore, err := mysqlstore.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		usersStore = createdStore
	}
	var prefsStore *userprefs.Store
	if strings.TrimSpace(cfg.PrefsSQLitePath) != "" {
		createdStore, err := userprefs.NewSQLiteStore(cfg.PrefsSQLitePath)
		if err != nil {
			return nil, err
		}
		prefsStore = createdStore
	}

	uploadClient := inference.NewClient(cfg.UploadTimeout)
	probeClient := inference.NewClient(cfg.ProbeTimeout)
	dispatcher := dispatch.New(uploadClient)
	historyStore := history.NewStore(cfg.HistoryMaxEntries, cfg.SessionIdleExpiry)

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", consoleHandler)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/api/v1/metrics/app", appMetricsSummaryHandler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/api/v1/config", configHandler(endpoints, apiBase))
	mux.HandleFunc("/api/v1/domains", domainsHandler())
	mux.HandleFunc("/api/v1/domains/", domainModulesHandler())
	mux.HandleFunc("/api/v1/modules/", moduleRouter(moduleRouterDeps{
		endpoints:      endpoints,
		apiBase:        apiBase,
		dispatcher:     dispatcher,
		history:        historyStore,
		analyzeClient:  uploadClient,
		maxUploadBytes: cfg.MaxUploadBytes,
	}))
	mux.HandleFunc("/api/v1/status/endpoints", endpointStatusHandler(endpoints, probeClient))
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(usersStore, prefsStore, endpoints))
	mux.HandleFunc("/api/v1/users", usersHandler(usersStore))
	mux.HandleFunc("/api/v1/users/", userDetailHandler(usersStore))
	mux.HandleFunc("/api/v1/preferences/", preferencesHandler(prefsStore))
	mux.HandleFunc("/api/v1/chat/", chatHandler(prefsStore))

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      loggingMiddleware(observabilityMiddleware(sessionMiddleware(mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer:  httpServer,
		usersStore:  usersStore,
		prefsStore:  prefsStore,
		history:     historyStore,
		sweepPeriod: cfg.SessionSweepPeriod,
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.sweepCancel = cancel
	go s.startHistorySweeper(ctx)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sweepCancel != nil {
		s.sweepCancel()
	}
	if s.usersStore != nil {
		_ = s.usersStore.Close()
	}
	if s.prefsStore != nil {
		_ = s.prefsStore.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) startHistorySweeper(ctx context.Context) {
	period := s.sweepPeriod
	if period <= 0 {
		period = 10 * time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged := s.history.Purge(); purged > 0 {
				log.Printf("history sweeper dropped %d idle sessions", purged)
			}
		}
	}
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func readyHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ready",
	})
}

func loggingMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)
		fmt.Printf("%s %s %s %s\n", r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

func sessionMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id := strings.TrimSpace(r.Header.Get(sessionHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(sessionHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, id)))
	})
}

func sessionID(r *nethttp.Request) string {
	if id, ok := r.Context().Value(sessionCtxKey{}).(string); ok {
		return id
	}
	return ""
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
