package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/auth"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/health"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/httputil"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/metrics"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/stream"
	"github.com/DaVinciHack/clean-fast-planner-sub000/internal/wx"
)

// Config holds API configuration loaded from environment variables.
type Config struct {
	TrustProxy      bool          // Honor X-Forwarded-For / X-Real-IP.
	RateLimitWindow time.Duration // Sliding window for weather routes (default: 15m).
	RateLimitMax    int           // Requests per window per IP (default: 1000).
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, cfg Config,
	store *wx.Store, refresher *wx.Refresher, streamHandler *stream.Handler, webContent fs.FS) *Server {

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/perf/dropdown", dropdownHandler(logger, store))
	mux.HandleFunc("GET /api/v1/perf/weight", weightHandler(logger, store))
	mux.HandleFunc("GET /api/v1/perf/envelope", envelopeHandler(logger))

	mux.HandleFunc("GET /api/v1/wx/stations", stationsHandler(store))
	mux.HandleFunc("GET /api/v1/wx/{station}", stationHandler(store))
	mux.HandleFunc("POST /api/v1/admin/wx/refresh", refreshHandler(logger, refresher))

	mux.HandleFunc("GET /api/v1/stream/conditions", streamHandler.HandleConditions)

	mux.Handle("GET /", http.FileServerFS(webContent))

	// Build middleware chain: metrics -> logging -> auth -> rate limit -> mux.
	limiter := newRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	var handler http.Handler = mux
	handler = rateLimitMiddleware(limiter, cfg.TrustProxy)(handler)
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      0, // SSE connections outlive any fixed write timeout.
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// rateLimitMiddleware applies the per-IP sliding-window limiter to the
// weather proxy routes. Chart math is local and cheap; the upstream weather
// API is the resource worth protecting.
func rateLimitMiddleware(limiter *rateLimiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/v1/wx/") {
				ip := httputil.ClientIP(r, trustProxy)
				if !limiter.allow(ip) {
					metrics.IncRateLimited()
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
