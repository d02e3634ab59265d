package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
	"github.com/kowshikb/kidQuest-sub000/internal/catalog"
	"github.com/kowshikb/kidQuest-sub000/internal/database"
	"github.com/kowshikb/kidQuest-sub000/internal/handler"
	"github.com/kowshikb/kidQuest-sub000/internal/leaderboard"
	"github.com/kowshikb/kidQuest-sub000/internal/logger"
	"github.com/kowshikb/kidQuest-sub000/internal/metrics"
	"github.com/kowshikb/kidQuest-sub000/internal/progression"
)

type Server struct {
	httpServer         *http.Server
	dbPool             database.Pool
	progressionService progression.Service
	leaderboardService leaderboard.Service
}

// NewServer creates a new Server instance
func NewServer(port int, dbPool database.Pool, progressionService progression.Service, leaderboardService leaderboard.Service, loader *catalog.Loader, tiers *cache.Tiers) *Server {
	r := chi.NewRouter()

	// Middleware stack, outermost first
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Metrics endpoint for Prometheus scraping
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		progressionHandlers := handler.NewProgressionHandlers(progressionService)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", handler.HandleGetTasks(loader))
			r.Post("/complete", progressionHandlers.HandleCompleteTask())
		})

		r.Get("/profile", progressionHandlers.HandleGetProfile())

		r.Route("/achievements", func(r chi.Router) {
			r.Get("/", handler.HandleGetAchievements(loader))
			r.Post("/check", progressionHandlers.HandleCheckAchievements())
		})

		r.Get("/leaderboard", handler.HandleGetLeaderboard(leaderboardService))

		// Admin routes
		adminCacheHandler := handler.NewAdminCacheHandler(tiers)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/reload-catalogs", handler.HandleReloadCatalogs(loader))

			r.Route("/cache", func(r chi.Router) {
				r.Get("/stats", adminCacheHandler.HandleGetCacheStats)
				r.Post("/clear", adminCacheHandler.HandleClearCaches)
			})
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool:             dbPool,
		progressionService: progressionService,
		leaderboardService: leaderboardService,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Health and metrics endpoints are noisy and carry no request body;
		// skip logging for them.
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info("Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info("Server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
