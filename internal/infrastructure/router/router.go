package router

import (
	"net/http"
	"time"

	"flightsurety-ledger/internal/infrastructure/auth"
	"flightsurety-ledger/internal/interface/handler"
	"flightsurety-ledger/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc reports whether the service's dependencies are reachable
type HealthFunc func(r *http.Request) error

// NewRouter builds the HTTP routes of the service
func NewRouter(
	ledgerHandler *handler.LedgerHandler,
	authMiddleware *auth.Middleware,
	gatherer prometheus.Gatherer,
	health HealthFunc,
	logger logger.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req); err != nil {
				logger.Warn("Health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("Unhealthy"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	r.Route("/v1", func(r chi.Router) {
		ledgerHandler.Register(r, authMiddleware)
	})

	return r
}

func requestLogger(logger logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(started),
				"requestId", middleware.GetReqID(r.Context()))
		})
	}
}
