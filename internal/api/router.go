package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/premarket-signals/internal/api/handlers"
	"github.com/wonny/premarket-signals/internal/api/stream"
	"github.com/wonny/premarket-signals/pkg/logger"
	"github.com/wonny/premarket-signals/pkg/metrics"
)

// Pinger reports backing store health (database.DB satisfies it)
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps are the collaborators the router mounts
type RouterDeps struct {
	Signals *handlers.SignalsHandler
	Hub     *stream.Hub
	DB      Pinger // optional
	Metrics bool
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing is configured in this function only
func NewRouter(deps RouterDeps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.DB, deps.Hub)).Methods("GET")

	// Signals API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/signals/latest", deps.Signals.GetLatest).Methods("GET")
	api.HandleFunc("/signals/runs/{run_id}", deps.Signals.GetRun).Methods("GET")
	api.HandleFunc("/signals/run", deps.Signals.Run).Methods("POST")
	api.HandleFunc("/config", deps.Signals.GetConfig).Methods("GET")

	// Streaming
	if deps.Hub != nil {
		r.HandleFunc("/ws/signals", deps.Hub.ServeWS).Methods("GET")
	}

	// Monitoring
	if deps.Metrics {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// Apply middleware
	r.Use(metricsMiddleware())
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(db Pinger, hub *stream.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{
			"status":  "ok",
			"service": "premarket-signals-api",
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["database"] = err.Error()
			} else {
				body["database"] = "ok"
			}
		}
		if hub != nil {
			body["stream_clients"] = hub.Count()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

// statusRecorder captures the response status; it passes Hijack through for websockets
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// metricsMiddleware records request durations by route template
func metricsMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			endpoint := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					endpoint = tpl
				}
			}
			metrics.RequestDuration.
				WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
