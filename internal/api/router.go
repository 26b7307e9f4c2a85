package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/dproquant/tradecheck/internal/api/handlers"
	"github.com/dproquant/tradecheck/pkg/logger"
)

// NewRouter wires all endpoints. auditRatePerMinute bounds how often the
// upload-and-audit endpoint may be hit; audits parse whole files and are
// comparatively expensive.
func NewRouter(auditHandler *handlers.AuditHandler, reportsHandler *handlers.ReportsHandler, notesHandler *handlers.NotesHandler, auditRatePerMinute int, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	audit := api.PathPrefix("/audit").Subrouter()
	audit.HandleFunc("", auditHandler.RunAudit).Methods("POST")
	audit.Use(rateLimitMiddleware(auditRatePerMinute, log))

	if reportsHandler != nil {
		api.HandleFunc("/reports", reportsHandler.List).Methods("GET")
		api.HandleFunc("/reports/{id}", reportsHandler.Get).Methods("GET")
	}

	if notesHandler != nil {
		api.HandleFunc("/notes", notesHandler.List).Methods("GET")
		api.HandleFunc("/notes", notesHandler.Create).Methods("POST")
		api.HandleFunc("/notes/{id}", notesHandler.Update).Methods("PUT")
		api.HandleFunc("/notes/{id}", notesHandler.Delete).Methods("DELETE")
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "tradecheck-api",
	})
}

// rateLimitMiddleware throttles requests with a shared token bucket.
func rateLimitMiddleware(perMinute int, log *logger.Logger) mux.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 10
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.WithField("path", r.URL.Path).Warn("Rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many audit requests, slow down",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

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
