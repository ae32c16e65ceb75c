// Package middleware holds the HTTP middleware of the API server.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
)

// LoggingConfig tunes RequestLogging.
type LoggingConfig struct {
	// SkipPaths are served without a log entry, e.g. probes and /metrics.
	SkipPaths []string
	// SlowThreshold promotes successful requests at or above it to warn.
	// Zero disables the check.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig skips the probes and the metrics endpoint. A cold
// resolution takes a few PubChem round trips, so 5s is well past normal.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 5 * time.Second,
	}
}

// wrap records status and size. A handler that writes nothing is a 200.
func wrap(w http.ResponseWriter, r *http.Request) chimw.WrapResponseWriter {
	return chimw.NewWrapResponseWriter(w, r.ProtoMajor)
}

func statusOf(ww chimw.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

// RequestLogging writes one entry per finished request: error for 5xx, warn
// for 4xx and slow requests, info otherwise.
func RequestLogging(logger logging.Logger, config LoggingConfig) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("http")
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			ww := wrap(w, r)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			status := statusOf(ww)

			logFn, msg := logger.Info, "request served"
			switch {
			case status >= http.StatusInternalServerError:
				logFn, msg = logger.Error, "request failed with server error"
			case status >= http.StatusBadRequest:
				logFn, msg = logger.Warn, "request rejected with client error"
			case config.SlowThreshold > 0 && elapsed >= config.SlowThreshold:
				logFn, msg = logger.Warn, "request served (slow)"
			}
			logFn(msg, requestFields(r, status, ww.BytesWritten(), elapsed)...)
		})
	}
}

func requestFields(r *http.Request, status, size int, elapsed time.Duration) []logging.Field {
	target := r.URL.Path
	if q := r.URL.RawQuery; q != "" {
		target = target + "?" + q
	}
	fields := []logging.Field{
		logging.String("request_id", chimw.GetReqID(r.Context())),
		logging.String("method", r.Method),
		logging.String("path", target),
		logging.Int("status", status),
		logging.Int64("bytes", int64(size)),
		logging.Duration("duration", elapsed),
		logging.String("remote_addr", r.RemoteAddr),
	}
	if ua := r.UserAgent(); ua != "" {
		fields = append(fields, logging.String("user_agent", ua))
	}
	return fields
}
