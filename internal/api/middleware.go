package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type convertIDKey struct{}

// ConvertID returns the conversion trace id attached to the request context,
// or "" outside an instrumented request.
func ConvertID(ctx context.Context) string {
	id, _ := ctx.Value(convertIDKey{}).(string)
	return id
}

// instrumentMiddleware tags every request with a conversion trace id and,
// once served, logs the conversion's disposition: the winning strategy and
// cache state are read back from the response headers the convert handlers
// set, so one log line summarizes the whole request.
func instrumentMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			convertID := uuid.NewString()
			w.Header().Set("X-Convert-Id", convertID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := context.WithValue(r.Context(), convertIDKey{}, convertID)
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			logger.Info("conversion request served",
				zap.String("convert_id", convertID),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", rec.status),
				zap.Int("bytes", rec.bytes),
				zap.String("strategy", rec.Header().Get("X-Strategy")),
				zap.String("from_cache", rec.Header().Get("X-From-Cache")),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

// statusRecorder captures the status code and body size for the
// instrumentation log line.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
