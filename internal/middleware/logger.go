package middleware

import (
	"net/http"
	"strings"
	"time"

	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"lebem.uz/storefront/internal/observability"
)

// Logger attaches a request-scoped zap logger to the context and emits one
// structured line per request.
func Logger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			logger := base
			if rid := chiMid.GetReqID(ctx); rid != "" {
				logger = logger.With(zap.String("request_id", rid))
			}
			if tid := observability.TraceID(ctx); tid != "" {
				logger = logger.With(zap.String("trace_id", tid))
			}
			ctx = observability.WithLogger(ctx, logger)
			rw := NewResponseRecorder(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", clientIP(r)),
				zap.Bool("htmx", IsHTMX(ctx) || r.Header.Get(HeaderHXRequest) == "true"),
			)
		})
	}
}

func clientIP(r *http.Request) string {
	// last X-Forwarded-For hop is the one our proxy appended
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		p := strings.Split(xff, ",")
		return strings.TrimSpace(p[len(p)-1])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}
