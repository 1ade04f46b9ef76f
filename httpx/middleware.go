package httpx

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RequestIDMiddleware tags every request with an X-Request-ID, generating a UUID
// when the client did not send one.
func RequestIDMiddleware() MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString})
}

// RequestLoggerMiddleware logs one structured record per request; nil uses slog.Default.
func RequestLoggerMiddleware(logger *slog.Logger) MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c Context, v middleware.RequestLoggerValues) error {
			l := logger
			if l == nil {
				l = slog.Default()
			}
			level := slog.LevelInfo
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			l.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	})
}

// RateLimitMiddleware rejects clients (by real IP) exceeding perSecond requests
// with 429 Too Many Requests.
func RateLimitMiddleware(perSecond float64) MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStore(rate.Limit(perSecond))
	return middleware.RateLimiter(store)
}

// GzipMiddleware compresses responses for clients sending Accept-Encoding: gzip.
func GzipMiddleware() MiddlewareFunc {
	return middleware.Gzip()
}
