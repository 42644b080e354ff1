package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/m3rciful/diaglink/core/logger"
	"log/slog"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags every request with a correlation id and emits a single
// summary line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(requestIDHeader, rid)

		ctx := logger.WithRID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		statusStr := "ok"
		if status >= 500 {
			statusStr = "error"
		}
		attrs := []slog.Attr{
			slog.String("status", statusStr),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("http_code", status),
			slog.String("client_ip", c.ClientIP()),
			slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("err", logger.SanitizeLimit(c.Errors.String(), 256)))
		}
		logger.LogEvent(ctx, logger.Component("http"), level, "request.handled", attrs...)
	}
}
