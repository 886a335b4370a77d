package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	portalgate "github.com/MrEthical07/portalgate"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestContext assigns a request ID (reusing a well-formed inbound one) and
// attaches it, along with the client IP, to the request context.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		ctx := portalgate.WithRequestID(c.Request.Context(), id)
		ctx = portalgate.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the identifier assigned by RequestContext, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog writes one line per request. The query string is omitted since
// it may carry a session token.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}

		logger.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status_code", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", RequestID(c)),
		)
	}
}
