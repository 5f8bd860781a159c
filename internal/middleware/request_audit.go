package middleware

import (
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/gin-gonic/gin"
)

// RequestAudit writes exactly one request log per request, after every other handler ran.
// It must be registered after StructuredLoggingMiddleware so the correlation id is set.
func RequestAudit(recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := domain.RequestLog{
			CorrelationID: audit.CorrelationID(c.Request.Context()),
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			StatusCode:    c.Writer.Status(),
			RequestSize:   max(c.Request.ContentLength, 0),
			ResponseSize:  int64(max(c.Writer.Size(), 0)),
			Duration:      time.Since(start),
		}
		if route := c.FullPath(); route != "" {
			entry.Path = route
			entry.Route = route
		}
		if userID, ok := GetUserIDFromContext(c); ok {
			entry.UserID = userID
		}
		if last := c.Errors.Last(); last != nil {
			entry.Error = last.Err.Error()
		}
		recorder.LogRequest(c.Request.Context(), entry)
	}
}
