package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/platform/ratelimit"
	"github.com/gin-gonic/gin"
)

// Rate limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimit creates a Gin middleware limiting each caller to rule on endpoint.
// The caller is the authenticated user when there is one and the client IP otherwise.
// Store failures are logged and the request is let through.
func RateLimit(l *ratelimit.Limiter, endpoint string, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		identifier, ok := GetUserIDFromContext(c)
		if !ok {
			identifier = "ip:" + c.ClientIP()
		}

		decision, err := l.Check(c.Request.Context(), identifier, endpoint, rule)
		if err != nil {
			logger.Error("Rate limit check failed, allowing request",
				slog.String("endpoint", endpoint),
				slog.String("error", err.Error()),
			)
		}

		c.Header(HeaderRateLimitLimit, strconv.FormatInt(decision.Total, 10))
		c.Header(HeaderRateLimitRemaining, strconv.FormatInt(decision.Remaining, 10))
		c.Header(HeaderRateLimitReset, strconv.FormatInt(decision.ResetTime.Unix(), 10))

		if !decision.Allowed {
			retryAfter := decision.RetryAfter(time.Now())
			seconds := int64(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			logger.Warn("Rate limit exceeded",
				slog.String("endpoint", endpoint),
				slog.Int64("limit", decision.Total),
				slog.Int64("retry_after_seconds", seconds),
			)

			rlErr := &apperrors.RateLimitError{
				Limit:      decision.Total,
				ResetTime:  decision.ResetTime,
				RetryAfter: time.Duration(seconds) * time.Second,
			}
			_ = c.Error(rlErr)
			c.Header(HeaderRetryAfter, strconv.FormatInt(seconds, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      apperrors.ErrRateLimited.Error(),
				"retryAfter": seconds,
			})
			return
		}

		c.Next()
	}
}
