package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/middleware"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/gin-gonic/gin"
)

// stalePriceRetryAfter is the hint sent with a stale price; the feed updates every few seconds.
const stalePriceRetryAfter = 5

// failure describes how an operation's internal errors are audited.
// An empty action means the service already audited them.
type failure struct {
	action       string
	resourceType string
	resourceID   string
}

// respondError maps err onto the error taxonomy and writes the response.
// Internal details are logged and never put in the body.
func respondError(c *gin.Context, recorder *audit.Recorder, err error, f failure) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := apperrors.HTTPStatus(err)
	_ = c.Error(err)

	if apperrors.IsInternal(err) {
		logger.Error("Request failed", slog.String("error", err.Error()))
		if recorder != nil && f.action != "" {
			userID, _ := middleware.GetUserIDFromContext(c)
			recorder.LogAudit(c.Request.Context(), domain.AuditEntry{
				Action:       f.action,
				ResourceType: f.resourceType,
				ResourceID:   f.resourceID,
				NewValues:    map[string]any{"error": err.Error()},
				Severity:     domain.SeverityError,
				UserID:       userID,
			})
		}
	} else {
		logger.Warn("Request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}

	body := gin.H{"error": apperrors.PublicMessage(err)}
	if apperrors.IsRetryable(err) {
		body["retryable"] = true
	}
	if status == http.StatusServiceUnavailable {
		c.Header(middleware.HeaderRetryAfter, strconv.Itoa(stalePriceRetryAfter))
	}
	c.JSON(status, body)
}

// requireUserID reads the authenticated user id, writing a 401 when it is missing.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		_ = c.Error(apperrors.ErrUnauthorized)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// badRequest reports a binding failure.
func badRequest(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
}
