package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/SscSPs/exchange_engine/internal/middleware"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/gin-gonic/gin"
)

type schedulerHandler struct {
	sweep    portssvc.SweepSvc
	recorder *audit.Recorder
}

// RegisterSchedulerRoutes registers the sweep trigger used by the external scheduler.
func RegisterSchedulerRoutes(r gin.IRouter, sweep portssvc.SweepSvc, apiKey string, recorder *audit.Recorder) {
	h := &schedulerHandler{sweep: sweep, recorder: recorder}

	internal := r.Group("/internal", middleware.APIKeyAuth(apiKey, "scheduler"))
	internal.POST("/sweep", h.runSweep)
}

// runSweep godoc
// @Summary Run a limit order sweep
// @Description Fills crossing limit orders and expires stale ones at the current price
// @Tags internal
// @Accept  json
// @Produce  json
// @Param   sweep body dto.SweepRequest true "Trigger details"
// @Success 200 {object} dto.SweepResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Price is stale"
// @Security ApiKeyAuth
// @Router /internal/sweep [post]
func (h *schedulerHandler) runSweep(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.sweep.Sweep(c.Request.Context(), req.TriggerSource)
	if err != nil {
		respondError(c, h.recorder, err, failure{action: "sweep.failed", resourceType: "sweep", resourceID: req.TriggerSource})
		return
	}

	logger.Info("Sweep completed",
		slog.String("trigger_source", req.TriggerSource),
		slog.Int("processed", result.ProcessedOrders),
		slog.Int("failed", result.Failed))
	c.JSON(http.StatusOK, dto.SweepResponse{
		ProcessedOrders: result.ProcessedOrders,
		TotalCandidates: result.TotalCandidates,
		Expired:         result.Expired,
		Failed:          result.Failed,
		Skipped:         result.Skipped,
		Conflicted:      result.Conflicted,
		CurrentPrice:    result.CurrentPrice.CurrentPrice,
		PriceAgeSeconds: result.CurrentPrice.AgeSeconds,
	})
}
