package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/SscSPs/exchange_engine/internal/middleware"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/gin-gonic/gin"
)

type adminHandler struct {
	reconciliation portssvc.ReconciliationSvcFacade
	balances       portssvc.BalanceWriterSvc
	recorder       *audit.Recorder
}

// RegisterAdminRoutes registers the operator routes: reconciliation and balance provisioning.
func RegisterAdminRoutes(r gin.IRouter, services *portssvc.ServiceContainer, apiKey string, recorder *audit.Recorder) {
	h := &adminHandler{
		reconciliation: services.Reconciliation,
		balances:       services.Balance,
		recorder:       recorder,
	}

	admin := r.Group("/admin", middleware.APIKeyAuth(apiKey, "admin"))
	{
		admin.POST("/reconcile", h.reconcile)
		admin.GET("/reconciliation/:date", h.getReport)
		admin.POST("/balances/:userID", h.provisionBalance)
		admin.POST("/balances/:userID/deposit", h.deposit)
	}
}

// reconcile godoc
// @Summary Run reconciliation
// @Description Compares stored balances with ledger totals and upserts today's report
// @Tags admin
// @Produce  json
// @Success 200 {object} dto.ReconciliationReportResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /admin/reconcile [post]
func (h *adminHandler) reconcile(c *gin.Context) {
	report, err := h.reconciliation.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, h.recorder, err, failure{action: "reconciliation.failed", resourceType: "reconciliation_report"})
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationReportResponse(report))
}

// getReport godoc
// @Summary Get a reconciliation report
// @Tags admin
// @Produce  json
// @Param   date path string true "Report date (YYYY-MM-DD)"
// @Success 200 {object} dto.ReconciliationReportResponse
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 404 {object} map[string]string "No report for that date"
// @Security ApiKeyAuth
// @Router /admin/reconciliation/{date} [get]
func (h *adminHandler) getReport(c *gin.Context) {
	report, err := h.reconciliation.GetReport(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, h.recorder, err, failure{})
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationReportResponse(report))
}

// provisionBalance godoc
// @Summary Provision a balance
// @Description Creates the zero balance of a user; repeating the call returns the existing balance
// @Tags admin
// @Produce  json
// @Param   userID path string true "User ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /admin/balances/{userID} [post]
func (h *adminHandler) provisionBalance(c *gin.Context) {
	userID := c.Param("userID")
	balance, err := h.balances.ProvisionBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.recorder, err, failure{action: "balance.provision_failed", resourceType: "balance", resourceID: userID})
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}

// deposit godoc
// @Summary Deposit funds
// @Description Credits a user from the external account
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   userID path string true "User ID"
// @Param   deposit body dto.DepositRequest true "Amounts to credit"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string "Invalid amounts"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /admin/balances/{userID}/deposit [post]
func (h *adminHandler) deposit(c *gin.Context) {
	userID := c.Param("userID")
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	balance, err := h.balances.Deposit(c.Request.Context(), userID, req, middleware.GetActorFromContext(c))
	if err != nil {
		respondError(c, h.recorder, err, failure{action: "balance.deposit_failed", resourceType: "balance", resourceID: userID})
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}
