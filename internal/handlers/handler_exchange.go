package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/SscSPs/exchange_engine/internal/middleware"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/SscSPs/exchange_engine/internal/platform/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimits holds the limiter and the per-endpoint budgets of the user routes.
// A nil Limiter disables rate limiting.
type RateLimits struct {
	Limiter *ratelimit.Limiter
	Convert ratelimit.Rule
	Orders  ratelimit.Rule
	Cancel  ratelimit.Rule
}

func (r RateLimits) middleware(endpoint string, rule ratelimit.Rule) gin.HandlerFunc {
	if r.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(r.Limiter, endpoint, rule)
}

// exchangeHandler handles the authenticated user routes.
type exchangeHandler struct {
	conversion portssvc.ConversionSvc
	orders     portssvc.OrderSvcFacade
	balances   portssvc.BalanceReaderSvc
	recorder   *audit.Recorder
}

// RegisterExchangeRoutes registers conversion, order and balance routes on rg.
// rg is expected to carry the authentication middleware.
func RegisterExchangeRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, limits RateLimits, recorder *audit.Recorder) {
	if err := RegisterValidators(); err != nil {
		panic(err)
	}

	h := &exchangeHandler{
		conversion: services.Conversion,
		orders:     services.Order,
		balances:   services.Balance,
		recorder:   recorder,
	}

	rg.POST("/convert", limits.middleware("convert", limits.Convert), h.convert)
	rg.GET("/balance", h.getBalance)

	orders := rg.Group("/orders")
	{
		orders.POST("", limits.middleware("orders", limits.Orders), h.placeLimitOrder)
		orders.GET("", h.listOrders)
		orders.DELETE("/:orderID", limits.middleware("cancel", limits.Cancel), h.cancelLimitOrder)
	}
}

// convert godoc
// @Summary Convert between BASE and QUOTE
// @Description Fills a market conversion immediately at the current price
// @Tags exchange
// @Accept  json
// @Produce  json
// @Param   conversion body dto.ConvertRequest true "Conversion details"
// @Success 200 {object} dto.ConvertResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Balance changed concurrently"
// @Failure 422 {object} map[string]string "Insufficient balance"
// @Failure 429 {object} map[string]string "Rate limited"
// @Failure 503 {object} map[string]string "Price is stale"
// @Security BearerAuth
// @Router /convert [post]
func (h *exchangeHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	logger.Info("Received conversion request",
		slog.String("side", string(req.Side)),
		slog.String("input_amount", req.InputAmount.String()),
		slog.String("input_currency", string(req.InputCurrency)))

	result, err := h.conversion.Convert(c.Request.Context(), userID, req)
	if err != nil {
		// the conversion service audits its own failures
		respondError(c, h.recorder, err, failure{})
		return
	}

	logger.Info("Conversion filled", slog.String("order_id", result.Order.OrderID))
	c.JSON(http.StatusOK, dto.ToConvertResponse(result.Order, result.NewBalance))
}

// placeLimitOrder godoc
// @Summary Place a limit order
// @Description Records a pending limit order that fills once the price crosses the limit
// @Tags orders
// @Accept  json
// @Produce  json
// @Param   order body dto.PlaceLimitOrderRequest true "Limit order details"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 429 {object} map[string]string "Rate limited"
// @Security BearerAuth
// @Router /orders [post]
func (h *exchangeHandler) placeLimitOrder(c *gin.Context) {
	var req dto.PlaceLimitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	order, err := h.orders.PlaceLimitOrder(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.recorder, err, failure{action: "order.place_failed", resourceType: "exchange_order"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrderResponse(*order))
}

// cancelLimitOrder godoc
// @Summary Cancel a limit order
// @Description Cancels a pending limit order owned by the caller
// @Tags orders
// @Produce  json
// @Param   orderID path string true "Order ID"
// @Success 200 {object} dto.CancelOrderResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 409 {object} map[string]string "Order is no longer pending"
// @Failure 429 {object} map[string]string "Rate limited"
// @Security BearerAuth
// @Router /orders/{orderID} [delete]
func (h *exchangeHandler) cancelLimitOrder(c *gin.Context) {
	orderID := c.Param("orderID")
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	order, err := h.orders.CancelLimitOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, h.recorder, err, failure{action: "order.cancel_failed", resourceType: "exchange_order", resourceID: orderID})
		return
	}

	c.JSON(http.StatusOK, dto.CancelOrderResponse{OrderID: order.OrderID, Status: order.Status})
}

// listOrders godoc
// @Summary List orders
// @Description Lists the caller's orders, newest first
// @Tags orders
// @Produce  json
// @Param   status query string false "Filter by status"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListOrdersResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /orders [get]
func (h *exchangeHandler) listOrders(c *gin.Context) {
	var params dto.ListOrdersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orders, nextToken, err := h.orders.ListOrders(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, h.recorder, err, failure{})
		return
	}

	c.JSON(http.StatusOK, dto.ToListOrdersResponse(orders, nextToken))
}

// getBalance godoc
// @Summary Get balance
// @Description Returns the caller's BASE and QUOTE balances
// @Tags balances
// @Produce  json
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Balance not provisioned"
// @Security BearerAuth
// @Router /balance [get]
func (h *exchangeHandler) getBalance(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	balance, err := h.balances.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.recorder, err, failure{})
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}
