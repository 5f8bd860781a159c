package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/SscSPs/exchange_engine/internal/handlers"
	"github.com/SscSPs/exchange_engine/internal/middleware"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/SscSPs/exchange_engine/internal/platform/ratelimit"
	"github.com/SscSPs/exchange_engine/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testJWTSecret = "test-secret-key-that-is-long-enough"
	testIssuer    = "identity-test"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// generateTestToken creates a JWT the way the identity service issues them.
func generateTestToken(t *testing.T, userID, issuer string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

// --- Test Suite ---
type ExchangeHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockConversion *MockConversionService
	mockOrders     *MockOrderService
	mockBalances   *MockBalanceService
	store          *memory.Store
	userID         string
	token          string
}

func (suite *ExchangeHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()

	suite.mockConversion = new(MockConversionService)
	suite.mockOrders = new(MockOrderService)
	suite.mockBalances = new(MockBalanceService)
	suite.store = memory.NewStore()
	recorder := audit.NewRecorder(
		audit.WithStore(suite.store.Provider(false).AuditRepo),
		audit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	services := &portssvc.ServiceContainer{
		Conversion: suite.mockConversion,
		Order:      suite.mockOrders,
		Balance:    suite.mockBalances,
	}
	limits := handlers.RateLimits{
		Limiter: ratelimit.New(ratelimit.NewMemoryStore("test")),
		Convert: ratelimit.Rule{Limit: 2, Window: time.Minute},
		Orders:  ratelimit.Rule{Limit: 100, Window: time.Minute},
		Cancel:  ratelimit.Rule{Limit: 100, Window: time.Minute},
	}

	suite.router.Use(middleware.RequestAudit(recorder))
	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(testJWTSecret, testIssuer))
	handlers.RegisterExchangeRoutes(v1, services, limits, recorder)

	suite.userID = uuid.NewString()
	suite.token = generateTestToken(suite.T(), suite.userID, testIssuer)
}

func TestExchangeHandler(t *testing.T) {
	suite.Run(t, new(ExchangeHandlerTestSuite))
}

func (suite *ExchangeHandlerTestSuite) do(method, url, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+suite.token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *ExchangeHandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), "Failed to unmarshal response body")
}

func (suite *ExchangeHandlerTestSuite) filledOrder() domain.ExchangeOrder {
	price := dec("5")
	now := time.Now().UTC()
	return domain.ExchangeOrder{
		OrderID: uuid.NewString(), UserID: suite.userID, Side: domain.BuyBase, OrderType: domain.Market,
		InputAmount: dec("100"), InputCurrency: domain.Quote, ExecutionPrice: &price,
		AmountBase: dec("19.8"), AmountQuote: dec("100"), FeeBase: dec("0.2"), FeeQuote: decimal.Zero,
		Status: domain.Filled, CreatedAt: now, FilledAt: &now,
	}
}

// --- Test Cases ---

func (suite *ExchangeHandlerTestSuite) TestConvert_Success() {
	order := suite.filledOrder()
	suite.mockConversion.On("Convert", mock.Anything, suite.userID, mock.MatchedBy(func(r dto.ConvertRequest) bool {
		return r.Side == domain.BuyBase && r.InputCurrency == domain.Quote && r.InputAmount.Equal(dec("100"))
	})).Return(&portssvc.ConversionResult{
		Order:      order,
		NewBalance: domain.Balance{UserID: suite.userID, BaseBalance: dec("19.8"), QuoteBalance: dec("900")},
	}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/convert", `{"side":"buy","inputAmount":"100","inputCurrency":"QUOTE"}`)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ConvertResponse
	suite.decode(w, &resp)
	suite.Equal(order.OrderID, resp.OrderID)
	suite.Equal(domain.Filled, resp.Status)
	suite.True(resp.ExecutionPrice.Equal(dec("5")))
	suite.True(resp.NewBalances.Quote.Equal(dec("900")))
	suite.Equal("2", w.Header().Get(middleware.HeaderRateLimitLimit))
	suite.Equal("1", w.Header().Get(middleware.HeaderRateLimitRemaining))

	logs := suite.store.RequestLogs()
	suite.Require().Len(logs, 1)
	suite.Equal("/api/v1/convert", logs[0].Path)
	suite.Equal(http.StatusOK, logs[0].StatusCode)
	suite.Equal(suite.userID, logs[0].UserID)
	suite.mockConversion.AssertExpectations(suite.T())
}

func (suite *ExchangeHandlerTestSuite) TestConvert_ErrorMapping() {
	tests := []struct {
		name      string
		err       error
		status    int
		message   string
		retryable bool
	}{
		{"validation", fmt.Errorf("%w: amount below minimum", apperrors.ErrValidation), http.StatusBadRequest, "validation error: amount below minimum", false},
		{"insufficient balance", fmt.Errorf("%w: need 100 QUOTE", apperrors.ErrInsufficientBalance), http.StatusUnprocessableEntity, "", false},
		{"conflict", fmt.Errorf("%w: balance changed", apperrors.ErrConflict), http.StatusConflict, "", true},
		{"invalid state", fmt.Errorf("%w: order is filled", apperrors.ErrInvalidState), http.StatusConflict, "", false},
		{"stale price", fmt.Errorf("%w: price is 40s old", apperrors.ErrStalePrice), http.StatusServiceUnavailable, "", true},
		{"internal", apperrors.NewAppError(http.StatusInternalServerError, "failed to save order", errors.New("connection reset")), http.StatusInternalServerError, apperrors.ErrInternal.Error(), false},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			suite.mockConversion.On("Convert", mock.Anything, suite.userID, mock.Anything).Return(nil, tt.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/convert", `{"side":"sell","inputAmount":"1","inputCurrency":"BASE"}`)

			suite.Equal(tt.status, w.Code)
			var body map[string]any
			suite.decode(w, &body)
			if tt.message != "" {
				suite.Equal(tt.message, body["error"])
			}
			suite.Equal(tt.retryable, body["retryable"] == true)
			suite.NotContains(w.Body.String(), "connection reset")
			if tt.status == http.StatusServiceUnavailable {
				suite.Equal("5", w.Header().Get(middleware.HeaderRetryAfter))
			}
			// the conversion service audits its own failures
			suite.Empty(suite.store.AuditEntries())
		})
	}
}

func (suite *ExchangeHandlerTestSuite) TestConvert_RateLimited() {
	suite.mockConversion.On("Convert", mock.Anything, suite.userID, mock.Anything).
		Return(nil, fmt.Errorf("%w: amount below minimum", apperrors.ErrValidation)).Twice()
	body := `{"side":"buy","inputAmount":"0.5","inputCurrency":"QUOTE"}`

	suite.Equal(http.StatusBadRequest, suite.do(http.MethodPost, "/api/v1/convert", body).Code)
	suite.Equal(http.StatusBadRequest, suite.do(http.MethodPost, "/api/v1/convert", body).Code)
	w := suite.do(http.MethodPost, "/api/v1/convert", body)

	suite.Equal(http.StatusTooManyRequests, w.Code)
	suite.Equal("0", w.Header().Get(middleware.HeaderRateLimitRemaining))
	suite.NotEmpty(w.Header().Get(middleware.HeaderRetryAfter))
	var resp map[string]any
	suite.decode(w, &resp)
	suite.Contains(resp, "retryAfter")
	suite.mockConversion.AssertExpectations(suite.T())

	logs := suite.store.RequestLogs()
	suite.Require().Len(logs, 3)
	suite.Equal(http.StatusTooManyRequests, logs[2].StatusCode)
	suite.Contains(logs[2].Error, apperrors.ErrRateLimited.Error())
}

func (suite *ExchangeHandlerTestSuite) TestConvert_InvalidBody() {
	w := suite.do(http.MethodPost, "/api/v1/convert", `{"side":"hold","inputAmount":"1","inputCurrency":"BASE"}`)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/convert", `{"side":"buy","inputAmount":"-3","inputCurrency":"QUOTE"}`)
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.mockConversion.AssertNotCalled(suite.T(), "Convert")
}

func (suite *ExchangeHandlerTestSuite) TestUnauthorized() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)

	suite.token = generateTestToken(suite.T(), suite.userID, "someone-else")
	w = suite.do(http.MethodGet, "/api/v1/balance", "")
	suite.Equal(http.StatusUnauthorized, w.Code)

	suite.mockBalances.AssertNotCalled(suite.T(), "GetBalance")
	logs := suite.store.RequestLogs()
	suite.Require().Len(logs, 2)
	suite.Empty(logs[0].UserID)
}

func (suite *ExchangeHandlerTestSuite) TestPlaceLimitOrder_Success() {
	limit := dec("4.5")
	order := domain.ExchangeOrder{
		OrderID: uuid.NewString(), UserID: suite.userID, Side: domain.SellBase, OrderType: domain.Limit,
		InputAmount: dec("10"), InputCurrency: domain.Base, LimitPrice: &limit,
		Status: domain.Pending, CreatedAt: time.Now().UTC(),
	}
	suite.mockOrders.On("PlaceLimitOrder", mock.Anything, suite.userID, mock.MatchedBy(func(r dto.PlaceLimitOrderRequest) bool {
		return r.LimitPrice.Equal(limit) && r.ExpiresAt != nil
	})).Return(&order, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/orders",
		`{"side":"sell","inputAmount":"10","inputCurrency":"BASE","limitPrice":"4.5","expiresAt":"2030-01-01T00:00:00Z"}`)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.OrderResponse
	suite.decode(w, &resp)
	suite.Equal(order.OrderID, resp.OrderID)
	suite.Equal(domain.Pending, resp.Status)
	suite.Nil(resp.ExecutionPrice)
	suite.mockOrders.AssertExpectations(suite.T())
}

func (suite *ExchangeHandlerTestSuite) TestPlaceLimitOrder_ZeroLimitPrice() {
	w := suite.do(http.MethodPost, "/api/v1/orders", `{"side":"buy","inputAmount":"10","inputCurrency":"QUOTE","limitPrice":"0"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockOrders.AssertNotCalled(suite.T(), "PlaceLimitOrder")
}

func (suite *ExchangeHandlerTestSuite) TestPlaceLimitOrder_InternalErrorIsAudited() {
	suite.mockOrders.On("PlaceLimitOrder", mock.Anything, suite.userID, mock.Anything).
		Return(nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to save order", errors.New("disk full"))).Once()

	w := suite.do(http.MethodPost, "/api/v1/orders", `{"side":"buy","inputAmount":"10","inputCurrency":"QUOTE","limitPrice":"5"}`)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "disk full")
	entries := suite.store.AuditEntries()
	suite.Require().Len(entries, 1)
	suite.Equal("order.place_failed", entries[0].Action)
	suite.Equal(domain.SeverityError, entries[0].Severity)
	suite.Equal(suite.userID, entries[0].UserID)
}

func (suite *ExchangeHandlerTestSuite) TestCancelLimitOrder() {
	orderID := uuid.NewString()
	now := time.Now().UTC()
	suite.mockOrders.On("CancelLimitOrder", mock.Anything, suite.userID, orderID).
		Return(&domain.ExchangeOrder{OrderID: orderID, Status: domain.Cancelled, CancelledAt: &now}, nil).Once()
	suite.mockOrders.On("CancelLimitOrder", mock.Anything, suite.userID, "filled-one").
		Return(nil, fmt.Errorf("%w: order is filled", apperrors.ErrInvalidState)).Once()
	suite.mockOrders.On("CancelLimitOrder", mock.Anything, suite.userID, "missing").
		Return(nil, fmt.Errorf("%w: order missing", apperrors.ErrNotFound)).Once()

	w := suite.do(http.MethodDelete, "/api/v1/orders/"+orderID, "")
	suite.Equal(http.StatusOK, w.Code)
	var resp dto.CancelOrderResponse
	suite.decode(w, &resp)
	suite.Equal(domain.Cancelled, resp.Status)

	w = suite.do(http.MethodDelete, "/api/v1/orders/filled-one", "")
	suite.Equal(http.StatusConflict, w.Code)
	var body map[string]any
	suite.decode(w, &body)
	suite.NotContains(body, "retryable", "cancelling a finished order never succeeds")
	suite.Equal(http.StatusNotFound, suite.do(http.MethodDelete, "/api/v1/orders/missing", "").Code)
	suite.mockOrders.AssertExpectations(suite.T())
}

func (suite *ExchangeHandlerTestSuite) TestListOrders() {
	next := "next-page"
	orders := []domain.ExchangeOrder{suite.filledOrder(), suite.filledOrder()}
	suite.mockOrders.On("ListOrders", mock.Anything, suite.userID, mock.MatchedBy(func(p dto.ListOrdersParams) bool {
		return p.Limit == 2 && p.Status != nil && *p.Status == domain.Filled
	})).Return(orders, &next, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/orders?limit=2&status=filled", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListOrdersResponse
	suite.decode(w, &resp)
	suite.Len(resp.Orders, 2)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal(next, *resp.NextToken)

	w = suite.do(http.MethodGet, "/api/v1/orders?limit=500", "")
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockOrders.AssertExpectations(suite.T())
}

func (suite *ExchangeHandlerTestSuite) TestGetBalance() {
	suite.mockBalances.On("GetBalance", mock.Anything, suite.userID).
		Return(&domain.Balance{UserID: suite.userID, BaseBalance: dec("1.5"), QuoteBalance: dec("20")}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/balance", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	suite.decode(w, &resp)
	suite.Equal(suite.userID, resp.UserID)
	suite.True(resp.Balances.Base.Equal(dec("1.5")))
	suite.True(resp.Balances.Quote.Equal(dec("20")))
}

func (suite *ExchangeHandlerTestSuite) TestGetBalance_NotProvisioned() {
	suite.mockBalances.On("GetBalance", mock.Anything, suite.userID).
		Return(nil, fmt.Errorf("%w: balance for user", apperrors.ErrNotFound)).Once()

	w := suite.do(http.MethodGet, "/api/v1/balance", "")

	suite.Equal(http.StatusNotFound, w.Code)
}
