package handlers

import (
	"net/http"

	"github.com/SscSPs/exchange_engine/cmd/docs"
	"github.com/SscSPs/exchange_engine/internal/apperrors"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/middleware"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/SscSPs/exchange_engine/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the collaborators shared by every route.
type Dependencies struct {
	Services   *portssvc.ServiceContainer
	Recorder   *audit.Recorder
	RateLimits RateLimits
	// Gatherer backs /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Dependencies) {
	r.GET("/health", healthCheck(deps.Services.Price))

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	RegisterExchangeRoutes(v1, deps.Services, deps.RateLimits, deps.Recorder)

	RegisterSchedulerRoutes(r, deps.Services.Sweep, cfg.SchedulerAPIKey, deps.Recorder)
	RegisterAdminRoutes(r, deps.Services, cfg.AdminAPIKey, deps.Recorder)

	setupSwaggerRoutes(r, cfg)
}

// healthCheck godoc
// @Summary Show the status of server.
// @Description Reports liveness and the freshness of the price feed.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func healthCheck(price portssvc.PriceSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		freshness, err := price.CheckFreshness(c.Request.Context())
		switch {
		case err != nil:
			body["status"] = "degraded"
			body["price"] = gin.H{"error": apperrors.PublicMessage(err)}
		case !freshness.IsFresh:
			body["status"] = "degraded"
			body["price"] = freshness
		default:
			body["price"] = freshness
		}
		c.JSON(http.StatusOK, body)
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
