package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront-orders/internal/auth"
	"storefront-orders/internal/service"
	"storefront-orders/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services bundles the business services the HTTP layer exposes
type Services struct {
	Orders  *service.OrderService
	Status  *service.StatusSyncService
	Access  *service.VenueAccessService
	Login   *service.LoginService
	Cart    *service.CartService
	Catalog *service.CatalogService
}

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Options tunes the HTTP layer
type Options struct {
	SessionTTL    time.Duration
	SecureCookies bool
	Readiness     map[string]ReadinessCheck
}

// Handler contains HTTP handlers
type Handler struct {
	svc     Services
	apiKey  auth.Authenticator
	session auth.Authenticator
	opts    Options
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler. Routes that accept either
// credential try apiKey first and fall back to session.
func NewHandler(svc Services, apiKey, session auth.Authenticator, opts Options) *Handler {
	return &Handler{
		svc:     svc,
		apiKey:  apiKey,
		session: session,
		opts:    opts,
		logger:  util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionOnly := h.authenticate("session", h.session)
	vendorOrSession := h.authenticate("vendor", auth.Chain{h.apiKey, h.session})
	apiKeyOnly := h.authenticate("admin", h.apiKey)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/otp", h.requestCode)
		v1.POST("/auth/verify", h.verifyCode)
		v1.POST("/auth/logout", h.logout)

		v1.GET("/products", h.searchProducts)
		v1.GET("/products/:id", h.getProduct)

		v1.POST("/orders", sessionOnly, h.submitOrders)
		v1.GET("/orders", sessionOnly, h.orderHistory)
		v1.GET("/orders/new", vendorOrSession, h.newOrders)
		v1.POST("/orders/update", vendorOrSession, h.updateOrders)

		v1.GET("/venue-access", sessionOnly, h.venueAccess)
		v1.GET("/venues", sessionOnly, h.listVenues)
		v1.GET("/venues/:id/products", sessionOnly, h.venueProducts)

		v1.GET("/me", sessionOnly, h.me)

		cart := v1.Group("/cart", sessionOnly)
		cart.GET("", h.getCart)
		cart.POST("/items", h.addCartItem)
		cart.DELETE("/items/:id", h.removeCartItem)
		cart.DELETE("", h.clearCart)

		admin := v1.Group("/admin", apiKeyOnly)
		admin.POST("/customers/:id/venues", h.attachVenue)
		admin.DELETE("/customers/:id/venues/:venueId", h.detachVenue)
		admin.POST("/venues/:id/products", h.attachVenueProduct)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failing := gin.H{}
	for name, check := range h.opts.Readiness {
		if err := check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			failing[name] = "unavailable"
		}
	}

	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "not ready",
			"dependencies": failing,
			"time":         time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Inc()
	}
}
