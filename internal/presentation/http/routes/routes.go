package routes

import (
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/config"
	domainRepo "github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/handler"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Checkout *handler.CheckoutHandler
	Return   *handler.ReturnHandler
	Product  *handler.ProductHandler
	Customer *handler.CustomerHandler
	Settings *handler.SettingsHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Log             *zap.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireTerminal())

	// Per-terminal rate limiter
	requests, duration := deps.Cfg.RateLimit.Requests, deps.Cfg.RateLimit.Duration
	if requests > 0 && duration > 0 {
		rateLimiter := middleware.NewTerminalRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(requests) / float64(duration),
			BurstSize:         requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		v1.Use(rateLimiter.Middleware())
	}

	idempotent := middleware.IdempotencyRequired(middleware.IdempotencyConfig{
		Repo: deps.IdempotencyRepo,
		Log:  deps.Log,
	})

	registerConfigRoutes(v1, h)
	registerCheckoutRoutes(v1, h, idempotent)
	registerReturnRoutes(v1, h, idempotent)

	return router
}

func registerConfigRoutes(v1 *gin.RouterGroup, h *Handlers) {
	v1.GET("/config", h.Settings.GetFeeds)
	v1.POST("/config/refresh", h.Settings.Refresh)

	v1.GET("/items/:code", h.Product.Get)
	v1.GET("/stock", h.Product.Stock)

	v1.GET("/customers/:id", h.Customer.Get)
}

func registerCheckoutRoutes(v1 *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	checkout := v1.Group("/checkout")
	{
		checkout.POST("", h.Checkout.Open)
		checkout.GET("/:id", h.Checkout.Get)
		checkout.DELETE("/:id", h.Checkout.Close)

		checkout.POST("/:id/items", h.Checkout.AddItem)
		checkout.PATCH("/:id/items/:code", h.Checkout.SetQuantity)
		checkout.DELETE("/:id/items/:code", h.Checkout.RemoveItem)

		checkout.POST("/:id/discounts", h.Checkout.ApplyDiscount)
		checkout.DELETE("/:id/discounts/:code", h.Checkout.RemoveDiscount)

		checkout.PUT("/:id/tax-policy", h.Checkout.SetTaxPolicy)
		checkout.PUT("/:id/customer", h.Checkout.BindCustomer)
		checkout.PUT("/:id/tenders/:method", h.Checkout.SetTender)

		checkout.POST("/:id/round-off/auto", h.Checkout.AutoRound)
		checkout.PUT("/:id/round-off", h.Checkout.SetRoundOff)
		checkout.DELETE("/:id/round-off", h.Checkout.ClearRoundOff)

		checkout.POST("/:id/clear", h.Checkout.Clear)
		checkout.POST("/:id/submit", idempotent, h.Checkout.Submit)
		checkout.POST("/:id/hold", idempotent, h.Checkout.Hold)
	}

	held := v1.Group("/held")
	{
		held.GET("", h.Checkout.ListHeld)
		held.POST("/:id/resume", h.Checkout.Resume)
		held.DELETE("/:id", h.Checkout.DeleteHeld)
	}

	v1.GET("/invoices/:id", h.Checkout.GetInvoice)
}

func registerReturnRoutes(v1 *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	returns := v1.Group("/returns")
	{
		returns.GET("/invoices/:id", h.Return.LoadInvoice)
		returns.POST("/invoices/:id/quote", h.Return.QuoteInvoice)
		returns.POST("/invoices/:id/submit", idempotent, h.Return.SubmitInvoice)

		sessions := returns.Group("/sessions")
		sessions.POST("", h.Return.Start)
		sessions.GET("/:id", h.Return.Get)
		sessions.DELETE("/:id", h.Return.Close)
		sessions.PUT("/:id/customer", h.Return.BindCustomer)
		sessions.PUT("/:id/filter", h.Return.SetFilter)
		sessions.PUT("/:id/items", h.Return.SelectItems)
		sessions.POST("/:id/filter-invoices", h.Return.FilterInvoices)
		sessions.PUT("/:id/invoices/:invoiceId", h.Return.SetIncluded)
		sessions.PUT("/:id/invoices/:invoiceId/items/:code", h.Return.SetQty)
		sessions.POST("/:id/back", h.Return.Back)
		sessions.POST("/:id/submit", idempotent, h.Return.Submit)
	}
}
