package handler

import (
	"peerpay-settlement/internal/adapter/http/middleware"
	"peerpay-settlement/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Settlements    ports.SettlementService
	Ledger         ports.LedgerService
	TxRepo         ports.TransactionRepository
	SubRepo        ports.SubscriptionRepository
	Registry       ports.GatewayRegistry
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Provider-pushed notifications. These sit outside /api/v1 because the
	// notify URLs are registered with the providers and must stay stable.
	webhookHandler := NewWebhookHandler(deps.Registry, deps.Settlements, deps.Logger)
	r.POST("/webhooks/:method", webhookHandler.Handle)

	// API v1 routes
	v1 := r.Group("/api/v1")
	txHandler := NewTransactionHandler(deps.Settlements, deps.Ledger, deps.TxRepo, deps.SubRepo)

	transactions := v1.Group("/transactions")
	{
		transactions.POST("", txHandler.Create)
		transactions.GET("/:reference", txHandler.Get)
		transactions.POST("/:reference/cancel", txHandler.Cancel)
		transactions.POST("/:reference/refund", txHandler.Refund)
	}

	// The provider redirects the paying user back here after checkout.
	v1.GET("/payments/return", txHandler.VerifyReturn)

	users := v1.Group("/users")
	{
		users.GET("/:id/balance", txHandler.GetBalance)
		users.GET("/:id/subscription", txHandler.GetSubscription)
	}

	return r
}
