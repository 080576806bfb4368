// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine                *gin.Engine
	healthController      *controller.HealthController
	authController        *controller.AuthController
	accountController     *controller.AccountController
	transactionController *controller.TransactionController
	dashboardController   *controller.DashboardController
	receiptController     *controller.ReceiptController
	loginRateLimiter      *middleware.RateLimiter
	authMiddleware        *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
// Controllers left nil are not mounted.
func NewRouter(
	healthController *controller.HealthController,
	authController *controller.AuthController,
	accountController *controller.AccountController,
	transactionController *controller.TransactionController,
	dashboardController *controller.DashboardController,
	receiptController *controller.ReceiptController,
	loginRateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController:      healthController,
		authController:        authController,
		accountController:     accountController,
		transactionController: transactionController,
		dashboardController:   dashboardController,
		receiptController:     receiptController,
		loginRateLimiter:      loginRateLimiter,
		authMiddleware:        authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	switch environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.Default()
	// Receipt uploads are read from memory; anything larger spills to disk.
	r.engine.MaxMultipartMemory = 8 << 20

	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

func (r *Router) setupAPIRoutes() {
	v1 := r.engine.Group("/api/v1")

	if r.authController != nil {
		auth := v1.Group("/auth")
		login := []gin.HandlerFunc{r.authController.Login}
		if r.loginRateLimiter != nil {
			login = append([]gin.HandlerFunc{r.loginRateLimiter.Middleware()}, login...)
		}
		auth.POST("/register", r.authController.Register)
		auth.POST("/login", login...)
		auth.POST("/refresh", r.authController.RefreshToken)
		auth.POST("/logout", r.authController.Logout)
	}

	if r.authMiddleware == nil {
		return
	}

	protected := v1.Group("")
	protected.Use(r.authMiddleware.Authenticate())

	if r.accountController != nil {
		accounts := protected.Group("/accounts")
		accounts.GET("", r.accountController.List)
		accounts.POST("", r.accountController.Create)
		accounts.GET("/:id", r.accountController.Get)
	}

	if r.transactionController != nil {
		transactions := protected.Group("/transactions")
		transactions.GET("", r.transactionController.List)
		transactions.POST("", r.transactionController.Create)
		transactions.POST("/bulk-delete", r.transactionController.BulkDelete)
		transactions.GET("/:id", r.transactionController.Get)
		transactions.PATCH("/:id", r.transactionController.Update)
	}

	if r.dashboardController != nil {
		protected.GET("/dashboard", r.dashboardController.Get)
	}

	if r.receiptController != nil {
		protected.POST("/receipts/scan", r.receiptController.Scan)
	}
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
