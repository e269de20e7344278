// Package routes defines HTTP routes for the identity service.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/config"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/handlers"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/middleware"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/repository"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/token"
)

// Deps carries everything route setup needs.
type Deps struct {
	Config        *config.Config
	Logger        *zap.Logger
	Tokens        token.Service
	Users         repository.UserRepository
	AuthHandler   *handlers.AuthHandler
	RBACHandler   *handlers.RBACHandler
	HealthHandler *handlers.HealthHandler
	LoginLimiter  *middleware.LoginRateLimiter
}

// Setup configures all HTTP routes for the application.
func Setup(router *gin.Engine, deps Deps) {
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CSRF(deps.Config.AllowedOrigins))

	router.GET("/health", deps.HealthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", deps.LoginLimiter.Handler(), deps.AuthHandler.Login)
		auth.GET("/refresh", deps.AuthHandler.Refresh)
		auth.POST("/refresh", deps.AuthHandler.Refresh)
		auth.POST("/logout", deps.AuthHandler.Logout)
	}

	protect := middleware.Protect(deps.Tokens, deps.Users, deps.Logger)

	protected := v1.Group("")
	protected.Use(protect)
	{
		protected.GET("/me", deps.RBACHandler.Me)
		protected.GET("/permissions/check", deps.RBACHandler.CheckAccess)
	}

	admin := v1.Group("/admin")
	admin.Use(protect, middleware.RequirePermission("manageusers"))
	{
		admin.GET("/roles", deps.RBACHandler.Roles)
	}
}
