// Package main is the entry point for the identity service.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/config"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/handlers"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/identity"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/middleware"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/permissions"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/repository"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/routes"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/service"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/token"
	"github.com/dhanushbdev25/whatsapp-poc-backend/pkg/logger"
	"github.com/dhanushbdev25/whatsapp-poc-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	zapLogger, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer zapLogger.Sync()

	db, err := repository.Connect(repository.PostgresConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		zapLogger.Fatal("failed to connect to redis", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	tokenService, err := token.NewService(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		cfg.AccessExpiryLogin,
		cfg.AccessExpiryRefresh,
		cfg.RefreshExpiry,
	)
	if err != nil {
		zapLogger.Fatal("failed to initialize token service", zap.Error(err))
	}

	provider := identity.NewHTTPProvider(cfg.IdentityProviderURL, cfg.IdentityProviderTimeout)
	authService := service.NewAuthService(userRepo, roleRepo, tokenService, provider, cfg.LockoutThreshold, zapLogger)

	permissionCache := permissions.NewCache(roleRepo, cfg.PermissionRefreshInterval, zapLogger)
	permissionCache.Start(context.Background())
	defer permissionCache.Stop()

	cookieHelper := handlers.NewCookieHelper(cfg)
	loginLimiter := middleware.NewLoginRateLimiter(redisClient, middleware.RateLimitConfig{
		RequestsPerWindow: cfg.LoginRateLimit,
		WindowDuration:    cfg.LoginRateWindow,
	}, zapLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.Setup(router, routes.Deps{
		Config:        cfg,
		Logger:        zapLogger,
		Tokens:        tokenService,
		Users:         userRepo,
		AuthHandler:   handlers.NewAuthHandler(authService, cookieHelper, zapLogger),
		RBACHandler:   handlers.NewRBACHandler(roleRepo, permissionCache),
		HealthHandler: handlers.NewHealthHandler(),
		LoginLimiter:  loginLimiter,
	})

	zapLogger.Info("starting identity service", zap.String("port", cfg.Port))
	if err := router.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
}
