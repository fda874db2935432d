package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/taveron/agenda-backend/internal/clients/cache"
	"github.com/taveron/agenda-backend/internal/db"
	"github.com/taveron/agenda-backend/internal/handlers"
	"github.com/taveron/agenda-backend/internal/middleware"
	"github.com/taveron/agenda-backend/internal/observability"
	"github.com/taveron/agenda-backend/internal/pkg/logger"
	"github.com/taveron/agenda-backend/internal/repos"
	"github.com/taveron/agenda-backend/internal/server"
	"github.com/taveron/agenda-backend/internal/services"
	"github.com/taveron/agenda-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)
	origins := server.ParseOrigins(utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log))

	// Tracing
	ctx := context.Background()
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "agenda-backend",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer shutdownOtel(ctx)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Cache
	statsCache := cache.New(ctx, log)
	defer statsCache.Close()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	contactRepo := repos.NewContactRepo(thePG, log)
	catalogRepo := repos.NewCatalogRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	authService := services.NewAuthService(
		thePG, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	userService := services.NewUserService(thePG, log, userRepo, userTokenRepo)
	contactService := services.NewContactService(thePG, log, contactRepo, catalogRepo, statsCache)
	catalogService := services.NewCatalogService(thePG, log, catalogRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	contactHandler := handlers.NewContactHandler(contactService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UserHandler:    userHandler,
		ContactHandler: contactHandler,
		CatalogHandler: catalogHandler,
		AllowedOrigins: origins,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
