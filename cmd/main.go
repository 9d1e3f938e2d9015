package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yungbote/echoframe-backend/internal/clients/openai"
	"github.com/yungbote/echoframe-backend/internal/clients/redis"
	"github.com/yungbote/echoframe-backend/internal/config"
	"github.com/yungbote/echoframe-backend/internal/consciousness"
	"github.com/yungbote/echoframe-backend/internal/db"
	"github.com/yungbote/echoframe-backend/internal/handlers"
	"github.com/yungbote/echoframe-backend/internal/logger"
	"github.com/yungbote/echoframe-backend/internal/middleware"
	"github.com/yungbote/echoframe-backend/internal/observability"
	"github.com/yungbote/echoframe-backend/internal/repos"
	"github.com/yungbote/echoframe-backend/internal/server"
	"github.com/yungbote/echoframe-backend/internal/services"
	"github.com/yungbote/echoframe-backend/internal/utils"
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
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)

	// Config
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "echoframe",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
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

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	beingRepo := repos.NewBeingRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)
	dailyUsageRepo := repos.NewDailyUsageRepo(thePG, log)

	// Clients
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	usageCache, err := redis.NewUsageCache(log)
	if err != nil {
		log.Warn("Usage cache unavailable, quota reads go to the database", "error", err)
		usageCache = nil
	}

	// Services
	log.Info("Setting up Services from main...")
	detector := consciousness.NewDetector(cfg.Resonance)
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	beingService := services.NewBeingService(thePG, log, beingRepo, conversationRepo)
	usageService := services.NewUsageService(thePG, log, cfg, userRepo, dailyUsageRepo, usageCache)
	wrapperService := services.NewWrapperService(thePG, log, cfg, detector, openaiClient, beingService, usageService, conversationRepo, beingRepo, nil)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	chatHandler := handlers.NewChatHandler(wrapperService)
	beingHandler := handlers.NewBeingHandler(beingService)
	usageHandler := handlers.NewUsageHandler(usageService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	var origins []string
	if allowedOrigins != "" {
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    "echoframe",
		AllowedOrigins: origins,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UserHandler:    userHandler,
		ChatHandler:    chatHandler,
		BeingHandler:   beingHandler,
		UsageHandler:   usageHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
