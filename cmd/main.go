package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/cognisync-backend/internal/clients/llm"
	redisclients "github.com/yungbote/cognisync-backend/internal/clients/redis"
	"github.com/yungbote/cognisync-backend/internal/db"
	"github.com/yungbote/cognisync-backend/internal/handlers"
	"github.com/yungbote/cognisync-backend/internal/middleware"
	"github.com/yungbote/cognisync-backend/internal/observability"
	"github.com/yungbote/cognisync-backend/internal/platform/envutil"
	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/platform/neo4jdb"
	"github.com/yungbote/cognisync-backend/internal/repos"
	"github.com/yungbote/cognisync-backend/internal/server"
	"github.com/yungbote/cognisync-backend/internal/services"
)

const serviceName = "cognisync-backend"

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: envutil.String("ENVIRONMENT", "development"),
	})
	defer func() {
		if shutdownOTel == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Warn("OTel shutdown failed", "error", err)
		}
	}()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	tokenTTL := time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 86400)) * time.Second

	// Relational store
	dbService, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	gormDB := dbService.DB()

	// Graph store
	neo4jClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed, concept graph disabled", "error", err)
	}
	if neo4jClient != nil {
		defer neo4jClient.Close(ctx)
		neo4jClient.EnsureSchema(ctx)
	}

	// Profile cache
	profileCache := redisclients.NewProfileCacheFromEnv(log)
	if profileCache != nil {
		defer profileCache.Close()
	}

	// LLM provider
	provider := llm.FromEnv(log)

	// Repos
	log.Info("Setting up Repos from main...")
	learnerRepo := repos.NewLearnerRepo(gormDB, log)
	snapshotRepo := repos.NewProfileSnapshotRepo(gormDB, log)
	calibrationRepo := repos.NewCalibrationRecordRepo(gormDB, log)
	chatMessageRepo := repos.NewChatMessageRepo(gormDB, log)

	// Services
	log.Info("Setting up Services from main...")
	locks := services.NewLearnerLocks()
	profileService := services.NewProfileService(gormDB, log, learnerRepo, snapshotRepo, calibrationRepo, profileCache, locks)
	graphService := services.NewGraphService(neo4jClient, log)
	analyzerService, err := services.NewAnalyzerService(provider, log)
	if err != nil {
		log.Error("Could not init AnalyzerService", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(gormDB, log, learnerRepo, profileService, jwtSecretKey, tokenTTL)
	chatService := services.NewChatService(
		gormDB, log, chatMessageRepo,
		analyzerService, profileService, graphService, provider,
		services.PersonalizationOptions{
			ResearchMode: envutil.Bool("RESEARCH_MODE", false),
			Language:     envutil.String("DEFAULT_LANGUAGE", "en"),
		},
	)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(log, authService)
	chatHandler := handlers.NewChatHandler(log, chatService, profileService)
	profileHandler := handlers.NewProfileHandler(log, profileService)
	graphHandler := handlers.NewGraphHandler(log, graphService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    serviceName,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		ChatHandler:    chatHandler,
		ProfileHandler: profileHandler,
		GraphHandler:   graphHandler,
	})

	port := envutil.String("PORT", "8000")
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
