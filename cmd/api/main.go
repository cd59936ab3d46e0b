package main

import (
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/config"
	"github.com/pageza/macromeal-backend/internal/api"
	"github.com/pageza/macromeal-backend/internal/database"
	"github.com/pageza/macromeal-backend/internal/middleware"
	"github.com/pageza/macromeal-backend/internal/router"
	"github.com/pageza/macromeal-backend/internal/server"
	"github.com/pageza/macromeal-backend/internal/service"
	"github.com/pageza/macromeal-backend/pkg/logger"
)

func newLogger() (*zap.Logger, error) {
	return logger.NewFromEnv(config.IsDevelopment())
}

// newEmbedder uses the remote embedding API when configured and falls back
// to the local hashed embedder otherwise.
func newEmbedder(log *zap.Logger) service.Embedder {
	if os.Getenv("EMBEDDING_API_KEY") != "" || os.Getenv("EMBEDDING_API_KEY_FILE") != "" {
		embedder, err := service.NewEmbeddingService()
		if err == nil {
			return embedder
		}
		log.Warn("embedding API unavailable, using local embedder", zap.Error(err))
	}
	return service.NewLocalEmbeddingService()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	gormDB, err := database.NewGorm(cfg)
	if err != nil {
		logger.Fatal("failed to open gorm connection", zap.Error(err))
	}
	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	// Capabilities
	embedder := newEmbedder(logger)
	usdaClient, err := service.NewUSDAClient(logger)
	if err != nil {
		logger.Fatal("failed to create nutrient lookup", zap.Error(err))
	}
	nutrientLookup := service.NewCachedNutrientLookup(usdaClient, redisClient)
	llmService, err := service.NewLLMService(redisClient)
	if err != nil {
		logger.Fatal("failed to create generation client", zap.Error(err))
	}

	// Engine services
	targetService := service.NewTargetService()
	dietaryFilter := service.NewDietaryFilterService(nil)
	estimator := service.NewNutritionEstimator(nutrientLookup, logger)
	ranker := service.NewSimilarityRanker(embedder, logger)
	validator := service.NewGenerationValidator(llmService, estimator, dietaryFilter, llmService, logger)
	recipeService := service.NewRecipeService(gormDB, embedder)
	recommendationService := service.NewRecommendationService(
		targetService, dietaryFilter, ranker, validator, recipeService, logger)

	// HTTP layer
	healthHandler := api.NewHealthHandler(db, redisClient)
	recipeHandler := api.NewRecipeHandler(recipeService, estimator, logger)
	recommendationHandler := api.NewRecommendationHandler(
		recommendationService, llmService, cfg.GenerationAttemptBudget, logger)

	rateLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Window:    time.Minute,
		Limit:     60,
		KeyPrefix: "rate_limit",
	})

	engine := router.SetupRouter(healthHandler, recipeHandler, recommendationHandler, rateLimiter, logger)

	srv := server.NewServer(engine, logger)
	if err := srv.Start(cfg.ServerPort); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
