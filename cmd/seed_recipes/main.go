package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/config"
	"github.com/pageza/macromeal-backend/internal/database"
	"github.com/pageza/macromeal-backend/internal/models"
	"github.com/pageza/macromeal-backend/internal/service"
	"github.com/pageza/macromeal-backend/internal/types"
)

func main() {
	categories := flag.String("categories", "", "comma-separated TheMealDB categories (default: all)")
	limit := flag.Int("limit", 0, "maximum number of recipes to seed (0 = no limit)")
	mirrorImages := flag.Bool("mirror-images", false, "copy recipe images into the S3 bucket")
	estimate := flag.Bool("estimate", true, "estimate nutrition for seeded recipes")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := zapLogger()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gormDB, err := database.NewGorm(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	embedder := service.NewLocalEmbeddingService()
	recipeService := service.NewRecipeService(gormDB, embedder)
	mealDB := service.NewMealDBClient(logger)

	var estimator *service.NutritionEstimator
	if *estimate {
		usdaClient, err := service.NewUSDAClient(logger)
		if err != nil {
			logger.Warn("nutrient lookup unavailable, seeding without estimates", zap.Error(err))
		} else {
			estimator = service.NewNutritionEstimator(usdaClient, logger)
		}
	}

	var images *service.ImageService
	if *mirrorImages {
		s3Config, err := config.NewS3Config(context.Background())
		if err != nil {
			logger.Warn("S3 unavailable, keeping original image URLs", zap.Error(err))
		} else {
			images = service.NewImageService(s3Config, logger)
		}
	}

	ctx := context.Background()

	names, err := resolveCategories(ctx, mealDB, *categories)
	if err != nil {
		logger.Fatal("failed to list categories", zap.Error(err))
	}

	seeded := 0
	for _, category := range names {
		recipes, err := mealDB.GetRecipesByCategory(ctx, category)
		if err != nil {
			logger.Warn("failed to fetch category", zap.String("category", category), zap.Error(err))
			continue
		}

		for _, recipe := range recipes {
			if *limit > 0 && seeded >= *limit {
				logger.Info("seeding complete", zap.Int("recipes", seeded))
				return
			}
			if err := seedRecipe(ctx, recipeService, estimator, images, recipe); err != nil {
				logger.Warn("failed to seed recipe", zap.String("name", recipe.Name), zap.Error(err))
				continue
			}
			seeded++
			time.Sleep(200 * time.Millisecond)
		}
	}

	logger.Info("seeding complete", zap.Int("recipes", seeded))
}

func resolveCategories(ctx context.Context, mealDB *service.MealDBClient, flagValue string) ([]string, error) {
	if flagValue != "" {
		parts := strings.Split(flagValue, ",")
		names := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				names = append(names, trimmed)
			}
		}
		return names, nil
	}
	return mealDB.GetCategories(ctx)
}

func seedRecipe(ctx context.Context, recipes *service.RecipeService, estimator *service.NutritionEstimator, images *service.ImageService, recipe *types.Recipe) error {
	if images != nil && recipe.ImageURL != "" {
		if mirrored, err := images.MirrorImage(ctx, recipe.ImageURL); err == nil {
			recipe.ImageURL = mirrored
		}
	}

	model := &models.Recipe{
		Name:         recipe.Name,
		Description:  recipe.Description,
		Category:     recipe.Category,
		Cuisine:      recipe.Cuisine,
		ImageURL:     recipe.ImageURL,
		Ingredients:  models.JSONBIngredients(recipe.Ingredients),
		Instructions: models.JSONBStringArray(recipe.Instructions),
		Tags:         models.JSONBStringArray(recipe.Tags),
	}

	if estimator != nil {
		est, err := estimator.EstimateNutrition(ctx, recipe.Ingredients)
		if err == nil {
			model.Calories = est.Summary.Calories
			model.Protein = est.Summary.ProteinG
			model.Carbs = est.Summary.CarbsG
			model.Fat = est.Summary.FatG
		}
	}

	_, err := recipes.CreateRecipe(ctx, model)
	return err
}

func zapLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_FORMAT") == "json" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
