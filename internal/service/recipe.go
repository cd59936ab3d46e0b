package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/macromeal-backend/internal/models"
)

// RecipeService is the gorm-backed recipe corpus. It implements RecipeCorpus:
// reads plus appends, never in-place mutation of stored recipes.
type RecipeService struct {
	db       *gorm.DB
	embedder Embedder
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, embedder Embedder) *RecipeService {
	return &RecipeService{
		db:       db,
		embedder: embedder,
	}
}

// CreateRecipe appends a recipe to the corpus, embedding it first if the
// caller did not.
func (s *RecipeService) CreateRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	if len(recipe.Embedding.Slice()) == 0 {
		vec, err := s.embedder.GenerateEmbedding(RecipeDocument(recipe.ToType()))
		if err != nil {
			return nil, err
		}
		recipe.Embedding = vec
	}
	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns the whole corpus in insertion order. The ranker's
// tie-break depends on this ordering being stable.
func (s *RecipeService) ListRecipes(ctx context.Context) ([]*models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&recipes).Error; err != nil {
		return nil, err
	}

	result := make([]*models.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result, nil
}

// SearchRecipes combines semantic and keyword search on postgres, falling
// back to keyword-only search elsewhere (sqlite in tests).
func (s *RecipeService) SearchRecipes(ctx context.Context, query string) ([]*models.Recipe, error) {
	var recipes []models.Recipe

	dbQuery := s.db.WithContext(ctx)

	if query != "" {
		if s.db.Dialector.Name() == "postgres" {
			vec, err := s.embedder.GenerateEmbedding(query)
			if err != nil {
				return nil, err
			}

			like := "%" + strings.ToLower(query) + "%"
			subQuery := s.db.Model(&models.Recipe{}).
				Select("id, embedding <-> ? as similarity", vec).
				Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(ingredients::text) LIKE ?",
					like, like, like)

			dbQuery = dbQuery.Joins("JOIN (?) as search ON recipes.id = search.id", subQuery).
				Order("search.similarity ASC")
		} else {
			like := "%" + strings.ToLower(query) + "%"
			dbQuery = dbQuery.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(ingredients) LIKE ?",
				like, like, like)
		}
	}

	if err := dbQuery.Find(&recipes).Error; err != nil {
		return nil, err
	}

	result := make([]*models.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result, nil
}
