package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/macromeal-backend/internal/models"
	"github.com/pageza/macromeal-backend/internal/service"
	"github.com/pageza/macromeal-backend/internal/types"
)

// RecipeHandler exposes the recipe corpus over HTTP.
type RecipeHandler struct {
	corpus    service.RecipeCorpus
	estimator service.NutritionEstimatorInterface
	logger    *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(corpus service.RecipeCorpus, estimator service.NutritionEstimatorInterface, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		corpus:    corpus,
		estimator: estimator,
		logger:    logger,
	}
}

// RegisterRoutes registers the recipe routes
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/recipes", h.ListRecipes)
	router.POST("/recipes", h.CreateRecipe)
	router.GET("/recipes/:id", h.GetRecipe)
	router.POST("/recipes/:id/nutrition", h.EstimateNutrition)
}

// ListRecipes returns the corpus, optionally filtered by a search query.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var (
		recipes []*models.Recipe
		err     error
	)

	if query := c.Query("q"); query != "" {
		recipes, err = h.corpus.SearchRecipes(c.Request.Context(), query)
	} else {
		recipes, err = h.corpus.ListRecipes(c.Request.Context())
	}
	if err != nil {
		h.logger.Error("failed to list recipes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list recipes"})
		return
	}

	result := make([]*types.Recipe, len(recipes))
	for i, recipe := range recipes {
		result[i] = recipe.ToType()
	}
	c.JSON(http.StatusOK, gin.H{"recipes": result})
}

// GetRecipe returns a single recipe by ID.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	recipe, err := h.corpus.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		h.logger.Error("failed to get recipe", zap.Error(err), zap.String("id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recipe"})
		return
	}

	c.JSON(http.StatusOK, recipe.ToType())
}

// CreateRecipe appends a recipe to the corpus.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe := &models.Recipe{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Cuisine:      req.Cuisine,
		ImageURL:     req.ImageURL,
		Ingredients:  models.JSONBIngredients(req.Ingredients),
		Instructions: models.JSONBStringArray(req.Instructions),
		Tags:         models.JSONBStringArray(req.Tags),
	}

	created, err := h.corpus.CreateRecipe(c.Request.Context(), recipe)
	if err != nil {
		h.logger.Error("failed to create recipe", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, created.ToType())
}

// EstimateNutrition estimates a stored recipe's nutrition from its
// ingredient list and reports how much of the list resolved.
func (h *RecipeHandler) EstimateNutrition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	recipe, err := h.corpus.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		h.logger.Error("failed to get recipe", zap.Error(err), zap.String("id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recipe"})
		return
	}

	estimate, err := h.estimator.EstimateNutrition(c.Request.Context(), []types.Ingredient(recipe.Ingredients))
	if err != nil {
		h.logger.Error("failed to estimate nutrition", zap.Error(err), zap.String("id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to estimate nutrition"})
		return
	}

	c.JSON(http.StatusOK, types.EstimateResponse{
		RecipeID:         id,
		Summary:          estimate.Summary,
		ResolvedFraction: estimate.ResolvedFraction,
		Unresolved:       estimate.Unresolved(),
		PerIngredient:    estimate.PerIngredient,
	})
}
