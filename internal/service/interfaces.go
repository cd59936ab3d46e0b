package service

import (
	"context"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/macromeal-backend/internal/models"
	"github.com/pageza/macromeal-backend/internal/types"
)

// NutrientsPer100g is the nutrition of 100 grams of a single ingredient, the
// canonical basis every lookup normalizes to.
type NutrientsPer100g struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// NutrientLookup resolves an ingredient name to per-100g nutrients. A miss is
// reported as ErrNutrientNotFound, not an empty result.
type NutrientLookup interface {
	LookupNutrients(ctx context.Context, name string) (*NutrientsPer100g, error)
}

// Embedder projects text into the corpus vector space.
type Embedder interface {
	GenerateEmbedding(text string) (pgvector.Vector, error)
}

// RecipeGenerator is the opaque, possibly slow generation capability. The
// validator treats it as a black box: prompt context in, draft JSON out.
type RecipeGenerator interface {
	GenerateRecipe(ctx context.Context, prompt PromptContext) (string, error)
}

// DraftStore persists in-flight generation drafts so runs that never reach
// acceptance can be inspected afterwards. SaveDraft assigns the draft's ID.
// Implemented by LLMService on Redis.
type DraftStore interface {
	SaveDraft(ctx context.Context, draft *RecipeDraft) error
	GetDraft(ctx context.Context, id string) (*RecipeDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// IngredientTagLookup is the optional fallback for ingredients the built-in
// tag table does not cover. Without it, unknown ingredients exclude a recipe.
type IngredientTagLookup interface {
	LookupTags(ctx context.Context, ingredient string) ([]string, error)
}

// RecipeCorpus is the long-lived recipe store. The engine reads it and
// appends generated recipes; it never mutates stored recipes in place.
type RecipeCorpus interface {
	ListRecipes(ctx context.Context) ([]*models.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	SearchRecipes(ctx context.Context, query string) ([]*models.Recipe, error)
}

// NutritionEstimatorInterface is implemented by NutritionEstimator; handlers
// and the generation loop depend on it so tests can swap in fixtures.
type NutritionEstimatorInterface interface {
	EstimateNutrition(ctx context.Context, ingredients []types.Ingredient) (*Estimate, error)
}

// PromptContext is everything the generator needs to produce one draft:
// the numeric target, the dietary constraints, and corrective guidance
// carried over from the previous rejected attempt.
type PromptContext struct {
	Target      types.NutritionTarget
	Constraints types.DietaryConstraints
	Guidance    string
	SeedTitles  []string
}
