package types

import "github.com/google/uuid"

// RecommendationRequest is the request body for the full recommendation flow.
// The profile is embedded because the engine never persists profiles; each
// request carries everything it needs.
type RecommendationRequest struct {
	Profile UserProfile `json:"profile" binding:"required"`
}

// RecommendationResponse is the result of one recommendation request.
type RecommendationResponse struct {
	Target     NutritionTarget   `json:"target"`
	Candidates []RankedCandidate `json:"candidates"`
	Generated  []GeneratedRecipe `json:"generated,omitempty"`
}

// GeneratedRecipe is a recipe produced by the generation loop together with
// its outcome status.
type GeneratedRecipe struct {
	Recipe   *Recipe `json:"recipe,omitempty"`
	Status   string  `json:"status"`
	Attempts int     `json:"attempts"`
}

// CreateRecipeRequest is the request body for adding a recipe to the corpus.
type CreateRecipeRequest struct {
	Name         string       `json:"name" binding:"required"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	Cuisine      string       `json:"cuisine"`
	ImageURL     string       `json:"image_url"`
	Ingredients  []Ingredient `json:"ingredients" binding:"required"`
	Instructions []string     `json:"instructions" binding:"required"`
	Tags         []string     `json:"tags"`
}

// EstimateResponse reports a nutrition estimate together with its confidence.
type EstimateResponse struct {
	RecipeID         uuid.UUID          `json:"recipe_id"`
	Summary          NutritionSummary   `json:"summary"`
	ResolvedFraction float64            `json:"resolved_fraction"`
	Unresolved       []string           `json:"unresolved,omitempty"`
	PerIngredient    []IngredientStatus `json:"per_ingredient,omitempty"`
}

// IngredientStatus reports whether a single ingredient line resolved during
// estimation.
type IngredientStatus struct {
	Name     string  `json:"name"`
	Grams    float64 `json:"grams"`
	Resolved bool    `json:"resolved"`
	Reason   string  `json:"reason,omitempty"`
}
