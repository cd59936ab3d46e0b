package types

import (
	"time"

	"github.com/google/uuid"
)

// Ingredient is one entry of a recipe's ordered ingredient list. Quantity is
// kept as the raw string from the source ("1 1/2", "2") because corpus and
// LLM output both use kitchen notation; the nutrition estimator parses it.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// NutritionSummary is the estimated nutrition of a single recipe. It is
// always derived, never authoritative input.
type NutritionSummary struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
}

// Recipe is the transport representation of a corpus recipe.
type Recipe struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	Cuisine      string       `json:"cuisine"`
	ImageURL     string       `json:"image_url"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	Tags         []string     `json:"tags"`
	Calories     float64      `json:"calories"`
	ProteinG     float64      `json:"protein_g"`
	CarbsG       float64      `json:"carbs_g"`
	FatG         float64      `json:"fat_g"`
	Generated    bool         `json:"generated"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// RankedCandidate pairs a recipe with its blended score. Produced per request
// and never persisted.
type RankedCandidate struct {
	Recipe           *Recipe `json:"recipe"`
	Score            float64 `json:"score"`
	Rank             int     `json:"rank"`
	Similarity       float64 `json:"similarity"`
	CalorieDeviation float64 `json:"calorie_deviation"`
}
