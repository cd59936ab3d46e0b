package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/types"
)

// Blended score weights. Semantic similarity dominates slightly; numeric
// closeness to the macro target keeps the ordering honest when embeddings
// are uninformative.
const (
	semanticWeight = 0.6
	numericWeight  = 0.4
)

// SimilarityRanker orders admissible recipes by closeness to a nutrition
// target. Scoring is deterministic: same inputs in the same corpus order
// always produce the same ranking, including tie-breaks.
type SimilarityRanker struct {
	embedder Embedder
	logger   *zap.Logger
}

// NewSimilarityRanker creates a new SimilarityRanker instance
func NewSimilarityRanker(embedder Embedder, logger *zap.Logger) *SimilarityRanker {
	return &SimilarityRanker{
		embedder: embedder,
		logger:   logger,
	}
}

// RankRecipes returns up to k candidates, best score first. A corpus smaller
// than k returns everything, fully ordered; that is not an error.
func (s *SimilarityRanker) RankRecipes(ctx context.Context, recipes []*types.Recipe, target *types.NutritionTarget, k int) ([]types.RankedCandidate, error) {
	if k <= 0 || len(recipes) == 0 {
		return []types.RankedCandidate{}, nil
	}

	targetVec, err := s.embedder.GenerateEmbedding(TargetDescription(target))
	if err != nil {
		return nil, fmt.Errorf("failed to embed target: %w", err)
	}

	candidates := make([]types.RankedCandidate, 0, len(recipes))
	for _, recipe := range recipes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := s.embedder.GenerateEmbedding(RecipeDocument(recipe))
		if err != nil {
			// One bad embedding excludes the candidate, not the request.
			s.logger.Warn("failed to embed recipe",
				zap.String("recipe", recipe.Name),
				zap.Error(err))
			continue
		}

		similarity := cosineSimilarity(targetVec, vec)
		deviation := macroDeviation(recipe, target)
		calorieDev := relativeDeviation(recipe.Calories, target.TargetCalories)

		candidates = append(candidates, types.RankedCandidate{
			Recipe:           recipe,
			Score:            semanticWeight*similarity + numericWeight*(1-deviation),
			Similarity:       similarity,
			CalorieDeviation: calorieDev,
		})
	}

	// Stable sort so full ties keep corpus insertion order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].CalorieDeviation < candidates[j].CalorieDeviation
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates, nil
}

// RecipeDocument builds the text a recipe is embedded from: title,
// ingredients and instructions, in that order.
func RecipeDocument(recipe *types.Recipe) string {
	var b strings.Builder
	b.WriteString(recipe.Name)
	b.WriteString("\n")
	b.WriteString(recipe.Description)
	b.WriteString("\nIngredients: ")
	for i, ing := range recipe.Ingredients {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ing.Name)
	}
	b.WriteString("\nInstructions: ")
	b.WriteString(strings.Join(recipe.Instructions, " "))
	if len(recipe.Tags) > 0 {
		b.WriteString("\nTags: ")
		b.WriteString(strings.Join(recipe.Tags, ", "))
	}
	return b.String()
}

// TargetDescription projects a nutrition target into the same text space the
// recipes live in: a synthetic description built from macro ratios and goal.
func TargetDescription(target *types.NutritionTarget) string {
	proteinShare := target.ProteinG * kcalPerGramProtein / target.TargetCalories
	carbShare := target.CarbsG * kcalPerGramCarbs / target.TargetCalories

	var style string
	switch {
	case proteinShare >= 0.35:
		style = "high protein"
	case carbShare >= 0.5:
		style = "high carbohydrate"
	default:
		style = "balanced"
	}

	return fmt.Sprintf("%s %s meal around %.0f calories with %.0f g protein, %.0f g carbs and %.0f g fat",
		style, target.Goal, target.TargetCalories, target.ProteinG, target.CarbsG, target.FatG)
}

// macroDeviation is the mean relative deviation of the recipe's nutrition
// from the target across calories and all three macros, capped at 1.
func macroDeviation(recipe *types.Recipe, target *types.NutritionTarget) float64 {
	dev := relativeDeviation(recipe.Calories, target.TargetCalories) +
		relativeDeviation(recipe.ProteinG, target.ProteinG) +
		relativeDeviation(recipe.CarbsG, target.CarbsG) +
		relativeDeviation(recipe.FatG, target.FatG)
	return math.Min(dev/4, 1)
}

// relativeDeviation is |value-target|/target, capped at 1; a zero target
// contributes the full penalty unless the value is also zero.
func relativeDeviation(value, target float64) float64 {
	if target == 0 {
		if value == 0 {
			return 0
		}
		return 1
	}
	return math.Min(math.Abs(value-target)/target, 1)
}

// cosineSimilarity computes the cosine of the angle between two vectors,
// or 0 when either has no magnitude or the dimensions differ.
func cosineSimilarity(a, b pgvector.Vector) float64 {
	as, bs := a.Slice(), b.Slice()
	if len(as) != len(bs) || len(as) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range as {
		dot += float64(as[i]) * float64(bs[i])
		normA += float64(as[i]) * float64(as[i])
		normB += float64(bs[i]) * float64(bs[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
