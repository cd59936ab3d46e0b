package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/models"
	"github.com/pageza/macromeal-backend/internal/types"
)

// DefaultRecipeCount is used when a profile does not request a count.
const DefaultRecipeCount = 5

// maxSeedTitles bounds how many ranked titles are fed to the generator as
// inspiration.
const maxSeedTitles = 3

// RecommendationService wires the engine together: targets feed the filter
// and the ranker, ranked seeds plus targets feed generation, and the
// validator closes the loop.
type RecommendationService struct {
	targets   *TargetService
	filter    *DietaryFilterService
	ranker    *SimilarityRanker
	validator *GenerationValidator
	corpus    RecipeCorpus
	logger    *zap.Logger
}

// NewRecommendationService creates a new RecommendationService instance
func NewRecommendationService(
	targets *TargetService,
	filter *DietaryFilterService,
	ranker *SimilarityRanker,
	validator *GenerationValidator,
	corpus RecipeCorpus,
	logger *zap.Logger,
) *RecommendationService {
	return &RecommendationService{
		targets:   targets,
		filter:    filter,
		ranker:    ranker,
		validator: validator,
		corpus:    corpus,
		logger:    logger,
	}
}

// ComputeTargets derives the nutrition target for a profile.
func (s *RecommendationService) ComputeTargets(profile *types.UserProfile) (*types.NutritionTarget, error) {
	return s.targets.ComputeTargets(profile)
}

// FilterRecipes returns the admissible subset of the given recipes for the
// profile's constraints, preserving corpus order.
func (s *RecommendationService) FilterRecipes(ctx context.Context, recipes []*types.Recipe, profile *types.UserProfile) []*types.Recipe {
	return s.filter.FilterRecipes(ctx, recipes, profile.Constraints())
}

// RankRecipes orders admissible recipes against a target.
func (s *RecommendationService) RankRecipes(ctx context.Context, recipes []*types.Recipe, target *types.NutritionTarget, k int) ([]types.RankedCandidate, error) {
	return s.ranker.RankRecipes(ctx, recipes, target, k)
}

// GenerateValidatedRecipe runs the bounded generation loop for a target and
// constraints.
func (s *RecommendationService) GenerateValidatedRecipe(ctx context.Context, target *types.NutritionTarget, constraints types.DietaryConstraints, budget int) (*GenerationResult, error) {
	return s.validator.GenerateValidated(ctx, target, constraints, budget, nil)
}

// Recommend runs the full flow for one profile: compute targets, filter the
// corpus, rank, and top up with generated recipes when fewer admissible
// candidates exist than requested. Only a ValidationError aborts the request.
func (s *RecommendationService) Recommend(ctx context.Context, profile *types.UserProfile) (*types.RecommendationResponse, error) {
	target, err := s.targets.ComputeTargets(profile)
	if err != nil {
		return nil, err
	}

	k := profile.RecipeCount
	if k <= 0 {
		k = DefaultRecipeCount
	}

	stored, err := s.corpus.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}

	corpus := make([]*types.Recipe, len(stored))
	for i, r := range stored {
		corpus[i] = r.ToType()
	}

	admissible := s.filter.FilterRecipes(ctx, corpus, profile.Constraints())
	candidates, err := s.ranker.RankRecipes(ctx, admissible, target, k)
	if err != nil {
		return nil, err
	}

	resp := &types.RecommendationResponse{
		Target:     *target,
		Candidates: candidates,
	}

	seeds := make([]string, 0, maxSeedTitles)
	for _, c := range candidates {
		if len(seeds) == maxSeedTitles {
			break
		}
		seeds = append(seeds, c.Recipe.Name)
	}

	// Top up the shortfall with generated recipes, one sequential loop per
	// missing slot. Generation failures degrade the response, never abort it.
	for missing := k - len(candidates); missing > 0; missing-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := s.validator.GenerateValidated(ctx, target, profile.Constraints(), DefaultAttemptBudget, seeds)
		if err != nil && !errors.Is(err, ErrNoAdmissibleDraft) {
			return nil, err
		}

		generated := types.GeneratedRecipe{
			Status:   string(result.Status),
			Attempts: result.Attempts,
		}

		if result.Recipe != nil {
			generated.Recipe = result.Recipe

			// Only fully accepted recipes enter the shared corpus;
			// best-effort results stay request-local.
			if result.Status == StatusAccepted {
				stored, err := s.corpus.CreateRecipe(ctx, recipeToModel(result.Recipe))
				if err != nil {
					s.logger.Warn("failed to append generated recipe to corpus", zap.Error(err))
				} else {
					generated.Recipe = stored.ToType()
				}
			}
		}

		resp.Generated = append(resp.Generated, generated)
	}

	return resp, nil
}

// recipeToModel converts a transport recipe to its storage form.
func recipeToModel(r *types.Recipe) *models.Recipe {
	return &models.Recipe{
		Name:         r.Name,
		Description:  r.Description,
		Category:     r.Category,
		Cuisine:      r.Cuisine,
		ImageURL:     r.ImageURL,
		Ingredients:  models.JSONBIngredients(r.Ingredients),
		Instructions: models.JSONBStringArray(r.Instructions),
		Tags:         models.JSONBStringArray(r.Tags),
		Calories:     r.Calories,
		Protein:      r.ProteinG,
		Carbs:        r.CarbsG,
		Fat:          r.FatG,
		Generated:    r.Generated,
	}
}
