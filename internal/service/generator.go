package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/metrics"
	"github.com/pageza/macromeal-backend/internal/types"
)

// GenerationState is one step of the validation loop's state machine.
type GenerationState string

const (
	StateDrafting     GenerationState = "drafting"
	StateEstimating   GenerationState = "estimating"
	StateAccepted     GenerationState = "accepted"
	StateRegenerating GenerationState = "regenerating"
	StateExhausted    GenerationState = "exhausted"
)

// GenerationStatus is the terminal outcome reported to the caller.
type GenerationStatus string

const (
	StatusAccepted        GenerationStatus = "accepted"
	StatusBudgetExhausted GenerationStatus = "budget_exhausted"
	StatusFailed          GenerationStatus = "failed"
)

// macroTolerance is the allowed relative deviation between a draft's
// nutrition and the target, applied to calories and each macro.
const macroTolerance = 0.10

// estimateConfidenceFloor is the resolvedFraction below which the estimator's
// summary is considered too degraded and the draft's own claimed macros are
// used instead.
const estimateConfidenceFloor = 0.5

// DefaultAttemptBudget bounds the retry loop when the caller does not.
const DefaultAttemptBudget = 3

// GenerationResult is what one validated-generation request produces. Recipe
// is nil only when Status is StatusFailed.
type GenerationResult struct {
	Recipe    *types.Recipe
	Status    GenerationStatus
	Attempts  int
	Deviation float64
	Estimate  *Estimate
}

// GenerationValidator drives the draft/estimate/accept-or-regenerate loop.
// Attempts are strictly sequential; the generator's non-determinism is
// contained by the bounded budget and the deterministic closest-draft
// selection rule.
type GenerationValidator struct {
	generator RecipeGenerator
	estimator NutritionEstimatorInterface
	filter    *DietaryFilterService
	drafts    DraftStore
	logger    *zap.Logger
}

// NewGenerationValidator creates a new GenerationValidator instance. The
// draft store may be nil, in which case in-flight drafts are not persisted.
func NewGenerationValidator(generator RecipeGenerator, estimator NutritionEstimatorInterface, filter *DietaryFilterService, drafts DraftStore, logger *zap.Logger) *GenerationValidator {
	return &GenerationValidator{
		generator: generator,
		estimator: estimator,
		filter:    filter,
		drafts:    drafts,
		logger:    logger,
	}
}

// GenerateValidated produces a recipe whose nutrition stays within tolerance
// of the target, or the closest admissible draft seen when the attempt
// budget runs out. A recipe that fails the dietary filter is never returned,
// regardless of status.
func (v *GenerationValidator) GenerateValidated(ctx context.Context, target *types.NutritionTarget, constraints types.DietaryConstraints, budget int, seedTitles []string) (*GenerationResult, error) {
	if budget <= 0 {
		budget = DefaultAttemptBudget
	}

	var (
		best         *types.Recipe
		bestEstimate *Estimate
		bestDev      = math.Inf(1)
		guidance     string
		draftIDs     []string
	)

	state := StateDrafting
	attempt := 0

	for state != StateAccepted && state != StateExhausted {
		switch state {
		case StateDrafting:
			attempt++
			raw, err := v.generator.GenerateRecipe(ctx, PromptContext{
				Target:      *target,
				Constraints: constraints,
				Guidance:    guidance,
				SeedTitles:  seedTitles,
			})
			if err != nil {
				// Timeouts and transport errors consume an attempt.
				v.logger.Warn("generation attempt failed",
					zap.Int("attempt", attempt),
					zap.Error(err))
				metrics.GenerationAttempts.WithLabelValues("failed").Inc()
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				state = v.nextAfterRejection(attempt, budget)
				continue
			}

			draft, err := ParseRecipeDraft(raw)
			if err != nil {
				// Malformed output is a failed attempt, not a silent skip.
				v.logger.Warn("generation attempt produced malformed draft",
					zap.Int("attempt", attempt),
					zap.Error(err))
				metrics.GenerationAttempts.WithLabelValues("failed").Inc()
				guidance = "The previous response was not valid recipe JSON; follow the required structure exactly."
				state = v.nextAfterRejection(attempt, budget)
				continue
			}

			if v.drafts != nil {
				stored := &RecipeDraft{Attempt: attempt, Data: draft}
				if err := v.drafts.SaveDraft(ctx, stored); err != nil {
					v.logger.Warn("failed to persist draft", zap.Error(err))
				} else {
					draftIDs = append(draftIDs, stored.ID)
				}
			}

			state = StateEstimating
			recipe := draft.ToRecipe()

			if ok, violation := v.filter.CheckRecipe(ctx, recipe, constraints); !ok {
				v.logger.Info("draft rejected by dietary filter",
					zap.Int("attempt", attempt),
					zap.String("violation", violation))
				metrics.GenerationAttempts.WithLabelValues("rejected").Inc()
				guidance = fmt.Sprintf("The previous attempt violated a dietary constraint (%s); do not use that ingredient.", violation)
				state = v.nextAfterRejection(attempt, budget)
				continue
			}

			summary, estimate, err := v.estimateDraft(ctx, recipe, draft)
			if err != nil {
				return nil, err
			}
			recipe.Calories = summary.Calories
			recipe.ProteinG = summary.ProteinG
			recipe.CarbsG = summary.CarbsG
			recipe.FatG = summary.FatG

			dev := summaryDeviation(summary, target)

			if withinTolerance(summary, target) {
				// The passing draft wins outright, even when an earlier
				// out-of-tolerance draft had a lower mean deviation.
				best, bestEstimate, bestDev = recipe, estimate, dev
				metrics.GenerationAttempts.WithLabelValues("accepted").Inc()
				state = StateAccepted
				continue
			}

			if dev < bestDev {
				best, bestEstimate, bestDev = recipe, estimate, dev
			}

			metrics.GenerationAttempts.WithLabelValues("rejected").Inc()
			guidance = correctiveGuidance(summary, target)
			v.logger.Info("draft outside tolerance",
				zap.Int("attempt", attempt),
				zap.Float64("deviation", dev),
				zap.String("guidance", guidance))
			state = v.nextAfterRejection(attempt, budget)

		case StateRegenerating:
			// Corrective guidance is already staged; loop back for the
			// next draft.
			state = StateDrafting
		}
	}

	result := &GenerationResult{
		Recipe:    best,
		Attempts:  attempt,
		Deviation: bestDev,
		Estimate:  bestEstimate,
	}

	switch {
	case state == StateAccepted:
		result.Status = StatusAccepted
	case best != nil:
		result.Status = StatusBudgetExhausted
	default:
		// Budget gone and not one draft passed the dietary filter: there
		// is nothing safe to return.
		result.Status = StatusFailed
		result.Deviation = 0
	}
	metrics.GenerationResults.WithLabelValues(string(result.Status)).Inc()

	if result.Status == StatusAccepted && v.drafts != nil {
		for _, id := range draftIDs {
			if err := v.drafts.DeleteDraft(ctx, id); err != nil {
				v.logger.Warn("failed to delete draft",
					zap.String("draft_id", id),
					zap.Error(err))
			}
		}
	}

	if result.Status == StatusFailed {
		return result, ErrNoAdmissibleDraft
	}
	return result, nil
}

// nextAfterRejection decides whether the loop regenerates or gives up.
func (v *GenerationValidator) nextAfterRejection(attempt, budget int) GenerationState {
	if attempt >= budget {
		return StateExhausted
	}
	return StateRegenerating
}

// estimateDraft runs the nutrition estimator over the draft's ingredients,
// falling back to the model's claimed macros when the estimate is too
// degraded to trust.
func (v *GenerationValidator) estimateDraft(ctx context.Context, recipe *types.Recipe, draft *RecipeData) (types.NutritionSummary, *Estimate, error) {
	estimate, err := v.estimator.EstimateNutrition(ctx, recipe.Ingredients)
	if err != nil {
		return types.NutritionSummary{}, nil, err
	}

	if estimate.ResolvedFraction < estimateConfidenceFloor {
		v.logger.Debug("estimate degraded, using draft macros",
			zap.Float64("resolved_fraction", estimate.ResolvedFraction))
		return types.NutritionSummary{
			Calories: draft.Calories,
			ProteinG: draft.Protein,
			CarbsG:   draft.Carbs,
			FatG:     draft.Fat,
		}, estimate, nil
	}

	return estimate.Summary, estimate, nil
}

// withinTolerance reports whether calories and every macro are inside the
// allowed relative deviation.
func withinTolerance(summary types.NutritionSummary, target *types.NutritionTarget) bool {
	return relativeDeviation(summary.Calories, target.TargetCalories) <= macroTolerance &&
		relativeDeviation(summary.ProteinG, target.ProteinG) <= macroTolerance &&
		relativeDeviation(summary.CarbsG, target.CarbsG) <= macroTolerance &&
		relativeDeviation(summary.FatG, target.FatG) <= macroTolerance
}

// summaryDeviation mirrors the ranker's deviation metric over a summary.
func summaryDeviation(summary types.NutritionSummary, target *types.NutritionTarget) float64 {
	dev := relativeDeviation(summary.Calories, target.TargetCalories) +
		relativeDeviation(summary.ProteinG, target.ProteinG) +
		relativeDeviation(summary.CarbsG, target.CarbsG) +
		relativeDeviation(summary.FatG, target.FatG)
	return dev / 4
}

// correctiveGuidance turns the worst deviation into prompt feedback for the
// next attempt, including its direction.
func correctiveGuidance(summary types.NutritionSummary, target *types.NutritionTarget) string {
	calDiff := summary.Calories - target.TargetCalories
	direction := "under"
	if calDiff > 0 {
		direction = "over"
	}
	pct := 0.0
	if target.TargetCalories > 0 {
		pct = math.Abs(calDiff) / target.TargetCalories * 100
	}

	guidance := fmt.Sprintf("The previous attempt was about %.0f%% %s the calorie target of %.0f kcal; adjust portion sizes accordingly.",
		pct, direction, target.TargetCalories)

	// Call out the single worst macro as well.
	type macroDev struct {
		name          string
		value, target float64
	}
	worst := macroDev{}
	worstDev := 0.0
	for _, m := range []macroDev{
		{"protein", summary.ProteinG, target.ProteinG},
		{"carbs", summary.CarbsG, target.CarbsG},
		{"fat", summary.FatG, target.FatG},
	} {
		if d := relativeDeviation(m.value, m.target); d > worstDev {
			worst, worstDev = m, d
		}
	}
	if worstDev > macroTolerance && worst.name != "" {
		dir := "more"
		if worst.value > worst.target {
			dir = "less"
		}
		guidance += fmt.Sprintf(" Use %s %s to get closer to %.0f g.", dir, worst.name, worst.target)
	}

	return guidance
}
