package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/metrics"
	"github.com/pageza/macromeal-backend/internal/types"
)

// unitGrams converts common kitchen units to grams. Volume units assume a
// water-like density, which is the usual approximation for mixed ingredients.
var unitGrams = map[string]float64{
	"g": 1, "gram": 1, "grams": 1,
	"kg": 1000, "kilogram": 1000, "kilograms": 1000,
	"mg": 0.001, "milligram": 0.001, "milligrams": 0.001,
	"lb": 453.6, "pound": 453.6, "pounds": 453.6,
	"oz": 28.35, "ounce": 28.35, "ounces": 28.35,
	"ml": 1, "milliliter": 1, "milliliters": 1,
	"l": 1000, "liter": 1000, "liters": 1000,
	"cup": 240, "cups": 240,
	"tbsp": 15, "tablespoon": 15, "tablespoons": 15,
	"tsp": 5, "teaspoon": 5, "teaspoons": 5,
	"pinch": 0.36, "dash": 0.6,
	"clove": 5, "cloves": 5,
	"slice": 30, "slices": 30,
	"piece": 50, "pieces": 50,
	"can": 400, "cans": 400,
	"large": 50, "medium": 30, "small": 15,
}

// defaultIngredientGrams is used when neither quantity nor unit can be made
// sense of; a whole unknown item is assumed to weigh this much.
const defaultIngredientGrams = 100

// Estimate is the result of one nutrition estimation. ResolvedFraction below
// 1 marks a degraded estimate; callers must treat it as lower confidence, not
// as a failure.
type Estimate struct {
	Summary          types.NutritionSummary
	ResolvedFraction float64
	PerIngredient    []types.IngredientStatus
}

// Unresolved returns the names of ingredients that did not resolve.
func (e *Estimate) Unresolved() []string {
	var names []string
	for _, st := range e.PerIngredient {
		if !st.Resolved {
			names = append(names, st.Name)
		}
	}
	return names
}

// NutritionEstimator aggregates per-ingredient nutrient data into a recipe
// summary. The lookup capability is injected; a memoizing wrapper can be
// supplied by the caller.
type NutritionEstimator struct {
	lookup NutrientLookup
	logger *zap.Logger
}

// NewNutritionEstimator creates a new NutritionEstimator instance
func NewNutritionEstimator(lookup NutrientLookup, logger *zap.Logger) *NutritionEstimator {
	return &NutritionEstimator{
		lookup: lookup,
		logger: logger,
	}
}

// EstimateNutrition normalizes each ingredient to grams, resolves it through
// the nutrient lookup and sums the scaled values. Ingredients that fail to
// parse or resolve are reported individually and never abort the estimate.
func (s *NutritionEstimator) EstimateNutrition(ctx context.Context, ingredients []types.Ingredient) (*Estimate, error) {
	est := &Estimate{
		PerIngredient: make([]types.IngredientStatus, 0, len(ingredients)),
	}
	if len(ingredients) == 0 {
		est.ResolvedFraction = 1
		return est, nil
	}

	resolved := 0
	for _, ing := range ingredients {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		grams := ingredientGrams(ing)
		status := types.IngredientStatus{Name: ing.Name, Grams: grams}

		nutrients, err := s.lookup.LookupNutrients(ctx, ing.Name)
		if err != nil {
			if errors.Is(err, ErrNutrientNotFound) {
				metrics.NutrientLookups.WithLabelValues("miss").Inc()
			} else {
				metrics.NutrientLookups.WithLabelValues("error").Inc()
			}
			status.Reason = (&LookupUnresolved{Ingredient: ing.Name, Err: err}).Error()
			est.PerIngredient = append(est.PerIngredient, status)
			s.logger.Debug("nutrient lookup unresolved",
				zap.String("ingredient", ing.Name),
				zap.Error(err))
			continue
		}
		metrics.NutrientLookups.WithLabelValues("hit").Inc()

		scale := grams / 100
		est.Summary.Calories += nutrients.Calories * scale
		est.Summary.ProteinG += nutrients.Protein * scale
		est.Summary.CarbsG += nutrients.Carbs * scale
		est.Summary.FatG += nutrients.Fat * scale
		est.Summary.FiberG += nutrients.Fiber * scale

		status.Resolved = true
		est.PerIngredient = append(est.PerIngredient, status)
		resolved++
	}

	est.ResolvedFraction = float64(resolved) / float64(len(ingredients))
	return est, nil
}

// ingredientGrams estimates the weight in grams of one ingredient entry,
// falling back to a 100g default when the quantity or unit is unparseable.
func ingredientGrams(ing types.Ingredient) float64 {
	amount, ok := parseAmount(ing.Quantity)
	if !ok {
		amount = 1
	}

	unit := strings.ToLower(strings.TrimSpace(ing.Unit))
	if grams, found := unitGrams[unit]; found {
		return amount * grams
	}

	// A bare count of a common item: "2 eggs".
	if unit == "" && strings.Contains(strings.ToLower(ing.Name), "egg") {
		return 50 * amount
	}

	return defaultIngredientGrams * amount
}

// parseAmount handles kitchen notation: "2", "0.5", "1/2" and mixed numbers
// like "1 1/2".
func parseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	total := 0.0
	for _, part := range strings.Fields(raw) {
		if num, den, found := strings.Cut(part, "/"); found {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 != nil || err2 != nil || d == 0 {
				return 0, false
			}
			total += n / d
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, false
		}
		total += v
	}
	return total, true
}
