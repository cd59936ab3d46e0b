package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/types"
)

func testLookupTable() NutrientLookup {
	return &tableLookup{table: map[string]NutrientsPer100g{
		"chicken breast": {Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6},
		"rice":           {Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3, Fiber: 0.4},
		"olive oil":      {Calories: 884, Protein: 0, Carbs: 0, Fat: 100},
		"broccoli":       {Calories: 34, Protein: 2.8, Carbs: 7, Fat: 0.4, Fiber: 2.6},
		"egg":            {Calories: 155, Protein: 13, Carbs: 1.1, Fat: 11},
	}}
}

type tableLookup struct {
	table map[string]NutrientsPer100g
}

func (t *tableLookup) LookupNutrients(ctx context.Context, name string) (*NutrientsPer100g, error) {
	if n, ok := t.table[name]; ok {
		return &n, nil
	}
	return nil, ErrNutrientNotFound
}

func TestEstimateNutritionScalesToGrams(t *testing.T) {
	est := NewNutritionEstimator(testLookupTable(), zap.NewNop())

	result, err := est.EstimateNutrition(context.Background(), []types.Ingredient{
		{Name: "chicken breast", Quantity: "200", Unit: "g"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 330, result.Summary.Calories, 0.01)
	assert.InDelta(t, 62, result.Summary.ProteinG, 0.01)
	assert.Equal(t, 1.0, result.ResolvedFraction)
}

func TestEstimateNutritionKitchenUnits(t *testing.T) {
	est := NewNutritionEstimator(testLookupTable(), zap.NewNop())

	result, err := est.EstimateNutrition(context.Background(), []types.Ingredient{
		{Name: "olive oil", Quantity: "1", Unit: "tbsp"},
	})
	require.NoError(t, err)

	// 15 g of oil at 884 kcal per 100 g.
	assert.InDelta(t, 884*0.15, result.Summary.Calories, 0.01)
}

func TestEstimateNutritionResolvedFraction(t *testing.T) {
	est := NewNutritionEstimator(testLookupTable(), zap.NewNop())

	result, err := est.EstimateNutrition(context.Background(), []types.Ingredient{
		{Name: "chicken breast", Quantity: "150", Unit: "g"},
		{Name: "rice", Quantity: "1", Unit: "cup"},
		{Name: "broccoli", Quantity: "100", Unit: "g"},
		{Name: "olive oil", Quantity: "1", Unit: "tbsp"},
		{Name: "dragonfruit extract", Quantity: "1", Unit: "tsp"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.8, result.ResolvedFraction, 0.001)
	assert.Equal(t, []string{"dragonfruit extract"}, result.Unresolved())

	require.Len(t, result.PerIngredient, 5)
	assert.False(t, result.PerIngredient[4].Resolved)
	assert.NotEmpty(t, result.PerIngredient[4].Reason)
}

func TestEstimateNutritionUnresolvedDoesNotAbort(t *testing.T) {
	est := NewNutritionEstimator(testLookupTable(), zap.NewNop())

	result, err := est.EstimateNutrition(context.Background(), []types.Ingredient{
		{Name: "unobtainium", Quantity: "1", Unit: "cup"},
		{Name: "rice", Quantity: "100", Unit: "g"},
	})
	require.NoError(t, err)

	// The resolved ingredient still contributes.
	assert.InDelta(t, 130, result.Summary.Calories, 0.01)
	assert.InDelta(t, 0.5, result.ResolvedFraction, 0.001)
}

func TestEstimateNutritionEmptyList(t *testing.T) {
	est := NewNutritionEstimator(testLookupTable(), zap.NewNop())

	result, err := est.EstimateNutrition(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.ResolvedFraction)
	assert.Zero(t, result.Summary.Calories)
}

func TestEstimateNutritionCancelledContext(t *testing.T) {
	est := NewNutritionEstimator(testLookupTable(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := est.EstimateNutrition(ctx, []types.Ingredient{
		{Name: "rice", Quantity: "100", Unit: "g"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngredientGrams(t *testing.T) {
	cases := []struct {
		name string
		ing  types.Ingredient
		want float64
	}{
		{"metric", types.Ingredient{Name: "rice", Quantity: "250", Unit: "g"}, 250},
		{"cup", types.Ingredient{Name: "rice", Quantity: "2", Unit: "cups"}, 480},
		{"fraction", types.Ingredient{Name: "oil", Quantity: "1/2", Unit: "cup"}, 120},
		{"mixed number", types.Ingredient{Name: "flour", Quantity: "1 1/2", Unit: "cups"}, 360},
		{"bare egg count", types.Ingredient{Name: "eggs", Quantity: "2", Unit: ""}, 100},
		{"unknown unit", types.Ingredient{Name: "tofu", Quantity: "1", Unit: "block"}, 100},
		{"no quantity", types.Ingredient{Name: "salt", Quantity: "", Unit: "pinch"}, 0.36},
		{"pound", types.Ingredient{Name: "beef", Quantity: "1", Unit: "lb"}, 453.6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ingredientGrams(tc.ing), 0.001)
		})
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"2", 2, true},
		{"0.5", 0.5, true},
		{"1/2", 0.5, true},
		{"1 1/2", 1.5, true},
		{"3/4", 0.75, true},
		{"", 0, false},
		{"a pinch", 0, false},
		{"1/0", 0, false},
	}

	for _, tc := range cases {
		got, ok := parseAmount(tc.raw)
		assert.Equal(t, tc.ok, ok, "parseAmount(%q)", tc.raw)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 0.001, "parseAmount(%q)", tc.raw)
		}
	}
}
