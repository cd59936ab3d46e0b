package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/types"
)

// scriptedGen replays a fixed draft per attempt and records every prompt.
type scriptedGen struct {
	drafts  []string
	errs    []error
	prompts []PromptContext
	calls   int
}

func (g *scriptedGen) GenerateRecipe(ctx context.Context, prompt PromptContext) (string, error) {
	g.prompts = append(g.prompts, prompt)
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.drafts) {
		return g.drafts[i], nil
	}
	return "", errors.New("no more scripted drafts")
}

// estimatorByIngredient keys a canned estimate on the first ingredient name.
type estimatorByIngredient struct {
	estimates map[string]*Estimate
}

func (e *estimatorByIngredient) EstimateNutrition(ctx context.Context, ingredients []types.Ingredient) (*Estimate, error) {
	if len(ingredients) == 0 {
		return &Estimate{ResolvedFraction: 1}, nil
	}
	if est, ok := e.estimates[ingredients[0].Name]; ok {
		return est, nil
	}
	return &Estimate{ResolvedFraction: 1}, nil
}

func fullEstimate(calories, protein, carbs, fat float64) *Estimate {
	return &Estimate{
		Summary: types.NutritionSummary{
			Calories: calories,
			ProteinG: protein,
			CarbsG:   carbs,
			FatG:     fat,
		},
		ResolvedFraction: 1,
	}
}

func draftJSON(name, ingredient string) string {
	return fmt.Sprintf(`{
        "name": %q,
        "description": "test draft",
        "ingredients": [{"name": %q, "quantity": "100", "unit": "g"}],
        "instructions": ["combine", "serve"],
        "calories": 0, "protein": 0, "carbs": 0, "fat": 0
    }`, name, ingredient)
}

func generatorTarget() *types.NutritionTarget {
	return &types.NutritionTarget{
		TargetCalories: 2000,
		ProteinG:       150,
		CarbsG:         225,
		FatG:           56,
		Goal:           "maintenance",
	}
}

func newValidator(gen RecipeGenerator, est NutritionEstimatorInterface) *GenerationValidator {
	return NewGenerationValidator(gen, est, NewDietaryFilterService(nil), nil, zap.NewNop())
}

func TestGenerateValidatedAcceptsInTolerance(t *testing.T) {
	gen := &scriptedGen{drafts: []string{draftJSON("Tofu Bowl", "tofu")}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"tofu": fullEstimate(2000, 150, 225, 56),
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 1, result.Attempts)
	require.NotNil(t, result.Recipe)
	assert.Equal(t, "Tofu Bowl", result.Recipe.Name)
	// The estimator's summary replaces whatever the draft claimed.
	assert.InDelta(t, 2000, result.Recipe.Calories, 0.001)
	assert.InDelta(t, 150, result.Recipe.ProteinG, 0.001)
}

func TestGenerateValidatedNeverReturnsFilteredRecipe(t *testing.T) {
	// Every draft violates the vegetarian constraint.
	gen := &scriptedGen{drafts: []string{
		draftJSON("Beef Bowl", "beef"),
		draftJSON("Beef Stew", "beef"),
		draftJSON("Beef Chili", "beef"),
	}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"beef": fullEstimate(2000, 150, 225, 56),
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(),
		types.DietaryConstraints{Preference: "vegetarian"}, 3, nil)

	require.ErrorIs(t, err, ErrNoAdmissibleDraft)
	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Nil(t, result.Recipe)
	assert.Equal(t, 3, result.Attempts)

	// Rejections feed corrective guidance into the next prompt.
	require.Len(t, gen.prompts, 3)
	assert.Contains(t, gen.prompts[1].Guidance, "dietary constraint")
}

func TestGenerateValidatedBudgetExhaustedReturnsClosest(t *testing.T) {
	gen := &scriptedGen{drafts: []string{
		draftJSON("Far", "far"),
		draftJSON("Closest", "closest"),
		draftJSON("Middle", "middle"),
	}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"far":     fullEstimate(3000, 150, 225, 56),
		"closest": fullEstimate(2400, 150, 225, 56),
		"middle":  fullEstimate(2600, 150, 225, 56),
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusBudgetExhausted, result.Status)
	assert.Equal(t, 3, result.Attempts)
	require.NotNil(t, result.Recipe)
	assert.Equal(t, "Closest", result.Recipe.Name)
	assert.InDelta(t, 0.05, result.Deviation, 0.001)
}

func TestGenerateValidatedMalformedDraftConsumesAttempt(t *testing.T) {
	gen := &scriptedGen{drafts: []string{
		"this is not JSON",
		draftJSON("Tofu Bowl", "tofu"),
	}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"tofu": fullEstimate(2000, 150, 225, 56),
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 2, result.Attempts)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1].Guidance, "valid recipe JSON")
}

func TestGenerateValidatedTransportErrorConsumesAttempt(t *testing.T) {
	gen := &scriptedGen{
		drafts: []string{"", draftJSON("Tofu Bowl", "tofu")},
		errs:   []error{errors.New("upstream timeout")},
	}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"tofu": fullEstimate(2000, 150, 225, 56),
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 2, result.Attempts)
}

func TestGenerateValidatedCorrectiveGuidanceDirection(t *testing.T) {
	gen := &scriptedGen{drafts: []string{
		draftJSON("Heavy", "heavy"),
		draftJSON("Tofu Bowl", "tofu"),
	}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"heavy": fullEstimate(3000, 150, 225, 56),
		"tofu":  fullEstimate(2000, 150, 225, 56),
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, result.Status)

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1].Guidance, "over")
	assert.Contains(t, gen.prompts[1].Guidance, "2000")
}

func TestGenerateValidatedDegradedEstimateUsesDraftMacros(t *testing.T) {
	draft := `{
        "name": "Mystery Bowl",
        "ingredients": [{"name": "rice", "quantity": "100", "unit": "g"}],
        "instructions": ["combine"],
        "calories": 2000, "protein": 150, "carbs": 225, "fat": 56
    }`
	gen := &scriptedGen{drafts: []string{draft}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"rice": {ResolvedFraction: 0.2},
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	require.NotNil(t, result.Recipe)
	// The draft's claimed macros were used because the estimate resolved
	// too little of the ingredient list.
	assert.InDelta(t, 2000, result.Recipe.Calories, 0.001)
}

func TestGenerateValidatedSeedTitles(t *testing.T) {
	gen := &scriptedGen{drafts: []string{draftJSON("Tofu Bowl", "tofu")}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"tofu": fullEstimate(2000, 150, 225, 56),
	}}
	v := newValidator(gen, est)

	seeds := []string{"Lentil Curry", "Chickpea Salad"}
	_, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, seeds)
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, seeds, gen.prompts[0].SeedTitles)
}

func TestGenerateValidatedDefaultBudget(t *testing.T) {
	gen := &scriptedGen{drafts: []string{
		draftJSON("A", "far"), draftJSON("B", "far"), draftJSON("C", "far"),
		draftJSON("D", "far"), draftJSON("E", "far"),
	}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"far": fullEstimate(5000, 10, 10, 10),
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusBudgetExhausted, result.Status)
	assert.Equal(t, DefaultAttemptBudget, result.Attempts)
}

func TestGenerateValidatedAcceptedReturnsPassingDraft(t *testing.T) {
	// The first draft misses tolerance on protein alone, leaving it with a
	// lower mean deviation than the second, fully in-tolerance draft. The
	// accepted result must still be the second draft.
	gen := &scriptedGen{drafts: []string{
		draftJSON("Lentil Soup", "lentil"),
		draftJSON("Tofu Bowl", "tofu"),
	}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"lentil": fullEstimate(2000, 168, 225, 56),
		"tofu":   fullEstimate(2160, 138, 243, 53.2),
	}}
	v := newValidator(gen, est)

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, 2, result.Attempts)
	require.NotNil(t, result.Recipe)
	assert.Equal(t, "Tofu Bowl", result.Recipe.Name)
	assert.InDelta(t, 0.0725, result.Deviation, 1e-6)
}

// recordingDraftStore captures every persisted draft in memory.
type recordingDraftStore struct {
	saved   []*RecipeDraft
	deleted []string
}

func (s *recordingDraftStore) SaveDraft(ctx context.Context, draft *RecipeDraft) error {
	draft.ID = fmt.Sprintf("draft-%d", len(s.saved)+1)
	s.saved = append(s.saved, draft)
	return nil
}

func (s *recordingDraftStore) GetDraft(ctx context.Context, id string) (*RecipeDraft, error) {
	for _, d := range s.saved {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, errors.New("draft not found")
}

func (s *recordingDraftStore) DeleteDraft(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestGenerateValidatedPersistsDraftsAndClearsOnAccept(t *testing.T) {
	gen := &scriptedGen{drafts: []string{
		draftJSON("Way Off", "rice"),
		draftJSON("On Target", "tofu"),
	}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"rice": fullEstimate(3000, 80, 300, 90),
		"tofu": fullEstimate(2000, 150, 225, 56),
	}}
	store := &recordingDraftStore{}
	v := NewGenerationValidator(gen, est, NewDietaryFilterService(nil), store, zap.NewNop())

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 3, nil)
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Status)

	require.Len(t, store.saved, 2)
	assert.Equal(t, 1, store.saved[0].Attempt)
	assert.Equal(t, "Way Off", store.saved[0].Data.Name)
	assert.Equal(t, 2, store.saved[1].Attempt)
	assert.Equal(t, "On Target", store.saved[1].Data.Name)
	assert.Equal(t, []string{"draft-1", "draft-2"}, store.deleted)
}

func TestGenerateValidatedKeepsDraftsWithoutAcceptance(t *testing.T) {
	// A malformed draft never reaches the store; parsed but rejected drafts
	// stay persisted for inspection when the budget runs out.
	gen := &scriptedGen{drafts: []string{
		"not json",
		draftJSON("Too Big", "rice"),
	}}
	est := &estimatorByIngredient{estimates: map[string]*Estimate{
		"rice": fullEstimate(3000, 80, 300, 90),
	}}
	store := &recordingDraftStore{}
	v := NewGenerationValidator(gen, est, NewDietaryFilterService(nil), store, zap.NewNop())

	result, err := v.GenerateValidated(context.Background(), generatorTarget(), types.DietaryConstraints{}, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusBudgetExhausted, result.Status)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "Too Big", store.saved[0].Data.Name)
	assert.Empty(t, store.deleted)
}

func TestWithinTolerance(t *testing.T) {
	target := generatorTarget()

	assert.True(t, withinTolerance(types.NutritionSummary{Calories: 2000, ProteinG: 150, CarbsG: 225, FatG: 56}, target))
	assert.True(t, withinTolerance(types.NutritionSummary{Calories: 2100, ProteinG: 160, CarbsG: 210, FatG: 60}, target))
	// One macro out of band fails the whole summary.
	assert.False(t, withinTolerance(types.NutritionSummary{Calories: 2000, ProteinG: 150, CarbsG: 225, FatG: 80}, target))
	assert.False(t, withinTolerance(types.NutritionSummary{Calories: 2500, ProteinG: 150, CarbsG: 225, FatG: 56}, target))
}
