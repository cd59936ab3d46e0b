package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/macromeal-backend/internal/types"
)

func validProfile() *types.UserProfile {
	return &types.UserProfile{
		HeightCM:      175,
		WeightKG:      70,
		Age:           30,
		Sex:           "male",
		ActivityLevel: "moderate",
		Goal:          "maintenance",
	}
}

func TestComputeTargetsMaintenance(t *testing.T) {
	svc := NewTargetService()

	target, err := svc.ComputeTargets(validProfile())
	require.NoError(t, err)

	assert.InDelta(t, 22.86, target.BMI, 0.01)
	// 10*70 + 6.25*175 - 5*30 + 5 = 1648.75
	assert.InDelta(t, 1648.75, target.BMR, 0.01)
	assert.InDelta(t, 1648.75*1.55, target.TDEE, 0.01)
	// maintenance keeps TDEE as the target
	assert.InDelta(t, target.TDEE, target.TargetCalories, 0.01)
	assert.Equal(t, "maintenance", target.Goal)
}

func TestComputeTargetsFemaleConstant(t *testing.T) {
	svc := NewTargetService()

	male := validProfile()
	female := validProfile()
	female.Sex = "female"

	mt, err := svc.ComputeTargets(male)
	require.NoError(t, err)
	ft, err := svc.ComputeTargets(female)
	require.NoError(t, err)

	assert.InDelta(t, 166, mt.BMR-ft.BMR, 0.001)
}

func TestComputeTargetsGoalOffsets(t *testing.T) {
	svc := NewTargetService()

	base := validProfile()
	maintenance, err := svc.ComputeTargets(base)
	require.NoError(t, err)

	deficit := validProfile()
	deficit.Goal = "deficit"
	dt, err := svc.ComputeTargets(deficit)
	require.NoError(t, err)
	assert.InDelta(t, maintenance.TDEE*0.85, dt.TargetCalories, 0.01)

	bulk := validProfile()
	bulk.Goal = "bulk"
	bt, err := svc.ComputeTargets(bulk)
	require.NoError(t, err)
	assert.InDelta(t, maintenance.TDEE*1.10, bt.TargetCalories, 0.01)

	assert.Less(t, dt.TargetCalories, maintenance.TargetCalories)
	assert.Greater(t, bt.TargetCalories, maintenance.TargetCalories)
}

func TestComputeTargetsMacrosReconcile(t *testing.T) {
	svc := NewTargetService()

	for _, goal := range []string{"deficit", "maintenance", "bulk"} {
		profile := validProfile()
		profile.Goal = goal

		target, err := svc.ComputeTargets(profile)
		require.NoError(t, err)

		// Macro grams times caloric density must reproduce target calories.
		assert.InDelta(t, target.TargetCalories, target.MacroCalories(), 1,
			"goal %s: macros do not reconcile", goal)
		assert.Greater(t, target.ProteinG, 0.0)
		assert.Greater(t, target.CarbsG, 0.0)
		assert.Greater(t, target.FatG, 0.0)
	}
}

func TestComputeTargetsFiber(t *testing.T) {
	svc := NewTargetService()

	target, err := svc.ComputeTargets(validProfile())
	require.NoError(t, err)

	assert.InDelta(t, target.TargetCalories/1000*14, target.FiberG, 0.001)
}

func TestComputeTargetsDeficitIsProteinHeavy(t *testing.T) {
	svc := NewTargetService()

	profile := validProfile()
	profile.Goal = "deficit"
	target, err := svc.ComputeTargets(profile)
	require.NoError(t, err)

	proteinShare := target.ProteinG * 4 / target.TargetCalories
	assert.InDelta(t, 0.40, proteinShare, 0.001)
}

func TestComputeTargetsValidation(t *testing.T) {
	svc := NewTargetService()

	cases := []struct {
		name   string
		mutate func(*types.UserProfile)
	}{
		{"zero height", func(p *types.UserProfile) { p.HeightCM = 0 }},
		{"negative weight", func(p *types.UserProfile) { p.WeightKG = -1 }},
		{"zero age", func(p *types.UserProfile) { p.Age = 0 }},
		{"age too high", func(p *types.UserProfile) { p.Age = 121 }},
		{"unknown sex", func(p *types.UserProfile) { p.Sex = "other" }},
		{"unknown activity", func(p *types.UserProfile) { p.ActivityLevel = "extreme" }},
		{"unknown goal", func(p *types.UserProfile) { p.Goal = "cutting" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profile := validProfile()
			tc.mutate(profile)

			target, err := svc.ComputeTargets(profile)
			assert.Nil(t, target)
			require.Error(t, err)

			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestComputeTargetsNilProfile(t *testing.T) {
	svc := NewTargetService()

	target, err := svc.ComputeTargets(nil)
	assert.Nil(t, target)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "profile", vErr.Field)
}

func TestComputeTargetsDeterministic(t *testing.T) {
	svc := NewTargetService()

	a, err := svc.ComputeTargets(validProfile())
	require.NoError(t, err)
	b, err := svc.ComputeTargets(validProfile())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.False(t, math.IsNaN(a.BMI))
}
