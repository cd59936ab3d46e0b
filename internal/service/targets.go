package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pageza/macromeal-backend/internal/types"
)

// activityMultipliers maps activity levels to their TDEE multiplier. This is
// the single source of truth for valid activity levels.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// goalCalorieOffsets adjusts TDEE to the target by a fixed percentage per
// fitness goal.
var goalCalorieOffsets = map[string]float64{
	"deficit":     -0.15,
	"maintenance": 0,
	"bulk":        0.10,
}

// macroSplit is the percent-of-calories breakdown for one goal.
type macroSplit struct {
	Protein float64
	Carbs   float64
	Fat     float64
}

// goalMacroSplits keys the macro split tables by fitness goal. Percentages
// sum to 1 so macro grams reconcile exactly with target calories.
var goalMacroSplits = map[string]macroSplit{
	"deficit":     {Protein: 0.40, Carbs: 0.40, Fat: 0.20},
	"maintenance": {Protein: 0.30, Carbs: 0.45, Fat: 0.25},
	"bulk":        {Protein: 0.30, Carbs: 0.50, Fat: 0.20},
}

// Caloric density of each macro in kcal per gram.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// fiberGramsPer1000Kcal is the recommended fiber intake rate.
const fiberGramsPer1000Kcal = 14

// TargetService converts a user profile into numeric nutrition targets. It is
// pure: no I/O, no state beyond the validator instance.
type TargetService struct {
	validate *validator.Validate
}

// NewTargetService creates a new TargetService instance
func NewTargetService() *TargetService {
	return &TargetService{
		validate: validator.New(),
	}
}

// ComputeTargets derives BMI, BMR (Mifflin-St Jeor), TDEE, target calories
// and the macro split from a profile. It fails with a ValidationError when
// any field is out of its declared range.
func (s *TargetService) ComputeTargets(profile *types.UserProfile) (*types.NutritionTarget, error) {
	if err := s.validateProfile(profile); err != nil {
		return nil, err
	}

	heightM := profile.HeightCM / 100
	bmi := profile.WeightKG / (heightM * heightM)

	// Mifflin-St Jeor: sex decides only the additive constant.
	bmr := 10*profile.WeightKG + 6.25*profile.HeightCM - 5*float64(profile.Age)
	if profile.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	tdee := bmr * activityMultipliers[profile.ActivityLevel]
	targetCalories := tdee * (1 + goalCalorieOffsets[profile.Goal])

	split := goalMacroSplits[profile.Goal]

	return &types.NutritionTarget{
		BMI:            bmi,
		BMR:            bmr,
		TDEE:           tdee,
		TargetCalories: targetCalories,
		ProteinG:       targetCalories * split.Protein / kcalPerGramProtein,
		CarbsG:         targetCalories * split.Carbs / kcalPerGramCarbs,
		FatG:           targetCalories * split.Fat / kcalPerGramFat,
		FiberG:         targetCalories / 1000 * fiberGramsPer1000Kcal,
		Goal:           profile.Goal,
	}, nil
}

func (s *TargetService) validateProfile(profile *types.UserProfile) error {
	if profile == nil {
		return &ValidationError{Field: "profile", Message: "must not be nil"}
	}

	if err := s.validate.Struct(profile); err != nil {
		var fieldErrs validator.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
			}
		}
		return &ValidationError{Field: "profile", Message: err.Error()}
	}

	// The oneof tags already pin these, but the tables are the source of
	// truth for valid members.
	if _, ok := activityMultipliers[profile.ActivityLevel]; !ok {
		return &ValidationError{Field: "ActivityLevel", Message: fmt.Sprintf("unknown level %q", profile.ActivityLevel)}
	}
	if _, ok := goalMacroSplits[profile.Goal]; !ok {
		return &ValidationError{Field: "Goal", Message: fmt.Sprintf("unknown goal %q", profile.Goal)}
	}

	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = fieldErrs
	}
	return ok
}
