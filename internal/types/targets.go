package types

// NutritionTarget is the numeric goal derived from a UserProfile. All values
// are per day. Macro grams are kept as floats so that converting them back to
// calories reconciles with TargetCalories without rounding drift.
type NutritionTarget struct {
	BMI            float64 `json:"bmi"`
	BMR            float64 `json:"bmr"`
	TDEE           float64 `json:"tdee"`
	TargetCalories float64 `json:"target_calories"`
	ProteinG       float64 `json:"protein_g"`
	CarbsG         float64 `json:"carbs_g"`
	FatG           float64 `json:"fat_g"`
	FiberG         float64 `json:"fiber_g"`
	Goal           string  `json:"goal"`
}

// MacroCalories converts the macro split back into calories (4/4/9 kcal per
// gram of protein/carbs/fat).
func (t *NutritionTarget) MacroCalories() float64 {
	return t.ProteinG*4 + t.CarbsG*4 + t.FatG*9
}
