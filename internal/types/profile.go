package types

// UserProfile carries the fitness attributes a recommendation request is
// computed from. It is built per request and never persisted by the engine.
type UserProfile struct {
	HeightCM          float64  `json:"height_cm" binding:"required" validate:"gt=0"`
	WeightKG          float64  `json:"weight_kg" binding:"required" validate:"gt=0"`
	Age               int      `json:"age" binding:"required" validate:"min=1,max=120"`
	Sex               string   `json:"sex" binding:"required" validate:"oneof=male female"`
	ActivityLevel     string   `json:"activity_level" binding:"required" validate:"oneof=sedentary light moderate active very_active"`
	Goal              string   `json:"goal" binding:"required" validate:"oneof=deficit maintenance bulk"`
	DietaryPreference string   `json:"dietary_preference"`
	Allergens         []string `json:"allergens"`
	RecipeCount       int      `json:"recipe_count" validate:"omitempty,min=1"`
}

// Constraints returns the dietary portion of the profile, which is what the
// filter and the generation loop care about.
func (p *UserProfile) Constraints() DietaryConstraints {
	return DietaryConstraints{
		Preference: p.DietaryPreference,
		Allergens:  p.Allergens,
	}
}

// DietaryConstraints is the admissibility requirement derived from a profile.
type DietaryConstraints struct {
	Preference string   `json:"preference"`
	Allergens  []string `json:"allergens"`
}
