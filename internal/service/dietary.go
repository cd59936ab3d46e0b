package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/macromeal-backend/internal/types"
)

// dietRules maps a dietary preference to the ingredient tags it forbids. New
// diets are added here as data; the filter itself never branches per diet.
var dietRules = map[string][]string{
	"omnivore":    {},
	"vegetarian":  {"meat", "poultry", "fish", "shellfish", "gelatin"},
	"pescatarian": {"meat", "poultry", "gelatin"},
	"vegan":       {"meat", "poultry", "fish", "shellfish", "gelatin", "dairy", "egg", "honey"},
}

// ingredientTags classifies common ingredients by substring match. The value
// is the set of diet tags the ingredient carries.
var ingredientTags = map[string][]string{
	"beef": {"meat"}, "pork": {"meat"}, "lamb": {"meat"}, "veal": {"meat"},
	"bacon": {"meat"}, "ham": {"meat"}, "sausage": {"meat"}, "chorizo": {"meat"},
	"steak": {"meat"}, "mince": {"meat"}, "venison": {"meat"},
	"chicken": {"poultry"}, "turkey": {"poultry"}, "duck": {"poultry"},
	"fish": {"fish"}, "salmon": {"fish"}, "tuna": {"fish"}, "cod": {"fish"},
	"haddock": {"fish"}, "anchov": {"fish"}, "sardine": {"fish"},
	"shrimp": {"shellfish"}, "prawn": {"shellfish"}, "crab": {"shellfish"},
	"lobster": {"shellfish"}, "mussel": {"shellfish"}, "oyster": {"shellfish"},
	"scallop": {"shellfish"}, "clam": {"shellfish"},
	"milk": {"dairy"}, "cheese": {"dairy"}, "butter": {"dairy"}, "cream": {"dairy"},
	"yogurt": {"dairy"}, "yoghurt": {"dairy"}, "ghee": {"dairy"}, "parmesan": {"dairy"},
	"mozzarella": {"dairy"}, "feta": {"dairy"},
	"egg": {"egg"}, "mayonnaise": {"egg"},
	"honey":   {"honey"},
	"gelatin": {"gelatin"}, "gelatine": {"gelatin"},
	// Plant staples, tagged so restricted diets don't reject them as unknown.
	"flour": {"plant"}, "rice": {"plant"}, "pasta": {"plant"}, "bread": {"plant"},
	"oat": {"plant"}, "quinoa": {"plant"}, "lentil": {"plant"}, "chickpea": {"plant"},
	"bean": {"plant"}, "tofu": {"plant"}, "tempeh": {"plant"}, "nut": {"plant"},
	"almond": {"plant"}, "peanut": {"plant"}, "cashew": {"plant"}, "walnut": {"plant"},
	"tomato": {"plant"}, "onion": {"plant"}, "garlic": {"plant"}, "pepper": {"plant"},
	"carrot": {"plant"}, "potato": {"plant"}, "spinach": {"plant"}, "kale": {"plant"},
	"broccoli": {"plant"}, "cauliflower": {"plant"}, "mushroom": {"plant"},
	"zucchini": {"plant"}, "courgette": {"plant"}, "cucumber": {"plant"},
	"lettuce": {"plant"}, "cabbage": {"plant"}, "celery": {"plant"},
	"avocado": {"plant"}, "banana": {"plant"}, "apple": {"plant"}, "lemon": {"plant"},
	"lime": {"plant"}, "orange": {"plant"}, "berr": {"plant"}, "mango": {"plant"},
	"coconut": {"plant"}, "olive": {"plant"}, "oil": {"plant"}, "vinegar": {"plant"},
	"sugar": {"plant"}, "salt": {"plant"}, "spice": {"plant"}, "herb": {"plant"},
	"basil": {"plant"}, "parsley": {"plant"}, "cilantro": {"plant"}, "coriander": {"plant"},
	"cumin": {"plant"}, "paprika": {"plant"}, "turmeric": {"plant"}, "ginger": {"plant"},
	"chili": {"plant"}, "chilli": {"plant"}, "soy sauce": {"plant"}, "miso": {"plant"},
	"maple": {"plant"}, "cocoa": {"plant"}, "chocolate": {"plant"}, "vanilla": {"plant"},
	"water": {"plant"}, "stock": {"plant"}, "broth": {"plant"}, "wine": {"plant"},
	"corn": {"plant"}, "pea": {"plant"}, "seed": {"plant"}, "sesame": {"plant"},
	"wheat": {"plant"}, "barley": {"plant"}, "couscous": {"plant"}, "noodle": {"plant"},
}

// ingredientTagOverrides wins over the substring table for names where a
// shorter token misfires: "eggplant" is not egg, "butternut" is not butter,
// plant milks are not dairy.
var ingredientTagOverrides = map[string][]string{
	"eggplant":      {"plant"},
	"aubergine":     {"plant"},
	"butternut":     {"plant"},
	"coconut milk":  {"plant"},
	"coconut cream": {"plant"},
	"almond milk":   {"plant"},
	"oat milk":      {"plant"},
	"soy milk":      {"plant"},
	"rice milk":     {"plant"},
	"peanut butter": {"plant"},
	"almond butter": {"plant"},
	"cocoa butter":  {"plant"},
}

// allergenSynonyms expands an allergen token to the ingredient substrings it
// should also match.
var allergenSynonyms = map[string][]string{
	"peanut":    {"groundnut"},
	"tree nut":  {"almond", "walnut", "cashew", "pecan", "pistachio", "hazelnut", "macadamia"},
	"gluten":    {"wheat", "barley", "rye", "flour", "bread", "pasta", "couscous"},
	"dairy":     {"milk", "cheese", "butter", "cream", "yogurt", "yoghurt", "ghee"},
	"egg":       {"mayonnaise"},
	"shellfish": {"shrimp", "prawn", "crab", "lobster", "mussel", "oyster", "scallop", "clam"},
	"soy":       {"soya", "tofu", "edamame", "tempeh", "miso"},
	"fish":      {"salmon", "tuna", "cod", "anchovy", "sardine"},
	"sesame":    {"tahini"},
}

// DietaryFilterService decides recipe admissibility against a profile's
// dietary preference and allergens. It is a pure predicate over its inputs;
// the only external call is the optional fallback tag lookup.
type DietaryFilterService struct {
	tagFallback IngredientTagLookup
}

// NewDietaryFilterService creates a new DietaryFilterService instance. The
// fallback lookup may be nil, in which case unknown ingredients exclude the
// recipe under any restricted diet.
func NewDietaryFilterService(tagFallback IngredientTagLookup) *DietaryFilterService {
	return &DietaryFilterService{tagFallback: tagFallback}
}

// CheckRecipe reports whether the recipe is admissible for the constraints
// and, on rejection, names the violated constraint.
func (s *DietaryFilterService) CheckRecipe(ctx context.Context, recipe *types.Recipe, constraints types.DietaryConstraints) (bool, string) {
	// Allergens first: a single matching ingredient rejects the recipe.
	for _, ing := range recipe.Ingredients {
		if allergen := matchAllergen(ing.Name, constraints.Allergens); allergen != "" {
			return false, fmt.Sprintf("allergen %q in ingredient %q", allergen, ing.Name)
		}
	}

	forbidden, known := dietRules[strings.ToLower(constraints.Preference)]
	if !known && constraints.Preference != "" {
		return false, fmt.Sprintf("unknown dietary preference %q", constraints.Preference)
	}
	if len(forbidden) == 0 {
		return true, ""
	}

	forbiddenSet := make(map[string]bool, len(forbidden))
	for _, tag := range forbidden {
		forbiddenSet[tag] = true
	}

	// Recipe-level diet labels are checked before ingredients so an
	// explicitly tagged recipe fails fast.
	for _, tag := range recipe.Tags {
		if forbiddenSet[strings.ToLower(tag)] {
			return false, fmt.Sprintf("diet %q forbids tag %q", constraints.Preference, tag)
		}
	}

	for _, ing := range recipe.Ingredients {
		tags := classifyIngredient(ing.Name)
		if tags == nil && s.tagFallback != nil {
			looked, err := s.tagFallback.LookupTags(ctx, ing.Name)
			if err == nil {
				tags = looked
			}
			// A failed lookup leaves tags nil: the ingredient stays
			// unknown rather than being silently admitted.
		}
		if tags == nil {
			return false, fmt.Sprintf("unknown ingredient %q", ing.Name)
		}
		for _, tag := range tags {
			if forbiddenSet[strings.ToLower(tag)] {
				return false, fmt.Sprintf("diet %q forbids %q (ingredient %q)", constraints.Preference, tag, ing.Name)
			}
		}
	}

	return true, ""
}

// FilterRecipes returns the admissible subset of the corpus in its original
// order, which the ranker relies on for deterministic tie-breaking.
func (s *DietaryFilterService) FilterRecipes(ctx context.Context, recipes []*types.Recipe, constraints types.DietaryConstraints) []*types.Recipe {
	admissible := make([]*types.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if ok, _ := s.CheckRecipe(ctx, r, constraints); ok {
			admissible = append(admissible, r)
		}
	}
	return admissible
}

// matchAllergen returns the first allergen whose token or synonym appears in
// the ingredient name, case-insensitively.
func matchAllergen(ingredient string, allergens []string) string {
	name := strings.ToLower(ingredient)
	for _, allergen := range allergens {
		token := strings.ToLower(strings.TrimSpace(allergen))
		if token == "" {
			continue
		}
		if strings.Contains(name, token) {
			return allergen
		}
		for _, syn := range allergenSynonyms[token] {
			if strings.Contains(name, syn) {
				return allergen
			}
		}
	}
	return ""
}

// classifyIngredient returns the diet tags for an ingredient name, or nil if
// the ingredient is not covered by the built-in table.
func classifyIngredient(name string) []string {
	lower := strings.ToLower(name)
	for substr, t := range ingredientTagOverrides {
		if strings.Contains(lower, substr) {
			return t
		}
	}
	var tags []string
	for substr, t := range ingredientTags {
		if strings.Contains(lower, substr) {
			tags = append(tags, t...)
		}
	}
	return tags
}
