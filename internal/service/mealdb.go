package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/types"
)

const defaultMealDBBaseURL = "https://www.themealdb.com/api/json/v1/1"

// MealDBClient fetches recipes from TheMealDB, the corpus seed source.
type MealDBClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewMealDBClient creates a new MealDBClient instance
func NewMealDBClient(logger *zap.Logger) *MealDBClient {
	baseURL := os.Getenv("MEALDB_BASE_URL")
	if baseURL == "" {
		baseURL = defaultMealDBBaseURL
	}

	return &MealDBClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// mealDBMeal mirrors TheMealDB's flattened meal payload. Ingredients and
// measures live in twenty numbered pairs.
type mealDBMeal struct {
	ID           string `json:"idMeal"`
	Name         string `json:"strMeal"`
	Category     string `json:"strCategory"`
	Area         string `json:"strArea"`
	Instructions string `json:"strInstructions"`
	Thumb        string `json:"strMealThumb"`
	Tags         string `json:"strTags"`

	Ingredient1  string `json:"strIngredient1"`
	Ingredient2  string `json:"strIngredient2"`
	Ingredient3  string `json:"strIngredient3"`
	Ingredient4  string `json:"strIngredient4"`
	Ingredient5  string `json:"strIngredient5"`
	Ingredient6  string `json:"strIngredient6"`
	Ingredient7  string `json:"strIngredient7"`
	Ingredient8  string `json:"strIngredient8"`
	Ingredient9  string `json:"strIngredient9"`
	Ingredient10 string `json:"strIngredient10"`
	Ingredient11 string `json:"strIngredient11"`
	Ingredient12 string `json:"strIngredient12"`
	Ingredient13 string `json:"strIngredient13"`
	Ingredient14 string `json:"strIngredient14"`
	Ingredient15 string `json:"strIngredient15"`
	Ingredient16 string `json:"strIngredient16"`
	Ingredient17 string `json:"strIngredient17"`
	Ingredient18 string `json:"strIngredient18"`
	Ingredient19 string `json:"strIngredient19"`
	Ingredient20 string `json:"strIngredient20"`

	Measure1  string `json:"strMeasure1"`
	Measure2  string `json:"strMeasure2"`
	Measure3  string `json:"strMeasure3"`
	Measure4  string `json:"strMeasure4"`
	Measure5  string `json:"strMeasure5"`
	Measure6  string `json:"strMeasure6"`
	Measure7  string `json:"strMeasure7"`
	Measure8  string `json:"strMeasure8"`
	Measure9  string `json:"strMeasure9"`
	Measure10 string `json:"strMeasure10"`
	Measure11 string `json:"strMeasure11"`
	Measure12 string `json:"strMeasure12"`
	Measure13 string `json:"strMeasure13"`
	Measure14 string `json:"strMeasure14"`
	Measure15 string `json:"strMeasure15"`
	Measure16 string `json:"strMeasure16"`
	Measure17 string `json:"strMeasure17"`
	Measure18 string `json:"strMeasure18"`
	Measure19 string `json:"strMeasure19"`
	Measure20 string `json:"strMeasure20"`
}

func (m *mealDBMeal) ingredientPairs() [][2]string {
	return [][2]string{
		{m.Ingredient1, m.Measure1}, {m.Ingredient2, m.Measure2},
		{m.Ingredient3, m.Measure3}, {m.Ingredient4, m.Measure4},
		{m.Ingredient5, m.Measure5}, {m.Ingredient6, m.Measure6},
		{m.Ingredient7, m.Measure7}, {m.Ingredient8, m.Measure8},
		{m.Ingredient9, m.Measure9}, {m.Ingredient10, m.Measure10},
		{m.Ingredient11, m.Measure11}, {m.Ingredient12, m.Measure12},
		{m.Ingredient13, m.Measure13}, {m.Ingredient14, m.Measure14},
		{m.Ingredient15, m.Measure15}, {m.Ingredient16, m.Measure16},
		{m.Ingredient17, m.Measure17}, {m.Ingredient18, m.Measure18},
		{m.Ingredient19, m.Measure19}, {m.Ingredient20, m.Measure20},
	}
}

// GetCategories returns the names of all meal categories.
func (c *MealDBClient) GetCategories(ctx context.Context) ([]string, error) {
	var result struct {
		Categories []struct {
			Name string `json:"strCategory"`
		} `json:"categories"`
	}
	if err := c.get(ctx, "/categories.php", nil, &result); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result.Categories))
	for _, cat := range result.Categories {
		names = append(names, cat.Name)
	}
	return names, nil
}

// GetRecipesByCategory returns the full recipes of one category. TheMealDB's
// filter endpoint only returns summaries, so each meal is looked up
// individually.
func (c *MealDBClient) GetRecipesByCategory(ctx context.Context, category string) ([]*types.Recipe, error) {
	var filtered struct {
		Meals []struct {
			ID string `json:"idMeal"`
		} `json:"meals"`
	}
	if err := c.get(ctx, "/filter.php", url.Values{"c": {category}}, &filtered); err != nil {
		return nil, err
	}

	recipes := make([]*types.Recipe, 0, len(filtered.Meals))
	for _, meal := range filtered.Meals {
		recipe, err := c.GetRecipe(ctx, meal.ID)
		if err != nil {
			c.logger.Warn("failed to fetch meal",
				zap.String("meal_id", meal.ID),
				zap.Error(err))
			continue
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

// GetRecipe looks up one meal by TheMealDB id.
func (c *MealDBClient) GetRecipe(ctx context.Context, id string) (*types.Recipe, error) {
	var result struct {
		Meals []mealDBMeal `json:"meals"`
	}
	if err := c.get(ctx, "/lookup.php", url.Values{"i": {id}}, &result); err != nil {
		return nil, err
	}
	if len(result.Meals) == 0 {
		return nil, fmt.Errorf("meal %s not found", id)
	}
	return convertMeal(&result.Meals[0]), nil
}

func (c *MealDBClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TheMealDB request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// convertMeal maps TheMealDB's flattened shape to a corpus recipe.
func convertMeal(meal *mealDBMeal) *types.Recipe {
	var ingredients []types.Ingredient
	for _, pair := range meal.ingredientPairs() {
		name := strings.TrimSpace(pair[0])
		if name == "" {
			continue
		}
		quantity, unit := splitMeasure(pair[1])
		ingredients = append(ingredients, types.Ingredient{
			Name:     name,
			Quantity: quantity,
			Unit:     unit,
		})
	}

	var tags []string
	for _, tag := range strings.Split(meal.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, strings.ToLower(tag))
		}
	}

	var instructions []string
	for _, line := range strings.Split(meal.Instructions, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			instructions = append(instructions, line)
		}
	}

	return &types.Recipe{
		Name:         meal.Name,
		Description:  fmt.Sprintf("%s %s from TheMealDB", meal.Area, meal.Category),
		Category:     meal.Category,
		Cuisine:      meal.Area,
		ImageURL:     meal.Thumb,
		Ingredients:  ingredients,
		Instructions: instructions,
		Tags:         tags,
	}
}

// splitMeasure separates a kitchen measure like "1 1/2 cups" into its
// numeric part and its unit.
func splitMeasure(measure string) (quantity, unit string) {
	fields := strings.Fields(strings.TrimSpace(measure))
	i := 0
	for _, f := range fields {
		if _, ok := parseAmount(f); !ok {
			break
		}
		i++
	}
	return strings.Join(fields[:i], " "), strings.Join(fields[i:], " ")
}
