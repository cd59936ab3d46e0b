package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const mealFixture = `{
    "meals": [{
        "idMeal": "52772",
        "strMeal": "Teriyaki Chicken Casserole",
        "strCategory": "Chicken",
        "strArea": "Japanese",
        "strInstructions": "Preheat oven to 350.\nCombine everything.\n\nBake for 45 minutes.",
        "strMealThumb": "https://www.themealdb.com/images/media/meals/wvpsxx.jpg",
        "strTags": "Meat,Casserole",
        "strIngredient1": "soy sauce",
        "strIngredient2": "water",
        "strIngredient3": "brown sugar",
        "strIngredient4": "chicken breasts",
        "strIngredient5": "",
        "strMeasure1": "3/4 cup",
        "strMeasure2": "1/2 cup",
        "strMeasure3": "1/4 cup",
        "strMeasure4": "2",
        "strMeasure5": ""
    }]
}`

func mealDBTestServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/categories.php":
			fmt.Fprint(w, `{"categories":[{"strCategory":"Beef"},{"strCategory":"Chicken"},{"strCategory":"Vegan"}]}`)
		case "/filter.php":
			fmt.Fprint(w, `{"meals":[{"idMeal":"52772"}]}`)
		case "/lookup.php":
			if r.URL.Query().Get("i") == "52772" {
				fmt.Fprint(w, mealFixture)
			} else {
				fmt.Fprint(w, `{"meals":null}`)
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func newMealDBTestClient(t *testing.T, baseURL string) *MealDBClient {
	t.Setenv("MEALDB_BASE_URL", baseURL)
	return NewMealDBClient(zap.NewNop())
}

func TestMealDBGetCategories(t *testing.T) {
	server := mealDBTestServer()
	defer server.Close()

	client := newMealDBTestClient(t, server.URL)
	categories, err := client.GetCategories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Beef", "Chicken", "Vegan"}, categories)
}

func TestMealDBGetRecipe(t *testing.T) {
	server := mealDBTestServer()
	defer server.Close()

	client := newMealDBTestClient(t, server.URL)
	recipe, err := client.GetRecipe(context.Background(), "52772")
	require.NoError(t, err)

	assert.Equal(t, "Teriyaki Chicken Casserole", recipe.Name)
	assert.Equal(t, "Chicken", recipe.Category)
	assert.Equal(t, "Japanese", recipe.Cuisine)
	assert.Equal(t, []string{"meat", "casserole"}, recipe.Tags)

	// Empty numbered slots are dropped.
	require.Len(t, recipe.Ingredients, 4)
	assert.Equal(t, "soy sauce", recipe.Ingredients[0].Name)
	assert.Equal(t, "3/4", recipe.Ingredients[0].Quantity)
	assert.Equal(t, "cup", recipe.Ingredients[0].Unit)
	assert.Equal(t, "2", recipe.Ingredients[3].Quantity)
	assert.Equal(t, "", recipe.Ingredients[3].Unit)

	// Blank instruction lines are dropped.
	assert.Equal(t, []string{
		"Preheat oven to 350.",
		"Combine everything.",
		"Bake for 45 minutes.",
	}, recipe.Instructions)
}

func TestMealDBGetRecipeNotFound(t *testing.T) {
	server := mealDBTestServer()
	defer server.Close()

	client := newMealDBTestClient(t, server.URL)
	_, err := client.GetRecipe(context.Background(), "99999")
	assert.Error(t, err)
}

func TestMealDBGetRecipesByCategory(t *testing.T) {
	server := mealDBTestServer()
	defer server.Close()

	client := newMealDBTestClient(t, server.URL)
	recipes, err := client.GetRecipesByCategory(context.Background(), "Chicken")
	require.NoError(t, err)

	require.Len(t, recipes, 1)
	assert.Equal(t, "Teriyaki Chicken Casserole", recipes[0].Name)
}

func TestSplitMeasure(t *testing.T) {
	cases := []struct {
		measure  string
		quantity string
		unit     string
	}{
		{"3/4 cup", "3/4", "cup"},
		{"1 1/2 cups", "1 1/2", "cups"},
		{"2", "2", ""},
		{"pinch", "", "pinch"},
		{"200 g", "200", "g"},
		{"", "", ""},
	}

	for _, tc := range cases {
		quantity, unit := splitMeasure(tc.measure)
		assert.Equal(t, tc.quantity, quantity, "measure %q", tc.measure)
		assert.Equal(t, tc.unit, unit, "measure %q", tc.measure)
	}
}
