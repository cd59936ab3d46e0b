package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/macromeal-backend/internal/models"
	"github.com/pageza/macromeal-backend/internal/testhelpers"
	"github.com/pageza/macromeal-backend/internal/types"
)

func newSQLiteRecipeService(t *testing.T) *RecipeService {
	db := testhelpers.SetupSQLiteDatabase(t)
	return NewRecipeService(db, NewLocalEmbeddingService())
}

func TestRecipeServiceCreateAndGet(t *testing.T) {
	svc := newSQLiteRecipeService(t)
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, &models.Recipe{
		Name:        "Lentil Curry",
		Description: "A hearty curry",
		Ingredients: models.JSONBIngredients{
			{Name: "lentil", Quantity: "200", Unit: "g"},
		},
		Instructions: models.JSONBStringArray{"simmer"},
		Calories:     650,
		Protein:      32,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	// Creating without an embedding computes one.
	assert.NotEmpty(t, created.Embedding.Slice())

	got, err := svc.GetRecipe(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lentil Curry", got.Name)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, "lentil", got.Ingredients[0].Name)
	assert.Equal(t, 650.0, got.Calories)
}

func TestRecipeServiceGetMissing(t *testing.T) {
	svc := newSQLiteRecipeService(t)

	_, err := svc.GetRecipe(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestRecipeServiceListOrder(t *testing.T) {
	svc := newSQLiteRecipeService(t)
	ctx := context.Background()

	names := []string{"First", "Second", "Third"}
	base := time.Now().Add(-time.Hour)
	for i, name := range names {
		_, err := svc.CreateRecipe(ctx, &models.Recipe{
			Name:         name,
			Ingredients:  models.JSONBIngredients{{Name: "rice", Quantity: "1", Unit: "cup"}},
			Instructions: models.JSONBStringArray{"cook"},
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	listed, err := svc.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, name := range names {
		assert.Equal(t, name, listed[i].Name)
	}
}

func TestRecipeServiceSearchKeyword(t *testing.T) {
	svc := newSQLiteRecipeService(t)
	ctx := context.Background()

	recipes := []*models.Recipe{
		{
			Name:         "Chicken Teriyaki",
			Ingredients:  models.JSONBIngredients{{Name: "chicken", Quantity: "200", Unit: "g"}},
			Instructions: models.JSONBStringArray{"cook"},
		},
		{
			Name:         "Lentil Soup",
			Description:  "warming soup",
			Ingredients:  models.JSONBIngredients{{Name: "lentil", Quantity: "1", Unit: "cup"}},
			Instructions: models.JSONBStringArray{"simmer"},
		},
	}
	for _, r := range recipes {
		_, err := svc.CreateRecipe(ctx, r)
		require.NoError(t, err)
	}

	// Name match.
	found, err := svc.SearchRecipes(ctx, "teriyaki")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Chicken Teriyaki", found[0].Name)

	// Ingredient match.
	found, err = svc.SearchRecipes(ctx, "lentil")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Lentil Soup", found[0].Name)

	// Empty query returns everything.
	found, err = svc.SearchRecipes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestRecipeModelRoundTrip(t *testing.T) {
	svc := newSQLiteRecipeService(t)
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, recipeToModel(&types.Recipe{
		Name:        "Generated Bowl",
		Ingredients: []types.Ingredient{{Name: "tofu", Quantity: "150", Unit: "g"}},
		Calories:    700,
		ProteinG:    45,
		Generated:   true,
	}))
	require.NoError(t, err)

	got, err := svc.GetRecipe(ctx, created.ID)
	require.NoError(t, err)

	transport := got.ToType()
	assert.True(t, transport.Generated)
	assert.Equal(t, 45.0, transport.ProteinG)
	require.Len(t, transport.Ingredients, 1)
	assert.Equal(t, "tofu", transport.Ingredients[0].Name)
}
