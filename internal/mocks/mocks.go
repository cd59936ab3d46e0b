package mocks

import (
	"context"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/macromeal-backend/internal/models"
	"github.com/pageza/macromeal-backend/internal/service"
	"github.com/pageza/macromeal-backend/internal/types"
)

// MockEmbedder is a mock implementation of the Embedder interface
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) GenerateEmbedding(text string) (pgvector.Vector, error) {
	args := m.Called(text)
	return args.Get(0).(pgvector.Vector), args.Error(1)
}

// StaticEmbedder returns the same vector for every input. Useful when a test
// only needs embedding to succeed, not to discriminate.
type StaticEmbedder struct {
	Vec []float32
}

func (e *StaticEmbedder) GenerateEmbedding(text string) (pgvector.Vector, error) {
	if e.Vec == nil {
		return pgvector.NewVector([]float32{0.1, 0.2, 0.3}), nil
	}
	return pgvector.NewVector(e.Vec), nil
}

// MockNutrientLookup is a mock implementation of the NutrientLookup interface
type MockNutrientLookup struct {
	mock.Mock
}

func (m *MockNutrientLookup) LookupNutrients(ctx context.Context, name string) (*service.NutrientsPer100g, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NutrientsPer100g), args.Error(1)
}

// TableNutrientLookup resolves from a fixed table and reports
// ErrNutrientNotFound for anything else.
type TableNutrientLookup struct {
	Table map[string]service.NutrientsPer100g
}

func (t *TableNutrientLookup) LookupNutrients(ctx context.Context, name string) (*service.NutrientsPer100g, error) {
	if n, ok := t.Table[name]; ok {
		return &n, nil
	}
	return nil, service.ErrNutrientNotFound
}

// MockRecipeGenerator is a mock implementation of the RecipeGenerator interface
type MockRecipeGenerator struct {
	mock.Mock
}

func (m *MockRecipeGenerator) GenerateRecipe(ctx context.Context, prompt service.PromptContext) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// ScriptedGenerator replays a fixed sequence of drafts, one per call, and
// records the prompts it saw.
type ScriptedGenerator struct {
	Drafts  []string
	Errs    []error
	Prompts []service.PromptContext
	calls   int
}

func (g *ScriptedGenerator) GenerateRecipe(ctx context.Context, prompt service.PromptContext) (string, error) {
	g.Prompts = append(g.Prompts, prompt)
	i := g.calls
	g.calls++
	if i < len(g.Errs) && g.Errs[i] != nil {
		return "", g.Errs[i]
	}
	if i < len(g.Drafts) {
		return g.Drafts[i], nil
	}
	return "", context.DeadlineExceeded
}

// MockRecipeCorpus is a mock implementation of the RecipeCorpus interface
type MockRecipeCorpus struct {
	mock.Mock
}

func (m *MockRecipeCorpus) ListRecipes(ctx context.Context) ([]*models.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Recipe), args.Error(1)
}

func (m *MockRecipeCorpus) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeCorpus) CreateRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	args := m.Called(ctx, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeCorpus) SearchRecipes(ctx context.Context, query string) ([]*models.Recipe, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Recipe), args.Error(1)
}

// MockNutritionEstimator is a mock implementation of NutritionEstimatorInterface
type MockNutritionEstimator struct {
	mock.Mock
}

func (m *MockNutritionEstimator) EstimateNutrition(ctx context.Context, ingredients []types.Ingredient) (*service.Estimate, error) {
	args := m.Called(ctx, ingredients)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Estimate), args.Error(1)
}

// MockDraftStore is a mock implementation of the DraftStore interface
type MockDraftStore struct {
	mock.Mock
}

func (m *MockDraftStore) SaveDraft(ctx context.Context, draft *service.RecipeDraft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *MockDraftStore) GetDraft(ctx context.Context, id string) (*service.RecipeDraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeDraft), args.Error(1)
}

func (m *MockDraftStore) DeleteDraft(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIngredientTagLookup is a mock implementation of the IngredientTagLookup interface
type MockIngredientTagLookup struct {
	mock.Mock
}

func (m *MockIngredientTagLookup) LookupTags(ctx context.Context, ingredient string) ([]string, error) {
	args := m.Called(ctx, ingredient)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
