package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/macromeal-backend/internal/types"
)

// LLMService handles interactions with the DeepSeek API. It implements the
// RecipeGenerator capability for the generation loop.
type LLMService struct {
	apiKey string
	apiURL string
	client *http.Client
	redis  *redis.Client
}

// NewLLMService creates a new LLMService instance
func NewLLMService(redisClient *redis.Client) (*LLMService, error) {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		apiKeyFile := os.Getenv("DEEPSEEK_API_KEY_FILE")
		if apiKeyFile == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY or DEEPSEEK_API_KEY_FILE must be set")
		}

		apiKeyBytes, err := os.ReadFile(apiKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read API key file: %w", err)
		}

		apiKey = strings.TrimSpace(string(apiKeyBytes))
		if apiKey == "" {
			return nil, fmt.Errorf("API key file is empty")
		}
	}

	apiURL := os.Getenv("DEEPSEEK_API_URL")
	if apiURL == "" {
		apiURL = "https://api.deepseek.com/v1/chat/completions"
	}

	return &LLMService{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: 60 * time.Second},
		redis:  redisClient,
	}, nil
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a request to the DeepSeek API
type Request struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	ResponseFormat   map[string]string `json:"response_format"`
	Temperature      float64           `json:"temperature"`
	TopP             float64           `json:"top_p"`
	FrequencyPenalty float64           `json:"frequency_penalty"`
	PresencePenalty  float64           `json:"presence_penalty"`
}

// ServingsType can handle both string and number values for servings
type ServingsType struct {
	Value string
}

func (s *ServingsType) UnmarshalJSON(data []byte) error {
	// Try to unmarshal as number first
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		s.Value = fmt.Sprintf("%d", int(num))
		return nil
	}

	// Try to unmarshal as string
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Value = str
		return nil
	}

	return fmt.Errorf("invalid servings format")
}

// MarshalJSON writes servings back as a plain string.
func (s ServingsType) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

// RecipeData is the structure a recipe draft is parsed from as returned by
// the model.
type RecipeData struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Category     string             `json:"category"`
	Cuisine      string             `json:"cuisine"`
	Ingredients  []types.Ingredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	PrepTime     string             `json:"prep_time"`
	CookTime     string             `json:"cook_time"`
	Servings     ServingsType       `json:"servings"`
	Difficulty   string             `json:"difficulty"`
	Tags         []string           `json:"tags"`
	Calories     float64            `json:"calories"`
	Protein      float64            `json:"protein"`
	Carbs        float64            `json:"carbs"`
	Fat          float64            `json:"fat"`
}

// ToRecipe converts parsed draft data into a transport recipe.
func (d *RecipeData) ToRecipe() *types.Recipe {
	return &types.Recipe{
		Name:         d.Name,
		Description:  d.Description,
		Category:     d.Category,
		Cuisine:      d.Cuisine,
		Ingredients:  d.Ingredients,
		Instructions: d.Instructions,
		Tags:         d.Tags,
		Calories:     d.Calories,
		ProteinG:     d.Protein,
		CarbsG:       d.Carbs,
		FatG:         d.Fat,
		Generated:    true,
	}
}

const recipeSystemPrompt = `You are a professional chef and nutritionist. Please provide your response in JSON format with the following structure:
{
    "name": "Recipe name",
    "description": "Brief description of the recipe",
    "category": "One of: Main Course, Dessert, Snack, Appetizer, Breakfast, Lunch, Dinner, Side Dish, Beverage, Soup, Salad",
    "cuisine": "One of: Italian, French, Chinese, Japanese, Thai, Indian, Mexican, Mediterranean, American, British, German, Korean, Spanish, Brazilian, Moroccan, Fusion, or Other",
    "ingredients": [
        {"name": "flour", "quantity": "2", "unit": "cups"},
        {"name": "egg", "quantity": "3", "unit": ""}
    ],
    "instructions": [
        "Step 1: Mix the dry ingredients",
        "Step 2: Add the wet ingredients"
    ],
    "prep_time": "Preparation time",
    "cook_time": "Cooking time",
    "servings": "Number of servings",
    "difficulty": "Easy/Medium/Hard",
    "tags": ["vegetarian", "gluten-free"],
    "calories": 350,
    "protein": 15,
    "carbs": 45,
    "fat": 12
}

Note: The calories, protein, carbs, and fat fields must be numbers, not strings.
Every ingredient must be an object with name, quantity and unit fields.
The category field MUST be one of the listed categories above.
The cuisine field MUST be one of the listed cuisines above.`

// GenerateRecipe produces one recipe draft for the prompt context. The
// returned string is the raw JSON payload from the model; the caller parses
// and validates it.
func (s *LLMService) GenerateRecipe(ctx context.Context, prompt PromptContext) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a recipe that provides approximately %.0f calories, %.0f g protein, %.0f g carbs and %.0f g fat, for a %s fitness goal.",
		prompt.Target.TargetCalories, prompt.Target.ProteinG, prompt.Target.CarbsG, prompt.Target.FatG, prompt.Target.Goal)

	if prompt.Constraints.Preference != "" {
		fmt.Fprintf(&b, " The recipe must be %s.", prompt.Constraints.Preference)
	}
	if len(prompt.Constraints.Allergens) > 0 {
		fmt.Fprintf(&b, " Strictly avoid: %s.", strings.Join(prompt.Constraints.Allergens, ", "))
	}
	if len(prompt.SeedTitles) > 0 {
		fmt.Fprintf(&b, " For inspiration, similar well-matched recipes include: %s.", strings.Join(prompt.SeedTitles, "; "))
	}
	if prompt.Guidance != "" {
		fmt.Fprintf(&b, " %s", prompt.Guidance)
	}

	messages := []Message{
		{Role: "system", Content: recipeSystemPrompt},
		{Role: "user", Content: b.String()},
	}

	reqBody := Request{
		Model:    "deepseek-chat",
		Messages: messages,
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
		Temperature:      0.9, // Higher temperature for more creativity
		TopP:             0.9,
		FrequencyPenalty: 0.5,
		PresencePenalty:  0.5,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

// ParseRecipeDraft parses raw model output into RecipeData. Malformed output
// is a GenerationAttemptFailed condition at the call site.
func ParseRecipeDraft(raw string) (*RecipeData, error) {
	var data RecipeData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to parse recipe draft: %w", err)
	}
	if data.Name == "" || len(data.Ingredients) == 0 {
		return nil, fmt.Errorf("recipe draft missing name or ingredients")
	}
	return &data, nil
}

// RecipeDraft represents a recipe in draft state, persisted in Redis while
// the generation loop is still working on it.
type RecipeDraft struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Attempt   int         `json:"attempt"`
	Data      *RecipeData `json:"data"`
}

// SaveDraft saves a recipe draft to Redis
func (s *LLMService) SaveDraft(ctx context.Context, draft *RecipeDraft) error {
	draft.ID = uuid.New().String()
	draft.CreatedAt = time.Now()
	draft.UpdatedAt = time.Now()

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	key := fmt.Sprintf("recipe:draft:%s", draft.ID)
	if err := s.redis.Set(ctx, key, data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save draft to Redis: %w", err)
	}

	return nil
}

// GetDraft retrieves a recipe draft from Redis
func (s *LLMService) GetDraft(ctx context.Context, id string) (*RecipeDraft, error) {
	key := fmt.Sprintf("recipe:draft:%s", id)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft from Redis: %w", err)
	}

	var draft RecipeDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	return &draft, nil
}

// DeleteDraft removes a recipe draft from Redis
func (s *LLMService) DeleteDraft(ctx context.Context, id string) error {
	key := fmt.Sprintf("recipe:draft:%s", id)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete draft from Redis: %w", err)
	}

	return nil
}
