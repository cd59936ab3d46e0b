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
)

const defaultUSDASearchURL = "https://api.nal.usda.gov/fdc/v1/foods/search"

// USDAClient resolves ingredient names against the USDA FoodData Central
// search API. It implements NutrientLookup.
type USDAClient struct {
	apiKey    string
	searchURL string
	client    *http.Client
	logger    *zap.Logger
}

// NewUSDAClient creates a new USDAClient instance. The API key comes from
// USDA_API_KEY or USDA_API_KEY_FILE.
func NewUSDAClient(logger *zap.Logger) (*USDAClient, error) {
	apiKey := os.Getenv("USDA_API_KEY")
	if apiKey == "" {
		apiKeyFile := os.Getenv("USDA_API_KEY_FILE")
		if apiKeyFile == "" {
			return nil, fmt.Errorf("USDA_API_KEY or USDA_API_KEY_FILE must be set")
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

	searchURL := os.Getenv("USDA_SEARCH_URL")
	if searchURL == "" {
		searchURL = defaultUSDASearchURL
	}

	return &USDAClient{
		apiKey:    apiKey,
		searchURL: searchURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}, nil
}

// usdaSearchResponse is the subset of the FDC search payload we read.
type usdaSearchResponse struct {
	Foods []struct {
		Description   string `json:"description"`
		FoodNutrients []struct {
			NutrientName string  `json:"nutrientName"`
			Value        float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// LookupNutrients searches for the ingredient and maps the first hit to
// per-100g nutrients. A miss is ErrNutrientNotFound.
func (c *USDAClient) LookupNutrients(ctx context.Context, name string) (*NutrientsPer100g, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", name)
	params.Set("pageSize", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}

	var result usdaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Foods) == 0 {
		return nil, ErrNutrientNotFound
	}

	nutrients := make(map[string]float64, len(result.Foods[0].FoodNutrients))
	for _, n := range result.Foods[0].FoodNutrients {
		nutrients[strings.ToLower(n.NutrientName)] = n.Value
	}

	c.logger.Debug("resolved ingredient",
		zap.String("ingredient", name),
		zap.String("match", result.Foods[0].Description))

	return &NutrientsPer100g{
		Calories: nutrients["energy"],
		Protein:  nutrients["protein"],
		Carbs:    nutrients["carbohydrate, by difference"],
		Fat:      nutrients["total lipid (fat)"],
		Fiber:    nutrients["fiber, total dietary"],
	}, nil
}
