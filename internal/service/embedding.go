package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// localEmbeddingDim is the dimensionality of the fallback embedding space.
// It must match the recipes.embedding column, which is sized for the remote
// embedding model.
const localEmbeddingDim = 1536

// LocalEmbeddingService produces a deterministic embedding without any
// external call: a hashed bag-of-words vector, L2 normalized. Good enough
// for tests and for running without an embedding API configured.
type LocalEmbeddingService struct{}

// NewLocalEmbeddingService creates a new LocalEmbeddingService instance
func NewLocalEmbeddingService() *LocalEmbeddingService {
	return &LocalEmbeddingService{}
}

// GenerateEmbedding hashes each token into a fixed-size vector and
// normalizes the result. Identical text always yields an identical vector.
func (s *LocalEmbeddingService) GenerateEmbedding(text string) (pgvector.Vector, error) {
	vec := make([]float32, localEmbeddingDim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(token, ".,;:()")))
		vec[h.Sum32()%localEmbeddingDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return pgvector.NewVector(vec), nil
}

// EmbeddingService calls an OpenAI-compatible embeddings endpoint.
type EmbeddingService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// NewEmbeddingService creates a new EmbeddingService instance from
// EMBEDDING_API_KEY / EMBEDDING_API_URL / EMBEDDING_MODEL.
func NewEmbeddingService() (*EmbeddingService, error) {
	apiKey := os.Getenv("EMBEDDING_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("EMBEDDING_API_KEY must be set")
	}

	apiURL := os.Getenv("EMBEDDING_API_URL")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/embeddings"
	}

	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &EmbeddingService{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// GenerateEmbedding sends the text to the embeddings endpoint and returns the
// resulting vector.
func (s *EmbeddingService) GenerateEmbedding(text string) (pgvector.Vector, error) {
	reqBody := struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}{Model: s.model, Input: text}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return pgvector.Vector{}, fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return pgvector.Vector{}, fmt.Errorf("no embedding in response")
	}

	return pgvector.NewVector(result.Data[0].Embedding), nil
}
