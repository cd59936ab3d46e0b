package service

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbeddingDeterministic(t *testing.T) {
	svc := NewLocalEmbeddingService()

	a, err := svc.GenerateEmbedding("grilled chicken with rice")
	require.NoError(t, err)
	b, err := svc.GenerateEmbedding("grilled chicken with rice")
	require.NoError(t, err)

	assert.Equal(t, a.Slice(), b.Slice())
	assert.Len(t, a.Slice(), 1536)
}

func TestLocalEmbeddingNormalized(t *testing.T) {
	svc := NewLocalEmbeddingService()

	vec, err := svc.GenerateEmbedding("lentil curry with coconut milk")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec.Slice() {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 0.001)
}

func TestLocalEmbeddingSimilarTextCloser(t *testing.T) {
	svc := NewLocalEmbeddingService()

	base, _ := svc.GenerateEmbedding("chicken rice bowl with broccoli")
	similar, _ := svc.GenerateEmbedding("chicken rice bowl with carrots")
	different, _ := svc.GenerateEmbedding("chocolate fudge brownie dessert")

	assert.Greater(t, cosineSimilarity(base, similar), cosineSimilarity(base, different))
}

func TestLocalEmbeddingEmptyText(t *testing.T) {
	svc := NewLocalEmbeddingService()

	vec, err := svc.GenerateEmbedding("")
	require.NoError(t, err)

	for _, v := range vec.Slice() {
		assert.Zero(t, v)
	}
}

func TestEmbeddingServiceRemoteCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer server.Close()

	t.Setenv("EMBEDDING_API_KEY", "test-key")
	t.Setenv("EMBEDDING_API_URL", server.URL)
	svc, err := NewEmbeddingService()
	require.NoError(t, err)

	vec, err := svc.GenerateEmbedding("some recipe text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec.Slice())
}

func TestNewEmbeddingServiceRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_API_KEY", "")

	_, err := NewEmbeddingService()
	assert.Error(t, err)
}
