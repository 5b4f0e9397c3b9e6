package rag

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"codexai-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(id string, embedding []float32, createdAt time.Time) *model.RagChunk {
	return &model.RagChunk{
		ID:         id,
		SourceType: model.SourceTypePublicStatute,
		ChunkText:  "texte " + id,
		Embedding:  embedding,
		Metadata:   model.ChunkMetadata{"article": id, "code": "Code Civil"},
		CreatedAt:  createdAt,
	}
}

func TestCosineSimilaritySelf(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	v := make([]float32, 64)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}

	sim, err := CosineSimilarity(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-6)
}

func TestCosineSimilarityNegation(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	neg := make([]float32, len(v))
	for i := range v {
		neg[i] = -v[i]
	}

	sim, err := CosineSimilarity(v, neg)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-6)
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Want)
	assert.Equal(t, 3, mismatch.Got)
}

func TestRankOrdersByDescendingSimilarity(t *testing.T) {
	now := time.Now()
	query := []float32{1, 0}
	candidates := []*model.RagChunk{
		testChunk("far", []float32{0, 1}, now),
		testChunk("near", []float32{1, 0.05}, now),
		testChunk("mid", []float32{1, 1}, now),
	}

	results := Rank(query, candidates, 10, -1)
	require.Len(t, results, 3)
	assert.Equal(t, "near", results[0].Chunk.ID)
	assert.Equal(t, "mid", results[1].Chunk.ID)
	assert.Equal(t, "far", results[2].Chunk.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestRankThresholdFiltering(t *testing.T) {
	now := time.Now()
	query := []float32{1, 0}
	candidates := []*model.RagChunk{
		testChunk("aligned", []float32{2, 0}, now),
		testChunk("orthogonal", []float32{0, 3}, now),
	}

	results := Rank(query, candidates, 10, 0.5)
	require.Len(t, results, 1)
	assert.Equal(t, "aligned", results[0].Chunk.ID)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, 0.5)
	}
}

func TestRankTruncatesToLimit(t *testing.T) {
	now := time.Now()
	query := []float32{1, 0}
	var candidates []*model.RagChunk
	for i := 0; i < 20; i++ {
		candidates = append(candidates, testChunk(fmt.Sprintf("c%d", i), []float32{1, float32(i) * 0.01}, now))
	}

	results := Rank(query, candidates, 5, 0)
	assert.Len(t, results, 5)
}

func TestRankTieBreakByCreatedAt(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	query := []float32{1, 0}
	// Identical embeddings give identical similarity; the older chunk
	// must come first.
	candidates := []*model.RagChunk{
		testChunk("newer", []float32{1, 0}, base.Add(time.Hour)),
		testChunk("older", []float32{1, 0}, base),
	}

	results := Rank(query, candidates, 10, 0)
	require.Len(t, results, 2)
	assert.Equal(t, "older", results[0].Chunk.ID)
	assert.Equal(t, "newer", results[1].Chunk.ID)
}

func TestRankSkipsMismatchedCandidate(t *testing.T) {
	now := time.Now()
	query := []float32{1, 0}
	candidates := []*model.RagChunk{
		testChunk("good", []float32{1, 0}, now),
		testChunk("malformed", []float32{1, 0, 0}, now),
		testChunk("also-good", []float32{0.9, 0.1}, now),
	}

	results := Rank(query, candidates, 10, 0)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "malformed", r.Chunk.ID)
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	results := Rank([]float32{1, 0}, nil, 5, 0.5)
	assert.Empty(t, results)
}

func TestRankAttachesCitations(t *testing.T) {
	now := time.Now()
	results := Rank([]float32{1, 0}, []*model.RagChunk{testChunk("1134", []float32{1, 0}, now)}, 5, 0)
	require.Len(t, results, 1)
	assert.Equal(t, "1134 du Code Civil", results[0].Citation)
}
