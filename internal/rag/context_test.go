package rag

import (
	"testing"
	"time"

	"codexai-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleEmptyResults(t *testing.T) {
	out := Assemble(nil)
	assert.Equal(t, "", out.Context)
	require.NotNil(t, out.Citations)
	assert.Empty(t, out.Citations)
}

func TestAssembleSingleResult(t *testing.T) {
	out := Assemble([]SearchResult{
		{
			Chunk:      &model.RagChunk{ChunkText: "Les conventions tiennent lieu de loi.", CreatedAt: time.Now()},
			Similarity: 0.9,
			Citation:   "1134 du Code Civil",
		},
	})
	assert.Equal(t, "[1134 du Code Civil]\nLes conventions tiennent lieu de loi.", out.Context)
	assert.Len(t, out.Citations, 1)
}

func TestAssemblePreservesOrderAndSeparator(t *testing.T) {
	results := []SearchResult{
		{Chunk: &model.RagChunk{ChunkText: "premier"}, Similarity: 0.9, Citation: "A"},
		{Chunk: &model.RagChunk{ChunkText: "second"}, Similarity: 0.8, Citation: "B"},
	}

	out := Assemble(results)
	assert.Equal(t, "[A]\npremier\n\n---\n\n[B]\nsecond", out.Context)
	assert.Equal(t, results, out.Citations)
}
