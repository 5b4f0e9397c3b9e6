package rag

import (
	"math"
	"sort"

	"codexai-go/internal/model"
	"codexai-go/pkg/log"
)

// SearchResult pairs a chunk with its computed similarity and formatted
// citation. It is request-scoped and never persisted.
type SearchResult struct {
	Chunk      *model.RagChunk `json:"chunk"`
	Similarity float64         `json:"similarity"`
	Citation   string          `json:"citation"`
}

// CosineSimilarity computes dot(a,b) / (|a| * |b|). A zero-norm vector
// yields 0 rather than NaN. Vectors of different lengths are a
// DimensionMismatchError.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Want: len(a), Got: len(b)}
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank scores candidates against queryVector by cosine similarity, drops
// those below threshold, sorts descending by similarity (ties broken by
// createdAt ascending for reproducibility) and truncates to limit.
//
// A candidate with a mismatched embedding dimension is skipped and logged;
// one malformed chunk never aborts the whole query. This is a linear scan:
// when an index prefilters candidates upstream, the contract here (metric,
// threshold, tie-break) still decides the final order.
func Rank(queryVector []float32, candidates []*model.RagChunk, limit int, threshold float64) []SearchResult {
	results := make([]SearchResult, 0, len(candidates))
	for _, chunk := range candidates {
		similarity, err := CosineSimilarity(queryVector, chunk.Embedding)
		if err != nil {
			if mismatch, ok := err.(*DimensionMismatchError); ok {
				mismatch.ChunkID = chunk.ID
				log.Warnw("skipping malformed chunk", "error", mismatch.Error())
				continue
			}
			log.Warnw("skipping chunk", "chunkId", chunk.ID, "error", err)
			continue
		}
		if similarity < threshold {
			continue
		}
		results = append(results, SearchResult{
			Chunk:      chunk,
			Similarity: similarity,
			Citation:   FormatCitation(chunk.SourceType, chunk.Metadata),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Chunk.CreatedAt.Before(results[j].Chunk.CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
