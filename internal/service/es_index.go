package service

import (
	"context"

	"codexai-go/internal/model"
	"codexai-go/pkg/es"
)

// esCandidateIndex backs CandidateIndex with the Elasticsearch kNN index.
// It only prefetches candidates; exact cosine ranking stays with the ranker.
type esCandidateIndex struct {
	indexName string
}

// NewESCandidateIndex wires the Elasticsearch index as the candidate
// prefetch. Call only after es.InitES has succeeded.
func NewESCandidateIndex(indexName string) CandidateIndex {
	return &esCandidateIndex{indexName: indexName}
}

func (e *esCandidateIndex) IndexChunk(ctx context.Context, chunk *model.RagChunk) error {
	return es.IndexChunk(ctx, e.indexName, chunk)
}

func (e *esCandidateIndex) DeleteByDocument(ctx context.Context, documentID uint) error {
	return es.DeleteByDocument(ctx, e.indexName, documentID)
}

func (e *esCandidateIndex) SearchCandidates(ctx context.Context, queryVector model.Vector, sourceType string, tenantID *uint, k int) ([]*model.RagChunk, error) {
	return es.SearchCandidates(ctx, e.indexName, queryVector, sourceType, tenantID, k)
}
