// Package service contains the application's business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codexai-go/internal/model"
	"codexai-go/internal/rag"
	"codexai-go/internal/repository"
	"codexai-go/pkg/embedding"
	"codexai-go/pkg/log"

	"github.com/google/uuid"
)

// CandidateIndex narrows the candidate set before exact ranking. It is
// optional: a nil index means every query scans the chunk store.
type CandidateIndex interface {
	IndexChunk(ctx context.Context, chunk *model.RagChunk) error
	DeleteByDocument(ctx context.Context, documentID uint) error
	SearchCandidates(ctx context.Context, queryVector model.Vector, sourceType string, tenantID *uint, k int) ([]*model.RagChunk, error)
}

// RagOptions tunes chunking and retrieval.
type RagOptions struct {
	ChunkSize    int
	ChunkOverlap int
	SearchLimit  int
	Threshold    float64
}

// RagService is the retrieval core exposed to request handlers: document
// ingestion and similarity search with citations.
type RagService interface {
	// Ingest chunks, embeds and stores a document's text. Chunks are
	// embedded and stored in source order. Re-ingesting a document first
	// removes its previous chunks, so a retry after a partial ingestion
	// cleans up rather than duplicating.
	Ingest(ctx context.Context, documentID *uint, text, sourceType string, metadata model.ChunkMetadata, tenantID *uint) error
	// Search embeds the query, ranks candidate chunks and assembles the
	// prompt-ready context. An embedding-service failure degrades to the
	// explicit empty result; a tenant-scope violation is an AccessError.
	Search(ctx context.Context, query, sourceType string, tenantID *uint, limit int, threshold float64) (rag.Context, error)
	// RemoveDocument deletes every chunk belonging to a document.
	RemoveDocument(ctx context.Context, documentID uint) error
	// Options exposes the configured retrieval defaults.
	Options() RagOptions
}

type ragService struct {
	embedder    embedding.Client
	chunkRepo   repository.ChunkRepository
	ingestState repository.IngestStateRepository
	index       CandidateIndex
	opts        RagOptions
}

// prefetchFactor sizes the index prefetch relative to the result limit so
// exact re-ranking sees enough candidates.
const prefetchFactor = 20

// ingestLockTTL bounds how long a crashed ingestion can hold the
// per-document lock.
const ingestLockTTL = 10 * time.Minute

// NewRagService creates the retrieval service. index may be nil when the
// candidate index is disabled; ingestState may be nil in tests.
func NewRagService(
	embedder embedding.Client,
	chunkRepo repository.ChunkRepository,
	ingestState repository.IngestStateRepository,
	index CandidateIndex,
	opts RagOptions,
) RagService {
	return &ragService{
		embedder:    embedder,
		chunkRepo:   chunkRepo,
		ingestState: ingestState,
		index:       index,
		opts:        opts,
	}
}

func (s *ragService) Options() RagOptions {
	return s.opts
}

func (s *ragService) Ingest(ctx context.Context, documentID *uint, text, sourceType string, metadata model.ChunkMetadata, tenantID *uint) error {
	if !model.KnownSourceType(sourceType) {
		return &rag.ValidationError{Reason: fmt.Sprintf("unknown source type %q", sourceType)}
	}
	if sourceType == model.SourceTypePrivateVault && tenantID == nil {
		log.Warnw("ingest rejected: private-vault without tenant", "sourceType", sourceType)
		return &rag.AccessError{Reason: "private-vault ingestion requires a tenant"}
	}

	chunks, err := rag.Chunk(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		log.Warnf("[RagService] document produced no chunks, nothing to ingest")
		return nil
	}

	if documentID != nil {
		docKey := fmt.Sprintf("%d", *documentID)
		if s.ingestState != nil {
			acquired, lockErr := s.ingestState.AcquireLock(ctx, docKey, ingestLockTTL)
			if lockErr != nil {
				return lockErr
			}
			if !acquired {
				return fmt.Errorf("document %d is already being ingested", *documentID)
			}
			defer func() {
				_ = s.ingestState.ReleaseLock(context.Background(), docKey)
			}()
			if err := s.ingestState.SetStatus(ctx, docKey, model.IngestStatusProcessing); err != nil {
				log.Warnf("[RagService] failed to set ingest status: %v", err)
			}
		}

		// Idempotent re-ingest: drop any chunks left by a previous
		// (possibly partial) run before writing the fresh set.
		if err := s.RemoveDocument(ctx, *documentID); err != nil {
			return fmt.Errorf("failed to clear previous chunks of document %d: %w", *documentID, err)
		}
	}

	markFailed := func() {
		if documentID != nil && s.ingestState != nil {
			_ = s.ingestState.SetStatus(context.Background(), fmt.Sprintf("%d", *documentID), model.IngestStatusFailed)
		}
	}

	log.Infof("[RagService] ingesting document with %d chunks", len(chunks))
	for i, chunkText := range chunks {
		vector, err := s.embedder.CreateEmbedding(ctx, chunkText)
		if err != nil {
			markFailed()
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}

		chunk := &model.RagChunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			SourceType: sourceType,
			ChunkText:  chunkText,
			Embedding:  vector,
			Metadata:   metadata,
			TenantID:   tenantID,
		}
		if err := s.chunkRepo.Put(ctx, chunk); err != nil {
			markFailed()
			return fmt.Errorf("failed to store chunk %d: %w", i, err)
		}

		if s.index != nil {
			if err := s.index.IndexChunk(ctx, chunk); err != nil {
				// The store is authoritative; a missing index entry only
				// costs recall, so ingestion continues.
				log.Warnf("[RagService] failed to index chunk %s: %v", chunk.ID, err)
			}
		}
	}

	if documentID != nil && s.ingestState != nil {
		if err := s.ingestState.SetStatus(ctx, fmt.Sprintf("%d", *documentID), model.IngestStatusCompleted); err != nil {
			log.Warnf("[RagService] failed to set ingest status: %v", err)
		}
	}
	return nil
}

func (s *ragService) Search(ctx context.Context, query, sourceType string, tenantID *uint, limit int, threshold float64) (rag.Context, error) {
	empty := rag.Context{Context: "", Citations: []rag.SearchResult{}}

	if sourceType != "" && !model.KnownSourceType(sourceType) {
		return empty, &rag.ValidationError{Reason: fmt.Sprintf("unknown source type %q", sourceType)}
	}
	if sourceType == model.SourceTypePrivateVault && tenantID == nil {
		// Security event: a vault query without a tenant scope.
		log.Warnw("search rejected: private-vault without tenant", "query_len", len(query))
		return empty, &rag.AccessError{Reason: "private-vault search requires a tenant"}
	}
	if limit <= 0 {
		limit = s.opts.SearchLimit
	}

	queryVector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		var svcErr *embedding.ServiceError
		if errors.As(err, &svcErr) {
			// Degrade to the explicit empty result: a user-facing search
			// prefers "no results" over a hard failure.
			log.Warnf("[RagService] embedding unavailable, returning empty result: %v", err)
			return empty, nil
		}
		return empty, err
	}

	candidates, err := s.gatherCandidates(ctx, queryVector, sourceType, tenantID, limit)
	if err != nil {
		return empty, err
	}

	results := rag.Rank(queryVector, candidates, limit, threshold)
	return rag.Assemble(results), nil
}

func (s *ragService) gatherCandidates(ctx context.Context, queryVector model.Vector, sourceType string, tenantID *uint, limit int) ([]*model.RagChunk, error) {
	if s.index != nil {
		candidates, err := s.index.SearchCandidates(ctx, queryVector, sourceType, tenantID, limit*prefetchFactor)
		if err == nil {
			return candidates, nil
		}
		log.Warnf("[RagService] candidate index unavailable, falling back to store scan: %v", err)
	}
	return s.chunkRepo.QueryByScope(ctx, sourceType, tenantID)
}

func (s *ragService) RemoveDocument(ctx context.Context, documentID uint) error {
	if err := s.chunkRepo.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteByDocument(ctx, documentID); err != nil {
			log.Warnf("[RagService] failed to delete document %d from index: %v", documentID, err)
		}
	}
	return nil
}
