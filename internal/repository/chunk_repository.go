// Package repository implements the data-access layer.
package repository

import (
	"context"
	"fmt"

	"codexai-go/internal/model"
	"codexai-go/internal/rag"

	"gorm.io/gorm"
)

// ChunkRepository is the chunk store. It exclusively owns chunk lifecycle:
// chunks are created at ingestion and deleted on document removal, never
// updated in place. All readers and writers go through this contract so
// the tenant-scope check cannot be bypassed.
type ChunkRepository interface {
	// Put inserts a chunk after validating its embedding dimensionality.
	Put(ctx context.Context, chunk *model.RagChunk) error
	// QueryByScope returns chunks visible to the given scope. Querying
	// private-vault without a tenant is an AccessError, never a silent
	// union over all tenants.
	QueryByScope(ctx context.Context, sourceType string, tenantID *uint) ([]*model.RagChunk, error)
	// Delete removes a chunk. Deleting a non-existent id is not an error.
	Delete(ctx context.Context, chunkID string) error
	// DeleteByDocument removes every chunk belonging to a document.
	DeleteByDocument(ctx context.Context, documentID uint) error
	// CountBySourceType reports corpus size for a source type.
	CountBySourceType(ctx context.Context, sourceType string) (int64, error)
}

type chunkRepository struct {
	db         *gorm.DB
	dimensions int
}

// NewChunkRepository creates a ChunkRepository validating embeddings
// against the given dimensionality.
func NewChunkRepository(db *gorm.DB, dimensions int) ChunkRepository {
	return &chunkRepository{db: db, dimensions: dimensions}
}

func (r *chunkRepository) Put(ctx context.Context, chunk *model.RagChunk) error {
	if err := rag.ValidateDimension(chunk.Embedding, r.dimensions); err != nil {
		return err
	}
	if !model.KnownSourceType(chunk.SourceType) {
		return &rag.ValidationError{Reason: fmt.Sprintf("unknown source type %q", chunk.SourceType)}
	}
	if chunk.SourceType == model.SourceTypePrivateVault && chunk.TenantID == nil {
		return &rag.ValidationError{Reason: "private-vault chunk requires a tenant"}
	}
	return r.db.WithContext(ctx).Create(chunk).Error
}

func (r *chunkRepository) QueryByScope(ctx context.Context, sourceType string, tenantID *uint) ([]*model.RagChunk, error) {
	if sourceType != "" && !model.KnownSourceType(sourceType) {
		return nil, &rag.ValidationError{Reason: fmt.Sprintf("unknown source type %q", sourceType)}
	}

	q := r.db.WithContext(ctx).Model(&model.RagChunk{})

	switch {
	case sourceType == model.SourceTypePrivateVault:
		if tenantID == nil {
			return nil, &rag.AccessError{Reason: "private-vault query requires a tenant"}
		}
		q = q.Where("source_type = ? AND tenant_id = ?", sourceType, *tenantID)
	case sourceType != "":
		q = q.Where("source_type = ?", sourceType)
	case tenantID != nil:
		// Unscoped query: public corpus plus the tenant's own vault.
		q = q.Where("source_type IN ? OR (source_type = ? AND tenant_id = ?)",
			[]string{model.SourceTypePublicStatute, model.SourceTypePublicCaselaw},
			model.SourceTypePrivateVault, *tenantID)
	default:
		q = q.Where("source_type IN ?",
			[]string{model.SourceTypePublicStatute, model.SourceTypePublicCaselaw})
	}

	var chunks []*model.RagChunk
	err := q.Find(&chunks).Error
	return chunks, err
}

func (r *chunkRepository) Delete(ctx context.Context, chunkID string) error {
	return r.db.WithContext(ctx).Where("id = ?", chunkID).Delete(&model.RagChunk{}).Error
}

func (r *chunkRepository) DeleteByDocument(ctx context.Context, documentID uint) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.RagChunk{}).Error
}

func (r *chunkRepository) CountBySourceType(ctx context.Context, sourceType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RagChunk{}).
		Where("source_type = ?", sourceType).Count(&count).Error
	return count, err
}
