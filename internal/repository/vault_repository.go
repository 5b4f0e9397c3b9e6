package repository

import (
	"context"

	"codexai-go/internal/model"

	"gorm.io/gorm"
)

// VaultRepository defines data access for vault document metadata.
type VaultRepository interface {
	Create(ctx context.Context, doc *model.VaultDocument) error
	FindByID(ctx context.Context, id uint) (*model.VaultDocument, error)
	FindByUserID(ctx context.Context, userID uint) ([]*model.VaultDocument, error)
	UpdateIngestStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type vaultRepository struct {
	db *gorm.DB
}

// NewVaultRepository creates a VaultRepository backed by gorm.
func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepository{db: db}
}

func (r *vaultRepository) Create(ctx context.Context, doc *model.VaultDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *vaultRepository) FindByID(ctx context.Context, id uint) (*model.VaultDocument, error) {
	var doc model.VaultDocument
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *vaultRepository) FindByUserID(ctx context.Context, userID uint) ([]*model.VaultDocument, error) {
	var docs []*model.VaultDocument
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *vaultRepository) UpdateIngestStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&model.VaultDocument{}).
		Where("id = ?", id).
		Update("ingest_status", status).Error
}

func (r *vaultRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.VaultDocument{}, id).Error
}
