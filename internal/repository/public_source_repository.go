package repository

import (
	"context"

	"codexai-go/internal/model"

	"gorm.io/gorm"
)

// PublicSourceRepository defines data access for registered public legal
// sources (statutes and caselaw).
type PublicSourceRepository interface {
	Create(ctx context.Context, source *model.PublicSource) error
	FindByID(ctx context.Context, id uint) (*model.PublicSource, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.PublicSource, error)
	List(ctx context.Context, sourceType string) ([]*model.PublicSource, error)
}

type publicSourceRepository struct {
	db *gorm.DB
}

// NewPublicSourceRepository creates a PublicSourceRepository backed by gorm.
func NewPublicSourceRepository(db *gorm.DB) PublicSourceRepository {
	return &publicSourceRepository{db: db}
}

func (r *publicSourceRepository) Create(ctx context.Context, source *model.PublicSource) error {
	return r.db.WithContext(ctx).Create(source).Error
}

func (r *publicSourceRepository) FindByID(ctx context.Context, id uint) (*model.PublicSource, error) {
	var source model.PublicSource
	if err := r.db.WithContext(ctx).First(&source, id).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *publicSourceRepository) FindByExternalID(ctx context.Context, externalID string) (*model.PublicSource, error) {
	var source model.PublicSource
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&source).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *publicSourceRepository) List(ctx context.Context, sourceType string) ([]*model.PublicSource, error) {
	q := r.db.WithContext(ctx).Model(&model.PublicSource{})
	if sourceType != "" {
		q = q.Where("source_type = ?", sourceType)
	}
	var sources []*model.PublicSource
	err := q.Order("created_at DESC").Find(&sources).Error
	return sources, err
}
