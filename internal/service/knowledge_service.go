package service

import (
	"context"
	"errors"
	"fmt"

	"codexai-go/internal/model"
	"codexai-go/internal/rag"
	"codexai-go/internal/repository"
	"codexai-go/pkg/log"

	"gorm.io/gorm"
)

// ErrSourceAlreadyRegistered signals a duplicate external id.
var ErrSourceAlreadyRegistered = errors.New("source already registered")

// RegisterSourceInput describes a public legal source to add to the corpus.
type RegisterSourceInput struct {
	SourceType string              `json:"sourceType"`
	ExternalID string              `json:"externalId"`
	Title      string              `json:"title"`
	URL        string              `json:"url"`
	Content    string              `json:"content"`
	Metadata   model.ChunkMetadata `json:"metadata"`
}

// KnowledgeService exposes the public legal corpus: semantic search for
// every user, source registration for admins.
type KnowledgeService interface {
	// Search queries the public corpus. sourceType may be empty (both
	// public types), "public-statute" or "public-caselaw".
	Search(ctx context.Context, userID uint, query, sourceType string) (rag.Context, error)
	// RegisterSource stores a public source and ingests its content
	// synchronously. Duplicate external ids are rejected.
	RegisterSource(ctx context.Context, adminID uint, input RegisterSourceInput) (*model.PublicSource, error)
	ListSources(ctx context.Context, sourceType string) ([]*model.PublicSource, error)
	// CorpusSize reports how many chunks a public source type holds.
	CorpusSize(ctx context.Context, sourceType string) (int64, error)
}

type knowledgeService struct {
	sourceRepo repository.PublicSourceRepository
	chunkRepo  repository.ChunkRepository
	auditRepo  repository.AuditRepository
	ragSvc     RagService
}

// NewKnowledgeService creates a new KnowledgeService instance.
func NewKnowledgeService(
	sourceRepo repository.PublicSourceRepository,
	chunkRepo repository.ChunkRepository,
	auditRepo repository.AuditRepository,
	ragSvc RagService,
) KnowledgeService {
	return &knowledgeService{
		sourceRepo: sourceRepo,
		chunkRepo:  chunkRepo,
		auditRepo:  auditRepo,
		ragSvc:     ragSvc,
	}
}

func (s *knowledgeService) Search(ctx context.Context, userID uint, query, sourceType string) (rag.Context, error) {
	if sourceType == model.SourceTypePrivateVault {
		return rag.Context{Citations: []rag.SearchResult{}},
			&rag.ValidationError{Reason: "private-vault is not searchable through the knowledge module"}
	}

	opts := s.ragSvc.Options()
	result, err := s.ragSvc.Search(ctx, query, sourceType, nil, opts.SearchLimit, opts.Threshold)
	if err != nil {
		return result, err
	}

	s.auditRepo.Log(ctx, userID, model.AuditKnowledgeSearch, nil, "public_source", map[string]interface{}{
		"sourceType":  sourceType,
		"queryLength": len(query),
		"resultCount": len(result.Citations),
	})
	return result, nil
}

func (s *knowledgeService) RegisterSource(ctx context.Context, adminID uint, input RegisterSourceInput) (*model.PublicSource, error) {
	if input.SourceType != model.SourceTypePublicStatute && input.SourceType != model.SourceTypePublicCaselaw {
		return nil, &rag.ValidationError{Reason: fmt.Sprintf("source type must be public, got %q", input.SourceType)}
	}
	if input.ExternalID == "" || input.Content == "" {
		return nil, &rag.ValidationError{Reason: "externalId and content are required"}
	}

	existing, err := s.sourceRepo.FindByExternalID(ctx, input.ExternalID)
	if err == nil && existing != nil {
		return nil, ErrSourceAlreadyRegistered
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	source := &model.PublicSource{
		SourceType: input.SourceType,
		ExternalID: input.ExternalID,
		Title:      input.Title,
		URL:        input.URL,
		Content:    input.Content,
		Metadata:   input.Metadata,
	}
	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, err
	}

	metadata := model.ChunkMetadata{}
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	metadata["externalId"] = input.ExternalID
	if input.URL != "" {
		metadata["url"] = input.URL
	}

	// Public sources are ingested inline: registration is an admin action
	// and the caller wants to know whether the corpus actually grew.
	if err := s.ragSvc.Ingest(ctx, nil, input.Content, input.SourceType, metadata, nil); err != nil {
		log.Errorf("[KnowledgeService] failed to ingest source %s: %v", input.ExternalID, err)
		return nil, fmt.Errorf("source registered but ingestion failed: %w", err)
	}

	s.auditRepo.Log(ctx, adminID, model.AuditSourceRegistered, &source.ID, "public_source", map[string]interface{}{
		"sourceType": input.SourceType,
		"externalId": input.ExternalID,
	})
	return source, nil
}

func (s *knowledgeService) ListSources(ctx context.Context, sourceType string) ([]*model.PublicSource, error) {
	return s.sourceRepo.List(ctx, sourceType)
}

func (s *knowledgeService) CorpusSize(ctx context.Context, sourceType string) (int64, error) {
	return s.chunkRepo.CountBySourceType(ctx, sourceType)
}
