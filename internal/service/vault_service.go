package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"codexai-go/internal/config"
	"codexai-go/internal/model"
	"codexai-go/internal/rag"
	"codexai-go/internal/repository"
	"codexai-go/pkg/cryptoutil"
	"codexai-go/pkg/kafka"
	"codexai-go/pkg/log"
	"codexai-go/pkg/storage"
	"codexai-go/pkg/tasks"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// allowedVaultMimeTypes is the upload whitelist.
var allowedVaultMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrNotDocumentOwner    = errors.New("document does not belong to this user")
)

// VaultService manages per-user private documents: encrypted storage in
// MinIO, asynchronous RAG ingestion and tenant-scoped semantic search.
type VaultService interface {
	// Upload decodes, validates, encrypts and stores a document, then
	// queues it for text extraction and ingestion.
	Upload(ctx context.Context, userID uint, fileName, mimeType, base64Content string) (*model.VaultDocument, error)
	ListDocuments(ctx context.Context, userID uint) ([]*model.VaultDocument, error)
	GetDocument(ctx context.Context, userID, documentID uint) (*model.VaultDocument, error)
	// Delete removes the document record, its MinIO object and every chunk
	// it contributed to the corpus.
	Delete(ctx context.Context, userID, documentID uint) error
	// Search runs a semantic query over the caller's own vault chunks.
	Search(ctx context.Context, userID uint, query string) (rag.Context, error)
}

type vaultService struct {
	vaultRepo repository.VaultRepository
	auditRepo repository.AuditRepository
	ragSvc    RagService
	vaultCfg  config.VaultConfig
	bucket    string
}

// NewVaultService creates a new VaultService instance.
func NewVaultService(
	vaultRepo repository.VaultRepository,
	auditRepo repository.AuditRepository,
	ragSvc RagService,
	vaultCfg config.VaultConfig,
	bucket string,
) VaultService {
	return &vaultService{
		vaultRepo: vaultRepo,
		auditRepo: auditRepo,
		ragSvc:    ragSvc,
		vaultCfg:  vaultCfg,
		bucket:    bucket,
	}
}

func (s *vaultService) Upload(ctx context.Context, userID uint, fileName, mimeType, base64Content string) (*model.VaultDocument, error) {
	if fileName == "" {
		return nil, errors.New("file name must not be empty")
	}
	if _, ok := allowedVaultMimeTypes[mimeType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, mimeType)
	}

	content, err := base64.StdEncoding.DecodeString(base64Content)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 content: %w", err)
	}
	maxBytes := s.vaultCfg.MaxFileSizeMB * 1024 * 1024
	if int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(content), maxBytes)
	}

	encrypted, err := cryptoutil.Encrypt(content, s.vaultCfg.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt document: %w", err)
	}

	objectKey := fmt.Sprintf("vault/%d/%s/%s", userID, uuid.NewString(), fileName)
	_, err = storage.MinioClient.PutObject(ctx, s.bucket, objectKey,
		bytes.NewReader(encrypted), int64(len(encrypted)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &model.VaultDocument{
		UserID:       userID,
		FileName:     fileName,
		ObjectKey:    objectKey,
		FileSize:     int64(len(content)),
		MimeType:     mimeType,
		IsEncrypted:  true,
		IngestStatus: model.IngestStatusPending,
	}
	if err := s.vaultRepo.Create(ctx, doc); err != nil {
		// Orphaned objects are cleaned up eagerly; a failed remove only
		// leaves garbage, never a dangling DB row.
		if rmErr := storage.MinioClient.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); rmErr != nil {
			log.Warnf("[VaultService] failed to remove orphaned object %s: %v", objectKey, rmErr)
		}
		return nil, err
	}

	task := tasks.DocumentIngestTask{
		DocumentID: doc.ID,
		ObjectKey:  objectKey,
		FileName:   fileName,
		MimeType:   mimeType,
		UserID:     userID,
		Encrypted:  true,
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		log.Errorf("[VaultService] failed to queue ingestion for document %d: %v", doc.ID, err)
		if stErr := s.vaultRepo.UpdateIngestStatus(ctx, doc.ID, model.IngestStatusFailed); stErr != nil {
			log.Warnf("[VaultService] failed to mark document %d failed: %v", doc.ID, stErr)
		}
		doc.IngestStatus = model.IngestStatusFailed
	}

	s.auditRepo.Log(ctx, userID, model.AuditVaultUploaded, &doc.ID, "vault_document", map[string]interface{}{
		"fileName": fileName,
		"fileSize": doc.FileSize,
		"mimeType": mimeType,
	})
	return doc, nil
}

func (s *vaultService) ListDocuments(ctx context.Context, userID uint) ([]*model.VaultDocument, error) {
	return s.vaultRepo.FindByUserID(ctx, userID)
}

func (s *vaultService) GetDocument(ctx context.Context, userID, documentID uint) (*model.VaultDocument, error) {
	doc, err := s.vaultRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		s.auditRepo.Log(ctx, userID, model.AuditAccessDenied, &documentID, "vault_document", nil)
		return nil, ErrNotDocumentOwner
	}
	return doc, nil
}

func (s *vaultService) Delete(ctx context.Context, userID, documentID uint) error {
	doc, err := s.GetDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}

	if err := s.ragSvc.RemoveDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to remove document chunks: %w", err)
	}
	if err := storage.MinioClient.RemoveObject(ctx, s.bucket, doc.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		log.Warnf("[VaultService] failed to remove object %s: %v", doc.ObjectKey, err)
	}
	if err := s.vaultRepo.Delete(ctx, doc.ID); err != nil {
		return err
	}

	s.auditRepo.Log(ctx, userID, model.AuditVaultDeleted, &documentID, "vault_document", map[string]interface{}{
		"fileName": doc.FileName,
	})
	return nil
}

func (s *vaultService) Search(ctx context.Context, userID uint, query string) (rag.Context, error) {
	opts := s.ragSvc.Options()
	result, err := s.ragSvc.Search(ctx, query, model.SourceTypePrivateVault, &userID, opts.SearchLimit, opts.Threshold)
	if err != nil {
		return result, err
	}
	s.auditRepo.Log(ctx, userID, model.AuditVaultSearched, nil, "vault_document", map[string]interface{}{
		"queryLength": len(query),
		"resultCount": len(result.Citations),
		"searchedAt":  time.Now().UTC().Format(time.RFC3339),
	})
	return result, nil
}
