// Package pipeline runs the asynchronous vault-document ingestion flow.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"codexai-go/internal/config"
	"codexai-go/internal/model"
	"codexai-go/internal/repository"
	"codexai-go/internal/service"
	"codexai-go/pkg/cryptoutil"
	"codexai-go/pkg/log"
	"codexai-go/pkg/storage"
	"codexai-go/pkg/tasks"
	"codexai-go/pkg/tika"

	"github.com/minio/minio-go/v7"
)

// Processor consumes ingestion tasks: it downloads the stored object,
// decrypts it, extracts its text and feeds it to the retrieval core as a
// private-vault document owned by the uploading user.
type Processor struct {
	tikaClient *tika.Client
	ragSvc     service.RagService
	vaultRepo  repository.VaultRepository
	vaultCfg   config.VaultConfig
	bucket     string
}

// NewProcessor creates a new Processor instance.
func NewProcessor(
	tikaClient *tika.Client,
	ragSvc service.RagService,
	vaultRepo repository.VaultRepository,
	vaultCfg config.VaultConfig,
	bucket string,
) *Processor {
	return &Processor{
		tikaClient: tikaClient,
		ragSvc:     ragSvc,
		vaultRepo:  vaultRepo,
		vaultCfg:   vaultCfg,
		bucket:     bucket,
	}
}

// Process handles one ingestion task end to end. A returned error makes
// the consumer retry the task up to its attempt limit.
func (p *Processor) Process(ctx context.Context, task tasks.DocumentIngestTask) error {
	log.Infof("[Processor] processing document %d (%s) for user %d", task.DocumentID, task.FileName, task.UserID)

	if err := p.vaultRepo.UpdateIngestStatus(ctx, task.DocumentID, model.IngestStatusProcessing); err != nil {
		log.Warnf("[Processor] failed to mark document %d processing: %v", task.DocumentID, err)
	}

	err := p.process(ctx, task)
	status := model.IngestStatusCompleted
	if err != nil {
		status = model.IngestStatusFailed
	}
	if stErr := p.vaultRepo.UpdateIngestStatus(ctx, task.DocumentID, status); stErr != nil {
		log.Warnf("[Processor] failed to mark document %d %s: %v", task.DocumentID, status, stErr)
	}
	return err
}

func (p *Processor) process(ctx context.Context, task tasks.DocumentIngestTask) error {
	object, err := storage.MinioClient.GetObject(ctx, p.bucket, task.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to download object %s: %w", task.ObjectKey, err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(object); err != nil {
		return fmt.Errorf("failed to read object %s: %w", task.ObjectKey, err)
	}
	if buf.Len() == 0 {
		return errors.New("stored object is empty")
	}

	content := buf.Bytes()
	if task.Encrypted {
		content, err = cryptoutil.Decrypt(content, p.vaultCfg.EncryptionSecret)
		if err != nil {
			return fmt.Errorf("failed to decrypt document %d: %w", task.DocumentID, err)
		}
	}

	text, err := p.extractText(content, task)
	if err != nil {
		return err
	}
	text = normalizeText(text)
	if text == "" {
		return errors.New("document contains no extractable text")
	}
	log.Infof("[Processor] extracted %d characters from document %d", utf8.RuneCountInString(text), task.DocumentID)

	metadata := model.ChunkMetadata{"fileName": task.FileName}
	docID := task.DocumentID
	userID := task.UserID
	if err := p.ragSvc.Ingest(ctx, &docID, text, model.SourceTypePrivateVault, metadata, &userID); err != nil {
		return fmt.Errorf("failed to ingest document %d: %w", task.DocumentID, err)
	}

	log.Infof("[Processor] document %d ingested", task.DocumentID)
	return nil
}

func (p *Processor) extractText(content []byte, task tasks.DocumentIngestTask) (string, error) {
	// Plain text needs no extraction round-trip.
	if task.MimeType == "text/plain" {
		return string(content), nil
	}
	text, err := p.tikaClient.ExtractText(bytes.NewReader(content), task.FileName)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", task.FileName, err)
	}
	return text, nil
}

// normalizeText collapses runs of whitespace so chunk windows count real
// words, not formatting artifacts.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
