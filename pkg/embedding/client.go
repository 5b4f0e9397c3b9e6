// Package embedding provides a client for embedding model services.
//
// The provider is chosen once at process startup (NewClient) and injected
// into every consumer; no call site re-reads configuration to pick a
// backend.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"codexai-go/internal/config"
	"codexai-go/pkg/log"
)

// Client maps a text to a fixed-length numeric vector.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ServiceError reports an upstream embedding-service failure. It is
// retryable: ingestion callers retry via queue redelivery, search callers
// degrade to an empty result instead of failing the request.
type ServiceError struct {
	Reason string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding service: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("embedding service: %s", e.Reason)
}

func (e *ServiceError) Unwrap() error { return e.Err }

type openAICompatibleClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewClient creates an embedding client for an OpenAI-compatible API.
func NewClient(cfg config.EmbeddingConfig) Client {
	return &openAICompatibleClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// CreateEmbedding calls the embeddings endpoint and returns the vector for
// the given text. No normalization is applied here; that is the ranker's
// concern.
func (c *openAICompatibleClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model:      c.cfg.Model,
		Input:      []string{text},
		Dimensions: c.cfg.Dimensions,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] embedding API call failed: %v", err)
		return nil, &ServiceError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[EmbeddingClient] embedding API returned status %s", resp.Status)
		return nil, &ServiceError{Reason: fmt.Sprintf("non-200 status: %s", resp.Status)}
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, &ServiceError{Reason: "malformed response", Err: err}
	}

	if len(embeddingResp.Data) == 0 || len(embeddingResp.Data[0].Embedding) == 0 {
		return nil, &ServiceError{Reason: "empty embedding returned"}
	}

	return embeddingResp.Data[0].Embedding, nil
}
