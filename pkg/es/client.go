// Package es maintains the optional Elasticsearch candidate index for RAG
// chunks. The index accelerates retrieval by narrowing candidates with a
// kNN prefetch; the exact cosine ranker still decides final scores and
// order, so enabling or disabling the index never changes results beyond
// recall.
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"codexai-go/internal/config"
	"codexai-go/internal/model"
	"codexai-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES connects the client and creates the chunk index if it does not
// exist. dimensions must match the embedding dimensionality.
func InitES(esCfg config.ElasticsearchConfig, dimensions int) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName, dimensions)
}

func createIndexIfNotExists(indexName string, dimensions int) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("failed to check index existence: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("index '%s' already exists", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("unexpected status %d while checking index '%s'", res.StatusCode, indexName)
		return fmt.Errorf("unexpected status while checking index: %d", res.StatusCode)
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"chunk_id": { "type": "keyword" },
				"document_id": { "type": "long" },
				"source_type": { "type": "keyword" },
				"chunk_text": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"metadata": { "type": "object", "enabled": false },
				"tenant_id": { "type": "long" },
				"created_at": { "type": "date" }
			}
		}
	}`, dimensions)

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("failed to create index '%s': %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("Elasticsearch returned an error creating index '%s': %s", indexName, res.String())
		return errors.New("failed to create index")
	}

	log.Infof("index '%s' created", indexName)
	return nil
}

// IndexChunk mirrors a stored chunk into the candidate index.
func IndexChunk(ctx context.Context, indexName string, chunk *model.RagChunk) error {
	doc := model.EsChunkDocument{
		ChunkID:    chunk.ID,
		DocumentID: chunk.DocumentID,
		SourceType: chunk.SourceType,
		ChunkText:  chunk.ChunkText,
		Vector:     chunk.Embedding,
		Metadata:   chunk.Metadata,
		TenantID:   chunk.TenantID,
		CreatedAt:  chunk.CreatedAt,
	}
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: chunk.ID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("failed to index chunk %s: %s", chunk.ID, res.String())
		return errors.New("failed to index chunk")
	}
	return nil
}

// DeleteChunk removes a chunk from the index. Missing documents are not an
// error, matching the store's idempotent delete.
func DeleteChunk(ctx context.Context, indexName, chunkID string) error {
	req := esapi.DeleteRequest{
		Index:      indexName,
		DocumentID: chunkID,
		Refresh:    "true",
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete chunk %s: %s", chunkID, res.String())
	}
	return nil
}

// DeleteByDocument removes every chunk of a document from the index.
func DeleteByDocument(ctx context.Context, indexName string, documentID uint) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"document_id": documentID},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return err
	}

	res, err := ESClient.DeleteByQuery([]string{indexName}, &buf,
		ESClient.DeleteByQuery.WithContext(ctx),
		ESClient.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to delete chunks of document %d: %s", documentID, res.String())
	}
	return nil
}

// SearchCandidates runs a kNN prefetch scoped to the given source type and
// tenant, returning up to k candidate chunks for exact re-ranking. Scope
// filters are applied inside the query so a tenant's private chunks can
// never appear in another tenant's candidate set.
func SearchCandidates(ctx context.Context, indexName string, queryVector model.Vector, sourceType string, tenantID *uint, k int) ([]*model.RagChunk, error) {
	if sourceType == model.SourceTypePrivateVault && tenantID == nil {
		return nil, errors.New("private-vault candidate search requires a tenant")
	}
	filter := scopeFilter(sourceType, tenantID)

	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   queryVector,
			"k":              k,
			"num_candidates": k * 4,
			"filter":         filter,
		},
		"size": k,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(indexName),
		ESClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsChunkDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	chunks := make([]*model.RagChunk, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		chunks = append(chunks, &model.RagChunk{
			ID:         hit.Source.ChunkID,
			DocumentID: hit.Source.DocumentID,
			SourceType: hit.Source.SourceType,
			ChunkText:  hit.Source.ChunkText,
			Embedding:  hit.Source.Vector,
			Metadata:   hit.Source.Metadata,
			TenantID:   hit.Source.TenantID,
			CreatedAt:  hit.Source.CreatedAt,
		})
	}
	return chunks, nil
}

func scopeFilter(sourceType string, tenantID *uint) map[string]interface{} {
	publicTypes := []string{model.SourceTypePublicStatute, model.SourceTypePublicCaselaw}

	if sourceType == model.SourceTypePrivateVault {
		// Caller has already enforced tenant presence for vault scope.
		return map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{"term": map[string]interface{}{"source_type": sourceType}},
					{"term": map[string]interface{}{"tenant_id": *tenantID}},
				},
			},
		}
	}

	if sourceType != "" {
		return map[string]interface{}{
			"term": map[string]interface{}{"source_type": sourceType},
		}
	}

	// Unscoped: public sources, plus the tenant's own vault chunks.
	should := []map[string]interface{}{
		{"terms": map[string]interface{}{"source_type": publicTypes}},
	}
	if tenantID != nil {
		should = append(should, map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{"term": map[string]interface{}{"source_type": model.SourceTypePrivateVault}},
					{"term": map[string]interface{}{"tenant_id": *tenantID}},
				},
			},
		})
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}
