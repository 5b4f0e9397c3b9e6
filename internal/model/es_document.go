package model

import "time"

// EsChunkDocument is the shape of a chunk mirrored into the Elasticsearch
// candidate index. The index only narrows the candidate set; authoritative
// scoring happens in the ranker.
type EsChunkDocument struct {
	ChunkID    string        `json:"chunk_id"`
	DocumentID *uint         `json:"document_id"`
	SourceType string        `json:"source_type"`
	ChunkText  string        `json:"chunk_text"`
	Vector     Vector        `json:"vector"`
	Metadata   ChunkMetadata `json:"metadata"`
	TenantID   *uint         `json:"tenant_id"`
	CreatedAt  time.Time     `json:"created_at"`
}
