// Package model defines the Go structs mapped to database tables.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Source types form a closed enumeration. They decide citation formatting
// and, for the private vault, the tenant-isolation rules.
const (
	SourceTypePrivateVault  = "private-vault"
	SourceTypePublicStatute = "public-statute"
	SourceTypePublicCaselaw = "public-caselaw"
)

// KnownSourceType reports whether s is one of the closed enumeration values.
func KnownSourceType(s string) bool {
	switch s {
	case SourceTypePrivateVault, SourceTypePublicStatute, SourceTypePublicCaselaw:
		return true
	}
	return false
}

// Vector is a fixed-dimensionality embedding stored as a JSON array.
type Vector []float32

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		return json.Unmarshal(s, v)
	case string:
		return json.Unmarshal([]byte(s), v)
	case nil:
		*v = nil
		return nil
	}
	return fmt.Errorf("cannot scan %T into Vector", src)
}

// ChunkMetadata is a string-keyed metadata mapping whose shape depends on
// the chunk's source type (code/article for statutes, jurisdiction/date/
// caseNumber for caselaw, fileName for vault documents).
type ChunkMetadata map[string]string

// Value implements driver.Valuer.
func (m ChunkMetadata) Value() (driver.Value, error) {
	if m == nil {
		m = ChunkMetadata{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *ChunkMetadata) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		return json.Unmarshal(s, m)
	case string:
		return json.Unmarshal([]byte(s), m)
	case nil:
		*m = nil
		return nil
	}
	return fmt.Errorf("cannot scan %T into ChunkMetadata", src)
}

// RagChunk is one indexed unit of text in the rag_chunks table.
//
// Chunks are append-only: text and embedding are never updated in place;
// re-ingesting a document deletes its chunks and writes a fresh set.
type RagChunk struct {
	ID         string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	DocumentID *uint         `gorm:"index" json:"documentId"`
	SourceType string        `gorm:"type:varchar(20);not null;index" json:"sourceType"`
	ChunkText  string        `gorm:"type:longtext;not null" json:"chunkText"`
	Embedding  Vector        `gorm:"type:longtext;not null" json:"-"`
	Metadata   ChunkMetadata `gorm:"type:longtext" json:"metadata"`
	TenantID   *uint         `gorm:"index" json:"tenantId"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"createdAt"`
}

func (RagChunk) TableName() string {
	return "rag_chunks"
}
