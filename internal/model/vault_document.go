package model

import "time"

// Ingestion status values tracked per vault document. A retry can tell a
// partially ingested document ("processing"/"failed") from a completed one
// and clean up before re-ingesting.
const (
	IngestStatusPending    = "pending"
	IngestStatusProcessing = "processing"
	IngestStatusCompleted  = "completed"
	IngestStatusFailed     = "failed"
)

// VaultDocument maps the vault_documents table. Binary content lives in
// MinIO (encrypted); only metadata is stored here.
type VaultDocument struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"userId"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"fileName"`
	ObjectKey    string    `gorm:"type:varchar(512);not null" json:"objectKey"`
	FileSize     int64     `gorm:"not null" json:"fileSize"`
	MimeType     string    `gorm:"type:varchar(100);not null" json:"mimeType"`
	IsEncrypted  bool      `gorm:"not null;default:true" json:"isEncrypted"`
	IngestStatus string    `gorm:"type:varchar(20);not null;default:pending" json:"ingestStatus"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (VaultDocument) TableName() string {
	return "vault_documents"
}
