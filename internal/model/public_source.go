package model

import "time"

// PublicSource maps the public_sources table: registered statutes and
// caselaw whose content is ingested into the public RAG corpus.
type PublicSource struct {
	ID         uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceType string        `gorm:"type:varchar(20);not null;index" json:"sourceType"`
	ExternalID string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"externalId"`
	Title      string        `gorm:"type:varchar(512);not null" json:"title"`
	URL        string        `gorm:"type:varchar(512)" json:"url"`
	Content    string        `gorm:"type:longtext" json:"content"`
	Metadata   ChunkMetadata `gorm:"type:longtext" json:"metadata"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (PublicSource) TableName() string {
	return "public_sources"
}
