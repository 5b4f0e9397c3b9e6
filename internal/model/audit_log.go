package model

import "time"

// Audit actions recorded for sensitive operations.
const (
	AuditVaultUploaded    = "vault_document_uploaded"
	AuditVaultDeleted     = "vault_document_deleted"
	AuditVaultSearched    = "vault_search"
	AuditKnowledgeSearch  = "knowledge_search"
	AuditAssistantQuery   = "assistant_query"
	AuditSourceRegistered = "public_source_registered"
	AuditAccessDenied     = "access_denied"
)

// AuditLog maps the audit_logs table, the access trail for sensitive
// documents and queries.
type AuditLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"userId"`
	Action       string    `gorm:"type:varchar(100);not null" json:"action"`
	ResourceID   *uint     `json:"resourceId"`
	ResourceType string    `gorm:"type:varchar(50)" json:"resourceType"`
	Details      string    `gorm:"type:longtext" json:"details"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
