package model

import "time"

// Conversation is one assistant conversation thread.
type Conversation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "assistant_conversations"
}

// Message is a single user or assistant message inside a conversation.
// Citations holds the JSON-encoded list of sources referenced by an
// assistant answer.
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversationId"`
	Role           string    `gorm:"type:varchar(20);not null" json:"role"`
	Content        string    `gorm:"type:longtext;not null" json:"content"`
	Citations      string    `gorm:"type:longtext" json:"citations"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "assistant_messages"
}

// ChatMessage is the role/content pair exchanged with the LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
