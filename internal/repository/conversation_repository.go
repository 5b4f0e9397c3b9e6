package repository

import (
	"context"

	"codexai-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository defines data access for assistant conversations
// and their messages.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	FindConversationByID(ctx context.Context, id uint) (*model.Conversation, error)
	FindConversationsByUserID(ctx context.Context, userID uint) ([]*model.Conversation, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
	FindMessagesByConversationID(ctx context.Context, conversationID uint) ([]*model.Message, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a ConversationRepository backed by gorm.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *conversationRepository) FindConversationByID(ctx context.Context, id uint) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindConversationsByUserID(ctx context.Context, userID uint) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

func (r *conversationRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *conversationRepository) FindMessagesByConversationID(ctx context.Context, conversationID uint) ([]*model.Message, error) {
	var msgs []*model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}
