package repository

import (
	"blogpulse/internal/models"
	"blogpulse/internal/storage"
)

type MessageRepository interface {
	Create(message *models.ChatMessage) error
	FindByConversation(conversationID uint) ([]models.ChatMessage, error)
	FindRecentByConversation(conversationID uint, limit int) ([]models.ChatMessage, error)
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

// FindByConversation 查詢對話的完整訊息，由舊到新
func (r *messageRepository) FindByConversation(conversationID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&messages).Error
	return messages, err
}

// FindRecentByConversation 查詢最近的 limit 條訊息，由新到舊
// 呼叫端要自行反轉順序再送給模型
func (r *messageRepository) FindRecentByConversation(conversationID uint, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
