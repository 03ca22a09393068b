package repository

import (
	"time"

	"gorm.io/gorm"

	"blogpulse/internal/models"
	"blogpulse/internal/storage"
)

type ConversationRepository interface {
	Create(conversation *models.Conversation) error
	FindByIDAndUser(id, userID uint) (*models.Conversation, error)
	FindByUser(userID uint, offset, limit int) ([]models.Conversation, error)
	CountByUser(userID uint) (int64, error)
	Touch(id uint) error
	DeleteWithMessages(id, userID uint) error
}

type conversationRepository struct {
	db *storage.PostgresDB
}

func NewConversationRepository(db *storage.PostgresDB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(conversation *models.Conversation) error {
	return r.db.Create(conversation).Error
}

func (r *conversationRepository) FindByIDAndUser(id, userID uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindByUser 分頁查詢用戶的對話，最近更新的排在最前面
func (r *conversationRepository) FindByUser(userID uint, offset, limit int) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset(offset).Limit(limit).
		Find(&conversations).Error
	return conversations, err
}

func (r *conversationRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Conversation{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Touch 更新對話的 updated_at，讓列表排序反映最近一次交談
func (r *conversationRepository) Touch(id uint) error {
	return r.db.Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

// DeleteWithMessages 在同一個交易中刪除對話與其全部訊息
func (r *conversationRepository) DeleteWithMessages(id, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Conversation{}).Error
	})
}
