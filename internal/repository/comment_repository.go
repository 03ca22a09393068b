package repository

import (
	"blogpulse/internal/models"
	"blogpulse/internal/storage"
)

type CommentRepository interface {
	Create(comment *models.Comment) error
	FindByID(id uint) (*models.Comment, error)
	FindTopLevelByPostID(postID string) ([]models.Comment, error)
}

type commentRepository struct {
	db *storage.PostgresDB
}

func NewCommentRepository(db *storage.PostgresDB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *commentRepository) FindByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindTopLevelByPostID 查詢貼文的頂層留言，依建立時間由舊到新排序
func (r *commentRepository) FindTopLevelByPostID(postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Where("post_id = ? AND parent_comment_id IS NULL", postID).
		Order("created_at asc").
		Find(&comments).Error
	return comments, err
}
