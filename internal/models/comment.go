package models

import (
	"gorm.io/gorm"
)

// Comment 表示掛在某篇貼文底下的一則留言
// 頂層留言的 ParentCommentID 為 nil，回覆則指向父留言
type Comment struct {
	gorm.Model
	PostID          string `gorm:"index;not null" json:"post_id"` // 貼文 ID，同時也是即時留言房間的 ID
	UserID          uint   `gorm:"index;not null" json:"user_id"`
	Body            string `gorm:"type:text;not null" json:"body"`
	ParentCommentID *uint  `gorm:"index" json:"parent_comment_id,omitempty"`
}
