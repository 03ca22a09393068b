package models

import (
	"gorm.io/gorm"
)

// Conversation 表示一個用戶與 AI 助手的對話串
type Conversation struct {
	gorm.Model
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Title  string `gorm:"type:varchar(255)" json:"title"`
}

// 對話訊息的角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 表示對話中的一條訊息，用戶提問與助手回覆各佔一行
// 助手回覆會帶上實際使用的模型與 token 用量
type ChatMessage struct {
	gorm.Model
	ConversationID   uint   `gorm:"index;not null" json:"conversation_id"`
	UserID           uint   `gorm:"index;not null" json:"user_id"`
	Role             string `gorm:"type:varchar(20);not null" json:"role"`
	Content          string `gorm:"type:text;not null" json:"content"`
	ModelName        string `gorm:"type:varchar(100)" json:"model,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
}
