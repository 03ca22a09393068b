package service

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"blogpulse/internal/metrics"
	"blogpulse/internal/models"
	"blogpulse/internal/repository"
	"blogpulse/pkg/ai"
)

// 送往上游當作上下文的歷史訊息條數上限
const contextMessageLimit = 10

// SendMessageInput 是一次聊天請求的參數，Model 與 Temperature 可留空使用預設
type SendMessageInput struct {
	Content     string  `json:"content" binding:"required"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// ListMetadata 是對話列表的分頁訊息
type ListMetadata struct {
	TotalItems int64 `json:"total_items"`
	Offset     int   `json:"offset"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// ChatService 把一次用戶提問橋接到上游聊天補全服務
// 串流模式下逐塊轉發之餘累積完整回覆，結束後才落庫
type ChatService struct {
	provider      ai.Provider
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	defaultModel  string
}

func NewChatService(provider ai.Provider, conversations repository.ConversationRepository, messages repository.MessageRepository, defaultModel string) *ChatService {
	return &ChatService{
		provider:      provider,
		conversations: conversations,
		messages:      messages,
		defaultModel:  defaultModel,
	}
}

func (s *ChatService) CreateConversation(userID uint, title string) (*models.Conversation, error) {
	if title == "" {
		title = "New Conversation"
	}
	conversation := &models.Conversation{
		UserID: userID,
		Title:  title,
	}
	if err := s.conversations.Create(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *ChatService) ListConversations(userID uint, offset, limit int) ([]models.Conversation, *ListMetadata, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	conversations, err := s.conversations.FindByUser(userID, offset, limit)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.conversations.CountByUser(userID)
	if err != nil {
		return nil, nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return conversations, &ListMetadata{
		TotalItems: total,
		Offset:     offset,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *ChatService) GetConversation(userID, conversationID uint) (*models.Conversation, []models.ChatMessage, error) {
	conversation, err := s.findOwned(userID, conversationID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.messages.FindByConversation(conversationID)
	if err != nil {
		return nil, nil, err
	}
	return conversation, messages, nil
}

// DeleteConversation 刪除對話與其全部訊息，兩者在同一個交易內完成
func (s *ChatService) DeleteConversation(userID, conversationID uint) error {
	if _, err := s.findOwned(userID, conversationID); err != nil {
		return err
	}
	return s.conversations.DeleteWithMessages(conversationID, userID)
}

// SendMessage 是非串流版本：同樣先落用戶訊息、組上下文，
// 然後阻塞等完整回覆，連同 token 用量一起落庫後回傳
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID uint, input SendMessageInput) (*models.ChatMessage, error) {
	if _, err := s.findOwned(userID, conversationID); err != nil {
		return nil, err
	}

	if err := s.saveUserMessage(userID, conversationID, input.Content); err != nil {
		return nil, err
	}

	history, err := s.buildContext(conversationID)
	if err != nil {
		return nil, err
	}

	completion, err := s.provider.CreateChatCompletion(ctx, history, ai.Options{
		Model:       input.Model,
		Temperature: input.Temperature,
	})
	if err != nil {
		metrics.ChatCompletionErrors.Inc()
		return nil, err
	}

	assistant := &models.ChatMessage{
		ConversationID:   conversationID,
		UserID:           userID,
		Role:             models.RoleAssistant,
		Content:          completion.Content,
		ModelName:        s.modelTag(input.Model),
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}
	if err := s.messages.Create(assistant); err != nil {
		return nil, err
	}
	if err := s.conversations.Touch(conversationID); err != nil {
		return nil, err
	}
	return assistant, nil
}

// StreamMessage 把上游的串流回覆逐塊經 send 轉發給呼叫端
// 轉發不等待完整結果；串流成功走完才把累積的全文落庫並更新對話時間戳，
// 中途出錯就原樣回傳錯誤，絕不落半截回覆
func (s *ChatService) StreamMessage(ctx context.Context, userID, conversationID uint, input SendMessageInput, send func(chunk string) error) error {
	if _, err := s.findOwned(userID, conversationID); err != nil {
		return err
	}

	// 用戶這一側先落庫，上游掛掉也不能丟提問
	if err := s.saveUserMessage(userID, conversationID, input.Content); err != nil {
		return err
	}

	history, err := s.buildContext(conversationID)
	if err != nil {
		return err
	}

	stream, err := s.provider.CreateChatCompletionStream(ctx, history, ai.Options{
		Model:       input.Model,
		Temperature: input.Temperature,
	})
	if err != nil {
		metrics.ChatCompletionErrors.Inc()
		return err
	}
	defer stream.Close()

	var assistantResponse []byte
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			metrics.ChatCompletionErrors.Inc()
			log.Error().Uint("conversation_id", conversationID).Err(err).Msg("streaming error")
			return err
		}

		assistantResponse = append(assistantResponse, chunk...)
		metrics.ChatStreamChunks.Inc()
		if err := send(chunk); err != nil {
			return err
		}
	}

	assistant := &models.ChatMessage{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           models.RoleAssistant,
		Content:        string(assistantResponse),
		ModelName:      s.modelTag(input.Model),
	}
	if err := s.messages.Create(assistant); err != nil {
		log.Error().Uint("conversation_id", conversationID).Err(err).
			Msg("error saving assistant response")
		return err
	}
	return s.conversations.Touch(conversationID)
}

func (s *ChatService) findOwned(userID, conversationID uint) (*models.Conversation, error) {
	conversation, err := s.conversations.FindByIDAndUser(conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conversation, nil
}

func (s *ChatService) saveUserMessage(userID, conversationID uint, content string) error {
	return s.messages.Create(&models.ChatMessage{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           models.RoleUser,
		Content:        content,
	})
}

// buildContext 取對話最近的訊息當上下文
// 查詢是由新到舊，送給模型前要反轉回時間順序
func (s *ChatService) buildContext(conversationID uint) ([]ai.Message, error) {
	recent, err := s.messages.FindRecentByConversation(conversationID, contextMessageLimit)
	if err != nil {
		return nil, err
	}

	history := make([]ai.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history, ai.Message{
			Role:    recent[i].Role,
			Content: recent[i].Content,
		})
	}
	return history, nil
}

func (s *ChatService) modelTag(requested string) string {
	if requested != "" {
		return requested
	}
	return s.defaultModel
}
