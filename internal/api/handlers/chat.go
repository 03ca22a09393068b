package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"blogpulse/internal/service"
)

// ChatHandler 處理 AI 對話相關的請求
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler 創建一個新的 ChatHandler 實例
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// CreateConversation 建立一個新的對話串
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	var input struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversation, err := h.chatService.CreateConversation(currentUserID(c), input.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "創建對話失敗"})
		return
	}

	c.JSON(http.StatusCreated, conversation)
}

// ListConversations 分頁列出用戶的對話
func (h *ChatHandler) ListConversations(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	conversations, metadata, err := h.chatService.ListConversations(currentUserID(c), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢對話列表失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     conversations,
		"metadata": metadata,
	})
}

// GetConversation 取得單一對話與其完整訊息
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conversationID, err := parseConversationID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的對話ID"})
		return
	}

	conversation, messages, err := h.chatService.GetConversation(currentUserID(c), conversationID)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢對話失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": conversation,
		"messages":     messages,
	})
}

// DeleteConversation 刪除對話與其全部訊息
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	conversationID, err := parseConversationID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的對話ID"})
		return
	}

	if err := h.chatService.DeleteConversation(currentUserID(c), conversationID); err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "刪除對話失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted successfully"})
}

// SendMessage 發送一條訊息並阻塞等待完整回覆
func (h *ChatHandler) SendMessage(c *gin.Context) {
	conversationID, err := parseConversationID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的對話ID"})
		return
	}

	var input service.SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), currentUserID(c), conversationID, input)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		log.Error().Uint("conversation_id", conversationID).Err(err).Msg("send message error")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to get chat completion"})
		return
	}

	c.JSON(http.StatusOK, message)
}

// StreamMessage 發送一條訊息並以 SSE 形式串流回覆
// 每塊內容包成 data: {"content":...}，結束時固定送一次 data: [DONE]，
// 不論成功或失敗 [DONE] 都只會出現一次
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	conversationID, err := parseConversationID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不存在的對話ID"})
		return
	}

	var input service.SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	streamErr := h.chatService.StreamMessage(c.Request.Context(), currentUserID(c), conversationID, input,
		func(chunk string) error {
			return writeSSE(c, gin.H{"content": chunk})
		})
	if streamErr != nil {
		log.Error().Uint("conversation_id", conversationID).Err(streamErr).Msg("streaming error")
		_ = writeSSE(c, gin.H{"error": streamErr.Error()})
	}

	// 結束哨兵，成功與失敗都只送這一次
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

// writeSSE 寫出一個 data: <json>\n\n 的事件並立即 flush
func writeSSE(c *gin.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func currentUserID(c *gin.Context) uint {
	userID, _ := c.Get("userID")
	id, _ := userID.(uint)
	return id
}

func parseConversationID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
