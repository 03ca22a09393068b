package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"blogpulse/internal/metrics"
	"blogpulse/internal/models"
	"blogpulse/internal/repository"
)

// 認證失敗後先讓錯誤 frame flush 出去再關連線
const closeGraceDelay = 100 * time.Millisecond

// Frame 是 WebSocket 上往返的事件封包
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, data interface{}) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Str("event", event).Err(err).Msg("frame encoding error")
		return nil
	}
	b, _ := json.Marshal(Frame{Event: event, Data: raw})
	return b
}

func errorFrame(message string) []byte {
	return encodeFrame("error", map[string]string{
		"status":  "error",
		"message": message,
	})
}

// RoomGateway 管理留言房間的連線生命週期與事件分發
// 每條連線走 PENDING -> JOINED -> CLOSED：
// 認證通過後登記進 RoomRegistry 並收到房間既有留言快照，
// 之後的事件必須是登記過的房間成員才會被處理
type RoomGateway struct {
	registry      *RoomRegistry
	authenticator *ConnectionAuthenticator
	comments      repository.CommentRepository
}

func NewRoomGateway(registry *RoomRegistry, authenticator *ConnectionAuthenticator, comments repository.CommentRepository) *RoomGateway {
	return &RoomGateway{
		registry:      registry,
		authenticator: authenticator,
		comments:      comments,
	}
}

// Registry 暴露底層的 RoomRegistry，供觀測端點讀取在線統計
func (g *RoomGateway) Registry() *RoomRegistry {
	return g.registry
}

// HandleConnection 處理一條剛升級完成的 WebSocket 連線
// 認證、登記、發送房間快照之後進入讀取循環，直到連線關閉才返回
func (g *RoomGateway) HandleConnection(conn *websocket.Conn, token, roomID string) {
	client := newClient(conn, roomID)
	go g.writePump(client)

	identity, err := g.authenticator.Authenticate(context.Background(), token, roomID)
	if err != nil {
		log.Warn().Str("conn_id", client.ID).Str("room_id", roomID).Err(err).
			Msg("connection rejected")
		client.Send(errorFrame(err.Error()))
		// 稍等一下讓錯誤 frame 送出去，不要立刻斷線
		time.Sleep(closeGraceDelay)
		client.Close()
		return
	}

	client.UserID = identity.UserID
	g.registry.Join(identity.UserID, roomID, client)

	// 房間既有的頂層留言只送給剛連上的客戶端，不廣播
	if comments, err := g.comments.FindTopLevelByPostID(roomID); err != nil {
		log.Error().Str("room_id", roomID).Err(err).Msg("load room comments")
		client.Send(errorFrame("failed to load comments"))
	} else {
		client.Send(encodeFrame("newComment", comments))
	}

	log.Info().Str("conn_id", client.ID).Uint("user_id", identity.UserID).
		Str("room_id", roomID).Msg("connection joined room")

	g.readPump(client)
}

// readPump 持續監聽並處理從客戶端接收的事件
func (g *RoomGateway) readPump(client *Client) {
	defer client.Close()

	client.conn.SetReadLimit(4096) // 設置最大消息大小為 4KB
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Str("conn_id", client.ID).Err(err).Msg("websocket unexpected close error")
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Warn().Str("conn_id", client.ID).Err(err).Msg("frame parse error")
			continue
		}

		g.dispatch(client, frame)
	}
}

// writePump 處理向客戶端發送消息的邏輯
func (g *RoomGateway) writePump(client *Client) {
	// 設置心跳檢查計時器
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case frame := <-client.send:
			if client.conn == nil {
				continue
			}
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			if client.conn == nil {
				continue
			}
			// 發送心跳包
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.done:
			return
		}
	}
}

// dispatch 分發單一事件，任何錯誤都只影響這條連線的這一次事件
func (g *RoomGateway) dispatch(client *Client, frame Frame) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("conn_id", client.ID).Str("room_id", client.RoomID).
				Str("event", frame.Event).Interface("panic", rec).
				Msg("panic while handling event")
			client.Send(errorFrame("internal error"))
		}
	}()

	var err error
	switch frame.Event {
	case "sendComment":
		err = g.handleSendComment(client, frame.Data)
	case "typing":
		err = g.handleTyping(client, frame.Data)
	case "markAsRead":
		err = g.handleMarkAsRead(client, frame.Data)
	case "getAllComments":
		err = g.handleGetAllComments(client)
	default:
		client.Send(errorFrame("unknown event: " + frame.Event))
		return
	}

	if err != nil {
		log.Error().Str("conn_id", client.ID).Str("room_id", client.RoomID).
			Str("event", frame.Event).Err(err).Msg("event handling error")
		client.Send(errorFrame(err.Error()))
	}
}

type sendCommentPayload struct {
	Body            string `json:"body"`
	ParentCommentID *uint  `json:"parent_comment_id,omitempty"`
}

// handleSendComment 持久化留言後重新載入整份頂層留言列表廣播給全房間
// 廣播整份列表而不是增量，讓所有成員收斂到同一份權威視圖
func (g *RoomGateway) handleSendComment(client *Client, data json.RawMessage) error {
	userID, roomID, ok := g.registry.LookupUser(client)
	if !ok {
		return ErrUnauthorized
	}

	var payload sendCommentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	comment := &models.Comment{
		PostID:          roomID,
		UserID:          userID,
		Body:            payload.Body,
		ParentCommentID: payload.ParentCommentID,
	}
	if err := g.comments.Create(comment); err != nil {
		return err
	}
	metrics.WsMessagesTotal.Inc()

	comments, err := g.comments.FindTopLevelByPostID(roomID)
	if err != nil {
		return err
	}

	g.registry.Broadcast(roomID, encodeFrame("newComment", comments))
	client.Send(encodeFrame("sendComment", map[string]interface{}{
		"status": "success",
		"data":   comments,
	}))
	return nil
}

type typingPayload struct {
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

// handleTyping 把打字狀態轉發給房間內其他成員，不落庫
func (g *RoomGateway) handleTyping(client *Client, data json.RawMessage) error {
	userID, roomID, ok := g.registry.LookupUser(client)
	if !ok {
		return ErrUnauthorized
	}

	var payload typingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if payload.RoomID == "" {
		payload.RoomID = roomID
	}

	g.registry.BroadcastExcept(payload.RoomID, client, encodeFrame("userTyping", map[string]interface{}{
		"user_id":   userID,
		"is_typing": payload.IsTyping,
	}))
	return nil
}

type markAsReadPayload struct {
	CommentID uint `json:"comment_id"`
}

// handleMarkAsRead 目前不落任何已讀狀態，只觸發整房的留言列表刷新
// 真正的已讀模型要等產品確認後再加
func (g *RoomGateway) handleMarkAsRead(client *Client, data json.RawMessage) error {
	userID, roomID, ok := g.registry.LookupUser(client)
	if !ok {
		return ErrUnauthorized
	}

	var payload markAsReadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	log.Debug().Uint("user_id", userID).Uint("comment_id", payload.CommentID).
		Msg("comment marked as read")

	comments, err := g.comments.FindTopLevelByPostID(roomID)
	if err != nil {
		return err
	}

	g.registry.Broadcast(roomID, encodeFrame("newComment", comments))
	client.Send(encodeFrame("markAsRead", map[string]string{"status": "success"}))
	return nil
}

// handleGetAllComments 重新載入留言列表，只回給發起請求的連線
func (g *RoomGateway) handleGetAllComments(client *Client) error {
	_, roomID, ok := g.registry.LookupUser(client)
	if !ok {
		return ErrUnauthorized
	}

	comments, err := g.comments.FindTopLevelByPostID(roomID)
	if err != nil {
		return err
	}

	client.Send(encodeFrame("newComment", comments))
	return nil
}
