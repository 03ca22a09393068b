package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"blogpulse/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	gateway *service.RoomGateway
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(gateway *service.RoomGateway) *WebSocketHandler {
	return &WebSocketHandler{gateway: gateway}
}

// HandleWebSocket 處理 WebSocket 連接請求
// 參數與憑證的檢查放在升級之後，失敗原因以 error frame 傳回客戶端再斷線
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// 升級 HTTP 連接為 WebSocket 連接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	token := c.Query("token")
	roomID := c.Query("room_id")

	// HandleConnection 會一直阻塞到連線關閉
	h.gateway.HandleConnection(conn, token, roomID)
}

// RoomStats 回傳房間 ID 對在線人數的快照，供觀測用
func (h *WebSocketHandler) RoomStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.gateway.Registry().Stats()})
}
