package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client 代表一個 WebSocket 客戶端連接
// 建立時尚未認證，Gateway 認證成功後才補上 UserID 並交給 RoomRegistry 管理
type Client struct {
	ID     string          // 連線的識別碼，只用於日誌
	UserID uint            // 用戶 ID，認證成功後設定
	RoomID string          // 房間 ID（即貼文 ID）
	conn   *websocket.Conn // WebSocket 連接，測試時可為 nil
	send   chan []byte     // 消息發送通道，用於異步傳送消息
	done   chan struct{}   // 關閉信號，通知 writePump 退出

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
	onClose   []func()
}

func newClient(conn *websocket.Conn, roomID string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		RoomID: roomID,
		conn:   conn,
		send:   make(chan []byte, 256), // 設置緩衝大小為 256 的消息通道
		done:   make(chan struct{}),
	}
}

// Send 非阻塞地投遞一個已編碼的 frame
// 回傳 false 表示發送隊列已滿，呼叫端應視為慢速消費者處理
func (c *Client) Send(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// OnClose 註冊連線關閉時執行的一次性清理
// 連線已經關閉時直接執行，不會被默默丟掉
func (c *Client) OnClose(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		fn()
		return
	}
	c.onClose = append(c.onClose, fn)
	c.mu.Unlock()
}

// Close 關閉底層連線並執行全部清理
// 可以重複或並發呼叫，清理只會執行一次，底層錯誤只記錄不往外傳
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			if err := c.conn.Close(); err != nil {
				log.Debug().Str("conn_id", c.ID).Err(err).Msg("close websocket transport")
			}
		}

		c.mu.Lock()
		c.closed = true
		fns := c.onClose
		c.onClose = nil
		c.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}
