package service

import (
	"sync"

	"github.com/rs/zerolog/log"

	"blogpulse/internal/metrics"
)

type memberRef struct {
	userID uint
	roomID string
}

// RoomRegistry 是「誰連在哪個房間」的唯一事實來源
// rooms 是 roomID -> userID -> client 的正向映射
// members 是 client -> (user, room) 的反向映射，兩邊在同一把鎖下同步增刪
type RoomRegistry struct {
	mu      sync.RWMutex
	rooms   map[string]map[uint]*Client
	members map[*Client]memberRef
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:   make(map[string]map[uint]*Client),
		members: make(map[*Client]memberRef),
	}
}

// Join 登記 (user, room) 的唯一存活連線
// 同一組 (user, room) 已有不同連線時，舊連線會被強制清掉再換上新的
// 同時掛上一次性的斷線清理，連線關閉時自動離房
func (r *RoomRegistry) Join(userID uint, roomID string, client *Client) {
	if userID == 0 || roomID == "" || client == nil {
		log.Warn().Uint("user_id", userID).Str("room_id", roomID).
			Msg("invalid parameters for registry join")
		return
	}

	var evicted *Client

	r.mu.Lock()
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[uint]*Client)
	}
	if old := r.rooms[roomID][userID]; old != nil && old != client {
		evicted = old
		delete(r.members, old)
		metrics.WsConnections.Dec()
	}
	r.rooms[roomID][userID] = client
	r.members[client] = memberRef{userID: userID, roomID: roomID}
	r.mu.Unlock()

	metrics.WsConnections.Inc()
	client.OnClose(func() {
		r.removeClient(client)
	})

	// 在鎖外收掉被頂替的舊連線，它的離房 hook 此時已是 no-op
	if evicted != nil {
		r.cleanup(evicted)
	}

	log.Debug().Uint("user_id", userID).Str("room_id", roomID).
		Str("conn_id", client.ID).Msg("user joined room")
}

// Leave 移除 (user, room) 的登記並關閉其連線
// 重複呼叫或對不存在的映射呼叫都是 no-op
func (r *RoomRegistry) Leave(userID uint, roomID string) {
	if userID == 0 || roomID == "" {
		log.Warn().Uint("user_id", userID).Str("room_id", roomID).
			Msg("invalid parameters for registry leave")
		return
	}

	r.mu.Lock()
	client := r.rooms[roomID][userID]
	if client != nil {
		delete(r.rooms[roomID], userID)
		delete(r.members, client)
		if len(r.rooms[roomID]) == 0 {
			delete(r.rooms, roomID)
		}
		metrics.WsConnections.Dec()
	}
	r.mu.Unlock()

	if client != nil {
		r.cleanup(client)
		log.Debug().Uint("user_id", userID).Str("room_id", roomID).Msg("user left room")
	}
}

// removeClient 是斷線 hook 走的路徑，只在 client 仍是當前登記者時移除
// 被 Join 頂掉的舊連線走到這裡會直接 no-op
func (r *RoomRegistry) removeClient(client *Client) {
	r.mu.Lock()
	ref, ok := r.members[client]
	if ok {
		delete(r.members, client)
		if r.rooms[ref.roomID][ref.userID] == client {
			delete(r.rooms[ref.roomID], ref.userID)
			if len(r.rooms[ref.roomID]) == 0 {
				delete(r.rooms, ref.roomID)
			}
		}
		metrics.WsConnections.Dec()
	}
	r.mu.Unlock()

	if ok {
		log.Debug().Uint("user_id", ref.userID).Str("room_id", ref.roomID).
			Str("conn_id", client.ID).Msg("connection removed from room")
	}
}

// LookupConnection 查詢 (user, room) 當前的存活連線
func (r *RoomRegistry) LookupConnection(userID uint, roomID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.rooms[roomID][userID]
	return client, ok
}

// LookupUser 反查連線登記的 (user, room)
func (r *RoomRegistry) LookupUser(client *Client) (uint, string, bool) {
	if client == nil {
		return 0, "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.members[client]
	return ref.userID, ref.roomID, ok
}

// Stats 回傳房間 ID 對在線人數的快照，只讀不改
func (r *RoomRegistry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]int, len(r.rooms))
	for roomID, members := range r.rooms {
		stats[roomID] = len(members)
	}
	return stats
}

// Broadcast 向房間內的所有連線廣播消息
// 發送隊列滿的連線視為慢速消費者，直接移除並關閉
func (r *RoomRegistry) Broadcast(roomID string, frame []byte) {
	r.broadcast(roomID, nil, frame)
}

// BroadcastExcept 廣播給房間內除 sender 以外的所有連線
func (r *RoomRegistry) BroadcastExcept(roomID string, sender *Client, frame []byte) {
	r.broadcast(roomID, sender, frame)
}

func (r *RoomRegistry) broadcast(roomID string, skip *Client, frame []byte) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.rooms[roomID]))
	for _, c := range r.rooms[roomID] {
		if c != skip {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range clients {
		if !c.Send(frame) {
			// 客戶端消息隊列已滿，移除並關閉連接
			r.removeClient(c)
			r.cleanup(c)
		}
	}
}

// cleanup 收掉一條連線，任何底層錯誤都只記錄，絕不往上拋
func (r *RoomRegistry) cleanup(client *Client) {
	if client == nil {
		return
	}
	client.Close()
}
