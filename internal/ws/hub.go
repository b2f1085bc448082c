package ws

import (
	"encoding/json"
	"sync"

	"watchparty/internal/metrics"

	"github.com/rs/zerolog/log"
)

// outbound 统一的下行消息信封。
type outbound struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub 维护全部活跃连接和房间到连接的索引，并实现核心的 Broadcaster 能力。
// 写入慢的客户端在广播时被直接摘除，由它自己的写协程善后。
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register 登记新连接。
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	metrics.WsConnections.Inc()
}

// Unregister 摘除连接并关闭其发送通道，重复调用是安全的。
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	h.removeLocked(c)
	metrics.WsConnections.Dec()
}

// JoinRoom 把连接挂到房间索引下，先从原来的房间摘除。
func (h *Hub) JoinRoom(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
	conns, ok := h.rooms[roomID]
	if !ok {
		conns = make(map[string]*Client)
		h.rooms[roomID] = conns
	}
	conns[c.id] = c
	c.room = roomID
}

// LeaveRoom 把连接从房间索引摘下。
func (h *Hub) LeaveRoom(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.room == roomID {
		h.leaveLocked(c)
	}
}

// Publish 向房间内全部连接广播事件。
func (h *Hub) Publish(roomID, event string, payload interface{}) {
	h.publish(roomID, event, payload, "")
}

// PublishExcept 向房间内除指定连接外的全部连接广播事件。
func (h *Hub) PublishExcept(roomID, event string, payload interface{}, exceptConn string) {
	h.publish(roomID, event, payload, exceptConn)
}

func (h *Hub) publish(roomID, event string, payload interface{}, exceptConn string) {
	b, err := json.Marshal(outbound{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal broadcast")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cli := range h.rooms[roomID] {
		if id == exceptConn {
			continue
		}
		select {
		case cli.send <- b:
		default:
			h.removeLocked(cli)
			metrics.WsConnections.Dec()
		}
	}
}

// Send 给单个连接推送事件，连接不存在时静默丢弃。
func (h *Hub) Send(connID, event string, payload interface{}) {
	b, err := json.Marshal(outbound{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal send")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	cli, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case cli.send <- b:
	default:
		h.removeLocked(cli)
		metrics.WsConnections.Dec()
	}
}

// Online 返回房间索引中的连接数，供连接级指标与调试使用。
func (h *Hub) Online(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func (h *Hub) leaveLocked(c *Client) {
	if c.room == "" {
		return
	}
	if conns, ok := h.rooms[c.room]; ok {
		delete(conns, c.id)
		if len(conns) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

func (h *Hub) removeLocked(c *Client) {
	delete(h.clients, c.id)
	h.leaveLocked(c)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
