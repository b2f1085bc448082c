package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"watchparty/internal/auth"
	"watchparty/internal/config"
	"watchparty/internal/metrics"
	"watchparty/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client 一条已认证的 WebSocket 连接。房间归属由 hub 索引维护，
// 核心只通过连接键引用它。
type Client struct {
	id     string
	userID string
	room   string
	closed bool
	hub    *Hub
	coord  *realtime.Coordinator
	conn   *websocket.Conn
	send   chan []byte
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inbound 上行消息信封，data 按事件类型延迟解码。
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Serve 处理 WebSocket 握手：先验证 token 与声称身份的配对，
// 失败时在连接进入任何表之前就拒绝。
func Serve(h *Hub, coord *realtime.Coordinator, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authz := c.GetHeader("Authorization")
			if len(authz) > 7 && (authz[:7] == "Bearer " || authz[:7] == "bearer ") {
				token = authz[7:]
			}
		}
		claimedID := c.Query("userId")
		if token == "" || claimedID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication error"})
			return
		}
		userID, err := auth.VerifyIdentity(token, claimedID, cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{
			id:     uuid.NewString(),
			userID: userID,
			hub:    h,
			coord:  coord,
			conn:   conn,
			send:   make(chan []byte, 256),
		}
		h.Register(client)
		coord.Connect(c.Request.Context(), userID, client.id)

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.coord.Disconnect(context.Background(), c.id)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1 << 20) // 1MB
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var in inbound
		if err := json.Unmarshal(data, &in); err != nil || in.Type == "" {
			continue
		}
		c.dispatch(in)
	}
}

// dispatch 把上行事件路由到核心。payload 解码失败的事件直接丢弃，
// 单个事件出错不影响连接继续服务。
func (c *Client) dispatch(in inbound) {
	metrics.EventsTotal.WithLabelValues(in.Type).Inc()
	ctx := context.Background()

	switch in.Type {
	case realtime.EventJoinRoom:
		// 上行的 user 以 id 为键，下行成员列表用 userId，两边字段名不对称。
		var p struct {
			RoomID string `json:"roomId"`
			User   struct {
				ID             string `json:"id"`
				Username       string `json:"username"`
				DisplayName    string `json:"displayName"`
				ProfilePicture string `json:"profilePicture"`
				Bio            string `json:"bio"`
				IsHost         bool   `json:"isHost"`
			} `json:"user"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.RoomID == "" || p.User.ID == "" {
			return
		}
		profile := realtime.MemberProfile{
			UserID:         p.User.ID,
			Username:       p.User.Username,
			DisplayName:    p.User.DisplayName,
			ProfilePicture: p.User.ProfilePicture,
			Bio:            p.User.Bio,
			IsHost:         p.User.IsHost,
		}
		c.hub.JoinRoom(c, p.RoomID)
		c.coord.JoinRoom(p.RoomID, c.id, profile)

	case realtime.EventLeaveRoom:
		var p struct {
			RoomID string `json:"roomId"`
			UserID string `json:"userId"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.RoomID == "" {
			return
		}
		c.hub.LeaveRoom(c, p.RoomID)
		c.coord.LeaveRoom(p.RoomID, c.id, p.UserID)

	case realtime.EventPlayTrack:
		var p struct {
			RoomID    string         `json:"roomId"`
			TrackData realtime.Track `json:"trackData"`
			Timestamp int64          `json:"timestamp"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.RoomID == "" {
			return
		}
		c.coord.PlayTrack(p.RoomID, p.TrackData, p.Timestamp)

	case realtime.EventPlayStateUpdate:
		var p struct {
			RoomID      string  `json:"roomId"`
			IsPlaying   bool    `json:"isPlaying"`
			CurrentTime float64 `json:"currentTime"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.RoomID == "" {
			return
		}
		c.coord.UpdatePlayState(p.RoomID, realtime.PlayState{IsPlaying: p.IsPlaying, CurrentTime: p.CurrentTime}, c.id)

	case realtime.EventSyncRequest:
		var p struct {
			RoomID string `json:"roomId"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.RoomID == "" {
			return
		}
		c.coord.SyncRequest(p.RoomID, c.id)

	case realtime.EventAddToQueue:
		var p struct {
			RoomID string         `json:"roomId"`
			Track  realtime.Track `json:"track"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.RoomID == "" {
			return
		}
		c.coord.Enqueue(p.RoomID, p.Track)

	case realtime.EventRemoveFromQueue:
		var p struct {
			RoomID  string `json:"roomId"`
			TrackID string `json:"trackId"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.RoomID == "" {
			return
		}
		c.coord.Dequeue(p.RoomID, p.TrackID)

	case realtime.EventChatMessage:
		var p struct {
			RoomID  string               `json:"roomId"`
			Message realtime.ChatMessage `json:"message"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.RoomID == "" {
			return
		}
		c.coord.PostMessage(p.RoomID, p.Message)

	case realtime.EventFetchMessages:
		var p struct {
			FriendID string `json:"friendId"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.FriendID == "" {
			return
		}
		c.coord.FetchHistory(ctx, c.userID, p.FriendID, c.id)

	case realtime.EventPrivateMessage:
		var p struct {
			To   string `json:"to"`
			Text string `json:"text"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.To == "" || p.Text == "" {
			return
		}
		c.coord.SendDirect(ctx, c.userID, c.id, p.To, p.Text)

	case realtime.EventMarkMessagesRead:
		var p struct {
			FriendID string `json:"friendId"`
		}
		if json.Unmarshal(in.Data, &p) != nil || p.FriendID == "" {
			return
		}
		c.coord.MarkRead(ctx, c.userID, p.FriendID)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
