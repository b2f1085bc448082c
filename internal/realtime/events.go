package realtime

import "time"

// 客户端到服务端的事件名。
const (
	EventJoinRoom         = "join_room"
	EventLeaveRoom        = "leave_room"
	EventPlayTrack        = "play_track"
	EventPlayStateUpdate  = "play_state_update"
	EventSyncRequest      = "sync_request"
	EventAddToQueue       = "add_to_queue"
	EventRemoveFromQueue  = "remove_from_queue"
	EventChatMessage      = "chat_message"
	EventFetchMessages    = "fetch_messages"
	EventPrivateMessage   = "private_message"
	EventMarkMessagesRead = "mark_messages_read"
)

// 服务端到客户端的事件名。play_state_update 双向同名。
const (
	EventRoomState        = "room_state"
	EventUsersUpdate      = "users_update"
	EventUserLeft         = "user_left"
	EventTrackUpdate      = "track_update"
	EventSyncResponse     = "sync_response"
	EventQueueUpdate      = "queue_update"
	EventQueueItemRemoved = "queue_item_removed"
	EventNewMessage       = "new_message"
	EventMessageError     = "message_error"
)

// 好友通知事件，由 REST 层通过在线连接推送。
const (
	EventFriendRequest         = "friend_request"
	EventFriendRequestResponse = "friend_request_response"
	EventFriendRemoved         = "friend_removed"
)

// ChatHistoryEvent 私聊历史按对端用户区分事件名。
func ChatHistoryEvent(peerID string) string { return "chat_history_" + peerID }

// PrivateMessageEvent 私信送达事件按发送者区分事件名。
func PrivateMessageEvent(senderID string) string { return "private_message_" + senderID }

// MessageSentEvent 发送回执按接收者区分事件名。
func MessageSentEvent(recipientID string) string { return "message_sent_" + recipientID }

// Track 队列中的曲目。
type Track struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// CurrentTrack 正在播放的曲目，StartTime 为开播时的毫秒时间戳。
type CurrentTrack struct {
	Track
	StartTime int64 `json:"startTime"`
}

// MemberProfile 房间成员对外展示的资料，按连接而非用户键控。
type MemberProfile struct {
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio"`
	IsHost         bool   `json:"isHost"`
}

// ChatMessage 房间聊天消息，原样转发客户端发来的字段，Timestamp 缺省时由服务端补齐。
type ChatMessage struct {
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"displayName,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

// RoomSnapshot 发给新加入者的完整房间状态。
type RoomSnapshot struct {
	CurrentTrack   *CurrentTrack `json:"currentTrack"`
	Queue          []Track       `json:"queue"`
	IsPlaying      bool          `json:"isPlaying"`
	CurrentTime    float64       `json:"currentTime"`
	LastUpdateTime int64         `json:"lastUpdateTime"`
	Messages       []ChatMessage `json:"messages"`
}

// TrackUpdate 广播给全房间的换曲通知。
type TrackUpdate struct {
	TrackData Track `json:"trackData"`
	Timestamp int64 `json:"timestamp"`
}

// PlayState 播放/暂停与进度。
type PlayState struct {
	IsPlaying   bool    `json:"isPlaying"`
	CurrentTime float64 `json:"currentTime"`
}

// SyncResponse 对 sync_request 的应答，seekTime 为估算的当前播放位置（秒）。
type SyncResponse struct {
	Track    *CurrentTrack `json:"track"`
	SeekTime float64       `json:"seekTime"`
}

// SenderPeer 私信 payload 中的发送者摘要。
type SenderPeer struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture"`
}

// DirectMessagePayload 推给收发双方的私信内容。
type DirectMessagePayload struct {
	ID        string     `json:"id"`
	From      SenderPeer `json:"from"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
}

// StoredMessage 持久化后的私信记录，用于历史查询。
type StoredMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
