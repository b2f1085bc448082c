package realtime

import (
	"context"
	"sync"
	"time"

	"watchparty/internal/metrics"

	"github.com/rs/zerolog"
)

const defaultCleanupDelay = 5 * time.Second

type (
	// Broadcaster 由传输层实现，把事件推送给房间内的连接或指定连接。
	// 推送是发后不理的：目标连接已断开时静默丢弃，不向调用方报错。
	Broadcaster interface {
		Publish(roomID, event string, payload interface{})
		PublishExcept(roomID, event string, payload interface{}, exceptConn string)
		Send(connID, event string, payload interface{})
	}

	// Store 是核心消费的持久化协作方的窄契约。所有失败只记日志，
	// 内存状态照常推进。
	Store interface {
		SaveDirectMessage(ctx context.Context, from, to, text string) (StoredMessage, error)
		ListDirectMessages(ctx context.Context, userID, peerID string, limit int) ([]StoredMessage, error)
		MarkMessagesRead(ctx context.Context, readerID, peerID string) error
		SenderProfile(ctx context.Context, userID string) (SenderPeer, error)
		SetUserOnline(ctx context.Context, userID string, online bool) error
		DeleteRoom(ctx context.Context, roomID string) error
	}

	// room 成员表和播放状态总是一起创建、一起销毁。
	room struct {
		members map[string]MemberProfile
		state   *RoomState
	}

	Config struct {
		Broadcaster  Broadcaster
		Store        Store
		Logger       *zerolog.Logger
		CleanupDelay time.Duration
		Now          func() time.Time
	}

	// Coordinator 持有进程内全部共享表（在线映射、房间成员、房间状态），
	// 单个互斥锁保证事件之间的表变更互相原子。跨存储往返的操作在锁外
	// 访问存储，期间表可能已经变化，各路径都按"对端可能已离线"处理。
	Coordinator struct {
		mu           sync.Mutex
		presence     *Presence
		rooms        map[string]*room
		bc           Broadcaster
		store        Store
		logger       zerolog.Logger
		cleanupDelay time.Duration
		now          func() time.Time
	}
)

func NewCoordinator(cfg Config) *Coordinator {
	delay := cfg.CleanupDelay
	if delay <= 0 {
		delay = defaultCleanupDelay
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		presence:     NewPresence(),
		rooms:        make(map[string]*room),
		bc:           cfg.Broadcaster,
		store:        cfg.Store,
		logger:       cfg.Logger.With().Str("component", "coordinator").Logger(),
		cleanupDelay: delay,
		now:          now,
	}
}

// Connect 在握手通过后把连接绑定到用户身份。同一用户已有别的连接时，
// 先对旧连接执行驱逐路径（移出所在房间并广播离开），再安装新映射。
func (co *Coordinator) Connect(ctx context.Context, userID, connID string) {
	co.mu.Lock()
	co.bindLocked(userID, connID)
	co.mu.Unlock()

	if err := co.store.SetUserOnline(ctx, userID, true); err != nil {
		co.logger.Error().Err(err).Str("userID", userID).Msg("failed to persist online status")
	}
}

// bindLocked 安装用户到连接的映射，必要时驱逐同一用户的旧连接。
func (co *Coordinator) bindLocked(userID, connID string) {
	if old, evicted := co.presence.Bind(userID, connID); evicted {
		for roomID, r := range co.rooms {
			if _, ok := r.members[old]; !ok {
				continue
			}
			co.bc.Publish(roomID, EventUserLeft, old)
			delete(r.members, old)
			co.bc.Publish(roomID, EventUsersUpdate, memberList(r))
			if len(r.members) == 0 {
				co.scheduleCleanup(roomID)
			}
		}
	}
}

// Disconnect 处理连接断开：解除在线映射、把连接移出所有房间并广播，
// 空出来的房间排期清理。对从未注册过的连接调用是无害的。
func (co *Coordinator) Disconnect(ctx context.Context, connID string) {
	co.mu.Lock()
	userID, bound := co.presence.UnbindConn(connID)
	if bound {
		co.presence.SetOffline(userID)
	}
	for roomID, r := range co.rooms {
		if _, ok := r.members[connID]; !ok {
			continue
		}
		delete(r.members, connID)
		co.bc.Publish(roomID, EventUsersUpdate, memberList(r))
		if len(r.members) == 0 {
			co.scheduleCleanup(roomID)
		}
	}
	co.mu.Unlock()

	if bound {
		if err := co.store.SetUserOnline(ctx, userID, false); err != nil {
			co.logger.Error().Err(err).Str("userID", userID).Msg("failed to persist offline status")
		}
	}
}

// JoinRoom 把连接登记到房间：先从其它房间移除，再写入成员表，
// 给加入者单发完整房间快照，给全房间广播最新成员列表。
// 房间没有状态时就地创建默认状态，而不是报错。
func (co *Coordinator) JoinRoom(roomID, connID string, profile MemberProfile) {
	if profile.UserID == "" {
		return
	}
	co.mu.Lock()
	defer co.mu.Unlock()

	co.bindLocked(profile.UserID, connID)

	for otherID, r := range co.rooms {
		if otherID == roomID {
			continue
		}
		if _, ok := r.members[connID]; !ok {
			continue
		}
		delete(r.members, connID)
		co.bc.Publish(otherID, EventUsersUpdate, memberList(r))
		if len(r.members) == 0 {
			co.scheduleCleanup(otherID)
		}
	}

	r := co.ensureRoomLocked(roomID)
	r.members[connID] = profile

	co.bc.Send(connID, EventRoomState, r.state.snapshot())
	co.bc.Publish(roomID, EventUsersUpdate, memberList(r))
}

// LeaveRoom 把连接移出房间并解除其用户映射，剩余成员收到更新后的列表。
func (co *Coordinator) LeaveRoom(roomID, connID, userID string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if userID != "" {
		if bound, ok := co.presence.ConnOf(userID); ok && bound == connID {
			co.presence.UnbindUser(userID)
		}
	}

	r, ok := co.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := r.members[connID]; !ok {
		return
	}
	delete(r.members, connID)
	co.bc.Publish(roomID, EventUsersUpdate, memberList(r))
	if len(r.members) == 0 {
		co.scheduleCleanup(roomID)
	}
}

// PlayTrack 无条件切换当前曲目并通知全房间（包括发起者）。
func (co *Coordinator) PlayTrack(roomID string, track Track, timestamp int64) {
	co.mu.Lock()
	defer co.mu.Unlock()

	r := co.ensureRoomLocked(roomID)
	r.state.applyTrack(track, timestamp)
	co.bc.Publish(roomID, EventTrackUpdate, TrackUpdate{TrackData: track, Timestamp: timestamp})
}

// UpdatePlayState 记录播放/暂停与进度，广播给发起者以外的成员，
// 避免发起者收到自己刚发出的状态造成回环。房间不存在时不做任何事。
func (co *Coordinator) UpdatePlayState(roomID string, state PlayState, originConn string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	r, ok := co.rooms[roomID]
	if !ok {
		return
	}
	r.state.applyPlayState(state.IsPlaying, state.CurrentTime, co.now())
	co.bc.PublishExcept(roomID, EventPlayStateUpdate, state, originConn)
}

// SyncRequest 只回给请求者：按最后一次落值加经过时间估算当前位置。
// 没有正在播放的曲目时静默忽略。
func (co *Coordinator) SyncRequest(roomID, connID string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	r, ok := co.rooms[roomID]
	if !ok || r.state.CurrentTrack == nil {
		return
	}
	track := *r.state.CurrentTrack
	co.bc.Send(connID, EventSyncResponse, SyncResponse{
		Track:    &track,
		SeekTime: r.state.estimate(co.now()),
	})
}

// Enqueue 追加曲目到队列并广播新增项。
func (co *Coordinator) Enqueue(roomID string, track Track) {
	co.mu.Lock()
	defer co.mu.Unlock()

	r := co.ensureRoomLocked(roomID)
	r.state.Queue = append(r.state.Queue, track)
	co.bc.Publish(roomID, EventQueueUpdate, track)
}

// Dequeue 按曲目 ID 移除队列项。无论是否命中都广播移除事件，
// 调用方视角下操作是幂等的。
func (co *Coordinator) Dequeue(roomID, trackID string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if r, ok := co.rooms[roomID]; ok {
		r.state.removeQueued(trackID)
	}
	co.bc.Publish(roomID, EventQueueItemRemoved, trackID)
}

// PostMessage 补齐时间戳后追加到房间聊天记录（只保留最近 25 条）并广播。
func (co *Coordinator) PostMessage(roomID string, msg ChatMessage) {
	co.mu.Lock()
	defer co.mu.Unlock()

	r := co.ensureRoomLocked(roomID)
	if msg.Timestamp.IsZero() {
		msg.Timestamp = co.now()
	}
	r.state.pushMessage(msg)
	metrics.ChatMessagesTotal.Inc()
	co.bc.Publish(roomID, EventNewMessage, msg)
}

// IsOnline 供 REST 层查询用户在线状态。
func (co *Coordinator) IsOnline(userID string) bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.presence.IsOnline(userID)
}

// Occupancy 返回房间当前成员数，供房间列表展示。
func (co *Coordinator) Occupancy(roomID string) int {
	co.mu.Lock()
	defer co.mu.Unlock()
	r, ok := co.rooms[roomID]
	if !ok {
		return 0
	}
	return len(r.members)
}

// Members 返回房间成员快照，顺序不保证；同一用户的多个连接可能短暂并存。
func (co *Coordinator) Members(roomID string) []MemberProfile {
	co.mu.Lock()
	defer co.mu.Unlock()
	r, ok := co.rooms[roomID]
	if !ok {
		return nil
	}
	return memberList(r)
}

// NotifyUser 给指定用户的在线连接推送事件，用户离线时返回 false。
func (co *Coordinator) NotifyUser(userID, event string, payload interface{}) bool {
	co.mu.Lock()
	connID, ok := co.presence.ConnOf(userID)
	online := ok && co.presence.IsOnline(userID)
	co.mu.Unlock()
	if !online {
		return false
	}
	co.bc.Send(connID, event, payload)
	return true
}

// ensureRoomLocked 房间首次被引用时物化成员表与默认播放状态。
func (co *Coordinator) ensureRoomLocked(roomID string) *room {
	r, ok := co.rooms[roomID]
	if !ok {
		r = &room{
			members: make(map[string]MemberProfile),
			state:   newRoomState(co.now()),
		}
		co.rooms[roomID] = r
		metrics.ActiveRooms.Inc()
	}
	return r
}

// scheduleCleanup 房间空了之后延迟复查再删除，吸收刷新页面造成的快速重进。
// 定时器不会因为重进而取消，到点发现房间非空就什么都不做。
func (co *Coordinator) scheduleCleanup(roomID string) {
	time.AfterFunc(co.cleanupDelay, func() {
		co.mu.Lock()
		r, ok := co.rooms[roomID]
		if !ok || len(r.members) != 0 {
			co.mu.Unlock()
			return
		}
		delete(co.rooms, roomID)
		metrics.ActiveRooms.Dec()
		co.mu.Unlock()

		// 内存清理是权威的，持久层删不掉只记日志不重试。
		if err := co.store.DeleteRoom(context.Background(), roomID); err != nil {
			co.logger.Error().Err(err).Str("roomID", roomID).Msg("failed to delete persisted room")
			return
		}
		co.logger.Info().Str("roomID", roomID).Msg("room deleted due to no active users")
	})
}

func memberList(r *room) []MemberProfile {
	out := make([]MemberProfile, 0, len(r.members))
	for _, p := range r.members {
		out = append(out, p)
	}
	return out
}
