package realtime

import "time"

// maxMessages 单个房间保留的聊天消息上限，超出后从最旧的开始丢弃。
const maxMessages = 25

// RoomState 单个房间的权威内存状态。currentTime 只在收到更新时落值，
// 读取方需要按 currentTime + 经过时间*isPlaying 重新解释，服务端不跑播放时钟。
type RoomState struct {
	CurrentTrack *CurrentTrack
	Queue        []Track
	IsPlaying    bool
	CurrentTime  float64
	LastUpdate   time.Time
	Messages     []ChatMessage
}

// newRoomState 房间首次被引用时的默认状态。
func newRoomState(now time.Time) *RoomState {
	return &RoomState{
		Queue:      []Track{},
		IsPlaying:  true,
		LastUpdate: now,
		Messages:   []ChatMessage{},
	}
}

// applyTrack 无条件切到新曲目并从头开始播放。
func (s *RoomState) applyTrack(track Track, timestamp int64) {
	s.CurrentTrack = &CurrentTrack{Track: track, StartTime: timestamp}
	s.IsPlaying = true
	s.CurrentTime = 0
	s.LastUpdate = time.UnixMilli(timestamp)
}

// applyPlayState 记录最近一次权威的播放状态。
func (s *RoomState) applyPlayState(isPlaying bool, currentTime float64, now time.Time) {
	s.IsPlaying = isPlaying
	s.CurrentTime = currentTime
	s.LastUpdate = now
}

// estimate 估算当前播放位置：暂停时返回落值，播放中加上经过的秒数。
func (s *RoomState) estimate(now time.Time) float64 {
	if !s.IsPlaying {
		return s.CurrentTime
	}
	return s.CurrentTime + now.Sub(s.LastUpdate).Seconds()
}

// pushMessage 追加聊天消息并把窗口裁剪到最近 maxMessages 条。
func (s *RoomState) pushMessage(msg ChatMessage) {
	s.Messages = append(s.Messages, msg)
	if len(s.Messages) > maxMessages {
		s.Messages = s.Messages[len(s.Messages)-maxMessages:]
	}
}

// removeQueued 按曲目 ID 移除队列项，没有命中也不报错。
func (s *RoomState) removeQueued(trackID string) {
	kept := s.Queue[:0]
	for _, t := range s.Queue {
		if t.VideoID != trackID {
			kept = append(kept, t)
		}
	}
	s.Queue = kept
}

// snapshot 生成发给新加入者的状态副本。
func (s *RoomState) snapshot() RoomSnapshot {
	queue := make([]Track, len(s.Queue))
	copy(queue, s.Queue)
	messages := make([]ChatMessage, len(s.Messages))
	copy(messages, s.Messages)
	var track *CurrentTrack
	if s.CurrentTrack != nil {
		c := *s.CurrentTrack
		track = &c
	}
	return RoomSnapshot{
		CurrentTrack:   track,
		Queue:          queue,
		IsPlaying:      s.IsPlaying,
		CurrentTime:    s.CurrentTime,
		LastUpdateTime: s.LastUpdate.UnixMilli(),
		Messages:       messages,
	}
}
