package service

import (
	"context"

	"watchparty/internal/models"
	"watchparty/internal/realtime"

	"gorm.io/gorm"
)

// CoreStore 把 gorm 存储适配成实时核心消费的窄契约。
type CoreStore struct {
	db *gorm.DB
}

func NewCoreStore(db *gorm.DB) *CoreStore {
	return &CoreStore{db: db}
}

func (s *CoreStore) SaveDirectMessage(ctx context.Context, from, to, text string) (realtime.StoredMessage, error) {
	msg := models.DirectMessage{FromID: from, ToID: to, Text: text}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return realtime.StoredMessage{}, err
	}
	return storedMessage(msg), nil
}

// ListDirectMessages 取两人之间最近 limit 条私信，按时间升序返回。
func (s *CoreStore) ListDirectMessages(ctx context.Context, userID, peerID string, limit int) ([]realtime.StoredMessage, error) {
	var msgs []models.DirectMessage
	err := s.db.WithContext(ctx).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", userID, peerID, peerID, userID).
		Order("created_at desc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	// 反转为升序
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	out := make([]realtime.StoredMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, storedMessage(m))
	}
	return out, nil
}

// MarkMessagesRead 把对端发给读取者的全部未读私信置为已读。
func (s *CoreStore) MarkMessagesRead(ctx context.Context, readerID, peerID string) error {
	return s.db.WithContext(ctx).
		Model(&models.DirectMessage{}).
		Where("from_id = ? AND to_id = ? AND read = ?", peerID, readerID, false).
		Update("read", true).Error
}

func (s *CoreStore) SenderProfile(ctx context.Context, userID string) (realtime.SenderPeer, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Select("id", "username", "display_name", "profile_picture").
		First(&user, "id = ?", userID).Error
	if err != nil {
		return realtime.SenderPeer{}, err
	}
	return realtime.SenderPeer{
		ID:             user.ID,
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		ProfilePicture: user.ProfilePicture,
	}, nil
}

func (s *CoreStore) SetUserOnline(ctx context.Context, userID string, online bool) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"is_online": online, "last_seen": s.db.NowFunc()}).Error
}

func (s *CoreStore) DeleteRoom(ctx context.Context, roomID string) error {
	return s.db.WithContext(ctx).Delete(&models.Room{}, "id = ?", roomID).Error
}

func storedMessage(m models.DirectMessage) realtime.StoredMessage {
	return realtime.StoredMessage{
		ID:        m.ID,
		From:      m.FromID,
		To:        m.ToID,
		Text:      m.Text,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}
