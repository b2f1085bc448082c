package service

import (
	"watchparty/internal/models"
	"watchparty/internal/realtime"

	"gorm.io/gorm"
)

// Notifier 向在线用户推送实时事件的能力，由实时核心提供。
type Notifier interface {
	NotifyUser(userID, event string, payload interface{}) bool
	IsOnline(userID string) bool
}

// FriendService 封装好友请求与好友关系的业务逻辑，
// 涉及的对端在线时会收到实时通知。
type FriendService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewFriendService(db *gorm.DB, notifier Notifier) *FriendService {
	return &FriendService{db: db, notifier: notifier}
}

// PeerDTO 好友/请求列表里的用户摘要。
type PeerDTO struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture"`
	IsOnline       bool   `json:"isOnline"`
}

func peerDTO(u models.User, online bool) PeerDTO {
	return PeerDTO{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		ProfilePicture: u.ProfilePicture,
		IsOnline:       online,
	}
}

// Request 发送好友请求；接收方在线时推送 friend_request 事件。
func (s *FriendService) Request(senderID, receiverID string) error {
	var sender, receiver models.User
	if err := s.db.First(&sender, "id = ?", senderID).Error; err != nil {
		return ErrUserNotFound
	}
	if err := s.db.Preload("Friends").Preload("FriendRequests").First(&receiver, "id = ?", receiverID).Error; err != nil {
		return ErrUserNotFound
	}
	for _, r := range receiver.FriendRequests {
		if r.ID == senderID {
			return ErrRequestExists
		}
	}
	for _, f := range receiver.Friends {
		if f.ID == senderID {
			return ErrAlreadyFriends
		}
	}
	if err := s.db.Model(&receiver).Association("FriendRequests").Append(&sender); err != nil {
		return err
	}
	s.notifier.NotifyUser(receiverID, realtime.EventFriendRequest, map[string]string{
		"id":             sender.ID,
		"username":       sender.Username,
		"displayName":    sender.DisplayName,
		"profilePicture": sender.ProfilePicture,
	})
	return nil
}

// Accept 接受好友请求：双方互加好友，请求方在线时收到接受通知。
func (s *FriendService) Accept(receiverID, senderID string) error {
	var receiver, sender models.User
	if err := s.db.Preload("FriendRequests").First(&receiver, "id = ?", receiverID).Error; err != nil {
		return ErrUserNotFound
	}
	if err := s.db.First(&sender, "id = ?", senderID).Error; err != nil {
		return ErrUserNotFound
	}
	found := false
	for _, r := range receiver.FriendRequests {
		if r.ID == senderID {
			found = true
			break
		}
	}
	if !found {
		return ErrNoRequest
	}
	if err := s.db.Model(&receiver).Association("FriendRequests").Delete(&sender); err != nil {
		return err
	}
	if err := s.db.Model(&receiver).Association("Friends").Append(&sender); err != nil {
		return err
	}
	if err := s.db.Model(&sender).Association("Friends").Append(&receiver); err != nil {
		return err
	}
	s.notifier.NotifyUser(senderID, realtime.EventFriendRequestResponse, map[string]interface{}{
		"accepted": true,
		"user": map[string]string{
			"id":             receiver.ID,
			"username":       receiver.Username,
			"displayName":    receiver.DisplayName,
			"profilePicture": receiver.ProfilePicture,
		},
	})
	return nil
}

// Reject 拒绝好友请求；请求方在线时收到拒绝通知。
func (s *FriendService) Reject(receiverID, senderID string) error {
	var receiver, sender models.User
	if err := s.db.First(&receiver, "id = ?", receiverID).Error; err != nil {
		return ErrUserNotFound
	}
	if err := s.db.First(&sender, "id = ?", senderID).Error; err != nil {
		return ErrUserNotFound
	}
	if err := s.db.Model(&receiver).Association("FriendRequests").Delete(&sender); err != nil {
		return err
	}
	s.notifier.NotifyUser(senderID, realtime.EventFriendRequestResponse, map[string]interface{}{
		"accepted": false,
		"user": map[string]string{
			"id":       receiver.ID,
			"username": receiver.Username,
		},
	})
	return nil
}

// Remove 双向解除好友关系；对端在线时收到移除通知。
func (s *FriendService) Remove(userID, friendID string) error {
	var user, friend models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}
	if err := s.db.First(&friend, "id = ?", friendID).Error; err != nil {
		return ErrUserNotFound
	}
	if err := s.db.Model(&user).Association("Friends").Delete(&friend); err != nil {
		return err
	}
	if err := s.db.Model(&friend).Association("Friends").Delete(&user); err != nil {
		return err
	}
	s.notifier.NotifyUser(friendID, realtime.EventFriendRemoved, map[string]string{
		"id":       user.ID,
		"username": user.Username,
	})
	return nil
}

// Friends 返回用户的好友列表，带实时在线状态。
func (s *FriendService) Friends(userID string) ([]PeerDTO, error) {
	var user models.User
	if err := s.db.Preload("Friends").First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	out := make([]PeerDTO, 0, len(user.Friends))
	for _, f := range user.Friends {
		out = append(out, peerDTO(*f, s.notifier.IsOnline(f.ID)))
	}
	return out, nil
}

// Requests 返回用户收到的未处理好友请求。
func (s *FriendService) Requests(userID string) ([]PeerDTO, error) {
	var user models.User
	if err := s.db.Preload("FriendRequests").First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	out := make([]PeerDTO, 0, len(user.FriendRequests))
	for _, r := range user.FriendRequests {
		out = append(out, peerDTO(*r, s.notifier.IsOnline(r.ID)))
	}
	return out, nil
}
