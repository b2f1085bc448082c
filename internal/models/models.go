package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 注册用户，好友关系通过自关联多对多表维护。
type User struct {
	ID             string `gorm:"primaryKey;size:36"`
	Username       string `gorm:"uniqueIndex;size:64;not null"`
	Email          string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash   string `gorm:"not null"`
	DisplayName    string `gorm:"size:64"`
	Bio            string `gorm:"size:512"`
	ProfilePicture string `gorm:"size:512"`
	IsOnline       bool
	LastSeen       time.Time
	Friends        []*User `gorm:"many2many:user_friends"`
	FriendRequests []*User `gorm:"many2many:user_friend_requests"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Room 持久化的房间记录，实时状态只存在于内存，房间闲置后由清理器删除。
type Room struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:128;not null"`
	CreatorID string `gorm:"index;size:36;not null"`
	IsPrivate bool
	Password  string `gorm:"size:128"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Place 带主题与隐私设置的常驻房间变体。
type Place struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"size:512"`
	CreatorID   string `gorm:"index;size:36;not null"`
	IsPrivate   bool
	Password    string  `gorm:"size:128"`
	Theme       string  `gorm:"size:32;default:cozyRoom"`
	Members     []*User `gorm:"many2many:place_members"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Place) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// DirectMessage 两个用户之间的私信，只在标记已读时更新。
type DirectMessage struct {
	ID        string `gorm:"primaryKey;size:36"`
	FromID    string `gorm:"index:idx_dm_pair;size:36;not null"`
	ToID      string `gorm:"index:idx_dm_pair;size:36;not null"`
	Text      string `gorm:"type:text;not null"`
	Read      bool   `gorm:"default:false"`
	CreatedAt time.Time
}

func (m *DirectMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
