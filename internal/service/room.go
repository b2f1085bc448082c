package service

import (
	"watchparty/internal/models"
	"watchparty/internal/realtime"

	"gorm.io/gorm"
)

// Occupancy 查询房间实时成员情况的能力，由实时核心提供。
type Occupancy interface {
	Occupancy(roomID string) int
	Members(roomID string) []realtime.MemberProfile
}

// RoomService 封装房间持久化记录的业务逻辑。
// 活跃成员与播放状态归实时核心，这里只管创建和查询。
type RoomService struct {
	db  *gorm.DB
	occ Occupancy
}

func NewRoomService(db *gorm.DB, occ Occupancy) *RoomService {
	return &RoomService{db: db, occ: occ}
}

// RoomDTO 对外输出的房间数据。Members 只在单房间查询时填充。
type RoomDTO struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	CreatorID       string                   `json:"creatorId"`
	IsPrivate       bool                     `json:"isPrivate"`
	ActiveListeners int                      `json:"activeListeners"`
	Members         []realtime.MemberProfile `json:"members,omitempty"`
}

func (s *RoomService) roomDTO(r models.Room) RoomDTO {
	return RoomDTO{
		ID:              r.ID,
		Name:            r.Name,
		CreatorID:       r.CreatorID,
		IsPrivate:       r.IsPrivate,
		ActiveListeners: s.occ.Occupancy(r.ID),
	}
}

// Create 创建新房间。
func (s *RoomService) Create(name, creatorID string, isPrivate bool, password string) (*RoomDTO, error) {
	room := models.Room{Name: name, CreatorID: creatorID, IsPrivate: isPrivate, Password: password}
	if err := s.db.Create(&room).Error; err != nil {
		return nil, err
	}
	dto := s.roomDTO(room)
	return &dto, nil
}

// List 返回房间列表，附带各房间的实时人数。
func (s *RoomService) List(limit int) ([]RoomDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var rooms []models.Room
	if err := s.db.Order("created_at desc").Limit(limit).Find(&rooms).Error; err != nil {
		return nil, err
	}
	out := make([]RoomDTO, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, s.roomDTO(r))
	}
	return out, nil
}

// Get 按 ID 查询房间，附带实时成员列表。
func (s *RoomService) Get(roomID string) (*RoomDTO, error) {
	var room models.Room
	if err := s.db.First(&room, "id = ?", roomID).Error; err != nil {
		return nil, ErrRoomNotFound
	}
	dto := s.roomDTO(room)
	dto.Members = s.occ.Members(roomID)
	return &dto, nil
}

// Join 校验加入条件：私密房间需要匹配密码。实际进房走实时连接。
func (s *RoomService) Join(roomID, userID, password string) (*RoomDTO, error) {
	var room models.Room
	if err := s.db.First(&room, "id = ?", roomID).Error; err != nil {
		return nil, ErrRoomNotFound
	}
	if room.IsPrivate {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if password != room.Password {
			return nil, ErrWrongPassword
		}
	}
	dto := s.roomDTO(room)
	return &dto, nil
}
