package service

import (
	"watchparty/internal/models"

	"gorm.io/gorm"
)

// PlaceService 封装常驻房间（place）的业务逻辑。
type PlaceService struct {
	db *gorm.DB
}

func NewPlaceService(db *gorm.DB) *PlaceService {
	return &PlaceService{db: db}
}

// PlaceDTO 对外输出的 place 数据。
type PlaceDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creatorId"`
	IsPrivate   bool      `json:"isPrivate"`
	Theme       string    `json:"theme"`
	Members     []PeerDTO `json:"members"`
}

func placeDTO(p models.Place) PlaceDTO {
	members := make([]PeerDTO, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, peerDTO(*m, m.IsOnline))
	}
	return PlaceDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatorID:   p.CreatorID,
		IsPrivate:   p.IsPrivate,
		Theme:       p.Theme,
		Members:     members,
	}
}

// Create 创建 place，创建者自动成为成员。
func (s *PlaceService) Create(name, description, creatorID string, isPrivate bool, password, theme string) (*PlaceDTO, error) {
	if theme == "" {
		theme = "cozyRoom"
	}
	if !isPrivate {
		password = ""
	}
	place := models.Place{
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
		IsPrivate:   isPrivate,
		Password:    password,
		Theme:       theme,
	}
	if err := s.db.Create(&place).Error; err != nil {
		return nil, err
	}
	var creator models.User
	if err := s.db.First(&creator, "id = ?", creatorID).Error; err == nil {
		_ = s.db.Model(&place).Association("Members").Append(&creator)
		place.Members = []*models.User{&creator}
	}
	dto := placeDTO(place)
	return &dto, nil
}

// Mine 返回用户创建的全部 place。
func (s *PlaceService) Mine(userID string) ([]PlaceDTO, error) {
	var places []models.Place
	err := s.db.Preload("Members").
		Where("creator_id = ?", userID).
		Order("created_at desc").
		Find(&places).Error
	if err != nil {
		return nil, err
	}
	out := make([]PlaceDTO, 0, len(places))
	for _, p := range places {
		out = append(out, placeDTO(p))
	}
	return out, nil
}

// Get 查询 place；私密 place 只有成员可见。
func (s *PlaceService) Get(placeID, userID string) (*PlaceDTO, error) {
	place, err := s.load(placeID)
	if err != nil {
		return nil, err
	}
	if place.IsPrivate && !isMember(place, userID) {
		return nil, ErrAccessDenied
	}
	dto := placeDTO(*place)
	return &dto, nil
}

// Delete 删除 place，仅创建者可以操作。
func (s *PlaceService) Delete(placeID, userID string) error {
	place, err := s.load(placeID)
	if err != nil {
		return err
	}
	if place.CreatorID != userID {
		return ErrAccessDenied
	}
	return s.db.Select("Members").Delete(place).Error
}

// Join 加入 place；私密 place 只接受已被邀请的成员。
func (s *PlaceService) Join(placeID, userID string) (*PlaceDTO, error) {
	place, err := s.load(placeID)
	if err != nil {
		return nil, err
	}
	if place.IsPrivate && !isMember(place, userID) {
		return nil, ErrAccessDenied
	}
	if !isMember(place, userID) {
		var user models.User
		if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
			return nil, ErrUserNotFound
		}
		if err := s.db.Model(place).Association("Members").Append(&user); err != nil {
			return nil, err
		}
		place.Members = append(place.Members, &user)
	}
	dto := placeDTO(*place)
	return &dto, nil
}

// Leave 退出 place。
func (s *PlaceService) Leave(placeID, userID string) error {
	place, err := s.load(placeID)
	if err != nil {
		return err
	}
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}
	return s.db.Model(place).Association("Members").Delete(&user)
}

// Invite 创建者把用户加入私密 place 的成员名单。
func (s *PlaceService) Invite(placeID, creatorID, userID string) error {
	place, err := s.load(placeID)
	if err != nil {
		return err
	}
	if place.CreatorID != creatorID {
		return ErrAccessDenied
	}
	if isMember(place, userID) {
		return nil
	}
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}
	return s.db.Model(place).Association("Members").Append(&user)
}

func (s *PlaceService) load(placeID string) (*models.Place, error) {
	var place models.Place
	if err := s.db.Preload("Members").First(&place, "id = ?", placeID).Error; err != nil {
		return nil, ErrPlaceNotFound
	}
	return &place, nil
}

func isMember(p *models.Place, userID string) bool {
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
