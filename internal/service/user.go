package service

import (
	"errors"
	"time"

	"watchparty/internal/auth"
	"watchparty/internal/config"
	"watchparty/internal/models"

	"gorm.io/gorm"
)

// UserService 封装用户账号相关的业务逻辑。
type UserService struct {
	db  *gorm.DB
	cfg config.Config
}

func NewUserService(db *gorm.DB, cfg config.Config) *UserService {
	return &UserService{db: db, cfg: cfg}
}

// UserDTO 对外输出的用户数据。
type UserDTO struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	DisplayName    string    `json:"displayName"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profilePicture"`
	IsOnline       bool      `json:"isOnline"`
	LastSeen       time.Time `json:"lastSeen"`
}

func userDTO(u models.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		IsOnline:       u.IsOnline,
		LastSeen:       u.LastSeen,
	}
}

// AuthResult 注册或登录成功后返回的 token 和用户数据。
type AuthResult struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// Register 注册新用户并直接签发 token。
func (s *UserService) Register(username, email, password string) (*AuthResult, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{Username: username, Email: email, PasswordHash: hash, DisplayName: username, LastSeen: time.Now()}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	token, err := auth.GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTLDays)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: userDTO(user)}, nil
}

// Login 按邮箱加密码登录。
func (s *UserService) Login(email, password string) (*AuthResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTLDays)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: userDTO(user)}, nil
}

// Get 按 ID 查询用户。
func (s *UserService) Get(userID string) (*UserDTO, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	dto := userDTO(user)
	return &dto, nil
}

// Profile 按用户名查询公开资料，不含邮箱。
func (s *UserService) Profile(username string) (*UserDTO, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}
	dto := userDTO(user)
	dto.Email = ""
	return &dto, nil
}

// UpdateSettings 更新展示名、简介和头像。
func (s *UserService) UpdateSettings(userID, displayName, bio, profilePicture string) (*UserDTO, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	user.DisplayName = displayName
	user.Bio = bio
	user.ProfilePicture = profilePicture
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	dto := userDTO(user)
	return &dto, nil
}
