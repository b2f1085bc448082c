package server

import (
	"errors"
	"net/http"
	"strings"

	"watchparty/internal/auth"
	"watchparty/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// OnlineChecker 查询用户在线状态的能力，由实时核心提供。
type OnlineChecker interface {
	IsOnline(userID string) bool
}

// Handler 聚合所有 HTTP handler，依赖注入 service 层与实时核心。
type Handler struct {
	userSvc   *service.UserService
	roomSvc   *service.RoomService
	placeSvc  *service.PlaceService
	friendSvc *service.FriendService
	online    OnlineChecker
}

func NewHandler(userSvc *service.UserService, roomSvc *service.RoomService, placeSvc *service.PlaceService, friendSvc *service.FriendService, online OnlineChecker) *Handler {
	return &Handler{userSvc: userSvc, roomSvc: roomSvc, placeSvc: placeSvc, friendSvc: friendSvc, online: online}
}

// Register 处理用户注册请求。
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all fields are required"})
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	if len(req.Password) < 6 || len(req.Password) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters long"})
		return
	}
	result, err := h.userSvc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		default:
			log.Error().Err(err).Str("username", req.Username).Msg("register")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		}
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Login 处理用户登录请求。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	result, err := h.userSvc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Error().Err(err).Str("email", req.Email).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Me 返回当前登录用户。
func (h *Handler) Me(c *gin.Context) {
	user, err := h.userSvc.Get(auth.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Verify 确认 token 有效（能走到这里说明中间件已放行）。
func (h *Handler) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": true, "userId": auth.GetUserID(c)})
}

// UpdateSettings 更新当前用户的展示名、简介与头像。
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req struct {
		DisplayName    string `json:"displayName"`
		Bio            string `json:"bio"`
		ProfilePicture string `json:"profilePicture"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	user, err := h.userSvc.UpdateSettings(auth.GetUserID(c), req.DisplayName, req.Bio, req.ProfilePicture)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error().Err(err).Str("user_id", auth.GetUserID(c)).Msg("update settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UserProfile 按用户名查询公开资料。
func (h *Handler) UserProfile(c *gin.Context) {
	user, err := h.userSvc.Profile(c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UserStatus 查询用户在线状态，供没有实时连接的客户端轮询。
func (h *Handler) UserStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isOnline": h.online.IsOnline(c.Param("userId"))})
}

// CreateRoom 处理创建房间请求。
func (h *Handler) CreateRoom(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		IsPrivate bool   `json:"isPrivate"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room name"})
		return
	}
	room, err := h.roomSvc.Create(req.Name, auth.GetUserID(c), req.IsPrivate, req.Password)
	if err != nil {
		log.Error().Err(err).Str("creator_id", auth.GetUserID(c)).Str("name", req.Name).Msg("create room")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create room"})
		return
	}
	c.JSON(http.StatusCreated, room)
}

// ListRooms 返回房间列表。
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.List(100)
	if err != nil {
		log.Error().Err(err).Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetRoom 按 ID 查询房间。
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.roomSvc.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, room)
}

// JoinRoom 校验进房条件（私密房间密码）。
func (h *Handler) JoinRoom(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&req)
	room, err := h.roomSvc.Join(c.Param("id"), auth.GetUserID(c), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, service.ErrPasswordRequired):
			c.JSON(http.StatusForbidden, gin.H{"error": "password required"})
		case errors.Is(err, service.ErrWrongPassword):
			c.JSON(http.StatusForbidden, gin.H{"error": "incorrect password"})
		default:
			log.Error().Err(err).Str("room_id", c.Param("id")).Msg("join room")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		}
		return
	}
	c.JSON(http.StatusOK, room)
}

// CreatePlace 创建常驻房间。
func (h *Handler) CreatePlace(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPrivate   bool   `json:"isPrivate"`
		Password    string `json:"password"`
		Theme       string `json:"theme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid place name"})
		return
	}
	place, err := h.placeSvc.Create(req.Name, req.Description, auth.GetUserID(c), req.IsPrivate, req.Password, req.Theme)
	if err != nil {
		log.Error().Err(err).Str("creator_id", auth.GetUserID(c)).Str("name", req.Name).Msg("create place")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create place"})
		return
	}
	c.JSON(http.StatusCreated, place)
}

// MyPlaces 返回当前用户创建的 place。
func (h *Handler) MyPlaces(c *gin.Context) {
	places, err := h.placeSvc.Mine(auth.GetUserID(c))
	if err != nil {
		log.Error().Err(err).Str("user_id", auth.GetUserID(c)).Msg("list my places")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list places"})
		return
	}
	c.JSON(http.StatusOK, places)
}

// GetPlace 查询单个 place。
func (h *Handler) GetPlace(c *gin.Context) {
	place, err := h.placeSvc.Get(c.Param("id"), auth.GetUserID(c))
	if err != nil {
		h.placeError(c, err, "get place")
		return
	}
	c.JSON(http.StatusOK, place)
}

// DeletePlace 删除 place（仅创建者）。
func (h *Handler) DeletePlace(c *gin.Context) {
	if err := h.placeSvc.Delete(c.Param("id"), auth.GetUserID(c)); err != nil {
		h.placeError(c, err, "delete place")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "place deleted successfully"})
}

// JoinPlace 加入 place。
func (h *Handler) JoinPlace(c *gin.Context) {
	place, err := h.placeSvc.Join(c.Param("id"), auth.GetUserID(c))
	if err != nil {
		h.placeError(c, err, "join place")
		return
	}
	c.JSON(http.StatusOK, place)
}

// LeavePlace 退出 place。
func (h *Handler) LeavePlace(c *gin.Context) {
	if err := h.placeSvc.Leave(c.Param("id"), auth.GetUserID(c)); err != nil {
		h.placeError(c, err, "leave place")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left place successfully"})
}

// InviteToPlace 创建者邀请用户进入私密 place。
func (h *Handler) InviteToPlace(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.placeSvc.Invite(c.Param("id"), auth.GetUserID(c), req.UserID); err != nil {
		h.placeError(c, err, "invite to place")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user invited successfully"})
}

func (h *Handler) placeError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrPlaceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		log.Error().Err(err).Str("place_id", c.Param("id")).Msg(op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

// FriendRequest 发送好友请求。
func (h *Handler) FriendRequest(c *gin.Context) {
	if err := h.friendSvc.Request(auth.GetUserID(c), c.Param("userId")); err != nil {
		h.friendError(c, err, "friend request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend request sent"})
}

// FriendAccept 接受好友请求。
func (h *Handler) FriendAccept(c *gin.Context) {
	if err := h.friendSvc.Accept(auth.GetUserID(c), c.Param("userId")); err != nil {
		h.friendError(c, err, "friend accept")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend request accepted"})
}

// FriendReject 拒绝好友请求。
func (h *Handler) FriendReject(c *gin.Context) {
	if err := h.friendSvc.Reject(auth.GetUserID(c), c.Param("userId")); err != nil {
		h.friendError(c, err, "friend reject")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend request rejected"})
}

// FriendRemove 删除好友。
func (h *Handler) FriendRemove(c *gin.Context) {
	if err := h.friendSvc.Remove(auth.GetUserID(c), c.Param("userId")); err != nil {
		h.friendError(c, err, "friend remove")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend removed"})
}

// ListFriends 返回好友列表。
func (h *Handler) ListFriends(c *gin.Context) {
	friends, err := h.friendSvc.Friends(auth.GetUserID(c))
	if err != nil {
		h.friendError(c, err, "list friends")
		return
	}
	c.JSON(http.StatusOK, friends)
}

// ListFriendRequests 返回收到的好友请求。
func (h *Handler) ListFriendRequests(c *gin.Context) {
	requests, err := h.friendSvc.Requests(auth.GetUserID(c))
	if err != nil {
		h.friendError(c, err, "list friend requests")
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) friendError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrRequestExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "friend request already sent"})
	case errors.Is(err, service.ErrAlreadyFriends):
		c.JSON(http.StatusBadRequest, gin.H{"error": "already friends"})
	case errors.Is(err, service.ErrNoRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no friend request found"})
	default:
		log.Error().Err(err).Str("user_id", auth.GetUserID(c)).Msg(op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
