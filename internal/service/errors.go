package service

import "errors"

// 业务层通用错误，handler 根据错误类型映射到合适的 HTTP 状态码。
var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrEmailTaken         = errors.New("email taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrPlaceNotFound      = errors.New("place not found")
	ErrPasswordRequired   = errors.New("password required")
	ErrWrongPassword      = errors.New("incorrect password")
	ErrAccessDenied       = errors.New("access denied")
	ErrRequestExists      = errors.New("friend request already sent")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrNoRequest          = errors.New("no friend request found")
)
