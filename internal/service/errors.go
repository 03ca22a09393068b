package service

import "errors"

// 業務層通用錯誤，handler 與 gateway 依錯誤類型決定回應方式
var (
	ErrMissingConnParams     = errors.New("missing required connection parameters")
	ErrMissingToken          = errors.New("missing authorization token")
	ErrAuthTimeout           = errors.New("authentication timeout")
	ErrInvalidAuthentication = errors.New("invalid authentication")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrUsernameTaken         = errors.New("username already taken")
	ErrInvalidCredentials    = errors.New("invalid username or password")
)
