package domain

import "errors"

var (
	ErrAlreadyLive        = errors.New("stream path already has a live session")
	ErrNotAuthorized      = errors.New("publish not authorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
