package domain

import "errors"

// Lookup errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrTimerNotFound   = errors.New("timer not found")
)

// Auth errors
var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTicket      = errors.New("invalid socket ticket")
)

// Validation errors
var (
	ErrInvalidUsername    = errors.New("username is required and must be at most 64 characters")
	ErrInvalidPassword    = errors.New("password is required and must be at most 72 bytes")
	ErrInvalidDescription = errors.New("description is required and must be at most 256 characters")
	ErrInvalidStatus      = errors.New("isActive must be true or false")
)
