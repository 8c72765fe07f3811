package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session binds an opaque bearer token to a username. Only the token's
// fingerprint is stored; the raw token is handed to the client once.
type Session struct {
	TokenHash string    `json:"-" gorm:"primary_key"`
	Username  string    `json:"username" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt"`
}
