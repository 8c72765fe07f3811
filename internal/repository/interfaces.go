package repository

import (
	"context"

	"github.com/dom/timetrack/internal/domain"
	"github.com/google/uuid"
)

// UserRepository is the credential store. Create fails with
// domain.ErrUsernameTaken when the username already exists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Delete(ctx context.Context, tokenHash string) error
}

// TimerRepository persists timers. Stop performs the one allowed mutation
// atomically: it only touches a timer that is still active and reports
// whether it did.
type TimerRepository interface {
	Create(ctx context.Context, timer *domain.Timer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Timer, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Timer, error)
	Stop(ctx context.Context, timer *domain.Timer) (bool, error)
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Timer   TimerRepository
}
