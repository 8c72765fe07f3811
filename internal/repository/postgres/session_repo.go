package postgres

import (
	"context"

	"github.com/dom/timetrack/internal/domain"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).First(&session, "token_hash = ?", tokenHash).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrSessionNotFound)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Delete(&domain.Session{}, "token_hash = ?", tokenHash).Error
}
