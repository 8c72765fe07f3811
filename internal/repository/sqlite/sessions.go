package sqlite

import (
	"context"
	"fmt"

	"github.com/dom/timetrack/internal/domain"
)

type sessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, username, created_at) VALUES (?, ?, ?)`,
		session.TokenHash, session.Username, toMillis(session.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var (
		session   domain.Session
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token_hash, username, created_at FROM sessions WHERE token_hash = ?`, tokenHash).
		Scan(&session.TokenHash, &session.Username, &createdAt)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrSessionNotFound)
	}
	session.CreatedAt = fromMillis(createdAt)
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, tokenHash string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
