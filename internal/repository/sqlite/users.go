package sqlite

import (
	"context"
	"fmt"

	"github.com/dom/timetrack/internal/domain"
	"github.com/google/uuid"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO NOTHING
	`, user.ID.String(), user.Username, user.PasswordHash, toMillis(user.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert user %q: %w", user.Username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUsernameTaken
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		user      domain.User
		id        string
		createdAt int64
	)
	if err := row.Scan(&id, &user.Username, &user.PasswordHash, &createdAt); err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", id, err)
	}
	user.ID = parsed
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}
