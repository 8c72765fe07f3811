package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dom/timetrack/internal/domain"
	"github.com/google/uuid"
)

const timerColumns = `id, user_id, description, started_at, is_active, ended_at, duration_ns`

type timerRepository struct {
	db DBTX
}

func NewTimerRepository(db DBTX) *timerRepository {
	return &timerRepository{db: db}
}

func (r *timerRepository) Create(ctx context.Context, timer *domain.Timer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO timers (`+timerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		timer.ID.String(),
		timer.UserID.String(),
		timer.Description,
		toMillis(timer.Start),
		timer.IsActive,
		nullMillis(timer.End),
		nullDuration(timer.Duration),
	)
	if err != nil {
		return fmt.Errorf("insert timer: %w", err)
	}
	return nil
}

func (r *timerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Timer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+timerColumns+` FROM timers WHERE id = ?`, id.String())
	return scanTimer(row)
}

func (r *timerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Timer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+timerColumns+` FROM timers WHERE user_id = ? ORDER BY started_at ASC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}
	defer rows.Close()

	timers := make([]*domain.Timer, 0)
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, err
		}
		timers = append(timers, t)
	}
	return timers, rows.Err()
}

func (r *timerRepository) Stop(ctx context.Context, timer *domain.Timer) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE timers SET is_active = 0, ended_at = ?, duration_ns = ? WHERE id = ? AND is_active = 1`,
		nullMillis(timer.End), nullDuration(timer.Duration), timer.ID.String())
	if err != nil {
		return false, fmt.Errorf("stop timer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanTimer(row interface{ Scan(...any) error }) (*domain.Timer, error) {
	var (
		t          domain.Timer
		id, userID string
		startedAt  int64
		endedAt    sql.NullInt64
		durationNs sql.NullInt64
	)
	if err := row.Scan(&id, &userID, &t.Description, &startedAt, &t.IsActive, &endedAt, &durationNs); err != nil {
		return nil, mapNotFound(err, domain.ErrTimerNotFound)
	}

	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse timer id %q: %w", id, err)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse timer owner %q: %w", userID, err)
	}
	t.Start = fromMillis(startedAt)
	if endedAt.Valid {
		end := fromMillis(endedAt.Int64)
		t.End = &end
	}
	if durationNs.Valid {
		d := time.Duration(durationNs.Int64)
		t.Duration = &d
	}
	return &t, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func nullDuration(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}
