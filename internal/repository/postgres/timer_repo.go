package postgres

import (
	"context"

	"github.com/dom/timetrack/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type timerRepository struct {
	db *gorm.DB
}

func NewTimerRepository(db *gorm.DB) *timerRepository {
	return &timerRepository{db: db}
}

func (r *timerRepository) Create(ctx context.Context, timer *domain.Timer) error {
	return r.db.WithContext(ctx).Create(timer).Error
}

func (r *timerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Timer, error) {
	var timer domain.Timer
	err := r.db.WithContext(ctx).First(&timer, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, domain.ErrTimerNotFound)
	}
	return &timer, nil
}

func (r *timerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Timer, error) {
	var timers []*domain.Timer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at ASC").
		Find(&timers).Error
	if err != nil {
		return nil, err
	}
	return timers, nil
}

func (r *timerRepository) Stop(ctx context.Context, timer *domain.Timer) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Timer{}).
		Where("id = ? AND is_active = ?", timer.ID, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  timer.End,
			"duration":  timer.Duration,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
