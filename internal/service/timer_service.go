package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dom/timetrack/internal/common/clock"
	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/metrics"
	"github.com/dom/timetrack/internal/repository"
	"github.com/google/uuid"
)

const MaxDescriptionLength = 256

type TimerService struct {
	timerRepo repository.TimerRepository
	clock     clock.Clock
}

func NewTimerService(timerRepo repository.TimerRepository, clk clock.Clock) *TimerService {
	return &TimerService{
		timerRepo: timerRepo,
		clock:     clk,
	}
}

// TimerView is the wire shape of a timer. Times are epoch milliseconds and
// durations are milliseconds.
type TimerView struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Description string    `json:"description"`
	Start       int64     `json:"start"`
	End         *int64    `json:"end,omitempty"`
	Duration    *int64    `json:"duration,omitempty"`
	IsActive    bool      `json:"isActive"`
	Progress    int64     `json:"progress"`
}

func NewTimerView(t *domain.Timer, now time.Time) TimerView {
	v := TimerView{
		ID:          t.ID,
		UserID:      t.UserID,
		Description: t.Description,
		Start:       t.Start.UnixMilli(),
		IsActive:    t.IsActive,
		Progress:    t.Progress(now).Milliseconds(),
	}
	if t.End != nil {
		end := t.End.UnixMilli()
		v.End = &end
	}
	if t.Duration != nil {
		d := t.Duration.Milliseconds()
		v.Duration = &d
	}
	return v
}

// ParseStatus maps the isActive query value onto a status filter.
func ParseStatus(raw string) (domain.TimerStatus, error) {
	switch raw {
	case "true":
		return domain.TimerStatusActive, nil
	case "false":
		return domain.TimerStatusStopped, nil
	}
	return "", domain.ErrInvalidStatus
}

func (s *TimerService) List(ctx context.Context, userID uuid.UUID, status domain.TimerStatus) ([]TimerView, error) {
	timers, err := s.timerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}

	now := s.clock.Now()
	views := make([]TimerView, 0, len(timers))
	for _, t := range timers {
		if status.Matches(t) {
			views = append(views, NewTimerView(t, now))
		}
	}
	return views, nil
}

// ListAll returns every timer owned by userID, active and stopped alike.
func (s *TimerService) ListAll(ctx context.Context, userID uuid.UUID) ([]TimerView, error) {
	timers, err := s.timerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}

	now := s.clock.Now()
	views := make([]TimerView, 0, len(timers))
	for _, t := range timers {
		views = append(views, NewTimerView(t, now))
	}
	return views, nil
}

func (s *TimerService) Create(ctx context.Context, userID uuid.UUID, description string) (*domain.Timer, error) {
	description = strings.TrimSpace(description)
	if description == "" || utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, domain.ErrInvalidDescription
	}

	timer := &domain.Timer{
		ID:          uuid.New(),
		UserID:      userID,
		Description: description,
		Start:       s.clock.Now(),
		IsActive:    true,
	}
	if err := s.timerRepo.Create(ctx, timer); err != nil {
		return nil, fmt.Errorf("create timer: %w", err)
	}

	metrics.TimersCreated.Inc()
	return timer, nil
}

// Stop ends the caller's timer. A timer owned by someone else is reported
// as not found. Stopping an already stopped timer succeeds without
// touching it.
func (s *TimerService) Stop(ctx context.Context, userID, timerID uuid.UUID) (*domain.Timer, error) {
	timer, err := s.timerRepo.GetByID(ctx, timerID)
	if err != nil {
		return nil, err
	}
	if timer.UserID != userID {
		return nil, domain.ErrTimerNotFound
	}

	if !timer.MarkStopped(s.clock.Now()) {
		return timer, nil
	}

	stopped, err := s.timerRepo.Stop(ctx, timer)
	if err != nil {
		return nil, fmt.Errorf("stop timer: %w", err)
	}
	if !stopped {
		// Lost a race with a concurrent stop; report the stored state.
		return s.timerRepo.GetByID(ctx, timerID)
	}

	metrics.TimersStopped.Inc()
	return timer, nil
}
