package domain

import (
	"time"

	"github.com/google/uuid"
)

type Timer struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Description string         `json:"description" gorm:"not null"`
	Start       time.Time      `json:"start" gorm:"column:started_at;not null"`
	IsActive    bool           `json:"isActive" gorm:"index;not null"`
	End         *time.Time     `json:"end" gorm:"column:ended_at"`
	Duration    *time.Duration `json:"duration"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID"`
}

// TimerStatus filters timers by their active flag.
type TimerStatus string

const (
	TimerStatusActive  TimerStatus = "active"
	TimerStatusStopped TimerStatus = "stopped"
)

// Matches reports whether t belongs to the given status.
func (s TimerStatus) Matches(t *Timer) bool {
	switch s {
	case TimerStatusActive:
		return t.IsActive
	case TimerStatusStopped:
		return !t.IsActive
	}
	return false
}

// Progress is the elapsed time of an active timer at now, or the fixed
// duration of a stopped one.
func (t *Timer) Progress(now time.Time) time.Duration {
	if !t.IsActive && t.End != nil {
		return t.End.Sub(t.Start)
	}
	if p := now.Sub(t.Start); p > 0 {
		return p
	}
	return 0
}

// MarkStopped applies the single allowed mutation. It reports false when
// the timer was already stopped, in which case nothing changes.
func (t *Timer) MarkStopped(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	end := now
	if end.Before(t.Start) {
		end = t.Start
	}
	d := end.Sub(t.Start)
	t.End = &end
	t.Duration = &d
	t.IsActive = false
	return true
}

// Clone returns a deep copy so callers never share the store's pointers.
func (t *Timer) Clone() *Timer {
	c := *t
	if t.End != nil {
		end := *t.End
		c.End = &end
	}
	if t.Duration != nil {
		d := *t.Duration
		c.Duration = &d
	}
	c.User = nil
	return &c
}
