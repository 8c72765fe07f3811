// Package memory keeps users, sessions and timers in process memory. The
// process owns the data for its lifetime; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/repository"
	"github.com/google/uuid"
)

func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		User:    NewUserRepository(),
		Session: NewSessionRepository(),
		Timer:   NewTimerRepository(),
	}
}

type userRepository struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*domain.User
	byUsername map[string]uuid.UUID
}

func NewUserRepository() *userRepository {
	return &userRepository{
		byID:       make(map[uuid.UUID]*domain.User),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return domain.ErrUsernameTaken
	}
	u := *user
	r.byID[u.ID] = &u
	r.byUsername[u.Username] = u.ID
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionRepository() *sessionRepository {
	return &sessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.TokenHash] = *session
	return nil
}

func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[tokenHash]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *sessionRepository) Delete(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

type timerRepository struct {
	mu     sync.RWMutex
	timers map[uuid.UUID]*domain.Timer
	byUser map[uuid.UUID][]uuid.UUID
}

func NewTimerRepository() *timerRepository {
	return &timerRepository{
		timers: make(map[uuid.UUID]*domain.Timer),
		byUser: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *timerRepository) Create(ctx context.Context, timer *domain.Timer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.timers[timer.ID] = timer.Clone()
	r.byUser[timer.UserID] = append(r.byUser[timer.UserID], timer.ID)
	return nil
}

func (r *timerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Timer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.timers[id]
	if !ok {
		return nil, domain.ErrTimerNotFound
	}
	return t.Clone(), nil
}

func (r *timerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Timer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	timers := make([]*domain.Timer, 0, len(ids))
	for _, id := range ids {
		timers = append(timers, r.timers[id].Clone())
	}
	sort.SliceStable(timers, func(i, j int) bool {
		return timers[i].Start.Before(timers[j].Start)
	})
	return timers, nil
}

func (r *timerRepository) Stop(ctx context.Context, timer *domain.Timer) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.timers[timer.ID]
	if !ok {
		return false, domain.ErrTimerNotFound
	}
	if !stored.IsActive {
		return false, nil
	}
	stopped := timer.Clone()
	stored.IsActive = false
	stored.End = stopped.End
	stored.Duration = stopped.Duration
	return true, nil
}
