// Package repotest holds behaviour tests every storage backend must pass.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty set of repositories for one subtest.
type Factory func(t *testing.T) *repository.Repositories

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func Run(t *testing.T, newRepos Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newRepos(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newRepos(t)) })
	t.Run("timers", func(t *testing.T) { testTimers(t, newRepos(t)) })
}

func newUser(username string) *domain.User {
	return &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "hash-" + username,
		CreatedAt:    base,
	}
}

func testUsers(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, repos.User.Create(ctx, alice))

	err := repos.User.Create(ctx, newUser("alice"))
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	got, err := repos.User.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, alice.PasswordHash, got.PasswordHash)

	got, err = repos.User.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repos.User.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repos.User.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func testSessions(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()

	session := &domain.Session{TokenHash: "fingerprint-1", Username: "alice", CreatedAt: base}
	require.NoError(t, repos.Session.Create(ctx, session))

	got, err := repos.Session.GetByTokenHash(ctx, "fingerprint-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repos.Session.GetByTokenHash(ctx, "fingerprint-2")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, repos.Session.Delete(ctx, "fingerprint-1"))
	_, err = repos.Session.GetByTokenHash(ctx, "fingerprint-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.NoError(t, repos.Session.Delete(ctx, "fingerprint-1"))
}

func testTimers(t *testing.T, repos *repository.Repositories) {
	ctx := context.Background()

	alice, bob := newUser("alice"), newUser("bob")
	require.NoError(t, repos.User.Create(ctx, alice))
	require.NoError(t, repos.User.Create(ctx, bob))

	second := &domain.Timer{ID: uuid.New(), UserID: alice.ID, Description: "second", Start: base.Add(time.Minute), IsActive: true}
	first := &domain.Timer{ID: uuid.New(), UserID: alice.ID, Description: "first", Start: base, IsActive: true}
	other := &domain.Timer{ID: uuid.New(), UserID: bob.ID, Description: "bob's", Start: base, IsActive: true}
	for _, timer := range []*domain.Timer{second, first, other} {
		require.NoError(t, repos.Timer.Create(ctx, timer))
	}

	got, err := repos.Timer.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Description)
	assert.True(t, got.IsActive)
	assert.True(t, base.Equal(got.Start))
	assert.Nil(t, got.End)
	assert.Nil(t, got.Duration)

	_, err = repos.Timer.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTimerNotFound)

	list, err := repos.Timer.GetByUserID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	list, err = repos.Timer.GetByUserID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, list)

	// Stop applies once.
	stopAt := base.Add(90*time.Second + 250*time.Millisecond)
	require.True(t, first.MarkStopped(stopAt))
	stopped, err := repos.Timer.Stop(ctx, first)
	require.NoError(t, err)
	assert.True(t, stopped)

	again := *first
	later := stopAt.Add(time.Hour)
	laterDuration := later.Sub(first.Start)
	again.End, again.Duration = &later, &laterDuration
	stopped, err = repos.Timer.Stop(ctx, &again)
	require.NoError(t, err)
	assert.False(t, stopped)

	got, err = repos.Timer.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.End)
	require.NotNil(t, got.Duration)
	assert.True(t, stopAt.Equal(*got.End))
	assert.Equal(t, got.End.Sub(got.Start), *got.Duration)
	assert.Equal(t, 90*time.Second+250*time.Millisecond, *got.Duration)

	_, err = repos.Timer.Stop(ctx, &domain.Timer{ID: uuid.New()})
	if err != nil {
		assert.ErrorIs(t, err, domain.ErrTimerNotFound)
	}

	// Stopping alice's timer did not touch bob's.
	got, err = repos.Timer.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}
