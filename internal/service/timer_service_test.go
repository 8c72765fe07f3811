package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/timetrack/internal/common/clock"
	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/repository/memory"
	"github.com/dom/timetrack/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTimerService() (*service.TimerService, *clock.MockClock) {
	clk := clock.NewMockClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return service.NewTimerService(memory.NewTimerRepository(), clk), clk
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    domain.TimerStatus
		wantErr bool
	}{
		{raw: "true", want: domain.TimerStatusActive},
		{raw: "false", want: domain.TimerStatusStopped},
		{raw: "", wantErr: true},
		{raw: "1", wantErr: true},
		{raw: "TRUE", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := service.ParseStatus(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimerService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	timers, clk := newTimerService()
	userID := uuid.New()

	_, err := timers.Create(ctx, userID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidDescription)

	created, err := timers.Create(ctx, userID, "write report")
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Equal(t, userID, created.UserID)

	clk.Advance(90 * time.Second)

	active, err := timers.List(ctx, userID, domain.TimerStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, created.ID, active[0].ID)
	assert.Equal(t, int64(90000), active[0].Progress)
	assert.Nil(t, active[0].End)

	stopped, err := timers.List(ctx, userID, domain.TimerStatusStopped)
	require.NoError(t, err)
	assert.Empty(t, stopped)

	others, err := timers.List(ctx, uuid.New(), domain.TimerStatusActive)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestTimerService_Stop(t *testing.T) {
	ctx := context.Background()
	timers, clk := newTimerService()
	owner := uuid.New()

	created, err := timers.Create(ctx, owner, "review")
	require.NoError(t, err)
	clk.Advance(42 * time.Second)

	t.Run("unknown id", func(t *testing.T) {
		_, err := timers.Stop(ctx, owner, uuid.New())
		assert.ErrorIs(t, err, domain.ErrTimerNotFound)
	})

	t.Run("other user's timer is not found", func(t *testing.T) {
		_, err := timers.Stop(ctx, uuid.New(), created.ID)
		assert.ErrorIs(t, err, domain.ErrTimerNotFound)
	})

	t.Run("stop twice is idempotent", func(t *testing.T) {
		first, err := timers.Stop(ctx, owner, created.ID)
		require.NoError(t, err)
		require.NotNil(t, first.End)
		require.NotNil(t, first.Duration)
		assert.Equal(t, 42*time.Second, *first.Duration)

		clk.Advance(time.Hour)

		second, err := timers.Stop(ctx, owner, created.ID)
		require.NoError(t, err)
		assert.Equal(t, *first.End, *second.End)
		assert.Equal(t, *first.Duration, *second.Duration)
	})

	t.Run("stopped list reports duration equal to end minus start", func(t *testing.T) {
		stopped, err := timers.List(ctx, owner, domain.TimerStatusStopped)
		require.NoError(t, err)
		require.Len(t, stopped, 1)
		v := stopped[0]
		assert.False(t, v.IsActive)
		require.NotNil(t, v.End)
		require.NotNil(t, v.Duration)
		assert.Equal(t, *v.End-v.Start, *v.Duration)
		assert.Equal(t, *v.Duration, v.Progress)

		active, err := timers.List(ctx, owner, domain.TimerStatusActive)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("list all includes both states", func(t *testing.T) {
		_, err := timers.Create(ctx, owner, "second")
		require.NoError(t, err)

		all, err := timers.ListAll(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
