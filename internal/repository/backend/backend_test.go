package backend_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/logging"
	"github.com/dom/timetrack/internal/repository/backend"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name     string
		uri      string
		wantKind string
		wantErr  bool
	}{
		{name: "memory", uri: "memory://", wantKind: backend.SchemeMemory},
		{name: "sqlite file", uri: "sqlite://" + filepath.Join(dir, "timers.db"), wantKind: backend.SchemeSQLite},
		{name: "missing scheme", uri: "timers.db", wantErr: true},
		{name: "unknown scheme", uri: "mongodb://localhost", wantErr: true},
		{name: "empty sqlite path", uri: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := backend.Open(ctx, tt.uri, logging.Discard())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			assert.Equal(t, tt.wantKind, store.Kind)

			// Smoke the opened store end to end.
			user := &domain.User{ID: uuid.New(), Username: "alice", PasswordHash: "h", CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
			require.NoError(t, store.Repos.User.Create(ctx, user))
			got, err := store.Repos.User.GetByUsername(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})
	}
}
