package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dom/timetrack/internal/common/clock"
	"github.com/dom/timetrack/internal/common/crypto"
	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/repository"
	"github.com/dom/timetrack/internal/repository/memory"
	"github.com/dom/timetrack/internal/service"
	"github.com/dom/timetrack/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) (*service.AuthService, *repository.Repositories) {
	t.Helper()
	repos := memory.NewRepositories()
	clk := clock.NewMockClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	hasher := &crypto.BcryptHasher{Cost: bcrypt.MinCost}
	return service.NewAuthService(repos.User, repos.Session, hasher, clk, testutil.TestConfig()), repos
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		creds   service.Credentials
		setup   func(s *service.AuthService)
		wantErr error
	}{
		{
			name:  "successful signup",
			creds: service.Credentials{Username: "alice", Password: "secret"},
		},
		{
			name:  "duplicate username",
			creds: service.Credentials{Username: "alice", Password: "other"},
			setup: func(s *service.AuthService) {
				_, err := s.Signup(ctx, service.Credentials{Username: "alice", Password: "secret"})
				require.NoError(t, err)
			},
			wantErr: domain.ErrUsernameTaken,
		},
		{
			name:    "empty username",
			creds:   service.Credentials{Username: "", Password: "secret"},
			wantErr: domain.ErrInvalidUsername,
		},
		{
			name:    "empty password",
			creds:   service.Credentials{Username: "bob", Password: ""},
			wantErr: domain.ErrInvalidPassword,
		},
		{
			name:    "password too long for bcrypt",
			creds:   service.Credentials{Username: "bob", Password: strings.Repeat("x", 73)},
			wantErr: domain.ErrInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService, _ := newAuthService(t)
			if tt.setup != nil {
				tt.setup(authService)
			}

			result, err := authService.Signup(ctx, tt.creds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.creds.Username, result.User.Username)
			assert.NotEmpty(t, result.Token)
			assert.NotEqual(t, tt.creds.Password, result.User.PasswordHash)
		})
	}
}

func TestAuthService_LoginAndResolve(t *testing.T) {
	ctx := context.Background()
	authService, _ := newAuthService(t)

	_, err := authService.Signup(ctx, service.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := authService.Login(ctx, service.Credentials{Username: "alice", Password: "nope"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := authService.Login(ctx, service.Credentials{Username: "mallory", Password: "secret"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("session resolves to username", func(t *testing.T) {
		result, err := authService.Login(ctx, service.Credentials{Username: "alice", Password: "secret"})
		require.NoError(t, err)

		p, err := authService.Resolve(ctx, result.Token)
		require.NoError(t, err)
		require.True(t, p.Authenticated())
		assert.Equal(t, "alice", p.User.Username)
		assert.Equal(t, crypto.FingerprintToken(result.Token), p.SessionID)
	})

	t.Run("unknown token is anonymous", func(t *testing.T) {
		p, err := authService.Resolve(ctx, "not-a-token")
		require.NoError(t, err)
		assert.False(t, p.Authenticated())
	})

	t.Run("logout invalidates the session", func(t *testing.T) {
		result, err := authService.Login(ctx, service.Credentials{Username: "alice", Password: "secret"})
		require.NoError(t, err)

		require.NoError(t, authService.Logout(ctx, result.Token))

		p, err := authService.Resolve(ctx, result.Token)
		require.NoError(t, err)
		assert.False(t, p.Authenticated())
	})
}

func TestAuthService_SocketTicket(t *testing.T) {
	ctx := context.Background()
	authService, _ := newAuthService(t)

	result, err := authService.Signup(ctx, service.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	p, err := authService.Resolve(ctx, result.Token)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		ticket, err := authService.IssueSocketTicket(p)
		require.NoError(t, err)

		got, err := authService.ValidateSocketTicket(ctx, ticket.Token)
		require.NoError(t, err)
		assert.Equal(t, p.User.ID, got.User.ID)
		assert.Equal(t, p.SessionID, got.SessionID)
	})

	t.Run("anonymous cannot get a ticket", func(t *testing.T) {
		_, err := authService.IssueSocketTicket(service.Principal{})
		assert.ErrorIs(t, err, domain.ErrInvalidTicket)
	})

	t.Run("garbage ticket", func(t *testing.T) {
		_, err := authService.ValidateSocketTicket(ctx, "garbage")
		assert.ErrorIs(t, err, domain.ErrInvalidTicket)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": p.User.ID.String(),
			"sid": p.SessionID,
			"exp": time.Now().Add(time.Minute).Unix(),
		}).SignedString([]byte("some-other-secret"))
		require.NoError(t, err)

		_, err = authService.ValidateSocketTicket(ctx, forged)
		assert.ErrorIs(t, err, domain.ErrInvalidTicket)
	})

	t.Run("expired ticket", func(t *testing.T) {
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": p.User.ID.String(),
			"sid": p.SessionID,
			"exp": time.Now().Add(-time.Minute).Unix(),
		}).SignedString([]byte(testutil.TestConfig().JWTSecret))
		require.NoError(t, err)

		_, err = authService.ValidateSocketTicket(ctx, expired)
		assert.ErrorIs(t, err, domain.ErrInvalidTicket)
	})

	t.Run("ticket dies with its session", func(t *testing.T) {
		other, err := authService.Login(ctx, service.Credentials{Username: "alice", Password: "secret"})
		require.NoError(t, err)
		op, err := authService.Resolve(ctx, other.Token)
		require.NoError(t, err)

		ticket, err := authService.IssueSocketTicket(op)
		require.NoError(t, err)
		require.NoError(t, authService.Logout(ctx, other.Token))

		_, err = authService.ValidateSocketTicket(ctx, ticket.Token)
		assert.ErrorIs(t, err, domain.ErrInvalidTicket)
	})
}
