package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/timetrack/internal/common/clock"
	"github.com/dom/timetrack/internal/common/crypto"
	"github.com/dom/timetrack/internal/config"
	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      crypto.PasswordHasher
	validate    *validator.Validate
	clock       clock.Clock
	cfg         *config.Config
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, hasher crypto.PasswordHasher, clk clock.Clock, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		clock:       clk,
		cfg:         cfg,
	}
}

type Credentials struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=72"`
}

type AuthResult struct {
	User  *domain.User
	Token string
}

// Principal is the outcome of resolving a bearer token. The zero value is
// the anonymous caller; routes decide whether anonymous access is allowed.
type Principal struct {
	User      *domain.User
	SessionID string
}

func (p Principal) Authenticated() bool {
	return p.User != nil
}

func (s *AuthService) Signup(ctx context.Context, creds Credentials) (*AuthResult, error) {
	if err := s.validateCredentials(creds); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByUsername(ctx, creds.Username)
	if err == nil && existing != nil {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     creds.Username,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.createSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	if err := s.validateCredentials(creds); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, creds.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.createSession(ctx, user)
}

// Logout deletes the session behind token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessionRepo.Delete(ctx, crypto.FingerprintToken(token))
}

// Resolve maps a bearer token to its user. Missing, unknown or orphaned
// tokens yield the anonymous principal; only store failures are errors.
func (s *AuthService) Resolve(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, nil
	}
	return s.resolveSession(ctx, crypto.FingerprintToken(token))
}

func (s *AuthService) resolveSession(ctx context.Context, sessionID string) (Principal, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return Principal{}, nil
		}
		return Principal{}, fmt.Errorf("lookup session: %w", err)
	}

	user, err := s.userRepo.GetByUsername(ctx, session.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return Principal{}, nil
		}
		return Principal{}, fmt.Errorf("lookup session user: %w", err)
	}

	return Principal{User: user, SessionID: sessionID}, nil
}

type SocketTicket struct {
	Token     string
	ExpiresAt time.Time
}

// IssueSocketTicket signs a short-lived ticket for the WebSocket handshake,
// so the session token itself never appears in a URL.
func (s *AuthService) IssueSocketTicket(p Principal) (*SocketTicket, error) {
	if !p.Authenticated() {
		return nil, domain.ErrInvalidTicket
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.SocketTicketTTL)
	claims := jwt.MapClaims{
		"sub": p.User.ID.String(),
		"sid": p.SessionID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign socket ticket: %w", err)
	}
	return &SocketTicket{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateSocketTicket verifies the ticket and re-resolves both the session
// and the user. Either lookup failing rejects the ticket.
func (s *AuthService) ValidateSocketTicket(ctx context.Context, ticket string) (Principal, error) {
	if ticket == "" {
		return Principal{}, domain.ErrInvalidTicket
	}

	token, err := jwt.Parse(ticket, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return Principal{}, domain.ErrInvalidTicket
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, domain.ErrInvalidTicket
	}
	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil || sid == "" {
		return Principal{}, domain.ErrInvalidTicket
	}

	p, err := s.resolveSession(ctx, sid)
	if err != nil {
		return Principal{}, err
	}
	if !p.Authenticated() || p.User.ID != userID {
		return Principal{}, domain.ErrInvalidTicket
	}
	return p, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) createSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, err := crypto.GenerateToken(crypto.SessionTokenSize)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		TokenHash: crypto.FingerprintToken(token),
		Username:  user.Username,
		CreatedAt: s.clock.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) validateCredentials(creds Credentials) error {
	err := s.validate.Struct(creds)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Password" {
		return domain.ErrInvalidPassword
	}
	return domain.ErrInvalidUsername
}
