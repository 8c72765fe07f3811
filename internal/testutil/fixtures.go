package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dom/timetrack/internal/domain"
	"github.com/dom/timetrack/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.username = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user directly and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, users repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// SessionResponse matches the JSON signup/login response
type SessionResponse struct {
	SessionID string `json:"sessionId"`
}

// BuildAndAuthenticate signs the user up through the API and returns the
// username and session token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (string, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username": b.username,
		"password": b.password,
	})

	resp, err := http.Post(ts.URL("/signup"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to sign up user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var session SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return b.username, session.SessionID
}

// CreateAuthenticatedRequest creates a JSON request carrying the session
// token in the sessionid header
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("sessionid", token)
	}

	return req
}

// NoRedirectClient returns a client that surfaces 302s instead of following them
func NoRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// IssueTicket fetches a WebSocket ticket for the session token
func IssueTicket(t *testing.T, ts *TestServer, token string) string {
	t.Helper()

	req := CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/ws/ticket"), nil, token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to request ticket: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var ticket struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		t.Fatalf("failed to decode ticket: %v", err)
	}
	return ticket.Token
}
