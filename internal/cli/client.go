// Package cli implements the timers command-line client.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized means the server no longer accepts the stored session.
var ErrUnauthorized = errors.New("not logged in or session expired")

// APIClient handles HTTP communication with the timers server
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Timer mirrors the server's timer view
type Timer struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Start       int64  `json:"start"`
	End         *int64 `json:"end"`
	Duration    *int64 `json:"duration"`
	IsActive    bool   `json:"isActive"`
	Progress    int64  `json:"progress"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

type createTimerResponse struct {
	Description string `json:"description"`
	ID          string `json:"id"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

// Signup creates an account and returns its session token
func (c *APIClient) Signup(username, password string) (string, error) {
	return c.authenticate("/signup", username, password)
}

// Login returns a fresh session token
func (c *APIClient) Login(username, password string) (string, error) {
	return c.authenticate("/login", username, password)
}

func (c *APIClient) authenticate(path, username, password string) (string, error) {
	resp, err := c.post(path, map[string]string{"username": username, "password": password}, "")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", serverError(resp)
	}

	var result sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.SessionID == "" {
		return "", errors.New("server returned no session")
	}
	return result.SessionID, nil
}

// Logout ends the session on the server
func (c *APIClient) Logout(token string) error {
	resp, err := c.get("/logout", token)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}
	return nil
}

// ListTimers returns active or stopped timers
func (c *APIClient) ListTimers(token string, active bool) ([]Timer, error) {
	resp, err := c.get(fmt.Sprintf("/api/timers?isActive=%t", active), token)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp)
	}

	var timers []Timer
	if err := json.NewDecoder(resp.Body).Decode(&timers); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return timers, nil
}

// ListAllTimers returns active timers followed by stopped ones
func (c *APIClient) ListAllTimers(token string) ([]Timer, error) {
	active, err := c.ListTimers(token, true)
	if err != nil {
		return nil, err
	}
	stopped, err := c.ListTimers(token, false)
	if err != nil {
		return nil, err
	}
	return append(active, stopped...), nil
}

// StartTimer creates a running timer and returns its id
func (c *APIClient) StartTimer(token, description string) (string, error) {
	resp, err := c.post("/api/timers", map[string]string{"description": description}, token)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", serverError(resp)
	}

	var result createTimerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.ID, nil
}

// StopTimer stops the timer with the given id
func (c *APIClient) StopTimer(token, id string) error {
	resp, err := c.post("/api/timers/"+id+"/stop", nil, token)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return serverError(resp)
	}
	return nil
}

func serverError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized && resp.Request != nil && resp.Request.Header.Get("sessionid") != "" {
		return ErrUnauthorized
	}

	body, _ := io.ReadAll(resp.Body)
	var msg messageResponse
	if err := json.Unmarshal(body, &msg); err == nil && msg.Msg != "" {
		return fmt.Errorf("server answered %d: %s", resp.StatusCode, msg.Msg)
	}
	return fmt.Errorf("server answered %d: %s", resp.StatusCode, bytes.TrimSpace(body))
}

// HTTP helpers

func (c *APIClient) get(path, token string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("sessionid", token)
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

func (c *APIClient) post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("sessionid", token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
