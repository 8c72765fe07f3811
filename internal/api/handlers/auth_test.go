package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dom/timetrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_SignupJSON(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        map[string]string
		setup          func()
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "successful signup",
			request:        map[string]string{"username": "newuser", "password": "password123"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing username",
			request:        map[string]string{"password": "password123"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing password",
			request:        map[string]string{"username": "nopass"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "duplicate username",
			request: map[string]string{"username": "existinguser", "password": "password123"},
			setup: func() {
				testutil.NewUserBuilder().
					WithUsername("existinguser").
					Build(t, ts.Repos.User)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "User exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			body, _ := json.Marshal(tt.request)
			resp, err := http.Post(ts.URL("/signup"), "application/json", bytes.NewBuffer(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			if tt.expectedMsg != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMsg)
				return
			}
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var session testutil.SessionResponse
				testutil.AssertJSONResponse(t, resp, &session)
				assert.NotEmpty(t, session.SessionID)
			}
		})
	}
}

func TestAuthHandler_FormFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := testutil.NoRedirectClient()

	form := url.Values{"username": {"formuser"}, "password": {"secret"}}
	resp, err := client.PostForm(ts.URL("/signup"), form)
	require.NoError(t, err)
	resp.Body.Close()

	testutil.AssertRedirect(t, resp, "/")
	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "sessionId" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	t.Run("cookie identifies the user on the landing page", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL("/"), nil)
		req.AddCookie(sessionCookie)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var index struct {
			User *struct {
				Username string `json:"username"`
			} `json:"user"`
		}
		testutil.AssertJSONResponse(t, resp, &index)
		require.NotNil(t, index.User)
		assert.Equal(t, "formuser", index.User.Username)
	})

	t.Run("bad password redirects with auth error", func(t *testing.T) {
		resp, err := client.PostForm(ts.URL("/login"), url.Values{"username": {"formuser"}, "password": {"wrong"}})
		require.NoError(t, err)
		resp.Body.Close()

		testutil.AssertRedirect(t, resp, "/?authError=true")
	})

	t.Run("landing page reports the auth error", func(t *testing.T) {
		resp, err := client.Get(ts.URL("/?authError=true"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var index struct {
			User      interface{} `json:"user"`
			AuthError string      `json:"authError"`
		}
		testutil.AssertJSONResponse(t, resp, &index)
		assert.Nil(t, index.User)
		assert.Equal(t, "Wrong username or password", index.AuthError)
	})

	t.Run("logout clears the cookie and the session", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL("/logout"), nil)
		req.AddCookie(sessionCookie)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		testutil.AssertRedirect(t, resp, "/")

		req = testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/timers?isActive=true"), nil, sessionCookie.Value)
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "unauthorized")
	})
}

func TestAuthHandler_LoginJSON(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().WithUsername("alice").WithPassword("secret").Build(t, ts.Repos.User)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := http.Post(ts.URL("/login"), "application/json", strings.NewReader(`{"username":"alice","password":"secret"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var session testutil.SessionResponse
		testutil.AssertJSONResponse(t, resp, &session)
		assert.NotEmpty(t, session.SessionID)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		resp, err := http.Post(ts.URL("/login"), "application/json", strings.NewReader(`{"username":"alice","password":"nope"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Wrong username or password")
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(ts.URL("/login"), "application/json", strings.NewReader(`{`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthHandler_LogoutJSON(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	t.Run("anonymous logout redirects", func(t *testing.T) {
		resp, err := testutil.NoRedirectClient().Get(ts.URL("/logout"))
		require.NoError(t, err)
		resp.Body.Close()
		testutil.AssertRedirect(t, resp, "/")
	})

	t.Run("header session gets a JSON result", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.URL("/logout"), nil, token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var result struct {
			Res string `json:"res"`
		}
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Equal(t, "success", result.Res)
	})
}

func TestAuthHandler_RateLimit(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.AuthRateLimitPerMinute = 2
	ts := testutil.NewTestServerWithConfig(t, cfg)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Post(ts.URL("/login"), "application/json", strings.NewReader(`{"username":"x","password":"y"}`))
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, statuses)
}
