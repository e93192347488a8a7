package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_ReturnsTokenAndUser(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"handle":       "alice",
		"password":     "TestPassword123!",
		"email":        "alice@test.com",
		"display_name": "Alice",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)

	assert.Equal(t, 1, envelope.Version)
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.Greater(t, envelope.Data.ExpiresIn, int64(0))
	assert.Equal(t, "alice", envelope.Data.User.Handle)
	assert.Equal(t, "Alice", envelope.Data.User.DisplayName)
	assert.Equal(t, "member", envelope.Data.User.Role)
	assert.NotEmpty(t, envelope.Data.User.AvatarColor)

	// Token must verify against the token service.
	claims, err := ts.tokenService.VerifyAccessToken(envelope.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, envelope.Data.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Handle)
}

func TestSignup_WithoutEmail(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"handle":   "loner",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.User.Email)
}

func TestSignup_DuplicateHandle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createTestUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"handle":   "alice",
		"password": "AnotherPassword1!",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
	assert.Equal(t, "handle already taken", envelope.Message)
}

func TestSignup_RejectsInvalidInput(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"short handle", map[string]any{"handle": "ab", "password": "TestPassword123!"}},
		{"short password", map[string]any{"handle": "alice", "password": "short"}},
		{"bad email", map[string]any{"handle": "alice", "password": "TestPassword123!", "email": "not-an-email"}},
		{"handle with spaces", map[string]any{"handle": "al ice", "password": "TestPassword123!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/signup", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			var envelope testEnvelope[struct{}]
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
			assert.False(t, envelope.Success)
			assert.Equal(t, "VALIDATION", envelope.Code)
		})
	}
}

func TestLogin_Succeeds(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createTestUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"handle":   "alice",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "alice", envelope.Data.User.Handle)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createTestUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"handle":   "alice",
		"password": "WrongPassword1!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Code)
	assert.Equal(t, "invalid handle or password", envelope.Message)
}

func TestLogin_UnknownHandle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"handle":   "nobody",
		"password": "TestPassword123!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Same message as a wrong password, the handle's existence stays private.
	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "invalid handle or password", envelope.Message)
}

func TestMe_ReturnsCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token, userID := ts.createTestUser(t, "alice")

	resp := ts.api.Get("/api/v1/auth/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, userID, envelope.Data.ID)
	assert.Equal(t, "alice", envelope.Data.Handle)
	assert.Equal(t, "alice@test.com", envelope.Data.Email)
}

func TestMe_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/auth/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/auth/me", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	// The auth limiter allows a burst of 50 per client. Unknown handles
	// fail fast, so this loop exhausts the budget well inside a second.
	limited := 0
	for range 60 {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"handle":   "nobody",
			"password": "TestPassword123!",
		})
		if resp.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Greater(t, limited, 0, "expected some requests to be rate limited")
}
