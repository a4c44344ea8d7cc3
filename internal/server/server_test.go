package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second, ShutdownTimeout: time.Second},
		Database:   config.DatabaseConfig{Path: ":memory:"},
		Auth:       config.AuthConfig{JWTSecret: "server-test-secret-0123456789", TokenTTL: time.Hour},
		Pagination: config.PaginationConfig{PageSize: 10, MaxPageSize: 100},
		Log:        config.LogConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func request(t *testing.T, s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

// tokenFor signs a token with the server's configured secret.
func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	ts, err := auth.NewTokenService(testConfig().Auth.JWTSecret, time.Hour)
	require.NoError(t, err)
	token, err := ts.Generate(userID)
	require.NoError(t, err)
	return token
}

func TestSnippetsArePublic(t *testing.T) {
	s := newTestServer(t)

	rr := request(t, s, http.MethodPost, "/snippets/", `{"code": "print(1)"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = request(t, s, http.MethodGet, "/snippets", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUsersAndGroupsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	paths := []struct{ method, path, body string }{
		{http.MethodGet, "/users/", ""},
		{http.MethodPost, "/users/", `{"username": "x"}`},
		{http.MethodGet, "/users/1/", ""},
		{http.MethodPut, "/users/1", `not even json`},
		{http.MethodDelete, "/users/1/", ""},
		{http.MethodGet, "/groups/", ""},
		{http.MethodPost, "/groups", `{"name": "g"}`},
		{http.MethodPatch, "/groups/abc/", `{}`},
	}

	for _, p := range paths {
		rr := request(t, s, p.method, p.path, p.body, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
		assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer", "%s %s", p.method, p.path)
	}

	// Nothing was created behind the 401s.
	token := tokenFor(t, 1)
	rr := request(t, s, http.MethodGet, "/groups/", "", token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"count":0`)
}

func TestUsersWithToken(t *testing.T) {
	s := newTestServer(t)
	token := tokenFor(t, 1)

	rr := request(t, s, http.MethodPost, "/groups/", `{"name": "admins"}`, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = request(t, s, http.MethodPost, "/users/",
		`{"username": "root", "password": "correct-horse", "groups": ["http://example.com/groups/1/"]}`, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var u map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	assert.Equal(t, "http://example.com/users/1/", u["url"])
	assert.Equal(t, []any{"http://example.com/groups/1/"}, u["groups"])
}

func TestInvalidTokenRejected(t *testing.T) {
	s := newTestServer(t)

	rr := request(t, s, http.MethodGet, "/users/", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid token.")
}

func TestLoginThenUseToken(t *testing.T) {
	s := newTestServer(t)
	bootstrap := tokenFor(t, 1)

	rr := request(t, s, http.MethodPost, "/users/", `{"username": "alice", "password": "wonderland"}`, bootstrap)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = request(t, s, http.MethodPost, "/auth/login", `{"username": "alice", "password": "wonderland"}`, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tok))

	rr = request(t, s, http.MethodGet, "/auth/me/", "", tok.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"alice"`)
}

func TestRunWithoutExecutor(t *testing.T) {
	s := newTestServer(t)

	rr := request(t, s, http.MethodPost, "/snippets/", `{"code": "print(1)"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = request(t, s, http.MethodPost, "/snippets/1/run/", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	s := newTestServer(t)

	rr := request(t, s, http.MethodGet, "/nope/", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	rr = request(t, s, http.MethodGet, "/auth/github/login", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "GitHub routes are off without credentials")
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, request(t, s, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, http.StatusOK, request(t, s, http.MethodGet, "/healthz", "", "").Code)
}

func TestRandomSecretWhenUnset(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""

	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)
	defer s.Close()

	// A token signed with some other secret must not pass.
	rr := request(t, s, http.MethodGet, "/users/", "", tokenFor(t, 1))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
