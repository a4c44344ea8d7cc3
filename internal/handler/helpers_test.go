package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/executor"
	"github.com/sakif/snippets/internal/handler"
	"github.com/sakif/snippets/internal/repository/sqlite"
	"github.com/sakif/snippets/internal/service"
)

// MockExecutor implements a fast, mock executor for handler testing without Docker overhead.
type MockExecutor struct {
	CapturedReq executor.ExecutionRequest
	Calls       int
	ReturnRes   *executor.ExecutionResult
	ReturnErr   error
}

func (m *MockExecutor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	m.CapturedReq = req
	m.Calls++
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnRes, nil
}

// testAPI is the full handler stack on an in-memory database. Users and
// groups are mounted without RequireAuth here; the server tests cover the
// permission layer.
type testAPI struct {
	router    http.Handler
	db        *sqlite.DB
	tokens    *auth.TokenService
	passwords *auth.PasswordService
}

type apiOptions struct {
	exec   executor.Executor
	github *auth.GitHubProvider
	pager  *handler.Paginator
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPI(t *testing.T, opts apiOptions) *testAPI {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	logger := quietLogger()

	pager := handler.Paginator{DefaultSize: 10, MaxSize: 50}
	if opts.pager != nil {
		pager = *opts.pager
	}
	snippets := handler.NewSnippetHandler(service.NewSnippetService(db, logger), opts.exec, pager, logger)
	users := handler.NewUserHandler(service.NewUserService(db, db, passwords, logger), pager, logger)
	groups := handler.NewGroupHandler(service.NewGroupService(db, logger), pager, logger)
	authH := handler.NewAuthHandler(service.NewAuthService(db, tokens, passwords, logger), opts.github, tokens.TTL(), "", logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.StripSlashes)
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/", handler.HandleRoot)
	r.Get("/healthz", handler.HandleHealth(db))

	r.Route("/snippets", func(r chi.Router) {
		r.Get("/", snippets.HandleList)
		r.Post("/", snippets.HandleCreate)
		r.Get("/{id}", snippets.HandleGet)
		r.Put("/{id}", snippets.HandleUpdate)
		r.Patch("/{id}", snippets.HandlePartialUpdate)
		r.Delete("/{id}", snippets.HandleDelete)
		r.Post("/{id}/run", snippets.HandleRun)
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", users.HandleList)
		r.Post("/", users.HandleCreate)
		r.Get("/{id}", users.HandleGet)
		r.Put("/{id}", users.HandleUpdate)
		r.Patch("/{id}", users.HandlePartialUpdate)
		r.Delete("/{id}", users.HandleDelete)
	})
	r.Route("/groups", func(r chi.Router) {
		r.Get("/", groups.HandleList)
		r.Post("/", groups.HandleCreate)
		r.Get("/{id}", groups.HandleGet)
		r.Put("/{id}", groups.HandleUpdate)
		r.Patch("/{id}", groups.HandlePartialUpdate)
		r.Delete("/{id}", groups.HandleDelete)
	})
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authH.HandleLogin)
		r.Post("/logout", authH.HandleLogout)
		r.With(auth.RequireAuth(tokens)).Get("/me", authH.HandleMe)
		r.Get("/github/login", authH.HandleGitHubLogin)
		r.Get("/github/callback", authH.HandleGitHubCallback)
	})

	return &testAPI{router: r, db: db, tokens: tokens, passwords: passwords}
}

// do sends a request with an optional JSON body. httptest requests use the
// host "example.com", which is what every absolute link in the tests expects.
func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(a, newRequest(t, method, path, body))
}

func newRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(a *testAPI, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals the response body into a generic map.
func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

// fieldErrors pulls "fields" out of a validation error response.
func fieldErrors(t *testing.T, rr *httptest.ResponseRecorder) map[string][]string {
	t.Helper()
	var out handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out.Fields
}
