package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/api/middleware"
	"github.com/phrazzld/kanban-api/internal/api/shared"
	"github.com/phrazzld/kanban-api/internal/domain"
	"github.com/phrazzld/kanban-api/internal/mocks"
	"github.com/phrazzld/kanban-api/internal/platform/memory"
	"github.com/phrazzld/kanban-api/internal/service"
	"github.com/stretchr/testify/require"
)

// testAPI serves the full /api surface over an in-memory store. Requests
// authenticate with the actor's id as bearer token.
type testAPI struct {
	router http.Handler
	actor  uuid.UUID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	uow := memory.NewStore(nil)

	tasks, err := service.NewTaskService(uow, nil, nil)
	require.NoError(t, err)
	subTasks, err := service.NewSubTaskService(uow, nil, nil)
	require.NoError(t, err)
	columns, err := service.NewColumnService(uow, nil, nil)
	require.NoError(t, err)
	rows, err := service.NewRowService(uow, nil, nil)
	require.NoError(t, err)
	users, err := service.NewUserService(uow, nil, nil)
	require.NoError(t, err)

	handlers := NewHandlers(Services{
		Tasks:    tasks,
		SubTasks: subTasks,
		Columns:  columns,
		Rows:     rows,
		Users:    users,
	}, nil)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(mocks.AcceptingJWTService()).Authenticate)
		handlers.Routes(r)
	})

	return &testAPI{router: r, actor: uuid.New()}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+a.actor.String())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// mustDo performs the request and fails unless the status matches.
func (a *testAPI) mustDo(t *testing.T, method, path string, body any, status int) *httptest.ResponseRecorder {
	t.Helper()
	rec := a.do(t, method, path, body)
	require.Equal(t, status, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[shared.ErrorResponse](t, rec).Error
}

func (a *testAPI) createTask(t *testing.T, body map[string]any) *domain.Task {
	t.Helper()
	rec := a.mustDo(t, http.MethodPost, "/api/tasks", body, http.StatusCreated)
	return decode[*domain.Task](t, rec)
}

func (a *testAPI) createColumn(t *testing.T, name string) *domain.Column {
	t.Helper()
	rec := a.mustDo(t, http.MethodPost, "/api/columns", map[string]any{"name": name}, http.StatusCreated)
	return decode[*domain.Column](t, rec)
}

func (a *testAPI) createUser(t *testing.T, name string, wipLimit *int) *domain.User {
	t.Helper()
	body := map[string]any{"name": name, "email": name + "@example.com"}
	if wipLimit != nil {
		body["wip_limit"] = *wipLimit
	}
	rec := a.mustDo(t, http.MethodPost, "/api/users", body, http.StatusCreated)
	return decode[*domain.User](t, rec)
}

func intPtr(v int) *int {
	return &v
}

func decodeJSON(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}
