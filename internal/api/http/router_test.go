package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/persistence"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
)

type testEnv struct {
	app           *fiber.App
	authService   *service.AuthService
	adminToken    string
	adminID       string
	employeeToken string
	employeeID    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repository.NewMemoryUserRepository()
	tickets := repository.NewMemoryTicketRepository(users)
	revoked := repository.NewMemoryRevokedTokenStore()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
	}

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:     users,
		RevokedStore: revoked,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: tickets,
		Dispatcher: events.NewInMemoryDispatcher(),
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users, revoked),
	})

	env := &testEnv{app: app, authService: authService}

	ctx := context.Background()
	admin, adminToken, _, err := authService.Register(ctx, "Ada", "ada@example.com", "password1", domain.RoleAdmin)
	require.NoError(t, err)
	employee, employeeToken, _, err := authService.Register(ctx, "Uma", "uma@example.com", "password1", domain.RoleEmployee)
	require.NoError(t, err)

	env.adminToken = adminToken
	env.adminID = admin.ID
	env.employeeToken = employeeToken
	env.employeeID = employee.ID
	return env
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func decodeJSON(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func (e *testEnv) createTicket(t *testing.T, title, assignedTo, priority string) map[string]any {
	t.Helper()
	body := map[string]any{"title": title, "assignedTo": assignedTo}
	if priority != "" {
		body["priority"] = priority
	}
	resp, data := e.request(t, http.MethodPost, "/v1/tickets/", e.adminToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	return decodeJSON(t, data)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/tickets/"},
		{http.MethodGet, "/v1/tickets/all"},
		{http.MethodGet, "/v1/tickets/some-id"},
		{http.MethodPost, "/v1/tickets/"},
		{http.MethodPatch, "/v1/tickets/markAsClosed/some-id"},
		{http.MethodDelete, "/v1/tickets/some-id"},
	} {
		resp, _ := env.request(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestEmployeePermissions(t *testing.T) {
	env := newTestEnv(t)

	// getTickets is granted.
	resp, _ := env.request(t, http.MethodGet, "/v1/tickets/", env.employeeToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// manageTickets is not.
	resp, _ = env.request(t, http.MethodPost, "/v1/tickets/", env.employeeToken, map[string]any{
		"title":      "nope",
		"assignedTo": env.employeeID,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.request(t, http.MethodDelete, "/v1/tickets/some-id", env.employeeToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateTicketDefaults(t *testing.T) {
	env := newTestEnv(t)

	ticket := env.createTicket(t, "Fix login", env.employeeID, "")
	assert.NotEmpty(t, ticket["id"])
	assert.Equal(t, "Fix login", ticket["title"])
	assert.Equal(t, "open", ticket["status"])
	assert.Equal(t, "low", ticket["priority"])
	assert.Equal(t, false, ticket["isDeleted"])
	assert.Nil(t, ticket["closedBy"])

	assignee, ok := ticket["assignee"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, env.employeeID, assignee["id"])
	assert.Equal(t, "Uma", assignee["name"])
}

func TestCloseTicketFlow(t *testing.T) {
	env := newTestEnv(t)

	ticket := env.createTicket(t, "Fix login", env.employeeID, "")
	id := ticket["id"].(string)

	resp, data := env.request(t, http.MethodPatch, "/v1/tickets/markAsClosed/"+id, env.employeeToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ticket closed successfully", string(data))

	resp, data = env.request(t, http.MethodGet, "/v1/tickets/"+id, env.employeeToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeJSON(t, data)
	assert.Equal(t, "close", got["status"])
	assert.Equal(t, env.employeeID, got["closedBy"])
}

func TestCloseRejectedForUnrelatedEmployee(t *testing.T) {
	env := newTestEnv(t)

	ticket := env.createTicket(t, "Fix login", env.adminID, "")
	id := ticket["id"].(string)

	resp, _ := env.request(t, http.MethodPatch, "/v1/tickets/markAsClosed/"+id, env.employeeToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCloseBlockedByHighPriorityTicket(t *testing.T) {
	env := newTestEnv(t)

	blocker := env.createTicket(t, "Prod down", env.employeeID, "high")
	target := env.createTicket(t, "Tidy backlog", env.employeeID, "")

	resp, data := env.request(t, http.MethodPatch, "/v1/tickets/markAsClosed/"+target["id"].(string), env.employeeToken, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeJSON(t, data)
	errObj, ok := payload["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "CLOSE_BLOCKED", errObj["code"])

	details, ok := errObj["details"].(map[string]any)
	require.True(t, ok)
	blocking, ok := details["blocking"].([]any)
	require.True(t, ok)
	require.Len(t, blocking, 1)
	assert.Equal(t, blocker["id"], blocking[0].(map[string]any)["id"])
}

func TestDeleteTicketFlow(t *testing.T) {
	env := newTestEnv(t)

	ticket := env.createTicket(t, "Fix login", env.employeeID, "")
	id := ticket["id"].(string)

	resp, _ := env.request(t, http.MethodDelete, "/v1/tickets/"+id, env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/v1/tickets/"+id, env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.request(t, http.MethodDelete, "/v1/tickets/"+id, env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListPaginationAndSorting(t *testing.T) {
	env := newTestEnv(t)

	env.createTicket(t, "b", env.employeeID, "medium")
	env.createTicket(t, "a", env.employeeID, "high")
	env.createTicket(t, "c", env.employeeID, "low")

	resp, data := env.request(t, http.MethodGet, "/v1/tickets/all?sortBy=title:asc&limit=2&page=1", env.employeeToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeJSON(t, data)
	assert.Equal(t, float64(1), page["page"])
	assert.Equal(t, float64(2), page["limit"])
	assert.Equal(t, float64(2), page["totalPages"])
	assert.Equal(t, float64(3), page["totalResults"])

	results := page["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].(map[string]any)["title"])
	assert.Equal(t, "b", results[1].(map[string]any)["title"])

	// Out-of-range page keeps the envelope, empties the results.
	resp, data = env.request(t, http.MethodGet, "/v1/tickets/all?limit=2&page=5", env.employeeToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decodeJSON(t, data)
	assert.Equal(t, float64(3), page["totalResults"])
	assert.Empty(t, page["results"])

	// Filtered listing by priority.
	resp, data = env.request(t, http.MethodGet, "/v1/tickets/?priority=high", env.employeeToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decodeJSON(t, data)
	assert.Equal(t, float64(1), page["totalResults"])
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodPost, "/v1/auth/logout", env.employeeToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/v1/tickets/", env.employeeToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.request(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    "uma@example.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeJSON(t, data)
	assert.NotEmpty(t, payload["token"])
	user := payload["user"].(map[string]any)
	assert.Equal(t, "employee", user["role"])

	resp, _ = env.request(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    "uma@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	resp, data := env.request(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeJSON(t, data)
	assert.Equal(t, "alive", payload["status"])
}
