package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID string         `json:"request_id"`
	} `json:"error"`
}

type testServer struct {
	t        *testing.T
	app      *fiber.App
	software int64
	techID   int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	db := testutil.OpenDB(t)
	metrics := observability.NewMetrics()

	users := repository.NewUserRepository(db)
	requests := repository.NewRequestRepository(db)
	lookups := repository.NewLookupRepository(db)
	notifications := repository.NewNotificationRepository(db)
	settings := repository.NewSettingsRepository(db)
	dispatcher := events.NewInMemoryDispatcher(logger, metrics)
	resultCache := cache.New(nil, config.CacheConfig{}, metrics, logger)

	cfg := config.Config{
		App:  config.AppConfig{Name: "helpdesk-test", Version: "test"},
		Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost},
	}
	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: users, RequestRepo: requests, Cache: resultCache}, logger)
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requests,
		UserRepo:    users,
		LookupRepo:  lookups,
		Dispatcher:  dispatcher,
	}, logger)
	notificationService := service.NewNotificationService(cfg.Notification, service.NotificationDependencies{
		NotificationRepo: notifications,
		SettingsRepo:     settings,
		Dispatcher:       dispatcher,
	}, logger)
	worker.StartNotificationWorker(dispatcher, notificationService, resultCache)

	routes := RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, &persistence.Database{DB: db, Driver: config.DriverSQLite}, &persistence.Redis{}),
		Auth:     handlers.NewAuthHandler(authService, service.NewSettingsService(settings, logger)),
		Users:    handlers.NewUsersHandler(authService),
		Lookups:  handlers.NewLookupsHandler(service.NewLookupService(lookups)),
		Requests: handlers.NewRequestsHandler(requestService),
		Reports: handlers.NewReportsHandler(
			notificationService,
			service.NewRatingService(users, requests, resultCache, cfg.Rating.ResolutionTarget(), logger),
			service.NewAnalyticsService(requests, users, resultCache),
		),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
		Metrics:        metrics,
	}

	return &testServer{
		t:        t,
		app:      NewServer(cfg.App, logger, routes),
		software: testutil.CategoryID(t, db, "Software"),
		techID:   testutil.UserID(t, db, "tech"),
	}
}

func (s *testServer) do(method, path, token string, body any) (*nethttp.Response, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func (s *testServer) login(login string) string {
	s.t.Helper()
	resp, env := s.do(nethttp.MethodPost, "/auth/login", "", map[string]string{"login": login, "password": testutil.SeedPassword})
	require.Equal(s.t, nethttp.StatusOK, resp.StatusCode)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(s.t, data.Auth.Token)
	return data.Auth.Token
}

func (s *testServer) createRequest(token, title string) int64 {
	s.t.Helper()
	resp, env := s.do(nethttp.MethodPost, "/requests", token, map[string]any{
		"title":       title,
		"description": "details",
		"category_id": s.software,
		"priority":    "high",
	})
	require.Equal(s.t, nethttp.StatusCreated, resp.StatusCode)
	var created struct {
		ID         int64  `json:"id"`
		StatusName string `json:"status_name"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &created))
	require.Equal(s.t, "New", created.StatusName)
	return created.ID
}

func decodeList(t *testing.T, env envelope) []map[string]any {
	t.Helper()
	var items []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &items))
	return items
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)

	resp, env := srv.do(nethttp.MethodPost, "/auth/login", "", map[string]string{"login": "admin", "password": "wrong"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, service.CodeInvalidCredentials, env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)
	assert.Equal(t, env.Error.RequestID, resp.Header.Get("X-Request-ID"))

	resp, env = srv.do(nethttp.MethodPost, "/auth/login", "", map[string]string{"login": "ghost", "password": "x"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, service.CodeUserNotFound, env.Error.Code)

	resp, env = srv.do(nethttp.MethodPost, "/auth/login", "", map[string]string{"login": "admin"})
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp, env := srv.do(nethttp.MethodGet, "/requests", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	resp, _ = srv.do(nethttp.MethodGet, "/requests", "garbage", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterAndExists(t *testing.T) {
	srv := newTestServer(t)

	resp, env := srv.do(nethttp.MethodPost, "/auth/register", "", map[string]string{
		"login": "  Alice ", "display_name": "Alice", "password": "secret",
	})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	var data struct {
		User struct {
			Login string `json:"login"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "alice", data.User.Login)
	assert.Equal(t, "user", data.User.Role)

	resp, env = srv.do(nethttp.MethodPost, "/auth/register", "", map[string]string{
		"login": "alice", "display_name": "Again", "password": "secret",
	})
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	assert.Equal(t, service.CodeUserAlreadyExists, env.Error.Code)

	_, env = srv.do(nethttp.MethodGet, "/auth/users/exists?login=ALICE", "", nil)
	var exists struct {
		Exists bool `json:"exists"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &exists))
	assert.True(t, exists.Exists)
}

func TestRequestLifecycle(t *testing.T) {
	srv := newTestServer(t)
	userToken := srv.login("user")
	techToken := srv.login("tech")
	adminToken := srv.login("admin")

	id := srv.createRequest(userToken, "Printer jammed")
	path := "/requests/" + strconv.FormatInt(id, 10)

	resp, env := srv.do(nethttp.MethodGet, "/requests", techToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(t, env), 1, "unassigned requests are visible to technicians")

	resp, env = srv.do(nethttp.MethodPost, path+"/close", userToken, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	resp, env = srv.do(nethttp.MethodPost, path+"/assign", techToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var assigned struct {
		AssignedToID *int64 `json:"assigned_to_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &assigned))
	require.NotNil(t, assigned.AssignedToID)
	assert.Equal(t, srv.techID, *assigned.AssignedToID)

	resp, env = srv.do(nethttp.MethodPost, path+"/close", techToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var closed struct {
		StatusName string  `json:"status_name"`
		ClosedAt   *string `json:"closed_at"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &closed))
	assert.Equal(t, "Closed", closed.StatusName)
	assert.NotNil(t, closed.ClosedAt)

	resp, _ = srv.do(nethttp.MethodPut, path, userToken, map[string]any{
		"title": "Edited", "description": "details", "category_id": srv.software, "priority": "low",
	})
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode, "closed requests are read-only for requesters")

	resp, env = srv.do(nethttp.MethodGet, "/notifications/recent?take=10", userToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	types := map[string]bool{}
	for _, n := range decodeList(t, env) {
		types[n["type"].(string)] = true
	}
	assert.True(t, types["Created"])
	assert.True(t, types["Assigned"])
	assert.True(t, types["Closed"])

	resp, env = srv.do(nethttp.MethodGet, "/rating", userToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	ratings := decodeList(t, env)
	require.Len(t, ratings, 1)
	assert.EqualValues(t, 14, ratings[0]["score"])

	resp, _ = srv.do(nethttp.MethodDelete, path, adminToken, nil)
	assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

	resp, env = srv.do(nethttp.MethodGet, path, adminToken, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, service.CodeRequestNotFound, env.Error.Code)
}

func TestRequestsAreScopedToOwner(t *testing.T) {
	srv := newTestServer(t)
	userToken := srv.login("user")
	id := srv.createRequest(userToken, "Mine")

	resp, env := srv.do(nethttp.MethodPost, "/auth/register", "", map[string]string{
		"login": "bob", "display_name": "Bob", "password": "secret",
	})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	bobToken := data.Auth.Token

	_, env = srv.do(nethttp.MethodGet, "/requests", bobToken, nil)
	assert.Empty(t, decodeList(t, env))

	resp, env = srv.do(nethttp.MethodGet, "/requests/"+strconv.FormatInt(id, 10), bobToken, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, service.CodeRequestNotFound, env.Error.Code)

	resp, env = srv.do(nethttp.MethodGet, "/requests?priority=urgent", userToken, nil)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "urgent", env.Error.Details["priority"])
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	userToken := srv.login("user")
	srv.createRequest(userToken, "Needs; quoting")

	req := httptest.NewRequest(nethttp.MethodGet, "/requests/export", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "requests.csv")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Id;Title;"))
	assert.Contains(t, lines[1], `"Needs; quoting"`)
}

func TestAdminOnlyRoutes(t *testing.T) {
	srv := newTestServer(t)
	userToken := srv.login("user")
	adminToken := srv.login("admin")

	for _, path := range []string{"/users", "/analytics/status", "/analytics/timeline", "/analytics/technicians"} {
		resp, env := srv.do(nethttp.MethodGet, path, userToken, nil)
		assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode, path)
		assert.Equal(t, "FORBIDDEN", env.Error.Code, path)

		resp, _ = srv.do(nethttp.MethodGet, path, adminToken, nil)
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode, path)
	}

	resp, env := srv.do(nethttp.MethodGet, "/analytics/timeline?from=bad", adminToken, nil)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestUserManagement(t *testing.T) {
	srv := newTestServer(t)
	adminToken := srv.login("admin")

	resp, env := srv.do(nethttp.MethodPost, "/users", adminToken, map[string]string{
		"login": "helper", "display_name": "Helper", "role": "tech", "password": "pw",
	})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	resp, _ = srv.do(nethttp.MethodPost, "/users/"+strconv.FormatInt(created.ID, 10)+"/password/reset", adminToken, map[string]string{"new_password": "fresh"})
	assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

	resp, _ = srv.do(nethttp.MethodPost, "/auth/login", "", map[string]string{"login": "helper", "password": "fresh"})
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, _ = srv.do(nethttp.MethodDelete, "/users/"+strconv.FormatInt(created.ID, 10), adminToken, nil)
	assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

	_, env = srv.do(nethttp.MethodGet, "/me", adminToken, nil)
	var me struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	resp, env = srv.do(nethttp.MethodPut, "/users/"+strconv.FormatInt(me.ID, 10), adminToken, map[string]string{
		"login": "admin", "display_name": "Admin", "role": "user",
	})
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	assert.Equal(t, "SELF_ROLE_CHANGE", env.Error.Code)
}

func TestLookupsAndSettings(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login("user")

	_, env := srv.do(nethttp.MethodGet, "/lookups/categories", token, nil)
	assert.Len(t, decodeList(t, env), 4)

	_, env = srv.do(nethttp.MethodGet, "/lookups/priorities", token, nil)
	var priorities []string
	require.NoError(t, json.Unmarshal(env.Data, &priorities))
	assert.Equal(t, []string{"low", "medium", "high"}, priorities)

	resp, env := srv.do(nethttp.MethodPut, "/me/settings", token, map[string]any{"theme": "Dark"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	var settings struct {
		Theme                string `json:"theme"`
		NotificationsEnabled bool   `json:"notifications_enabled"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.Equal(t, "Dark", settings.Theme)
	assert.True(t, settings.NotificationsEnabled)

	resp, env = srv.do(nethttp.MethodPut, "/me/settings", token, map[string]any{"theme": "Purple"})
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.do(nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "helpdesk_http_requests_total")
}
