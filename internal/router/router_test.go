package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/staff-auth/config"
	"github.com/oksasatya/staff-auth/internal/container"
	"github.com/oksasatya/staff-auth/internal/infrastructure/memory"
	"github.com/oksasatya/staff-auth/internal/router"
	"github.com/oksasatya/staff-auth/pkg/helpers"
	"github.com/oksasatya/staff-auth/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type server struct {
	t      *testing.T
	engine *gin.Engine
	c      *container.Container
}

func newServer(t *testing.T, service string, withRedis bool) *server {
	t.Helper()
	cfg := config.Load()
	cfg.ServiceName = service
	cfg.JWTSecret = "router-test-secret"
	cfg.TokenTTL = time.Hour
	cfg.Version = "test"

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c := container.New(cfg, logger)
	c.Repo = memory.NewUserRepository()
	if withRedis {
		mr := miniredis.RunT(t)
		c.Redis = helpers.NewRedisClient(mr.Addr(), "", 0, time.Second)
		t.Cleanup(func() { _ = c.Redis.Close() })
	}
	c.SetState(container.StateReady)
	return &server{t: t, engine: router.NewEngine(c), c: c}
}

func (s *server) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	if strings.Contains(w.Header().Get("Content-Type"), "json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func registration(name, email, emp string) map[string]any {
	return map[string]any{
		"name": name, "email": email, "department": "eng", "employee_id": emp,
		"password": "password1", "confirm_password": "password1",
	}
}

func (s *server) login(email, password string) string {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, code, body)
	return body["token"].(string)
}

func userOf(body map[string]any) map[string]any {
	return body["user"].(map[string]any)
}

func TestScenario_RegisterApproveLogin(t *testing.T) {
	s := newServer(t, config.ServiceAll, true)

	code, body := s.do(http.MethodPost, "/api/auth/register", "", registration("Ada", "ada@x.io", "E1"))
	require.Equal(t, http.StatusCreated, code, body)
	a := userOf(body)
	assert.Equal(t, "admin", a["role"])
	assert.Equal(t, "active", a["status"])
	assert.NotContains(t, a, "password_hash")

	code, body = s.do(http.MethodPost, "/api/auth/register", "", registration("Bob", "bob@x.io", "E2"))
	require.Equal(t, http.StatusCreated, code, body)
	b := userOf(body)
	assert.Equal(t, "user", b["role"])
	assert.Equal(t, "pending", b["status"])

	code, body = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "bob@x.io", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, body["error"])

	adminToken := s.login("ada@x.io", "password1")
	bobID := int64(b["id"].(float64))
	code, body = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d/status", bobID), adminToken, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "active", userOf(body)["status"])

	bobToken := s.login("BOB@x.io", "password1")
	code, body = s.do(http.MethodGet, "/api/auth/verify", bobToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(bobID), userOf(body)["id"])

	code, body = s.do(http.MethodGet, "/api/auth/me", bobToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bob@x.io", body["email"])
}

func TestRegister_Errors(t *testing.T) {
	s := newServer(t, config.ServiceAll, false)

	code, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{"name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])

	short := registration("Ada", "ada@x.io", "E1")
	short["password"], short["confirm_password"] = "short", "short"
	code, _ = s.do(http.MethodPost, "/api/auth/register", "", short)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/auth/register", "", registration("Ada", "ada@x.io", "E1"))
	require.Equal(t, http.StatusCreated, code)
	code, body = s.do(http.MethodPost, "/api/auth/register", "", registration("Other", "ADA@X.IO", "E2"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])
}

func TestLogin_SameErrorForUnknownAndWrong(t *testing.T) {
	s := newServer(t, config.ServiceAll, false)
	s.do(http.MethodPost, "/api/auth/register", "", registration("Ada", "ada@x.io", "E1"))

	c1, b1 := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ghost@x.io", "password": "password1"})
	c2, b2 := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@x.io", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, c1)
	assert.Equal(t, http.StatusUnauthorized, c2)
	assert.Equal(t, b1["error"], b2["error"])
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	s := newServer(t, config.ServiceAll, false)

	code, body := s.do(http.MethodGet, "/api/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token is missing", body["error"])

	code, _ = s.do(http.MethodGet, "/api/users", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid signature for a user that does not exist.
	token, _, err := s.c.JWT.Issue(42, "ghost@x.io")
	require.NoError(t, err)
	code, _ = s.do(http.MethodGet, "/api/auth/verify", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUsers_ListCacheAndCreate(t *testing.T) {
	s := newServer(t, config.ServiceAll, true)
	s.do(http.MethodPost, "/api/auth/register", "", registration("Ada", "ada@x.io", "E1"))
	admin := s.login("ada@x.io", "password1")

	code, body := s.do(http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "database", body["source"])
	assert.Len(t, body["data"], 1)

	_, body = s.do(http.MethodGet, "/api/users", admin, nil)
	assert.Equal(t, "cache", body["source"])

	code, body = s.do(http.MethodPost, "/api/users", admin, map[string]any{"name": "Bob", "email": "bob@x.io"})
	require.Equal(t, http.StatusCreated, code, body)
	temp, _ := body["temp_password"].(string)
	assert.Len(t, temp, helpers.TempPasswordLength)
	assert.Regexp(t, `^EMP\d{4}$`, userOf(body)["employee_id"])

	code, body = s.do(http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "database", body["source"])
	assert.Len(t, body["data"], 2)

	// The temporary password works exactly as issued.
	s.login("bob@x.io", temp)
}

func TestUsers_RoleGates(t *testing.T) {
	s := newServer(t, config.ServiceAll, false)
	_, body := s.do(http.MethodPost, "/api/auth/register", "", registration("Ada", "ada@x.io", "E1"))
	adminID := int64(userOf(body)["id"].(float64))
	admin := s.login("ada@x.io", "password1")

	_, body = s.do(http.MethodPost, "/api/users", admin, map[string]any{
		"name": "Bob", "email": "bob@x.io", "password": "password1", "confirm_password": "password1",
	})
	bobID := int64(userOf(body)["id"].(float64))
	bob := s.login("bob@x.io", "password1")

	code, body := s.do(http.MethodGet, "/api/users", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, _ = s.do(http.MethodPost, "/api/users", bob, map[string]any{"name": "X", "email": "x@x.io"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", adminID), bob, map[string]any{"name": "pwned"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", bobID), bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d/status", bobID), bob, map[string]any{"status": "active"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", bobID), bob, map[string]any{"name": "Robert"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Robert", userOf(body)["name"])

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", adminID), admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodDelete, "/api/users/9999", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPut, "/api/users/abc", admin, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d/status", bobID), admin, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", bobID), admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User deleted successfully", body["message"])

	// Deleted user's token no longer authenticates.
	code, _ = s.do(http.MethodGet, "/api/auth/verify", bob, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUsers_SearchDisabled(t *testing.T) {
	s := newServer(t, config.ServiceAll, false)
	s.do(http.MethodPost, "/api/auth/register", "", registration("Ada", "ada@x.io", "E1"))
	admin := s.login("ada@x.io", "password1")

	code, body := s.do(http.MethodGet, "/api/users/search?q=ada", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "disabled", body["source"])
	assert.Empty(t, body["data"])

	code, _ = s.do(http.MethodGet, "/api/users/search", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	s := newServer(t, config.ServiceUsers, false)
	s.c.SetState(container.StateStarting)

	code, body := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "initializing", body["status"])
	assert.Equal(t, false, body["initialized"])
	assert.Equal(t, "users", body["service"])
	assert.Equal(t, "disconnected", body["database"], "clients are not probed while starting")
	assert.Equal(t, "disconnected", body["redis"])
	assert.NotEmpty(t, body["timestamp"])

	s.c.SetState(container.StateReady)
	_, body = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["initialized"])
	assert.Equal(t, "connected", body["database"])
}

// Mirrors main: clients are assigned while health is being polled, then the
// container is marked ready.
func TestStartupEngine_HealthWhileClientsAreAssigned(t *testing.T) {
	cfg := config.Load()
	cfg.ServiceName = config.ServiceAll
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := container.New(cfg, logger)
	engine := router.NewStartupEngine(c)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("health returned %d", rec.Code)
				return
			}
		}
	}()

	mr := miniredis.RunT(t)
	c.Repo = memory.NewUserRepository()
	c.Redis = helpers.NewRedisClient(mr.Addr(), "", 0, time.Second)
	t.Cleanup(func() { _ = c.Redis.Close() })
	c.SetState(container.StateReady)

	close(stop)
	<-done

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "connected", body["redis"])
}

func TestServiceSplit(t *testing.T) {
	auth := newServer(t, config.ServiceAuth, false)
	code, _ := auth.do(http.MethodGet, "/api/users", "x", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, body := auth.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "auth", body["service"])
	assert.Equal(t, "test", body["version"])

	users := newServer(t, config.ServiceUsers, false)
	code, _ = users.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "a@x.io", "password": "x"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStartupEngine_OnlyHealth(t *testing.T) {
	cfg := config.Load()
	cfg.ServiceName = config.ServiceAll
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := container.New(cfg, logger)
	s := &server{t: t, engine: router.NewStartupEngine(c), c: c}

	code, body := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "initializing", body["status"])
	assert.Equal(t, "disconnected", body["database"])
	assert.Equal(t, false, body["initialized"])

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "a@x.io", "password": "password1"})
	assert.Equal(t, http.StatusNotFound, code)
}
