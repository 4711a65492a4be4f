package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskbox/task-api/internal/api/middleware"
	"github.com/taskbox/task-api/internal/core/domain"
	"github.com/taskbox/task-api/internal/core/ports"
)

type stubAuthService struct {
	registerResult *ports.AuthResult
	registerErr    error
	loginResult    *ports.AuthResult
	loginErr       error
	logoutErr      error
	logoutCalled   string
	refreshResult  *ports.RefreshResult
	refreshErr     error
}

func (s *stubAuthService) Register(_ context.Context, _ ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerResult, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (*ports.AuthResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) Logout(_ context.Context, raw string) error {
	s.logoutCalled = raw
	return s.logoutErr
}

func (s *stubAuthService) Refresh(_ context.Context, _ string) (*ports.RefreshResult, error) {
	return s.refreshResult, s.refreshErr
}

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func doJSON(e *echo.Echo, handler echo.HandlerFunc, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, handler(c)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

var testUser = &domain.User{
	ID:       1,
	Username: "alice",
	Name:     "Alice",
	Email:    "alice@x.com",
}

func TestAuthHandler_Register_Created(t *testing.T) {
	svc := &stubAuthService{registerResult: &ports.AuthResult{
		User:         testUser,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
	}}
	h := NewAuthHandler(svc)
	e := newEchoWithValidator()

	body := `{"username":"alice","name":"Alice","email":"alice@x.com","password":"pw12345678","password_confirmation":"pw12345678"}`
	rec, err := doJSON(e, h.Register, http.MethodPost, "/auth/register", body, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "User registered successfully" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	data, _ := env.Data.(map[string]any)
	if data["access_token"] != "access-token" || data["token_type"] != "Bearer" {
		t.Fatalf("unexpected data: %+v", data)
	}
	user, _ := data["user"].(map[string]any)
	if user["username"] != "alice" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password must not appear in response")
	}
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})
	e := newEchoWithValidator()

	// Short password and mismatched confirmation.
	body := `{"username":"alice","name":"Alice","email":"alice@x.com","password":"short","password_confirmation":"different"}`
	rec, err := doJSON(e, h.Register, http.MethodPost, "/auth/register", body, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Success || env.Message != "Validation errors" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(env.Errors["password"]) == 0 || len(env.Errors["password_confirmation"]) == 0 {
		t.Fatalf("expected field errors for password fields, got %+v", env.Errors)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{registerErr: domain.ErrUserExists})
	e := newEchoWithValidator()

	body := `{"username":"alice","name":"Alice","email":"alice@x.com","password":"pw12345678","password_confirmation":"pw12345678"}`
	rec, err := doJSON(e, h.Register, http.MethodPost, "/auth/register", body, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Success || len(env.Errors["email"]) == 0 {
		t.Fatalf("expected taken-email error, got %+v", env)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &stubAuthService{loginResult: &ports.AuthResult{
		User:         testUser,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
	}}
	h := NewAuthHandler(svc)
	e := newEchoWithValidator()

	rec, err := doJSON(e, h.Login, http.MethodPost, "/auth/login", `{"email":"alice@x.com","password":"pw12345678"}`, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Login successful" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{loginErr: domain.ErrInvalidCredentials})
	e := newEchoWithValidator()

	rec, err := doJSON(e, h.Login, http.MethodPost, "/auth/login", `{"email":"alice@x.com","password":"wrong-password"}`, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Success || env.Message != "Invalid credentials" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAuthHandler_Logout_MissingHeader(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})
	e := newEchoWithValidator()

	rec, err := doJSON(e, h.Logout, http.MethodPost, "/auth/logout", "", nil)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Success || env.Message != "Authorization header missing or invalid" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	svc := &stubAuthService{}
	h := NewAuthHandler(svc)
	e := newEchoWithValidator()

	rec, err := doJSON(e, h.Logout, http.MethodPost, "/auth/logout", "", map[string]string{
		"Authorization": "Bearer some-token",
	})
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.logoutCalled != "some-token" {
		t.Fatalf("service received %q, want the bearer credential", svc.logoutCalled)
	}

	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Logged out successfully" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{refreshResult: &ports.RefreshResult{AccessToken: "new-access"}})
	e := newEchoWithValidator()

	rec, err := doJSON(e, h.Refresh, http.MethodPost, "/auth/refresh", `{"refresh_token":"some-refresh"}`, nil)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	data, _ := env.Data.(map[string]any)
	if data["access_token"] != "new-access" || data["token_type"] != "Bearer" {
		t.Fatalf("unexpected data: %+v", data)
	}
	if _, rotated := data["refresh_token"]; rotated {
		t.Fatalf("refresh must not return a new refresh token")
	}
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{refreshErr: domain.ErrInvalidToken})
	e := newEchoWithValidator()

	rec, err := doJSON(e, h.Refresh, http.MethodPost, "/auth/refresh", `{"refresh_token":"expired"}`, nil)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Success || env.Message != "Invalid refresh token" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})
	e := newEchoWithValidator()

	rec, err := doJSON(e, h.Refresh, http.MethodPost, "/auth/refresh", `{}`, nil)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})
	e := newEchoWithValidator()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	now := time.Now().UTC()
	c.Set(middleware.UserContextKey, &domain.User{
		ID:        1,
		Username:  "alice",
		Name:      "Alice",
		Email:     "alice@x.com",
		CreatedAt: now,
		UpdatedAt: now,
	})

	if err := h.Me(c); err != nil {
		t.Fatalf("me: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	data, _ := env.Data.(map[string]any)
	user, _ := data["user"].(map[string]any)
	if user["email"] != "alice@x.com" {
		t.Fatalf("unexpected profile: %+v", user)
	}
}

func TestAuthHandler_Me_NoUserInContext(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})
	e := newEchoWithValidator()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Me(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without gate-resolved user, got %v", err)
	}
}
