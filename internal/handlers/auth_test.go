package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/config"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/middleware"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/models"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/service"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/token"
)

// =============================================================================
// Mock AuthService
// =============================================================================

type mockAuthService struct {
	loginLocalFunc     func(ctx context.Context, email, password string) (*service.LoginResult, error)
	loginFederatedFunc func(ctx context.Context, bearerToken string) (*service.LoginResult, error)
	refreshFunc        func(ctx context.Context, refreshToken string) (*service.LoginResult, error)
}

func (m *mockAuthService) LoginLocal(ctx context.Context, email, password string) (*service.LoginResult, error) {
	if m.loginLocalFunc != nil {
		return m.loginLocalFunc(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) LoginFederated(ctx context.Context, bearerToken string) (*service.LoginResult, error) {
	if m.loginFederatedFunc != nil {
		return m.loginFederatedFunc(ctx, bearerToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.LoginResult, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, errors.New("not implemented")
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupAuthRouter(t *testing.T, authService service.AuthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewAuthHandler(authService, NewCookieHelper(&config.Config{Environment: "local"}), zap.NewNop())

	router := gin.New()
	router.POST("/login", handler.Login)
	router.GET("/refresh", handler.Refresh)
	router.POST("/refresh", handler.Refresh)
	router.POST("/logout", handler.Logout)
	return router
}

func successResult() *service.LoginResult {
	return &service.LoginResult{
		User: &models.User{ID: 1, Name: "Jane", Email: "jane@example.com", IsActive: true},
		Role: &models.Role{ID: 1, Name: models.RoleAdmin, IsActive: true},
		Tokens: &token.Pair{
			AccessToken:   "access123",
			RefreshToken:  "refresh456",
			AccessExpiry:  30 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
		},
	}
}

func authCookies(w *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	for _, cookie := range w.Result().Cookies() {
		switch cookie.Name {
		case middleware.AccessTokenCookie:
			access = cookie
		case middleware.RefreshTokenCookie:
			refresh = cookie
		}
	}
	return access, refresh
}

// =============================================================================
// Login Tests
// =============================================================================

func TestLogin_LocalSuccess(t *testing.T) {
	svc := &mockAuthService{
		loginLocalFunc: func(ctx context.Context, email, password string) (*service.LoginResult, error) {
			if email != "jane@example.com" || password != "secret" {
				t.Errorf("unexpected credentials %q / %q", email, password)
			}
			return successResult(), nil
		},
	}
	router := setupAuthRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"jane@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	access, refresh := authCookies(w)
	if access == nil || access.Value != "access123" {
		t.Error("access token cookie not set")
	}
	if refresh == nil || refresh.Value != "refresh456" {
		t.Error("refresh token cookie not set")
	}

	if !strings.Contains(w.Body.String(), `"role_name":"ADMIN"`) {
		t.Errorf("body missing primary role, got %s", w.Body.String())
	}
}

func TestLogin_FederatedViaHeader(t *testing.T) {
	var gotToken string
	svc := &mockAuthService{
		loginFederatedFunc: func(ctx context.Context, bearerToken string) (*service.LoginResult, error) {
			gotToken = bearerToken
			return successResult(), nil
		},
	}
	router := setupAuthRouter(t, svc)

	// No credential body: the Authorization header carries the federated
	// identity token instead.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Authorization", "Bearer provider-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotToken != "provider-token" {
		t.Errorf("federated token = %q, want provider-token", gotToken)
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	router := setupAuthRouter(t, &mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCookies bool
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusBadRequest, false},
		{"inactive account", service.ErrAccountInactive, http.StatusBadRequest, false},
		{"locked account", service.ErrAccountLocked, http.StatusBadRequest, false},
		{"role configuration error", service.ErrNoDefaultRole, http.StatusInternalServerError, false},
		{"no active roles", service.ErrNoActiveRoles, http.StatusInternalServerError, false},
		{"unexpected error", errors.New("db down"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginLocalFunc: func(ctx context.Context, email, password string) (*service.LoginResult, error) {
					return nil, tt.err
				},
			}
			router := setupAuthRouter(t, svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"jane@example.com","password":"bad"}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			// No failure path may leave cookies behind.
			access, refresh := authCookies(w)
			if access != nil || refresh != nil {
				t.Error("failed login must not set cookies")
			}

			// Internal detail must not leak to the client.
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(w.Body.String(), "db down") {
				t.Error("response leaked internal error detail")
			}
		})
	}
}

func TestLogin_FederatedRejected(t *testing.T) {
	svc := &mockAuthService{
		loginFederatedFunc: func(ctx context.Context, bearerToken string) (*service.LoginResult, error) {
			return nil, service.ErrInvalidFederatedToken
		},
	}
	router := setupAuthRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// =============================================================================
// Refresh Tests
// =============================================================================

func TestRefresh_FromCookie(t *testing.T) {
	var gotToken string
	svc := &mockAuthService{
		refreshFunc: func(ctx context.Context, refreshToken string) (*service.LoginResult, error) {
			gotToken = refreshToken
			result := successResult()
			result.Tokens.AccessToken = "access-v2"
			result.Tokens.RefreshToken = "refresh-v2"
			result.Tokens.AccessExpiry = 15 * time.Minute
			return result, nil
		},
	}
	router := setupAuthRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "refresh456"})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotToken != "refresh456" {
		t.Errorf("refresh token = %q, want refresh456", gotToken)
	}

	access, refresh := authCookies(w)
	if access == nil || access.Value != "access-v2" {
		t.Error("rotated access cookie not set")
	}
	if access != nil && access.MaxAge != 900 {
		t.Errorf("access MaxAge = %d, want 900 on refresh", access.MaxAge)
	}
	if refresh == nil || refresh.Value != "refresh-v2" {
		t.Error("rotated refresh cookie not set")
	}
}

func TestRefresh_FromBody(t *testing.T) {
	var gotToken string
	svc := &mockAuthService{
		refreshFunc: func(ctx context.Context, refreshToken string) (*service.LoginResult, error) {
			gotToken = refreshToken
			return successResult(), nil
		},
	}
	router := setupAuthRouter(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(`{"refreshToken":"from-body"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotToken != "from-body" {
		t.Errorf("refresh token = %q, want from-body", gotToken)
	}
}

func TestRefresh_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid token", service.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"default role integrity violation", service.ErrNoDefaultRole, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				refreshFunc: func(ctx context.Context, refreshToken string) (*service.LoginResult, error) {
					return nil, tt.err
				},
			}
			router := setupAuthRouter(t, svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
			req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "refresh456"})
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	router := setupAuthRouter(t, &mockAuthService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/refresh", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// =============================================================================
// Logout Tests
// =============================================================================

func TestLogout_ClearsCookies(t *testing.T) {
	router := setupAuthRouter(t, &mockAuthService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	access, refresh := authCookies(w)
	if access == nil || refresh == nil {
		t.Fatal("expected both cookies to be cleared")
	}
	if access.MaxAge >= 0 || refresh.MaxAge >= 0 {
		t.Error("logout must expire both cookies")
	}
}
