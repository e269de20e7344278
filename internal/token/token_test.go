package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/models"
)

const (
	testAccessSecret  = "test-access-secret-at-least-32-chars!!"
	testRefreshSecret = "test-refresh-secret-at-least-32-chars!"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(testAccessSecret, testRefreshSecret, 30*time.Minute, 15*time.Minute, 168*time.Hour)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func testUser() *models.User {
	return &models.User{
		ID:    42,
		Name:  "Test User",
		Email: "test@example.com",
	}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNewService_ShortSecret(t *testing.T) {
	tests := []struct {
		name          string
		accessSecret  string
		refreshSecret string
	}{
		{"short access secret", "short", testRefreshSecret},
		{"short refresh secret", testAccessSecret, "short"},
		{"empty access secret", "", testRefreshSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.accessSecret, tt.refreshSecret, 30*time.Minute, 15*time.Minute, 168*time.Hour)
			if err == nil {
				t.Error("NewService() expected error for invalid secret")
			}
		})
	}
}

func TestNewService_IdenticalSecrets(t *testing.T) {
	_, err := NewService(testAccessSecret, testAccessSecret, 30*time.Minute, 15*time.Minute, 168*time.Hour)
	if err == nil {
		t.Error("NewService() expected error for identical secrets")
	}
}

// =============================================================================
// Issuance / Round-trip Tests
// =============================================================================

func TestIssueAtLogin_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	user := testUser()

	pair, err := svc.IssueAtLogin(user, 7)
	if err != nil {
		t.Fatalf("IssueAtLogin() error = %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("issued tokens are empty")
	}
	if pair.AccessExpiry != 30*time.Minute {
		t.Errorf("AccessExpiry = %v, want 30m", pair.AccessExpiry)
	}
	if pair.RefreshExpiry != 168*time.Hour {
		t.Errorf("RefreshExpiry = %v, want 168h", pair.RefreshExpiry)
	}

	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("Claims.UserID = %d, want %d", claims.UserID, user.ID)
	}
	if claims.Name != user.Name {
		t.Errorf("Claims.Name = %q, want %q", claims.Name, user.Name)
	}
	if claims.Email != user.Email {
		t.Errorf("Claims.Email = %q, want %q", claims.Email, user.Email)
	}
	if claims.RoleID != 7 {
		t.Errorf("Claims.RoleID = %d, want 7", claims.RoleID)
	}

	refreshClaims, err := svc.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh() error = %v", err)
	}
	if refreshClaims.UserID != user.ID {
		t.Errorf("RefreshClaims.UserID = %d, want %d", refreshClaims.UserID, user.ID)
	}
}

func TestIssueAtRefresh_ShorterAccessLifetime(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.IssueAtRefresh(testUser(), 7)
	if err != nil {
		t.Fatalf("IssueAtRefresh() error = %v", err)
	}
	if pair.AccessExpiry != 15*time.Minute {
		t.Errorf("AccessExpiry = %v, want 15m", pair.AccessExpiry)
	}

	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess() error = %v", err)
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining > 15*time.Minute || remaining < 14*time.Minute {
		t.Errorf("access token expiry %v out of expected 15m window", remaining)
	}
}

// =============================================================================
// Verification Failure Tests
// =============================================================================

func TestVerifyAccess_Expired(t *testing.T) {
	svc, err := NewService(testAccessSecret, testRefreshSecret, -time.Minute, -time.Minute, 168*time.Hour)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	pair, err := svc.IssueAtLogin(testUser(), 1)
	if err != nil {
		t.Fatalf("IssueAtLogin() error = %v", err)
	}

	if _, err := svc.VerifyAccess(pair.AccessToken); err == nil {
		t.Error("VerifyAccess() expected error for expired token")
	}
}

func TestVerify_KindsNotInterchangeable(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.IssueAtLogin(testUser(), 1)
	if err != nil {
		t.Fatalf("IssueAtLogin() error = %v", err)
	}

	// An access token must never pass refresh verification: the secrets
	// differ, so the signature check alone rejects it.
	if _, err := svc.VerifyRefresh(pair.AccessToken); err == nil {
		t.Error("VerifyRefresh() accepted an access token")
	}
	if _, err := svc.VerifyAccess(pair.RefreshToken); err == nil {
		t.Error("VerifyAccess() accepted a refresh token")
	}
}

func TestVerifyRefresh_AccessSecretSignature(t *testing.T) {
	// A refresh-shaped token signed with the access secret must fail:
	// compromise of the access secret cannot forge refresh tokens.
	claims := RefreshClaims{
		UserID: 42,
		Kind:   kindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	if err != nil {
		t.Fatalf("failed to sign forged token: %v", err)
	}

	svc := newTestService(t)
	if _, err := svc.VerifyRefresh(forged); err == nil {
		t.Error("VerifyRefresh() accepted a token signed with the access secret")
	}
}

func TestVerifyAccess_WrongKind(t *testing.T) {
	// Even with a valid access-secret signature, a token tagged as refresh
	// must not pass access verification.
	claims := AccessClaims{
		UserID: 42,
		Kind:   kindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	mistagged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	svc := newTestService(t)
	if _, err := svc.VerifyAccess(mistagged); err == nil {
		t.Error("VerifyAccess() accepted a token with the wrong kind tag")
	}
}

func TestVerifyAccess_Garbage(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"not a jwt", "not-a-jwt"},
		{"truncated jwt", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.VerifyAccess(tt.token); err == nil {
				t.Error("VerifyAccess() expected error")
			}
		})
	}
}
