// Package token issues and verifies the signed access and refresh tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/models"
)

// Token kind tags embedded in the claims. A decoded token whose kind does
// not match the expected one is rejected even if the signature checks out.
const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

const minSecretLen = 32

var (
	// ErrInvalidToken covers bad signatures, expired tokens and tokens of
	// the wrong kind. Callers must not distinguish further.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AccessClaims are carried by the short-lived access token. RoleID is the
// user's default role at issuance time; it can go stale for at most the
// access token lifetime after a role change.
type AccessClaims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID int64  `json:"role_id"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by the long-lived refresh token. Deliberately
// minimal: the current default role is re-read from storage at refresh time.
type RefreshClaims struct {
	UserID int64  `json:"user_id"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// Pair is a freshly issued access/refresh token pair together with the
// lifetimes they were issued with (used for cookie max-age).
type Pair struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// Service defines token issuance and verification.
type Service interface {
	// IssueAtLogin mints a pair with the login-time access lifetime (30m).
	IssueAtLogin(user *models.User, defaultRoleID int64) (*Pair, error)
	// IssueAtRefresh mints a pair with the shorter refresh-time access lifetime (15m).
	IssueAtRefresh(user *models.User, defaultRoleID int64) (*Pair, error)
	VerifyAccess(tokenString string) (*AccessClaims, error)
	VerifyRefresh(tokenString string) (*RefreshClaims, error)
}

type tokenService struct {
	accessSecret  []byte
	refreshSecret []byte

	accessExpiryLogin   time.Duration
	accessExpiryRefresh time.Duration
	refreshExpiry       time.Duration
}

// NewService creates a token Service. The two secrets must differ so that
// compromise of one cannot forge the other kind, and each must be at least
// 32 bytes.
func NewService(accessSecret, refreshSecret string, accessExpiryLogin, accessExpiryRefresh, refreshExpiry time.Duration) (Service, error) {
	if len(accessSecret) < minSecretLen || len(refreshSecret) < minSecretLen {
		return nil, fmt.Errorf("token secrets must be at least %d bytes", minSecretLen)
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	return &tokenService{
		accessSecret:        []byte(accessSecret),
		refreshSecret:       []byte(refreshSecret),
		accessExpiryLogin:   accessExpiryLogin,
		accessExpiryRefresh: accessExpiryRefresh,
		refreshExpiry:       refreshExpiry,
	}, nil
}

func (s *tokenService) IssueAtLogin(user *models.User, defaultRoleID int64) (*Pair, error) {
	return s.issue(user, defaultRoleID, s.accessExpiryLogin)
}

func (s *tokenService) IssueAtRefresh(user *models.User, defaultRoleID int64) (*Pair, error) {
	return s.issue(user, defaultRoleID, s.accessExpiryRefresh)
}

func (s *tokenService) issue(user *models.User, defaultRoleID int64, accessExpiry time.Duration) (*Pair, error) {
	now := time.Now()

	accessClaims := AccessClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		RoleID: defaultRoleID,
		Kind:   kindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshClaims := RefreshClaims{
		UserID: user.ID,
		Kind:   kindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &Pair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: s.refreshExpiry,
	}, nil
}

func (s *tokenService) VerifyAccess(tokenString string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(tokenString, &claims, s.accessSecret); err != nil {
		return nil, err
	}
	if claims.Kind != kindAccess {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *tokenService) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.parse(tokenString, &claims, s.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Kind != kindRefresh {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *tokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
