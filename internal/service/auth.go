// Package service implements credential verification and token lifecycle flows.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/identity"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/models"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/repository"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/token"
)

var (
	// ErrInvalidCredentials deliberately covers unknown email, missing
	// password hash and hash mismatch alike, so responses never reveal
	// which one failed.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrAccountLocked      = errors.New("account is locked")
	// ErrInvalidFederatedToken means the identity provider rejected the
	// presented bearer token.
	ErrInvalidFederatedToken = errors.New("invalid federated token")
	// ErrNoActiveRoles means a federated signup could not be provisioned
	// because no active role exists. Configuration bug, not a client error.
	ErrNoActiveRoles = errors.New("no active role configured")
	// ErrNoDefaultRole means an existing user has zero or multiple default
	// role rows. Data integrity bug upstream; login-type flows surface it
	// as a server error, the request authenticator fails closed with 401.
	ErrNoDefaultRole = errors.New("no default role assigned")
	// ErrInvalidRefreshToken covers every refresh failure, including a
	// token whose user no longer exists.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

var loginTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_login_total",
		Help: "Login attempts by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// LoginResult is a successful authentication: the user, their default role
// and a freshly issued token pair.
type LoginResult struct {
	User   *models.User
	Role   *models.Role
	Tokens *token.Pair
}

// AuthService verifies credentials and drives the token lifecycle.
type AuthService interface {
	// LoginLocal verifies an email/password pair.
	LoginLocal(ctx context.Context, email, password string) (*LoginResult, error)
	// LoginFederated verifies a federated bearer token, provisioning the
	// user on first sign-in. Repeat calls with the same identity return
	// the existing user.
	LoginFederated(ctx context.Context, bearerToken string) (*LoginResult, error)
	// Refresh mints a new token pair. The default role is re-read from
	// storage, not taken from the old token.
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
}

type authService struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	tokens   token.Service
	provider identity.Provider
	logger   *zap.Logger

	// lockoutThreshold locks the account after that many consecutive
	// failed logins. Zero disables the policy.
	lockoutThreshold int
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users repository.UserRepository, roles repository.RoleRepository, tokens token.Service, provider identity.Provider, lockoutThreshold int, logger *zap.Logger) AuthService {
	return &authService{
		users:            users,
		roles:            roles,
		tokens:           tokens,
		provider:         provider,
		logger:           logger,
		lockoutThreshold: lockoutThreshold,
	}
}

func (s *authService) LoginLocal(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		loginTotal.WithLabelValues("local", "failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if s.lockoutThreshold > 0 && user.IsLocked {
		loginTotal.WithLabelValues("local", "locked").Inc()
		return nil, ErrAccountLocked
	}

	if user.PasswordHash == nil {
		loginTotal.WithLabelValues("local", "failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		s.recordFailedAttempt(ctx, user)
		loginTotal.WithLabelValues("local", "failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		loginTotal.WithLabelValues("local", "inactive").Inc()
		return nil, ErrAccountInactive
	}

	return s.completeLogin(ctx, user, "local")
}

func (s *authService) LoginFederated(ctx context.Context, bearerToken string) (*LoginResult, error) {
	profile, err := s.provider.Fetch(ctx, bearerToken)
	if err != nil {
		loginTotal.WithLabelValues("federated", "failure").Inc()
		if errors.Is(err, identity.ErrTokenRejected) {
			return nil, ErrInvalidFederatedToken
		}
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, profile.Email())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			loginTotal.WithLabelValues("federated", "failure").Inc()
			return nil, err
		}
		user, err = s.provisionFederatedUser(ctx, profile)
		if err != nil {
			loginTotal.WithLabelValues("federated", "failure").Inc()
			return nil, err
		}
	}

	if !user.IsActive {
		loginTotal.WithLabelValues("federated", "inactive").Inc()
		return nil, ErrAccountInactive
	}

	return s.completeLogin(ctx, user, "federated")
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	// The refresh token carries no role. Reading the current default here
	// is what makes role changes take effect on the next refresh.
	role, err := s.users.DefaultRole(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDefaultRoleViolation) {
			return nil, ErrNoDefaultRole
		}
		return nil, err
	}

	pair, err := s.tokens.IssueAtRefresh(user, role.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Role: role, Tokens: pair}, nil
}

// provisionFederatedUser creates a user for a first federated sign-in,
// assigning the lowest-id active role as default. User and role assignment
// commit in one transaction; if no active role exists nothing is written.
func (s *authService) provisionFederatedUser(ctx context.Context, profile *identity.Profile) (*models.User, error) {
	role, err := s.roles.FirstActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveRoles
		}
		return nil, err
	}

	name := profile.DisplayName
	if name == "" {
		name = profile.Email()
	}
	principal := profile.UserPrincipalName
	user := &models.User{
		Name:        name,
		Email:       profile.Email(),
		IsActive:    true,
		FederatedID: &principal,
	}

	if err := s.users.CreateWithDefaultRole(ctx, user, role.ID); err != nil {
		// A concurrent first sign-in may have won the unique email race.
		if existing, findErr := s.users.FindByEmail(ctx, profile.Email()); findErr == nil {
			return existing, nil
		}
		return nil, err
	}

	s.logger.Info("provisioned federated user",
		zap.Int64("user_id", user.ID),
		zap.Int64("role_id", role.ID))
	return user, nil
}

func (s *authService) completeLogin(ctx context.Context, user *models.User, method string) (*LoginResult, error) {
	role, err := s.users.DefaultRole(ctx, user.ID)
	if err != nil {
		loginTotal.WithLabelValues(method, "failure").Inc()
		if errors.Is(err, repository.ErrDefaultRoleViolation) {
			return nil, ErrNoDefaultRole
		}
		return nil, err
	}

	pair, err := s.tokens.IssueAtLogin(user, role.ID)
	if err != nil {
		loginTotal.WithLabelValues(method, "failure").Inc()
		return nil, err
	}

	// Last-write-wins on these fields; concurrent logins are not ordered.
	now := time.Now()
	user.LastLogin = &now
	user.LoginAttempts = 0
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("failed to record login metadata", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	loginTotal.WithLabelValues(method, "success").Inc()
	return &LoginResult{User: user, Role: role, Tokens: pair}, nil
}

func (s *authService) recordFailedAttempt(ctx context.Context, user *models.User) {
	if s.lockoutThreshold <= 0 {
		return
	}
	user.LoginAttempts++
	if user.LoginAttempts >= s.lockoutThreshold {
		user.IsLocked = true
		s.logger.Warn("account locked after repeated failed logins",
			zap.Int64("user_id", user.ID),
			zap.Int("attempts", user.LoginAttempts))
	}
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("failed to record login attempt", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}
