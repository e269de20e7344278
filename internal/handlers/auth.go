// Package handlers contains HTTP request handlers for the identity service.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/service"
)

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	authService service.AuthService
	cookies     *CookieHelper
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService service.AuthService, cookies *CookieHelper, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		logger:      logger,
	}
}

// LoginRequest represents the local login request payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a refresh request carrying the token in the
// body instead of the cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// loginResponse is the success envelope for login and refresh.
type loginResponse struct {
	Message string        `json:"message"`
	User    loginUserInfo `json:"user"`
}

type loginUserInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	RoleID   int64  `json:"role_id"`
	RoleName string `json:"role_name"`
}

// Login authenticates either with an email/password body or, when the body
// carries no credentials, with a federated identity token in the
// Authorization header. On success both auth cookies are set.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	_ = c.ShouldBindJSON(&req)

	var (
		result *service.LoginResult
		err    error
	)

	switch {
	case req.Email != "" && req.Password != "":
		result, err = h.authService.LoginLocal(c.Request.Context(), req.Email, req.Password)
	case bearerToken(c) != "":
		result, err = h.authService.LoginFederated(c.Request.Context(), bearerToken(c))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	if err != nil {
		h.respondLoginError(c, err)
		return
	}

	h.cookies.SetAuthCookies(c, result.Tokens)
	c.JSON(http.StatusOK, loginResponse{
		Message: "login successful",
		User: loginUserInfo{
			ID:       result.User.ID,
			Name:     result.User.Name,
			Email:    result.User.Email,
			RoleID:   result.Role.ID,
			RoleName: result.Role.Name,
		},
	})
}

// Refresh rotates the token pair. The refresh token is taken from its
// cookie, falling back to the request body. Registered for both GET and
// POST to match existing clients.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.cookies.GetRefreshToken(c)
	if refreshToken == "" {
		var req RefreshRequest
		_ = c.ShouldBindJSON(&req)
		refreshToken = req.RefreshToken
	}
	if refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, service.ErrNoDefaultRole) {
			h.logger.Error("refresh failed: default role integrity violation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal configuration error"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.cookies.SetAuthCookies(c, result.Tokens)
	c.JSON(http.StatusOK, loginResponse{
		Message: "token refreshed",
		User: loginUserInfo{
			ID:       result.User.ID,
			Name:     result.User.Name,
			Email:    result.User.Email,
			RoleID:   result.Role.ID,
			RoleName: result.Role.Name,
		},
	})
}

// Logout clears both auth cookies. Tokens are stateless, so a captured
// token stays technically valid until its natural expiry; there is no
// server-side revocation.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.ClearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (h *AuthHandler) respondLoginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrAccountInactive.Error()})
	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrAccountLocked.Error()})
	case errors.Is(err, service.ErrInvalidFederatedToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrNoActiveRoles), errors.Is(err, service.ErrNoDefaultRole):
		// Operator problem, not a client one. Log precisely, respond generically.
		h.logger.Error("login failed: role configuration error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal configuration error"})
	default:
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func bearerToken(c *gin.Context) string {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
