// Package middleware provides HTTP middleware for the identity service.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/repository"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/token"
)

// Cookie names used on the wire. The access cookie is readable by client
// script; the refresh cookie is HTTP-only.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// currentUserKey is the gin context key the authenticator stores the
// resolved identity under.
const currentUserKey = "currentUser"

// AuthenticatedUser is the per-request identity attached by Protect.
// RoleID/RoleName describe the default role only; Permissions is the union
// across every role the user holds and is what all access checks use.
type AuthenticatedUser struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	RoleID      int64    `json:"role_id"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the aggregated permission set contains the
// exact code. No wildcard or hierarchy semantics.
func (u *AuthenticatedUser) HasPermission(code string) bool {
	for _, p := range u.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// CurrentUser returns the identity attached by Protect, or nil if the
// request did not pass through it.
func CurrentUser(c *gin.Context) *AuthenticatedUser {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*AuthenticatedUser)
	if !ok {
		return nil
	}
	return user
}

// Protect authenticates every request on the route group it is applied to.
//
// Token extraction prefers the access token cookie and falls back to the
// Authorization bearer header. After signature/expiry verification the
// user's default role is resolved from storage; a user with zero or
// multiple default role rows is rejected with 401 rather than silently
// picking one. Finally the permission union across all the user's roles
// is attached to the context for the permission gate and handlers.
func Protect(tokens token.Service, users repository.UserRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			unauthorized(c)
			return
		}

		claims, err := tokens.VerifyAccess(tokenString)
		if err != nil {
			unauthorized(c)
			return
		}

		ctx := c.Request.Context()

		role, err := users.DefaultRole(ctx, claims.UserID)
		if err != nil {
			// Covers both the missing-user and the default-role integrity
			// violation; neither detail is surfaced to the client.
			logger.Warn("session rejected: default role lookup failed",
				zap.Int64("user_id", claims.UserID), zap.Error(err))
			unauthorized(c)
			return
		}

		permissions, err := users.PermissionCodes(ctx, claims.UserID)
		if err != nil {
			logger.Error("failed to aggregate permissions",
				zap.Int64("user_id", claims.UserID), zap.Error(err))
			unauthorized(c)
			return
		}

		c.Set(currentUserKey, &AuthenticatedUser{
			ID:          claims.UserID,
			Name:        claims.Name,
			Email:       claims.Email,
			RoleID:      role.ID,
			RoleName:    role.Name,
			Permissions: permissions,
		})

		c.Next()
	}
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	bearer := c.GetHeader("Authorization")
	parts := strings.Split(bearer, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
