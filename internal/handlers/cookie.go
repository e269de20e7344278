package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/config"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/middleware"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/token"
)

// CookieHelper writes the auth cookies with the exact wire attributes the
// frontend depends on.
//
// The access token cookie is intentionally NOT HTTP-only: client script
// reads it to attach the Authorization header on API calls. The refresh
// token cookie is always HTTP-only. Outside local environments both are
// Secure, SameSite=None and scoped to the configured domain.
type CookieHelper struct {
	domain   string
	secure   bool
	sameSite http.SameSite
}

// NewCookieHelper creates a cookie helper from the service configuration.
func NewCookieHelper(cfg *config.Config) *CookieHelper {
	helper := &CookieHelper{
		sameSite: http.SameSiteLaxMode,
	}
	if !cfg.IsLocal() {
		helper.domain = cfg.CookieDomain
		helper.secure = true
		helper.sameSite = http.SameSiteNoneMode
	}
	return helper
}

// SetAuthCookies sets both token cookies with max-age matching the
// lifetimes the pair was issued with.
func (h *CookieHelper) SetAuthCookies(c *gin.Context, pair *token.Pair) {
	c.SetSameSite(h.sameSite)
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken, int(pair.AccessExpiry.Seconds()), "/", h.domain, h.secure, false)
	c.SetCookie(middleware.RefreshTokenCookie, pair.RefreshToken, int(pair.RefreshExpiry.Seconds()), "/", h.domain, h.secure, true)
}

// ClearAuthCookies removes both token cookies.
func (h *CookieHelper) ClearAuthCookies(c *gin.Context) {
	c.SetSameSite(h.sameSite)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.domain, h.secure, false)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", h.domain, h.secure, true)
}

// GetRefreshToken retrieves the refresh token from its cookie.
func (h *CookieHelper) GetRefreshToken(c *gin.Context) string {
	value, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil {
		return ""
	}
	return value
}
