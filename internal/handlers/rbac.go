package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/middleware"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/permissions"
	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/repository"
)

// RBACHandler exposes the role/permission reference data and the cached
// single-role permission check used by internal service-to-service callers.
type RBACHandler struct {
	roles repository.RoleRepository
	cache *permissions.Cache
}

// NewRBACHandler creates a new RBACHandler instance.
func NewRBACHandler(roles repository.RoleRepository, cache *permissions.Cache) *RBACHandler {
	return &RBACHandler{roles: roles, cache: cache}
}

// Me returns the identity the authenticator attached to the request.
func (h *RBACHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// CheckAccess answers whether a single role grants a permission code,
// served from the in-memory cache. This is the fast path for callers that
// have a role id in hand (bot flows, other services); per-user access
// decisions go through the authenticator's aggregated set instead.
func (h *RBACHandler) CheckAccess(c *gin.Context) {
	roleID, err := strconv.ParseInt(c.Query("roleId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roleId must be an integer"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"allowed": h.cache.CheckAccess(roleID, code)})
}

// roleMatrixEntry is one role with the permission codes it grants.
type roleMatrixEntry struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions"`
}

// Roles returns every role with its permission codes.
func (h *RBACHandler) Roles(c *gin.Context) {
	ctx := c.Request.Context()

	roles, err := h.roles.All(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	rows, err := h.roles.RolePermissionRows(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	codesByRole := make(map[int64][]string)
	for _, row := range rows {
		codesByRole[row.RoleID] = append(codesByRole[row.RoleID], row.PermissionCode)
	}

	matrix := make([]roleMatrixEntry, 0, len(roles))
	for _, role := range roles {
		matrix = append(matrix, roleMatrixEntry{
			ID:          role.ID,
			Name:        role.Name,
			IsActive:    role.IsActive,
			Permissions: codesByRole[role.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{"roles": matrix})
}
