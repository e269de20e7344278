package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/models"
)

// RoleRepository defines read access to the role/permission reference data.
type RoleRepository interface {
	// FirstActive returns the active role with the lowest id. This is the
	// deterministic pick for new federated users' default role.
	FirstActive(ctx context.Context) (*models.Role, error)
	All(ctx context.Context) ([]models.Role, error)
	// RolePermissionRows loads the full role-to-permission-code mapping in
	// one query. Both the permission cache and the admin matrix are built
	// from this projection so the two stay answer-equivalent.
	RolePermissionRows(ctx context.Context) ([]models.RolePermissionRow, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new RoleRepository instance.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FirstActive(ctx context.Context) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		First(&role).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find an active role: %w", err)
	}
	return &role, nil
}

func (r *roleRepository) All(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) RolePermissionRows(ctx context.Context) ([]models.RolePermissionRow, error) {
	var rows []models.RolePermissionRow
	err := r.db.WithContext(ctx).
		Table("role_permissions").
		Select("role_permissions.role_id AS role_id, permissions.code AS permission_code").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role permission rows: %w", err)
	}
	return rows, nil
}
