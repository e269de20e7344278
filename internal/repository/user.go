package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dhanushbdev25/whatsapp-poc-backend/internal/models"
)

// ErrDefaultRoleViolation is returned when a user has zero or more than one
// user_roles row flagged as default. Both cases are data integrity bugs and
// must fail closed.
var ErrDefaultRoleViolation = errors.New("user has no unambiguous default role")

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	// CreateWithDefaultRole inserts the user and its default role
	// assignment in one transaction. Either both rows commit or neither.
	CreateWithDefaultRole(ctx context.Context, user *models.User, roleID int64) error
	Update(ctx context.Context, user *models.User) error
	// DefaultRole returns the single role flagged is_default for the user,
	// or ErrDefaultRoleViolation when there are zero or multiple.
	DefaultRole(ctx context.Context, userID int64) (*models.Role, error)
	// PermissionCodes returns the deduplicated union of permission codes
	// across every role the user holds, default or not.
	PermissionCodes(ctx context.Context, userID int64) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id %d: %w", id, err)
	}
	return &user, nil
}

func (r *userRepository) CreateWithDefaultRole(ctx context.Context, user *models.User, roleID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserRole{
			UserID:    user.ID,
			RoleID:    roleID,
			IsDefault: true,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create user with default role: %w", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user id %d: %w", user.ID, err)
	}
	return nil
}

func (r *userRepository) DefaultRole(ctx context.Context, userID int64) (*models.Role, error) {
	// Fetch up to two rows so a multi-default violation is distinguishable
	// from the valid single-row case.
	var roles []models.Role
	err := r.db.WithContext(ctx).
		Table("roles").
		Select("roles.*").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND user_roles.is_default = ?", userID, true).
		Limit(2).
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get default role for user %d: %w", userID, err)
	}
	if len(roles) != 1 {
		return nil, ErrDefaultRoleViolation
	}
	return &roles[0], nil
}

func (r *userRepository) PermissionCodes(ctx context.Context, userID int64) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Table("permissions").
		Distinct("permissions.code").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions for user %d: %w", userID, err)
	}
	return codes, nil
}
