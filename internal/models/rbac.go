// Package models contains database models for the identity core.
package models

// Role names seeded at deployment time.
const (
	RoleAdmin     = "ADMIN"
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleViewer    = "VIEWER"
)

// Role is a named capability bundle (ADMIN, USER, MODERATOR, VIEWER).
// Roles are reference data: seeded at deployment, rarely touched at runtime.
type Role struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"uniqueIndex;not null"`
	IsActive bool   `json:"is_active" gorm:"not null;default:true"`
}

// TableName returns the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// Permission is an atomic capability identified by a unique code
// (e.g. "manageusers"). Seeded at deployment.
type Permission struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	Code        string `json:"code" gorm:"uniqueIndex;not null"`
	Description string `json:"description"`
}

// TableName returns the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}

// RolePermission maps a role to a permission it grants.
type RolePermission struct {
	RoleID       int64 `json:"role_id" gorm:"primaryKey"`
	PermissionID int64 `json:"permission_id" gorm:"primaryKey"`

	Role       Role       `json:"-" gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	Permission Permission `json:"-" gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for the RolePermission model.
func (RolePermission) TableName() string {
	return "role_permissions"
}

// RolePermissionRow is the projection used when loading the full
// role-to-permission mapping in one query.
type RolePermissionRow struct {
	RoleID         int64
	PermissionCode string
}
