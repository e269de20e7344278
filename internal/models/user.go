// Package models contains database models for the identity core.
package models

import "time"

// User represents an account that can authenticate against the service.
// PasswordHash is nil for accounts that only ever signed in through the
// federated identity provider; FederatedID is nil for local-only accounts.
type User struct {
	ID            int64      `json:"id" gorm:"primaryKey"`
	Name          string     `json:"name" gorm:"not null"`
	Email         string     `json:"email" gorm:"uniqueIndex;not null"`
	IsActive      bool       `json:"is_active" gorm:"not null;default:true"`
	PasswordHash  *string    `json:"-" gorm:"column:password_hash"`
	FederatedID   *string    `json:"-" gorm:"column:federated_id"`
	IsLocked      bool       `json:"is_locked" gorm:"not null;default:false"`
	LoginAttempts int        `json:"-" gorm:"not null;default:0"`
	LastLogin     *time.Time `json:"last_login"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	UserRoles []UserRole `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// UserRole assigns a role to a user. Exactly one row per user carries
// IsDefault=true; that role's id ends up in the access token and is what
// the user sees as their primary role. It never widens or narrows access.
type UserRole struct {
	UserID    int64 `json:"user_id" gorm:"primaryKey"`
	RoleID    int64 `json:"role_id" gorm:"primaryKey"`
	IsDefault bool  `json:"is_default" gorm:"not null;default:false"`

	Role Role `json:"-" gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for the UserRole model.
func (UserRole) TableName() string {
	return "user_roles"
}
