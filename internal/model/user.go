package model

import (
	"time"

	"github.com/google/uuid"
)

// User role constants
const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// User status constants
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// User represents a marketplace account
type User struct {
	Base
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	Password     string     `json:"password,omitempty" db:"-"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Phone        *string    `json:"phone" db:"phone"`
	Role         string     `json:"role" db:"role"`
	Status       string     `json:"status" db:"status"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}

// Actor is the authenticated identity performing an operation. It is threaded
// explicitly through every service call; there is no ambient session state.
type Actor struct {
	ID         uuid.UUID
	Role       string
	ProviderID uuid.UUID // nil UUID unless Role == provider
}

func (a *Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a *Actor) IsProvider() bool { return a.Role == RoleProvider }

// CreateUserRequest represents registration parameters. Provider
// registrations carry a profile that is created in the same transaction.
type CreateUserRequest struct {
	Email    string                 `json:"email" binding:"required,email"`
	Name     string                 `json:"name" binding:"required"`
	Password string                 `json:"password" binding:"required,min=8"`
	Phone    *string                `json:"phone"`
	Role     string                 `json:"role" binding:"required,oneof=client provider"`
	Provider *CreateProviderRequest `json:"provider" binding:"omitempty"`
}

// UpdateUserRequest represents account update parameters
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Status *string `json:"status" binding:"omitempty,oneof=active suspended"`
}
