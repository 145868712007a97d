package domain

import (
	"strings"
	"time"
)

// Role constants define the allowed user roles.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// IsValidRole checks whether role is a known user role.
func IsValidRole(role string) bool {
	return role == RoleCustomer || role == RoleAdmin
}

// User represents a registered customer or administrator.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Mobile       string    `json:"mobile,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail lower-cases and trims an email so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthResult is returned by sign-up and sign-in. The token is exposed as
// both "token" and "jwt"; existing storefront clients read "jwt".
type AuthResult struct {
	Token   string `json:"token"`
	JWT     string `json:"jwt"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// NewAuthResult builds an AuthResult carrying token under both keys.
func NewAuthResult(token, message string, user *User) *AuthResult {
	return &AuthResult{Token: token, JWT: token, Message: message, User: user}
}
