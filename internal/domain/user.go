package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin grants full administrative access.
	RoleAdmin Role = "admin"
	// RoleMember grants standard user access.
	RoleMember Role = "member"
)

// UserStatus represents the user's account status.
type UserStatus string

const (
	// UserStatusActive indicates the user can log in and use the system.
	UserStatusActive UserStatus = "active"
	// UserStatusSuspended indicates the account has been disabled. Suspended
	// users cannot log in and never receive email.
	UserStatusSuspended UserStatus = "suspended"
)

// User represents an authenticated reader account.
//
// The handle is the unique public identity (it shows up in recommendation
// groups as "because you and @handle both loved..."). Email is optional;
// accounts without one simply never receive digests.
type User struct {
	Record
	Handle       string     `json:"handle"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Role         Role       `json:"role"`                    // admin or member
	Status       UserStatus `json:"status,omitempty"`        // active or suspended (empty = active for backward compat)
	DisplayName  string     `json:"display_name,omitempty"`
	LastLoginAt  time.Time  `json:"last_login_at"`
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if the user can log in and use the system.
// Empty status is treated as active for backward compatibility with rows
// written before the status column existed.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// CanReceiveEmail returns true if the user is a valid digest recipient:
// active, not deleted, with an email address on file.
func (u *User) CanReceiveEmail() bool {
	return u.Email != "" && u.IsActive() && !u.IsDeleted()
}

// Name returns the best available name to display for the user.
// Prefers DisplayName, falls back to the handle.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Handle
}
