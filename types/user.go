package types

import "time"

// Role values assignable to a user. A manager may view and decide any
// user's expenses; an employee is restricted to their own.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address. It is unique and used as the
	// login identifier.
	Email string `json:"email" db:"email"`

	// Username is the short handle chosen by the user.
	Username string `json:"username" db:"username"`

	// FullName is the user's display name.
	FullName string `json:"full_name" db:"full_name"`

	// Role indicates the user's authorization level within the system,
	// either "employee" or "manager". Role is fixed at registration.
	Role string `json:"role" db:"role"`

	// IsActive reports whether the account may log in.
	IsActive bool `json:"is_active" db:"is_active"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidRole reports whether role is one of the recognized role labels.
func IsValidRole(role string) bool {
	return role == RoleEmployee || role == RoleManager
}
