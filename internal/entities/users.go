package entities

import (
	"time"
)

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleLibrarian UserRole = "librarian"
)

// User is a staff account that can mutate library state. Members (borrowers)
// live in their own table; self-registered users get a companion Member row
// with a placeholder email.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Role         UserRole  `gorm:"size:20;default:'librarian'" json:"role"`
	TokenHash    string    `gorm:"index;size:64" json:"-"` // sha256 of the API token
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
