package models

import (
	"strings"
	"time"
)

// User represents an account holder
type User struct {
	ID           string     `json:"id" db:"id"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize password
	IsActive     bool       `json:"is_active" db:"is_active"`
	DateJoined   time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// FullName returns "First Last", falling back to the email address
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

func (u *User) String() string {
	return u.Email
}

// UserProfile holds the optional personal data of a user
type UserProfile struct {
	UserID        string     `json:"user_id" db:"user_id"`
	EmailVerified bool       `json:"email_verified" db:"email_verified"`
	Avatar        *string    `json:"avatar,omitempty" db:"avatar"`
	Birthday      *time.Time `json:"birthday,omitempty" db:"birthday"`
	Description   *string    `json:"description,omitempty" db:"description"`

	User *User `json:"-" db:"-"`
}

func (p *UserProfile) String() string {
	if p.User == nil {
		return "UserProfile of " + p.UserID
	}
	return "UserProfile of " + p.User.String()
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
