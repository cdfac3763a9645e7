package models

import (
	"time"
)

// Settings represents user settings stored in the database
type Settings struct {
	ID                 string     `json:"id" db:"id"`
	UserID             string     `json:"user_id" db:"user_id"`
	DefaultCurrency    string     `json:"default_currency" db:"default_currency"`
	EmailNotifications bool       `json:"email_notifications" db:"email_notifications"`
	CreatedAt          *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultSettings returns default settings for new users
func DefaultSettings() *Settings {
	return &Settings{
		DefaultCurrency:    "EUR",
		EmailNotifications: true,
	}
}
