package models

import (
	"time"
)

// EventLog represents an entry of a trip's activity feed
type EventLog struct {
	ID          string        `json:"id" db:"id"`
	TripID      string        `json:"trip_id" db:"trip_id"`
	UserID      *string       `json:"user_id,omitempty" db:"user_id"`
	Type        EEventLogType `json:"type" db:"type"`
	Description string        `json:"description" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
