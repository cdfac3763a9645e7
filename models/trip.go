package models

import (
	"time"
)

// Trip is a planned journey shared by its members
type Trip struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Destination string    `json:"destination" db:"destination"`
	Description string    `json:"description" db:"description"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	MemberCount int `json:"member_count" db:"-"`
}

// Days returns the number of calendar days the trip covers
func (t *Trip) Days() int {
	if t.EndDate.Before(t.StartDate) {
		return 0
	}
	return int(t.EndDate.Sub(t.StartDate).Hours()/24) + 1
}

// IsOwner reports whether userID owns the trip
func (t *Trip) IsOwner(userID string) bool {
	return t.OwnerID == userID
}

// TripMember links a user to a trip
type TripMember struct {
	TripID   string    `json:"trip_id" db:"trip_id"`
	UserID   string    `json:"user_id" db:"user_id"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// Invitation is a pending request for someone without an account to join a trip
type Invitation struct {
	ID          string     `json:"id" db:"id"`
	TripID      string     `json:"trip_id" db:"trip_id"`
	InvitedBy   string     `json:"invited_by" db:"invited_by"`
	MemberEmail string     `json:"member_email" db:"member_email"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
}

// IsPending reports whether the invitation still waits for a sign up
func (i *Invitation) IsPending() bool {
	return i.AcceptedAt == nil
}
