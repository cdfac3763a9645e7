package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}).FullName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada", Email: "ada@example.com"}).FullName())
	assert.Equal(t, "ada@example.com", (&User{Email: "ada@example.com"}).FullName())
}

func TestUserProfile_String(t *testing.T) {
	user := &User{ID: "u1", Email: "ada@example.com"}
	assert.Equal(t, "UserProfile of ada@example.com", (&UserProfile{UserID: "u1", User: user}).String())
	assert.Equal(t, "UserProfile of u1", (&UserProfile{UserID: "u1"}).String())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestTrip_Days(t *testing.T) {
	start := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

	trip := &Trip{StartDate: start, EndDate: start}
	assert.Equal(t, 1, trip.Days())

	trip.EndDate = start.AddDate(0, 0, 6)
	assert.Equal(t, 7, trip.Days())

	trip.EndDate = start.AddDate(0, 0, -1)
	assert.Equal(t, 0, trip.Days())
}

func TestTrip_IsOwner(t *testing.T) {
	trip := &Trip{OwnerID: "owner"}
	assert.True(t, trip.IsOwner("owner"))
	assert.False(t, trip.IsOwner("guest"))
}

func TestBill_SharesTotal(t *testing.T) {
	bill := &Bill{Shares: []BillShare{{UserID: "a", Amount: 150}, {UserID: "b", Amount: 250}}}
	assert.Equal(t, int64(400), bill.SharesTotal())
	assert.Equal(t, int64(0), (&Bill{}).SharesTotal())
}

func TestExpenseCategory_Label(t *testing.T) {
	assert.Equal(t, "Food & drinks", ExpenseFood.Label())
	assert.Equal(t, "Other", ExpenseCategory("unknown").Label())
	assert.Len(t, ExpenseCategories, 6)
}

func TestInvitation_IsPending(t *testing.T) {
	invitation := &Invitation{}
	assert.True(t, invitation.IsPending())
	now := time.Now()
	invitation.AcceptedAt = &now
	assert.False(t, invitation.IsPending())
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	assert.Equal(t, "EUR", settings.DefaultCurrency)
	assert.True(t, settings.EmailNotifications)
}
