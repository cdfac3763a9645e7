package models

import (
	"time"
)

type ExpenseCategory string

const (
	ExpenseAccommodation ExpenseCategory = "accommodation"
	ExpenseTransport     ExpenseCategory = "transport"
	ExpenseFood          ExpenseCategory = "food"
	ExpenseActivities    ExpenseCategory = "activities"
	ExpenseShopping      ExpenseCategory = "shopping"
	ExpenseOther         ExpenseCategory = "other"
)

// ExpenseCategories lists the categories in display order
var ExpenseCategories = []ExpenseCategory{
	ExpenseAccommodation,
	ExpenseTransport,
	ExpenseFood,
	ExpenseActivities,
	ExpenseShopping,
	ExpenseOther,
}

// Label returns the human readable category name
func (c ExpenseCategory) Label() string {
	switch c {
	case ExpenseAccommodation:
		return "Accommodation"
	case ExpenseTransport:
		return "Transport"
	case ExpenseFood:
		return "Food & drinks"
	case ExpenseActivities:
		return "Activities"
	case ExpenseShopping:
		return "Shopping"
	default:
		return "Other"
	}
}

type ShareType string

const (
	ShareEqual  ShareType = "equal"
	ShareCustom ShareType = "custom_values"
)

// Bill is an expense paid by one member and shared between trip members.
// Amounts are stored in minor units (cents).
type Bill struct {
	ID              string          `json:"id" db:"id"`
	TripID          string          `json:"trip_id" db:"trip_id"`
	ExpenseCategory ExpenseCategory `json:"expense_category" db:"expense_category"`
	PaidBy          string          `json:"paid_by" db:"paid_by"`
	TotalAmount     int64           `json:"total_amount" db:"total_amount"`
	Currency        string          `json:"currency" db:"currency"`
	Comment         string          `json:"comment" db:"comment"`
	ShareType       ShareType       `json:"share_type" db:"share_type"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`

	Shares []BillShare `json:"shares" db:"-"`
	Payer  *User       `json:"-" db:"-"`
}

// BillShare is the part of a bill owed by a single member
type BillShare struct {
	BillID string `json:"bill_id" db:"bill_id"`
	UserID string `json:"user_id" db:"user_id"`
	Amount int64  `json:"amount" db:"amount"`
}

// SharesTotal sums all shares of the bill
func (b *Bill) SharesTotal() int64 {
	var total int64
	for _, s := range b.Shares {
		total += s.Amount
	}
	return total
}
