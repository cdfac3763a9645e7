package forms

import (
	"net/url"
	"strings"

	"tripplanner/internal/util"
	"tripplanner/models"
)

const MsgSharesMismatch = "The shares must add up to the total amount."

// AddBillForm has one amount field per trip member, named by the member's user id
type AddBillForm struct {
	*Form           `validate:"-"`
	ExpenseCategory string `form:"expense_category" validate:"required,oneof=accommodation transport food activities shopping other"`
	PaidBy          string `form:"paid_by" validate:"required"`
	TotalAmountText string `form:"total_amount" validate:"required"`
	Currency        string `form:"currency" validate:"required,iso4217"`
	Comment         string `form:"comment" validate:"omitempty,max=255"`
	ShareType       string `form:"share_type" validate:"required,oneof=equal custom_values"`

	Members      []*models.TripMember `form:"-" validate:"-"`
	TotalAmount  int64                `form:"-" validate:"-"`
	CustomShares map[string]int64     `form:"-" validate:"-"`
}

func NewAddBillForm(values url.Values, members []*models.TripMember) *AddBillForm {
	f := &AddBillForm{Form: New(values), Members: members}
	f.ExpenseCategory = f.Clean("expense_category")
	f.PaidBy = f.Clean("paid_by")
	f.TotalAmountText = f.Clean("total_amount")
	f.Currency = strings.ToUpper(f.Clean("currency"))
	f.Comment = f.Clean("comment")
	f.ShareType = f.Clean("share_type")
	return f
}

// InitialAddBillForm is the unbound form with its defaults
func InitialAddBillForm(members []*models.TripMember, payerID, currency string) *AddBillForm {
	values := url.Values{
		"expense_category": {string(models.ExpenseOther)},
		"paid_by":          {payerID},
		"total_amount":     {"0.00"},
		"currency":         {currency},
		"share_type":       {string(models.ShareEqual)},
	}
	for _, m := range members {
		values.Set(m.UserID, "0.00")
	}
	f := NewAddBillForm(values, members)
	return f
}

func (f *AddBillForm) isMember(userID string) bool {
	for _, m := range f.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (f *AddBillForm) Validate() bool {
	f.check(f)

	if !f.HasError("paid_by") && !f.isMember(f.PaidBy) {
		f.AddError("paid_by", MsgInvalidChoice)
	}

	if !f.HasError("total_amount") {
		amount, err := util.ParseAmount(f.TotalAmountText)
		if err != nil {
			f.AddError("total_amount", err.Error())
		} else {
			f.TotalAmount = amount
		}
	}

	if f.ShareType == string(models.ShareCustom) {
		f.CustomShares = make(map[string]int64, len(f.Members))
		var sum int64
		for _, m := range f.Members {
			raw := f.Clean(m.UserID)
			if raw == "" {
				f.AddError(m.UserID, MsgRequired)
				continue
			}
			amount, err := util.ParseAmount(raw)
			if err != nil {
				f.AddError(m.UserID, err.Error())
				continue
			}
			f.CustomShares[m.UserID] = amount
			sum += amount
		}
		if f.Valid() && sum != f.TotalAmount {
			f.AddError(NonFieldErrors, MsgSharesMismatch)
		}
	}

	return f.Valid()
}

// Bill returns the bill described by a valid form, without shares for the equal split
func (f *AddBillForm) Bill(tripID string) *models.Bill {
	bill := &models.Bill{
		TripID:          tripID,
		ExpenseCategory: models.ExpenseCategory(f.ExpenseCategory),
		PaidBy:          f.PaidBy,
		TotalAmount:     f.TotalAmount,
		Currency:        f.Currency,
		Comment:         f.Comment,
		ShareType:       models.ShareType(f.ShareType),
	}
	if bill.ShareType == models.ShareCustom {
		for _, m := range f.Members {
			bill.Shares = append(bill.Shares, models.BillShare{UserID: m.UserID, Amount: f.CustomShares[m.UserID]})
		}
	}
	return bill
}
