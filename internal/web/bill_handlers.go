package web

import (
	"errors"
	"net/http"

	"tripplanner/internal/domain"
	"tripplanner/internal/forms"
	"tripplanner/models"
)

const (
	MsgBillAdded   = "Bill added."
	MsgBillDeleted = "Bill deleted."
)

func (h *WebHandler) BillList(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	data := &PageData{User: user, Trip: t, IsOwner: t.IsOwner(user.ID)}
	if err := h.loadBills(r.Context(), data); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.renderPartial(w, r, http.StatusOK, "bill_list", data)
}

func (h *WebHandler) Balances(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	data := &PageData{User: user, Trip: t, IsOwner: t.IsOwner(user.ID)}
	if err := h.loadBills(r.Context(), data); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.renderPartial(w, r, http.StatusOK, "balances", data)
}

func (h *WebHandler) NewBill(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	data := &PageData{User: user, Trip: t, Categories: models.ExpenseCategories}
	if err := h.loadMembers(r.Context(), data); err != nil {
		h.serverError(w, r, err)
		return
	}

	if r.Method == http.MethodGet {
		currency := h.Settings.DefaultCurrency(r.Context(), user.ID)
		data.Form = forms.InitialAddBillForm(data.Members, user.ID, currency)
		h.renderPartial(w, r, http.StatusOK, "bill_form", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewAddBillForm(r.PostForm, data.Members)
	data.Form = form
	if !form.Validate() {
		h.renderPartial(w, r, http.StatusOK, "bill_form", data)
		return
	}

	err := h.Bills.Add(r.Context(), t, user, form.Bill(t.ID))
	var verr domain.ValidationError
	switch {
	case errors.As(err, &verr):
		// Membership changed while the form was open
		form.AddError(verr.Field, verr.Msg)
		h.renderPartial(w, r, http.StatusOK, "bill_form", data)
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}
	h.flash(r, "success", MsgBillAdded)
	h.hxRespond(w, r, http.StatusNoContent, eventBillList)
}

func (h *WebHandler) DeleteBill(w http.ResponseWriter, r *http.Request, user *models.User) {
	b, t, err := h.Bills.FindForMember(r.Context(), routeVar(r, "id"), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Bills.Delete(r.Context(), b, t, user); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.flash(r, "success", MsgBillDeleted)
	h.hxRespond(w, r, http.StatusNoContent, eventBillList)
}
