package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tripplanner/internal/eventlog"
	"tripplanner/internal/forms"
	"tripplanner/internal/trip"
	"tripplanner/models"
)

const (
	MsgTripCreated   = "Trip created."
	MsgTripUpdated   = "Trip updated."
	MsgTripDeleted   = "Trip deleted."
	MsgMemberInvited = "Member invited!"
	MsgMemberRemoved = "Member removed."
	MsgLeftTrip      = "You left the trip."
	MsgInvalidForm   = "Invalid form"
)

const (
	eventMemberList = "memberListChanged"
	eventNoteList   = "noteListChanged"
	eventBillList   = "billListChanged"
)

const tripPageEventsMax = eventlog.DefaultLimit

// tripPage loads everything the trip detail page shows
func (h *WebHandler) tripPage(ctx context.Context, user *models.User, t *models.Trip) (*PageData, error) {
	data := &PageData{Page: "trip", User: user, Trip: t, IsOwner: t.IsOwner(user.ID)}
	if err := h.loadMembers(ctx, data); err != nil {
		return nil, err
	}
	notes, err := h.Notes.ListForTrip(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	data.Notes = notes
	if err := h.loadBills(ctx, data); err != nil {
		return nil, err
	}
	events, err := h.EventLogs.GetLatestByTrip(ctx, t.ID, tripPageEventsMax)
	if err != nil {
		return nil, err
	}
	data.EventLogs = events
	return data, nil
}

func (h *WebHandler) loadMembers(ctx context.Context, data *PageData) error {
	members, err := h.Trips.Members(ctx, data.Trip.ID)
	if err != nil {
		return err
	}
	data.Members = members
	data.Names = make(map[string]string, len(members))
	for _, m := range members {
		if m.User != nil {
			data.Names[m.UserID] = m.User.FullName()
		}
	}
	if data.IsOwner {
		invitations, err := h.Trips.PendingInvitations(ctx, data.Trip.ID)
		if err != nil {
			return err
		}
		data.Invitations = invitations
	}
	return nil
}

func (h *WebHandler) loadBills(ctx context.Context, data *PageData) error {
	if data.Names == nil {
		if err := h.loadMembers(ctx, data); err != nil {
			return err
		}
	}
	bills, err := h.Bills.ListForTrip(ctx, data.Trip.ID)
	if err != nil {
		return err
	}
	for _, b := range bills {
		if _, ok := data.Names[b.PaidBy]; !ok && b.Payer != nil {
			data.Names[b.PaidBy] = b.Payer.FullName()
		}
	}
	data.Bills = bills
	balances, err := h.Bills.Balances(ctx, data.Trip.ID)
	if err != nil {
		return err
	}
	data.Balances = balances
	return nil
}

func (h *WebHandler) NewTrip(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "trip_form.html", &PageData{Page: "trip_form", User: user, Form: forms.NewTripForm(nil)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewTripForm(r.PostForm)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "trip_form.html", &PageData{Page: "trip_form", User: user, Form: form})
		return
	}

	t := &models.Trip{}
	form.Apply(t)
	if err := h.Trips.Create(r.Context(), user, t); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.flash(r, "success", MsgTripCreated)
	h.redirect(w, r, "/trips/"+t.ID)
}

func (h *WebHandler) TripDetail(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	data, err := h.tripPage(r.Context(), user, t)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "trip.html", data)
}

func (h *WebHandler) EditTrip(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	if !t.IsOwner(user.ID) {
		http.Error(w, "Only the owner can edit the trip.", http.StatusForbidden)
		return
	}
	data := &PageData{Page: "trip_form", User: user, Trip: t, IsOwner: true}

	if r.Method == http.MethodGet {
		data.Form = forms.TripFormFor(t)
		h.render(w, r, http.StatusOK, "trip_form.html", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewTripForm(r.PostForm)
	data.Form = form
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "trip_form.html", data)
		return
	}
	form.Apply(t)
	if err := h.Trips.Update(r.Context(), user, t); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.flash(r, "success", MsgTripUpdated)
	h.redirect(w, r, "/trips/"+t.ID)
}

func (h *WebHandler) DeleteTrip(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	if err := h.Trips.Delete(r.Context(), user, t); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.flash(r, "info", MsgTripDeleted)
	h.redirect(w, r, "/")
}

func (h *WebHandler) MemberList(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	data := &PageData{User: user, Trip: t, IsOwner: t.IsOwner(user.ID)}
	if err := h.loadMembers(r.Context(), data); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.renderPartial(w, r, http.StatusOK, "member_list", data)
}

func (h *WebHandler) AddMember(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		h.renderPartial(w, r, http.StatusOK, "add_member_form", &PageData{User: user, Trip: t, Form: forms.NewInvitationForm(nil)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewInvitationForm(r.PostForm)
	if !form.Validate() {
		h.flash(r, "danger", MsgInvalidForm)
		h.renderPartial(w, r, http.StatusOK, "add_member_form", &PageData{User: user, Trip: t, Form: form})
		return
	}

	outcome, err := h.Trips.InviteMember(r.Context(), t, user, form.MemberEmail)
	switch {
	case errors.Is(err, trip.ErrSelfInvite):
		h.flash(r, "danger", err.Error())
		h.hxRespond(w, r, http.StatusNotAcceptable)
	case errors.Is(err, trip.ErrAlreadyMember):
		h.flash(r, "warning", err.Error())
		h.hxRespond(w, r, http.StatusNoContent)
	case err != nil:
		h.serverError(w, r, err)
	case outcome == trip.InvitationSent:
		h.flash(r, "success", MsgMemberInvited)
		h.hxRespond(w, r, http.StatusNoContent)
	default:
		h.flash(r, "success", MsgMemberInvited)
		h.hxRespond(w, r, http.StatusNoContent, eventMemberList)
	}
}

func (h *WebHandler) RemoveMember(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	err := h.Trips.RemoveMember(r.Context(), t, user, routeVar(r, "userID"))
	if errors.Is(err, trip.ErrCannotRemoveOwner) {
		h.flash(r, "danger", err.Error())
		h.hxRespond(w, r, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.flash(r, "success", MsgMemberRemoved)
	h.hxRespond(w, r, http.StatusNoContent, eventMemberList)
}

func (h *WebHandler) LeaveTrip(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	if err := h.Trips.Leave(r.Context(), t, user); err != nil {
		if errors.Is(err, trip.ErrOwnerCannotLeave) {
			h.flash(r, "danger", err.Error())
			h.redirect(w, r, "/trips/"+t.ID)
			return
		}
		h.handleError(w, r, err)
		return
	}
	h.flash(r, "info", MsgLeftTrip)
	h.redirect(w, r, "/")
}

func (h *WebHandler) Activity(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	events, err := h.EventLogs.GetLatestByTrip(r.Context(), t.ID, tripPageEventsMax)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.renderPartial(w, r, http.StatusOK, "activity", &PageData{User: user, Trip: t, EventLogs: events})
}

func (h *WebHandler) ItineraryPDF(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	pdf, filename, err := h.Itinerary.Generate(r.Context(), t)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(pdf)))
	w.Write(pdf)
}
