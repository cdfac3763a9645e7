package web

import (
	"net/http"

	"tripplanner/internal/forms"
	"tripplanner/models"
)

const (
	MsgNoteCreated = "Note created."
	MsgNoteUpdated = "Note updated."
	MsgNoteDeleted = "Note deleted."
)

func (h *WebHandler) NoteList(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	notes, err := h.Notes.ListForTrip(r.Context(), t.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.renderPartial(w, r, http.StatusOK, "note_list", &PageData{User: user, Trip: t, Notes: notes})
}

func (h *WebHandler) NewNote(w http.ResponseWriter, r *http.Request, user *models.User) {
	t, ok := h.memberTrip(w, r, user)
	if !ok {
		return
	}
	data := &PageData{User: user, Trip: t}
	if r.Method == http.MethodGet {
		data.Form = forms.NewNoteForm(nil)
		h.renderPartial(w, r, http.StatusOK, "note_form", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewNoteForm(r.PostForm)
	data.Form = form
	if !form.Validate() {
		h.renderPartial(w, r, http.StatusOK, "note_form", data)
		return
	}
	if _, err := h.Notes.Create(r.Context(), t, user, form.Title, form.Content); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.flash(r, "success", MsgNoteCreated)
	h.hxRespond(w, r, http.StatusNoContent, eventNoteList)
}

func (h *WebHandler) EditNote(w http.ResponseWriter, r *http.Request, user *models.User) {
	n, err := h.Notes.FindForMember(r.Context(), routeVar(r, "id"), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	data := &PageData{User: user, Note: n}
	if r.Method == http.MethodGet {
		data.Form = forms.NoteFormFor(n)
		h.renderPartial(w, r, http.StatusOK, "note_form", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewNoteForm(r.PostForm)
	data.Form = form
	if !form.Validate() {
		h.renderPartial(w, r, http.StatusOK, "note_form", data)
		return
	}
	if err := h.Notes.Update(r.Context(), n, user, form.Title, form.Content); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.flash(r, "success", MsgNoteUpdated)
	h.hxRespond(w, r, http.StatusNoContent, eventNoteList)
}

func (h *WebHandler) DeleteNote(w http.ResponseWriter, r *http.Request, user *models.User) {
	n, err := h.Notes.FindForMember(r.Context(), routeVar(r, "id"), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Notes.Delete(r.Context(), n, user); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.flash(r, "success", MsgNoteDeleted)
	h.hxRespond(w, r, http.StatusNoContent, eventNoteList)
}
