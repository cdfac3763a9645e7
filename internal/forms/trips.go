package forms

import (
	"net/url"
	"time"

	"tripplanner/models"
)

const dateLayout = "2006-01-02"

const MsgEndBeforeStart = "The end date must not be before the start date."

type TripForm struct {
	*Form       `validate:"-"`
	Title       string `form:"title" validate:"required,max=120"`
	Destination string `form:"destination" validate:"omitempty,max=120"`
	Description string `form:"description" validate:"omitempty,max=5000"`
	StartDate   string `form:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `form:"end_date" validate:"required,datetime=2006-01-02"`

	Start time.Time `form:"-" validate:"-"`
	End   time.Time `form:"-" validate:"-"`
}

func NewTripForm(values url.Values) *TripForm {
	f := &TripForm{Form: New(values)}
	f.Title = f.Clean("title")
	f.Destination = f.Clean("destination")
	f.Description = f.Clean("description")
	f.StartDate = f.Clean("start_date")
	f.EndDate = f.Clean("end_date")
	return f
}

// TripFormFor pre-fills the form with the trip's current data
func TripFormFor(trip *models.Trip) *TripForm {
	return NewTripForm(url.Values{
		"title":       {trip.Title},
		"destination": {trip.Destination},
		"description": {trip.Description},
		"start_date":  {trip.StartDate.Format(dateLayout)},
		"end_date":    {trip.EndDate.Format(dateLayout)},
	})
}

func (f *TripForm) Validate() bool {
	f.check(f)
	if !f.HasError("start_date") && !f.HasError("end_date") {
		f.Start, _ = time.Parse(dateLayout, f.StartDate)
		f.End, _ = time.Parse(dateLayout, f.EndDate)
		if f.End.Before(f.Start) {
			f.AddError("end_date", MsgEndBeforeStart)
		}
	}
	return f.Valid()
}

// Apply copies the cleaned values onto trip
func (f *TripForm) Apply(trip *models.Trip) {
	trip.Title = f.Title
	trip.Destination = f.Destination
	trip.Description = f.Description
	trip.StartDate = f.Start
	trip.EndDate = f.End
}

type InvitationForm struct {
	*Form       `validate:"-"`
	MemberEmail string `form:"member_email" validate:"required,email,max=254"`
}

func NewInvitationForm(values url.Values) *InvitationForm {
	f := &InvitationForm{Form: New(values)}
	f.MemberEmail = models.NormalizeEmail(f.Clean("member_email"))
	return f
}

func (f *InvitationForm) Validate() bool {
	f.check(f)
	return f.Valid()
}

type NoteForm struct {
	*Form   `validate:"-"`
	Title   string `form:"title" validate:"required,max=200"`
	Content string `form:"content" validate:"omitempty,max=20000"`
}

func NewNoteForm(values url.Values) *NoteForm {
	f := &NoteForm{Form: New(values)}
	f.Title = f.Clean("title")
	f.Content = f.Clean("content")
	return f
}

// NoteFormFor pre-fills the form with the note's current data
func NoteFormFor(note *models.Note) *NoteForm {
	return NewNoteForm(url.Values{"title": {note.Title}, "content": {note.Content}})
}

func (f *NoteForm) Validate() bool {
	f.check(f)
	return f.Valid()
}
