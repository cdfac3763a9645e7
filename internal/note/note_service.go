package note

import (
	"context"
	"errors"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"

	"tripplanner/db"
	"tripplanner/internal/domain"
	"tripplanner/internal/eventlog"
	"tripplanner/models"
)

type NoteService struct {
	Repository db.NoteRepository
	Trips      db.TripRepository
	EventLogs  *eventlog.EventLogService
	dbManager  *db.DBManager
}

func NewNoteService(noteRepo db.NoteRepository, tripRepo db.TripRepository, eventLogService *eventlog.EventLogService, dbManager *db.DBManager) *NoteService {
	return &NoteService{
		Repository: noteRepo,
		Trips:      tripRepo,
		EventLogs:  eventLogService,
		dbManager:  dbManager,
	}
}

// Create adds a note to the trip
func (s *NoteService) Create(ctx context.Context, trip *models.Trip, actor *models.User, title, content string) (*models.Note, error) {
	note := &models.Note{TripID: trip.ID, Title: title, Content: content}
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Create(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	s.EventLogs.Record(ctx, trip.ID, actor, models.NoteCreated, note.Title)
	return note, nil
}

// FindForMember returns a note if userID is a member of its trip
func (s *NoteService) FindForMember(ctx context.Context, noteID, userID string) (*models.Note, error) {
	note, err := s.Repository.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "note", Err: err}
		}
		return nil, err
	}
	ok, err := s.Trips.IsMember(ctx, note.TripID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFoundError{Resource: "note"}
	}
	return note, nil
}

func (s *NoteService) ListForTrip(ctx context.Context, tripID string) ([]*models.Note, error) {
	return s.Repository.FindAllByTripID(ctx, tripID)
}

// Update stores a note's new title and content
func (s *NoteService) Update(ctx context.Context, note *models.Note, actor *models.User, title, content string) error {
	note.Title = title
	note.Content = content
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Update(ctx, note)
	})
	if err != nil {
		return err
	}
	s.EventLogs.Record(ctx, note.TripID, actor, models.NoteUpdated, note.Title)
	return nil
}

func (s *NoteService) Delete(ctx context.Context, note *models.Note, actor *models.User) error {
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Delete(ctx, note.ID)
	})
	if err != nil {
		return err
	}
	s.EventLogs.Record(ctx, note.TripID, actor, models.NoteDeleted, note.Title)
	return nil
}

var policy = bluemonday.UGCPolicy()

// RenderMarkdown turns note content into sanitised HTML
func RenderMarkdown(content string) template.HTML {
	unsafe := blackfriday.Run([]byte(content),
		blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.HardLineBreak))
	return template.HTML(policy.SanitizeBytes(unsafe))
}
