package eventlog

import (
	"context"
	"fmt"
	"log"

	"tripplanner/db"
	"tripplanner/models"
)

// DefaultLimit is how many entries the activity feed shows
const DefaultLimit = 20

// MaxLimit caps the page size the API hands out
const MaxLimit = 100

type EventLogService struct {
	Repository db.EventLogRepository
	dbManager  *db.DBManager
}

func NewEventLogService(eventLogRepo db.EventLogRepository, dbManager *db.DBManager) *EventLogService {
	return &EventLogService{
		Repository: eventLogRepo,
		dbManager:  dbManager,
	}
}

// GetLatestByTrip returns the newest entries of a trip's activity feed
func (s *EventLogService) GetLatestByTrip(ctx context.Context, tripID string, limitSize int) ([]*models.EventLog, error) {
	if limitSize <= 0 {
		limitSize = DefaultLimit
	}
	return s.Repository.FindLatestByTripID(ctx, tripID, limitSize)
}

// CreateOne stores an event log entry
func (s *EventLogService) CreateOne(ctx context.Context, eventLog *models.EventLog) error {
	if eventLog.CreatedAt.IsZero() {
		eventLog.CreatedAt = db.Now()
	}
	return s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Create(ctx, eventLog)
	})
}

// Record adds an entry to a trip's activity feed. Failures are logged and
// never surface to the caller, the feed is informational only.
func (s *EventLogService) Record(ctx context.Context, tripID string, actor *models.User, eventType models.EEventLogType, subject string) {
	eventLog := &models.EventLog{
		TripID:      tripID,
		Type:        eventType,
		Description: GenerateDescription(eventType, actor, subject),
	}
	if actor != nil {
		actorID := actor.ID
		eventLog.UserID = &actorID
	}
	if err := s.CreateOne(ctx, eventLog); err != nil {
		log.Printf("Error recording %q event for trip %s: %v", eventType, tripID, err)
	}
}

// GenerateDescription renders the feed line for an event
func GenerateDescription(eventType models.EEventLogType, actor *models.User, subject string) string {
	who := "Someone"
	if actor != nil {
		who = actor.FullName()
	}

	switch eventType {
	case models.TripCreated:
		return fmt.Sprintf("%s created the trip [%s]", who, subject)
	case models.TripUpdated:
		return fmt.Sprintf("%s updated the trip details", who)
	case models.MemberInvited:
		return fmt.Sprintf("%s invited [%s]", who, subject)
	case models.MemberJoined:
		return fmt.Sprintf("[%s] joined the trip", subject)
	case models.MemberRemoved:
		return fmt.Sprintf("%s removed [%s] from the trip", who, subject)
	case models.MemberLeft:
		return fmt.Sprintf("%s left the trip", who)
	case models.NoteCreated:
		return fmt.Sprintf("%s added the note [%s]", who, subject)
	case models.NoteUpdated:
		return fmt.Sprintf("%s edited the note [%s]", who, subject)
	case models.NoteDeleted:
		return fmt.Sprintf("%s deleted the note [%s]", who, subject)
	case models.BillAdded:
		return fmt.Sprintf("%s added a bill of %s", who, subject)
	case models.BillDeleted:
		return fmt.Sprintf("%s deleted a bill of %s", who, subject)
	default:
		return "Event occurred"
	}
}
