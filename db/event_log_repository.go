package db

import (
	"context"
	"database/sql"
	"fmt"

	"tripplanner/models"
)

// SQLEventLogRepository implements the EventLogRepository interface
type SQLEventLogRepository struct {
	db *DB
}

// NewSQLEventLogRepository creates a new SQLEventLogRepository
func NewSQLEventLogRepository(db *DB) *SQLEventLogRepository {
	return &SQLEventLogRepository{db: db}
}

// Create creates a new event log
func (r *SQLEventLogRepository) Create(ctx context.Context, eventLog *models.EventLog) error {
	if eventLog.ID == "" {
		eventLog.ID = GenerateID()
	}
	if eventLog.CreatedAt.IsZero() {
		eventLog.CreatedAt = Now()
	}

	_, err := r.db.ExecContext(ctx, `
	INSERT INTO event_logs (id, trip_id, user_id, type, description, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		eventLog.ID, eventLog.TripID, nullableString(eventLog.UserID), string(eventLog.Type),
		eventLog.Description, eventLog.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating event log: %w", err)
	}
	return nil
}

// FindLatestByTripID finds the latest event logs of a trip
func (r *SQLEventLogRepository) FindLatestByTripID(ctx context.Context, tripID string, limit int) ([]*models.EventLog, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, trip_id, user_id, type, description, created_at
	FROM event_logs
	WHERE trip_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?`, tripID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying event logs: %w", err)
	}
	defer rows.Close()

	eventLogs := make([]*models.EventLog, 0)
	for rows.Next() {
		var eventLog models.EventLog
		var userID sql.NullString
		var eventType string
		err := rows.Scan(&eventLog.ID, &eventLog.TripID, &userID, &eventType, &eventLog.Description, &eventLog.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning event log: %w", err)
		}
		eventLog.UserID = stringPtr(userID)
		eventLog.Type = models.EEventLogType(eventType)
		eventLog.CreatedAt = eventLog.CreatedAt.UTC()
		eventLogs = append(eventLogs, &eventLog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event logs: %w", err)
	}
	return eventLogs, nil
}
