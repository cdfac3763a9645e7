package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tripplanner/models"
)

const tripColumns = `t.id, t.owner_id, t.title, t.destination, t.description, t.start_date, t.end_date, t.created_at, t.updated_at`

// SQLTripRepository implements the TripRepository interface
type SQLTripRepository struct {
	db Querier
}

// NewSQLTripRepository creates a new SQLTripRepository
func NewSQLTripRepository(db *DB) *SQLTripRepository {
	return &SQLTripRepository{db: db}
}

func scanTrip(row rowScanner, extra ...any) (*models.Trip, error) {
	var trip models.Trip
	dest := []any{&trip.ID, &trip.OwnerID, &trip.Title, &trip.Destination, &trip.Description,
		&trip.StartDate, &trip.EndDate, &trip.CreatedAt, &trip.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	trip.StartDate = trip.StartDate.UTC()
	trip.EndDate = trip.EndDate.UTC()
	trip.CreatedAt = trip.CreatedAt.UTC()
	trip.UpdatedAt = trip.UpdatedAt.UTC()
	return &trip, nil
}

// Create inserts a trip and makes its owner the first member
func (r *SQLTripRepository) Create(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = GenerateID()
	}
	now := Now()
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = now
	}
	trip.UpdatedAt = trip.CreatedAt

	err := inTx(ctx, r.db, func(tx Querier) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO trips (id, owner_id, title, destination, description, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			trip.ID, trip.OwnerID, trip.Title, trip.Destination, trip.Description,
			trip.StartDate, trip.EndDate, trip.CreatedAt, trip.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error inserting trip: %w", err)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO trip_members (trip_id, user_id, joined_at) VALUES (?, ?, ?)`,
			trip.ID, trip.OwnerID, trip.CreatedAt)
		if err != nil {
			return fmt.Errorf("error inserting trip owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	trip.MemberCount = 1
	return nil
}

// FindByID finds a trip by ID
func (r *SQLTripRepository) FindByID(ctx context.Context, id string) (*models.Trip, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT `+tripColumns+`, (SELECT COUNT(*) FROM trip_members m WHERE m.trip_id = t.id)
	FROM trips t WHERE t.id = ?`, id)

	var memberCount int
	trip, err := scanTrip(row, &memberCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning trip: %w", err)
	}
	trip.MemberCount = memberCount
	return trip, nil
}

// FindAllForUser lists the trips userID is a member of, soonest first
func (r *SQLTripRepository) FindAllForUser(ctx context.Context, userID string) ([]*models.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+tripColumns+`, (SELECT COUNT(*) FROM trip_members m2 WHERE m2.trip_id = t.id)
	FROM trips t
	JOIN trip_members m ON m.trip_id = t.id
	WHERE m.user_id = ?
	ORDER BY t.start_date ASC, t.title ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying trips: %w", err)
	}
	defer rows.Close()

	trips := make([]*models.Trip, 0)
	for rows.Next() {
		var memberCount int
		trip, err := scanTrip(rows, &memberCount)
		if err != nil {
			return nil, fmt.Errorf("error scanning trip: %w", err)
		}
		trip.MemberCount = memberCount
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	return trips, nil
}

// Update stores the editable trip fields
func (r *SQLTripRepository) Update(ctx context.Context, trip *models.Trip) error {
	trip.UpdatedAt = Now()
	res, err := r.db.ExecContext(ctx, `
	UPDATE trips SET title = ?, destination = ?, description = ?, start_date = ?, end_date = ?, updated_at = ?
	WHERE id = ?`,
		trip.Title, trip.Destination, trip.Description, trip.StartDate, trip.EndDate, trip.UpdatedAt, trip.ID)
	if err != nil {
		return fmt.Errorf("error updating trip: %w", err)
	}
	return expectAffected(res)
}

// Delete deletes a trip by ID together with everything attached to it
func (r *SQLTripRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting trip: %w", err)
	}
	return expectAffected(res)
}

// AddMember adds userID to the trip; false means the user already was a member
func (r *SQLTripRepository) AddMember(ctx context.Context, tripID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO trip_members (trip_id, user_id, joined_at) VALUES (?, ?, ?)
	ON CONFLICT (trip_id, user_id) DO NOTHING`, tripID, userID, Now())
	if err != nil {
		return false, fmt.Errorf("error adding trip member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n > 0, nil
}

// RemoveMember removes userID from the trip
func (r *SQLTripRepository) RemoveMember(ctx context.Context, tripID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trip_members WHERE trip_id = ? AND user_id = ?`, tripID, userID)
	if err != nil {
		return fmt.Errorf("error removing trip member: %w", err)
	}
	return expectAffected(res)
}

// IsMember reports whether userID belongs to the trip
func (r *SQLTripRepository) IsMember(ctx context.Context, tripID, userID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trip_members WHERE trip_id = ? AND user_id = ?`,
		tripID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking trip membership: %w", err)
	}
	return count > 0, nil
}

// FindMembers lists the members of a trip in joining order
func (r *SQLTripRepository) FindMembers(ctx context.Context, tripID string) ([]*models.TripMember, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT m.trip_id, m.user_id, m.joined_at,
	       u.id, u.first_name, u.last_name, u.email, u.password_hash, u.is_active, u.date_joined, u.last_login
	FROM trip_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.trip_id = ?
	ORDER BY m.joined_at ASC, u.first_name ASC, u.last_name ASC`, tripID)
	if err != nil {
		return nil, fmt.Errorf("error querying trip members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.TripMember, 0)
	for rows.Next() {
		var member models.TripMember
		var user models.User
		var lastLogin sql.NullTime
		err := rows.Scan(&member.TripID, &member.UserID, &member.JoinedAt,
			&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash,
			&user.IsActive, &user.DateJoined, &lastLogin)
		if err != nil {
			return nil, fmt.Errorf("error scanning trip member: %w", err)
		}
		member.JoinedAt = member.JoinedAt.UTC()
		user.LastLogin = timePtr(lastLogin)
		member.User = &user
		members = append(members, &member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip members: %w", err)
	}
	return members, nil
}
