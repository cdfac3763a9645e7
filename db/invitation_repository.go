package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tripplanner/models"
)

// SQLInvitationRepository implements the InvitationRepository interface
type SQLInvitationRepository struct {
	db Querier
}

// NewSQLInvitationRepository creates a new SQLInvitationRepository
func NewSQLInvitationRepository(db *DB) *SQLInvitationRepository {
	return &SQLInvitationRepository{db: db}
}

// Create stores a pending invitation
func (r *SQLInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID == "" {
		invitation.ID = GenerateID()
	}
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = Now()
	}
	invitation.MemberEmail = models.NormalizeEmail(invitation.MemberEmail)

	_, err := r.db.ExecContext(ctx, `
	INSERT INTO trip_invitations (id, trip_id, invited_by, member_email, created_at, accepted_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		invitation.ID, invitation.TripID, invitation.InvitedBy, invitation.MemberEmail,
		invitation.CreatedAt, nullableTime(invitation.AcceptedAt))
	if err != nil {
		return fmt.Errorf("error creating invitation: %w", err)
	}
	return nil
}

// FindPendingByEmail lists the invitations not yet accepted for an email address
func (r *SQLInvitationRepository) FindPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	return r.findPending(ctx, `member_email = ?`, models.NormalizeEmail(email))
}

// FindPendingByTrip lists the invitations of a trip not yet accepted
func (r *SQLInvitationRepository) FindPendingByTrip(ctx context.Context, tripID string) ([]*models.Invitation, error) {
	return r.findPending(ctx, `trip_id = ?`, tripID)
}

func (r *SQLInvitationRepository) findPending(ctx context.Context, where string, arg any) ([]*models.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, trip_id, invited_by, member_email, created_at, accepted_at
	FROM trip_invitations
	WHERE accepted_at IS NULL AND `+where+`
	ORDER BY created_at ASC`, arg)
	if err != nil {
		return nil, fmt.Errorf("error querying invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]*models.Invitation, 0)
	for rows.Next() {
		var invitation models.Invitation
		var acceptedAt sql.NullTime
		err := rows.Scan(&invitation.ID, &invitation.TripID, &invitation.InvitedBy,
			&invitation.MemberEmail, &invitation.CreatedAt, &acceptedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning invitation: %w", err)
		}
		invitation.CreatedAt = invitation.CreatedAt.UTC()
		invitation.AcceptedAt = timePtr(acceptedAt)
		invitations = append(invitations, &invitation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}
	return invitations, nil
}

// MarkAccepted records when an invitation was accepted
func (r *SQLInvitationRepository) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE trip_invitations SET accepted_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("error accepting invitation: %w", err)
	}
	return expectAffected(res)
}

// DeletePendingBefore removes stale invitations that were never accepted
func (r *SQLInvitationRepository) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM trip_invitations WHERE accepted_at IS NULL AND created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting stale invitations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}
