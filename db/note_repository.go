package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tripplanner/models"
)

// SQLNoteRepository implements the NoteRepository interface
type SQLNoteRepository struct {
	db *DB
}

// NewSQLNoteRepository creates a new SQLNoteRepository
func NewSQLNoteRepository(db *DB) *SQLNoteRepository {
	return &SQLNoteRepository{db: db}
}

func scanNote(row rowScanner) (*models.Note, error) {
	var note models.Note
	err := row.Scan(&note.ID, &note.TripID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, err
	}
	note.CreatedAt = note.CreatedAt.UTC()
	note.UpdatedAt = note.UpdatedAt.UTC()
	return &note, nil
}

// Create inserts a note
func (r *SQLNoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = GenerateID()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = Now()
	}
	note.UpdatedAt = note.CreatedAt

	_, err := r.db.ExecContext(ctx, `
	INSERT INTO notes (id, trip_id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID, note.TripID, note.Title, note.Content, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating note: %w", err)
	}
	return nil
}

// FindByID finds a note by ID
func (r *SQLNoteRepository) FindByID(ctx context.Context, id string) (*models.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, trip_id, title, content, created_at, updated_at FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning note: %w", err)
	}
	return note, nil
}

// FindAllByTripID lists the notes of a trip, most recently edited first
func (r *SQLNoteRepository) FindAllByTripID(ctx context.Context, tripID string) ([]*models.Note, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, trip_id, title, content, created_at, updated_at FROM notes
	WHERE trip_id = ?
	ORDER BY updated_at DESC, title ASC`, tripID)
	if err != nil {
		return nil, fmt.Errorf("error querying notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*models.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return notes, nil
}

// Update stores a note's title and content
func (r *SQLNoteRepository) Update(ctx context.Context, note *models.Note) error {
	note.UpdatedAt = Now()
	res, err := r.db.ExecContext(ctx, `UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		note.Title, note.Content, note.UpdatedAt, note.ID)
	if err != nil {
		return fmt.Errorf("error updating note: %w", err)
	}
	return expectAffected(res)
}

// Delete deletes a note by ID
func (r *SQLNoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting note: %w", err)
	}
	return expectAffected(res)
}
