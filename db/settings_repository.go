package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tripplanner/models"
)

// SQLSettingsRepository implements the SettingsRepository interface
type SQLSettingsRepository struct {
	db *DB
}

// NewSQLSettingsRepository creates a new SQLSettingsRepository
func NewSQLSettingsRepository(db *DB) *SQLSettingsRepository {
	return &SQLSettingsRepository{db: db}
}

// FindByUserID finds settings by user ID
func (r *SQLSettingsRepository) FindByUserID(ctx context.Context, userID string) (*models.Settings, error) {
	query := `SELECT id, user_id, default_currency, email_notifications, created_at, updated_at FROM settings WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)

	var settings models.Settings
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&settings.ID, &settings.UserID, &settings.DefaultCurrency, &settings.EmailNotifications, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No settings found for this user
		}
		return nil, fmt.Errorf("error scanning settings: %w", err)
	}

	settings.CreatedAt = timePtr(createdAt)
	settings.UpdatedAt = timePtr(updatedAt)

	return &settings, nil
}

// Create creates new settings
func (r *SQLSettingsRepository) Create(ctx context.Context, settings *models.Settings) error {
	query := `INSERT INTO settings (id, user_id, default_currency, email_notifications, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, settings.ID, settings.UserID, settings.DefaultCurrency,
		settings.EmailNotifications, nullableTime(settings.CreatedAt), nullableTime(settings.UpdatedAt))
	if err != nil {
		return fmt.Errorf("error creating settings: %w", err)
	}

	return nil
}

// Update updates existing settings
func (r *SQLSettingsRepository) Update(ctx context.Context, settings *models.Settings) error {
	query := `UPDATE settings SET default_currency = ?, email_notifications = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, settings.DefaultCurrency, settings.EmailNotifications,
		nullableTime(settings.UpdatedAt), settings.ID)
	if err != nil {
		return fmt.Errorf("error updating settings: %w", err)
	}

	return nil
}
