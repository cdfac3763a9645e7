package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripplanner/models"
)

const userColumns = `id, first_name, last_name, email, password_hash, is_active, date_joined, last_login`

// SQLUserRepository implements the UserRepository interface
type SQLUserRepository struct {
	db Querier
}

// NewSQLUserRepository creates a new SQLUserRepository
func NewSQLUserRepository(db *DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.PasswordHash, &user.IsActive, &user.DateJoined, &lastLogin)
	if err != nil {
		return nil, err
	}
	user.DateJoined = user.DateJoined.UTC()
	user.LastLogin = timePtr(lastLogin)
	return &user, nil
}

// Create inserts a user together with its profile
func (r *SQLUserRepository) Create(ctx context.Context, user *models.User, profile *models.UserProfile) error {
	if user.ID == "" {
		user.ID = GenerateID()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = Now()
	}
	user.Email = models.NormalizeEmail(user.Email)

	return inTx(ctx, r.db, func(tx Querier) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.IsActive,
			user.DateJoined, nullableTime(user.LastLogin))
		if err != nil {
			return fmt.Errorf("error inserting user: %w", err)
		}

		if profile == nil {
			profile = &models.UserProfile{}
		}
		profile.UserID = user.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_profile (user_id, email_verified, avatar, birthday, description) VALUES (?, ?, ?, ?, ?)`,
			profile.UserID, profile.EmailVerified, nullableString(profile.Avatar),
			nullableTime(profile.Birthday), nullableString(profile.Description))
		if err != nil {
			return fmt.Errorf("error inserting user profile: %w", err)
		}
		return nil
	})
}

// FindByID finds a user by ID
func (r *SQLUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return user, nil
}

// FindByEmail finds a user by email, ignoring case
func (r *SQLUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, models.NormalizeEmail(email))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return user, nil
}

// EmailExists reports whether another account (not excludeID) uses email
func (r *SQLUserRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?`,
		models.NormalizeEmail(email), excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error counting users by email: %w", err)
	}
	return count > 0, nil
}

// Update stores all mutable user fields
func (r *SQLUserRepository) Update(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	res, err := r.db.ExecContext(ctx, `
	UPDATE users SET first_name = ?, last_name = ?, email = ?, password_hash = ?, is_active = ?, last_login = ?
	WHERE id = ?`,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.IsActive,
		nullableTime(user.LastLogin), user.ID)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a user, cascading to profile, settings, owned trips and memberships
func (r *SQLUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	return expectAffected(res)
}

// DeleteInactiveBefore removes accounts never activated since cutoff
func (r *SQLUserRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE is_active = ? AND last_login IS NULL AND date_joined < ?`, false, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("error deleting inactive users: %w", err)
	}
	return res.RowsAffected()
}

// FindProfile loads the profile of a user
func (r *SQLUserRepository) FindProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, email_verified, avatar, birthday, description FROM user_profile WHERE user_id = ?`, userID)

	var profile models.UserProfile
	var avatar, description sql.NullString
	var birthday sql.NullTime
	err := row.Scan(&profile.UserID, &profile.EmailVerified, &avatar, &birthday, &description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user profile: %w", err)
	}
	profile.Avatar = stringPtr(avatar)
	profile.Birthday = timePtr(birthday)
	profile.Description = stringPtr(description)
	return &profile, nil
}

// UpdateProfile stores the profile fields
func (r *SQLUserRepository) UpdateProfile(ctx context.Context, profile *models.UserProfile) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_profile SET email_verified = ?, avatar = ?, birthday = ?, description = ? WHERE user_id = ?`,
		profile.EmailVerified, nullableString(profile.Avatar), nullableTime(profile.Birthday),
		nullableString(profile.Description), profile.UserID)
	if err != nil {
		return fmt.Errorf("error updating user profile: %w", err)
	}
	return expectAffected(res)
}

// expectAffected turns an UPDATE or DELETE that matched nothing into ErrNotFound
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
