package migrations

import (
	"context"
	"database/sql"
)

// bills.paid_by and bill_shares.user_id carry no foreign key to users: a bill
// keeps its payer and shares after a member deletes their account, otherwise
// the trip's balances would no longer net to zero.
func upInitialSchema(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			date_joined TIMESTAMP NOT NULL,
			last_login TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS user_profile (
			user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			avatar TEXT,
			birthday DATE,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			default_currency TEXT NOT NULL DEFAULT 'EUR',
			email_notifications BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			destination TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			CHECK (end_date >= start_date)
		)`,
		`CREATE TABLE IF NOT EXISTS trip_members (
			trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined_at TIMESTAMP NOT NULL,
			PRIMARY KEY (trip_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_members_user ON trip_members(user_id)`,
		`CREATE TABLE IF NOT EXISTS trip_invitations (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			invited_by TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			member_email TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			accepted_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_invitations_email ON trip_invitations(member_email)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_trip ON notes(trip_id)`,
		`CREATE TABLE IF NOT EXISTS bills (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			expense_category TEXT NOT NULL,
			paid_by TEXT NOT NULL,
			total_amount BIGINT NOT NULL CHECK (total_amount >= 0),
			currency TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			share_type TEXT NOT NULL CHECK (share_type IN ('equal', 'custom_values')),
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bills_trip ON bills(trip_id)`,
		`CREATE TABLE IF NOT EXISTS bill_shares (
			bill_id TEXT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount >= 0),
			PRIMARY KEY (bill_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS event_logs (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_logs_trip ON event_logs(trip_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func downInitialSchema(ctx context.Context, tx *sql.Tx) error {
	tables := []string{
		"event_logs",
		"bill_shares",
		"bills",
		"notes",
		"trip_invitations",
		"trip_members",
		"trips",
		"settings",
		"user_profile",
		"users",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return err
		}
	}
	return nil
}
