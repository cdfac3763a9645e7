package db

import (
	"context"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"

	"tripplanner/db/migrations"
)

// InitializeSchema applies all pending migrations
func InitializeSchema(ctx context.Context, database *DB) error {
	dialect := goose.DialectSQLite3
	if database.Dialect == DialectPostgres {
		dialect = goose.DialectPostgres
	}

	provider, err := goose.NewProvider(dialect, database.DB, nil,
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(migrations.All()...),
	)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		log.Printf("Applied migration %d in %v", r.Source.Version, r.Duration)
	}

	log.Println("Database schema initialized successfully")
	return nil
}
