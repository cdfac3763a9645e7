// Package testutil builds databases, services and HTTP clients for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tripplanner/db"
	"tripplanner/internal/config"
)

// SetupTestDatabase opens a migrated SQLite database in a temp dir
func SetupTestDatabase(t *testing.T) *db.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	testDB, err := db.ConnectToSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })

	require.NoError(t, db.InitializeSchema(context.Background(), testDB))
	return testDB
}

func SetupTestRepositoryFactory(t *testing.T) *db.RepositoryFactory {
	t.Helper()
	return db.NewRepositoryFactory(SetupTestDatabase(t))
}

// SetupTestDBManager starts a manager that is stopped with the test
func SetupTestDBManager(t *testing.T) *db.DBManager {
	t.Helper()
	m := db.NewDBManager()
	t.Cleanup(m.Stop)
	return m
}

func GetTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:         "8000",
		SiteURL:      "http://testserver",
		SecretKey:    []byte("test_secret_key_for_testing_only"),
		DatabaseType: config.SQLite,
		DatabaseName: "tripplanner_test",
		SQLitePath:   ":memory:",
		MediaRoot:    t.TempDir(),
		EmailFrom:    "Trip Planner <no-reply@testserver>",
		TokenTTL:     72 * time.Hour,
	}
}
