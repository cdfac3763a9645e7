package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"tripplanner/db"
	"tripplanner/models"
)

func setupPostgres(t *testing.T) *db.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tripplanner_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := db.ConnectToPostgres(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.InitializeSchema(ctx, database))
	return database
}

func TestPostgres_TripLifecycle(t *testing.T) {
	database := setupPostgres(t)
	factory := db.NewRepositoryFactory(database)
	ctx := context.Background()

	users := factory.NewUserRepository()
	trips := factory.NewTripRepository()
	bills := factory.NewBillRepository()

	ada := createUser(t, users, "Ada", "ada@example.com")
	bob := createUser(t, users, "Bob", "bob@example.com")
	trip := createTrip(t, trips, ada, "Lisbon", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))

	added, err := trips.AddMember(ctx, trip.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = trips.AddMember(ctx, trip.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, added)

	bill := &models.Bill{TripID: trip.ID, ExpenseCategory: models.ExpenseFood, PaidBy: ada.ID, TotalAmount: 3000,
		Currency: "EUR", ShareType: models.ShareEqual,
		Shares: []models.BillShare{{UserID: ada.ID, Amount: 1500}, {UserID: bob.ID, Amount: 1500}}}
	require.NoError(t, bills.Create(ctx, bill))

	found, err := bills.FindAllByTripID(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(3000), found[0].SharesTotal())

	require.NoError(t, users.Delete(ctx, ada.ID))
	_, err = trips.FindByID(ctx, trip.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}
