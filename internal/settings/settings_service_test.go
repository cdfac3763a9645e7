package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/domain"
	"tripplanner/internal/settings"
	"tripplanner/internal/testutil"
)

func TestGetUserSettings_CreatesDefaults(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)

	first, err := env.Settings.GetUserSettings(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", first.DefaultCurrency)
	assert.True(t, first.EmailNotifications)

	second, err := env.Settings.GetUserSettings(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpdateUserSettings(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)

	_, err := env.Settings.UpdateUserSettings(ctx, ada.ID, "euro", true)
	assert.True(t, domain.IsValidation(err))

	updated, err := env.Settings.UpdateUserSettings(ctx, ada.ID, " usd ", false)
	require.NoError(t, err)
	assert.Equal(t, "USD", updated.DefaultCurrency)

	assert.Equal(t, "USD", env.Settings.DefaultCurrency(ctx, ada.ID))
	assert.False(t, env.Settings.WantsEmailNotifications(ctx, ada.ID))
}

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, settings.IsCurrencyCode("EUR"))
	assert.False(t, settings.IsCurrencyCode("eur"))
	assert.False(t, settings.IsCurrencyCode("EURO"))
	assert.False(t, settings.IsCurrencyCode("E1R"))
	assert.False(t, settings.IsCurrencyCode("XYZ"))
	assert.False(t, settings.IsCurrencyCode("ABC"))
	assert.True(t, settings.IsCurrencyCode("JPY"))
}
