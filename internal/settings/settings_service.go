package settings

import (
	"context"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"tripplanner/db"
	"tripplanner/internal/domain"
	"tripplanner/models"
)

// SettingsService handles settings operations
type SettingsService struct {
	repo db.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo db.SettingsRepository) *SettingsService {
	return &SettingsService{
		repo: repo,
	}
}

// GetUserSettings retrieves settings for a specific user
func (s *SettingsService) GetUserSettings(ctx context.Context, userID string) (*models.Settings, error) {
	settings, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// If no settings exist for user, create default settings
	if settings == nil {
		settings = models.DefaultSettings()
		settings.UserID = userID
		settings.ID = db.GenerateID()
		now := db.Now()
		settings.CreatedAt = &now
		settings.UpdatedAt = &now

		err = s.repo.Create(ctx, settings)
		if err != nil {
			log.Printf("Error creating default settings for user %s: %v", userID, err)
			return settings, nil // Return defaults even if save fails
		}
	}

	return settings, nil
}

// UpdateUserSettings updates settings for a specific user
func (s *SettingsService) UpdateUserSettings(ctx context.Context, userID, currency string, emailNotifications bool) (*models.Settings, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !IsCurrencyCode(currency) {
		return nil, domain.ValidationError{Field: "default_currency", Msg: "Enter a valid currency code."}
	}

	settings, err := s.GetUserSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings.DefaultCurrency = currency
	settings.EmailNotifications = emailNotifications
	now := db.Now()
	settings.UpdatedAt = &now

	err = s.repo.Update(ctx, settings)
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// DefaultCurrency returns the currency a user's new bills start with
func (s *SettingsService) DefaultCurrency(ctx context.Context, userID string) string {
	settings, err := s.GetUserSettings(ctx, userID)
	if err != nil {
		log.Printf("Error getting settings for user %s: %v", userID, err)
		return models.DefaultSettings().DefaultCurrency
	}
	return settings.DefaultCurrency
}

// WantsEmailNotifications checks if a user agreed to receive notification mails
func (s *SettingsService) WantsEmailNotifications(ctx context.Context, userID string) bool {
	settings, err := s.GetUserSettings(ctx, userID)
	if err != nil {
		log.Printf("Error getting settings for user %s: %v", userID, err)
		return true // Default to enabled if error occurs
	}

	return settings.EmailNotifications
}

var currencyValidator = validator.New()

// IsCurrencyCode reports whether code is an ISO 4217 alphabetic code
func IsCurrencyCode(code string) bool {
	return currencyValidator.Var(code, "iso4217") == nil
}
