package testutil

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tripplanner/db"
	"tripplanner/internal/account"
	"tripplanner/internal/bill"
	"tripplanner/internal/config"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/itinerary"
	"tripplanner/internal/mail"
	"tripplanner/internal/note"
	"tripplanner/internal/settings"
	"tripplanner/internal/trip"
	"tripplanner/models"
)

// TestPassword is the password of every user created by Env.CreateUser
const TestPassword = "c0rrect-h0rse"

// Env wires every service against one test database
type Env struct {
	Config    *config.Config
	Factory   *db.RepositoryFactory
	DBManager *db.DBManager
	Mailer    *mail.RecordingMailer

	Users       db.UserRepository
	TripRepo    db.TripRepository
	Invitations db.InvitationRepository

	Settings  *settings.SettingsService
	EventLogs *eventlog.EventLogService
	Accounts  *account.AccountService
	Trips     *trip.TripService
	Notes     *note.NoteService
	Bills     *bill.BillService
	Itinerary *itinerary.ItineraryService
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	cfg := GetTestConfig(t)
	factory := SetupTestRepositoryFactory(t)
	dbManager := SetupTestDBManager(t)
	mailer := &mail.RecordingMailer{}

	e := &Env{
		Config:      cfg,
		Factory:     factory,
		DBManager:   dbManager,
		Mailer:      mailer,
		Users:       factory.NewUserRepository(),
		TripRepo:    factory.NewTripRepository(),
		Invitations: factory.NewInvitationRepository(),
	}
	e.Settings = settings.NewSettingsService(factory.NewSettingsRepository())
	e.EventLogs = eventlog.NewEventLogService(factory.NewEventLogRepository(), dbManager)
	e.Accounts = account.NewAccountService(cfg, e.Users, e.TripRepo, e.Invitations, factory, mailer, e.EventLogs, dbManager)
	e.Accounts.PasswordCost = bcrypt.MinCost
	e.Trips = trip.NewTripService(cfg, e.TripRepo, e.Users, e.Invitations, e.Settings, mailer, e.EventLogs, dbManager)
	e.Notes = note.NewNoteService(factory.NewNoteRepository(), e.TripRepo, e.EventLogs, dbManager)
	e.Bills = bill.NewBillService(factory.NewBillRepository(), e.TripRepo, e.EventLogs, dbManager)
	e.Itinerary = itinerary.NewItineraryService(e.Trips, e.Notes, e.Bills)
	return e
}

// CreateUser stores a user with TestPassword directly in the repository
func (e *Env) CreateUser(t *testing.T, firstName, lastName, email string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        models.NormalizeEmail(email),
		PasswordHash: string(hash),
		IsActive:     active,
	}
	require.NoError(t, e.Users.Create(context.Background(), user, &models.UserProfile{EmailVerified: active}))
	return user
}

// CreateTrip creates a week long trip owned by owner
func (e *Env) CreateTrip(t *testing.T, owner *models.User, title string) *models.Trip {
	t.Helper()
	start := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	trip := &models.Trip{
		Title:       title,
		Destination: "Lisbon",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 6),
	}
	require.NoError(t, e.Trips.Create(context.Background(), owner, trip))
	return trip
}

// AddMember puts user on the trip without any mail or event
func (e *Env) AddMember(t *testing.T, trip *models.Trip, user *models.User) {
	t.Helper()
	added, err := e.TripRepo.AddMember(context.Background(), trip.ID, user.ID)
	require.NoError(t, err)
	require.True(t, added)
}

var linkPattern = regexp.MustCompile(`/(activate-user|reset)/([A-Za-z0-9_-]+)/([A-Za-z0-9_.-]+)`)

// MailLink extracts the uid and token of the last activation or reset link mailed to email
func (e *Env) MailLink(t *testing.T, email string) (uidb64, token string) {
	t.Helper()
	msg, ok := e.Mailer.Last(models.NormalizeEmail(email))
	require.True(t, ok, "no mail sent to %s", email)
	m := linkPattern.FindStringSubmatch(msg.Body)
	require.NotNil(t, m, "no link in mail %q", msg.Subject)
	return m[2], m[3]
}
