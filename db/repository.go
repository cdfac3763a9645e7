package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tripplanner/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// UserRepository defines the interface for account operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User, profile *models.UserProfile) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
	FindProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error
}

// SettingsRepository defines the interface for user settings
type SettingsRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Settings, error)
	Create(ctx context.Context, settings *models.Settings) error
	Update(ctx context.Context, settings *models.Settings) error
}

// TripRepository defines the interface for trip and membership operations
type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) error
	FindByID(ctx context.Context, id string) (*models.Trip, error)
	FindAllForUser(ctx context.Context, userID string) ([]*models.Trip, error)
	Update(ctx context.Context, trip *models.Trip) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, tripID, userID string) (bool, error)
	RemoveMember(ctx context.Context, tripID, userID string) error
	IsMember(ctx context.Context, tripID, userID string) (bool, error)
	FindMembers(ctx context.Context, tripID string) ([]*models.TripMember, error)
}

// InvitationRepository defines the interface for pending trip invitations
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	FindPendingByEmail(ctx context.Context, email string) ([]*models.Invitation, error)
	FindPendingByTrip(ctx context.Context, tripID string) ([]*models.Invitation, error)
	MarkAccepted(ctx context.Context, id string, at time.Time) error
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NoteRepository defines the interface for trip notes
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	FindByID(ctx context.Context, id string) (*models.Note, error)
	FindAllByTripID(ctx context.Context, tripID string) ([]*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id string) error
}

// BillRepository defines the interface for bills and their shares
type BillRepository interface {
	Create(ctx context.Context, bill *models.Bill) error
	FindByID(ctx context.Context, id string) (*models.Bill, error)
	FindAllByTripID(ctx context.Context, tripID string) ([]*models.Bill, error)
	Delete(ctx context.Context, id string) error
}

// EventLogRepository defines the interface for event log operations
type EventLogRepository interface {
	Create(ctx context.Context, eventLog *models.EventLog) error
	FindLatestByTripID(ctx context.Context, tripID string, limit int) ([]*models.EventLog, error)
}

// TxRepositories are repositories bound to one transaction
type TxRepositories struct {
	Users       UserRepository
	Trips       TripRepository
	Invitations InvitationRepository
}

// TxRunner runs fn with repositories sharing one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// RepositoryFactory creates repositories sharing one connection pool
type RepositoryFactory struct {
	DB *DB
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(database *DB) *RepositoryFactory {
	return &RepositoryFactory{DB: database}
}

func (f *RepositoryFactory) NewUserRepository() UserRepository {
	return NewSQLUserRepository(f.DB)
}

func (f *RepositoryFactory) NewSettingsRepository() SettingsRepository {
	return NewSQLSettingsRepository(f.DB)
}

func (f *RepositoryFactory) NewTripRepository() TripRepository {
	return NewSQLTripRepository(f.DB)
}

func (f *RepositoryFactory) NewInvitationRepository() InvitationRepository {
	return NewSQLInvitationRepository(f.DB)
}

func (f *RepositoryFactory) NewNoteRepository() NoteRepository {
	return NewSQLNoteRepository(f.DB)
}

func (f *RepositoryFactory) NewBillRepository() BillRepository {
	return NewSQLBillRepository(f.DB)
}

func (f *RepositoryFactory) NewEventLogRepository() EventLogRepository {
	return NewSQLEventLogRepository(f.DB)
}

func (f *RepositoryFactory) InTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	return inTx(ctx, f.DB, func(tx Querier) error {
		return fn(TxRepositories{
			Users:       &SQLUserRepository{db: tx},
			Trips:       &SQLTripRepository{db: tx},
			Invitations: &SQLInvitationRepository{db: tx},
		})
	})
}

// GenerateID generates a unique ID for a record
func GenerateID() string {
	return uuid.New().String()
}
