package trip

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tripplanner/db"
	"tripplanner/internal/config"
	"tripplanner/internal/domain"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/mail"
	"tripplanner/internal/settings"
	"tripplanner/models"
)

var (
	ErrSelfInvite        = errors.New("You can't invite yourself!")
	ErrAlreadyMember     = errors.New("This user is already invited!")
	ErrOwnerCannotLeave  = errors.New("The owner can't leave the trip.")
	ErrCannotRemoveOwner = errors.New("The owner can't be removed from the trip.")
)

// InviteOutcome tells how an invitation was handled
type InviteOutcome int

const (
	// MemberAdded means the invited email belonged to an account that is now a member
	MemberAdded InviteOutcome = iota
	// InvitationSent means an invitation to sign up was mailed
	InvitationSent
)

type TripService struct {
	Config      *config.Config
	Repository  db.TripRepository
	Users       db.UserRepository
	Invitations db.InvitationRepository
	Settings    *settings.SettingsService
	Mailer      mail.Mailer
	EventLogs   *eventlog.EventLogService
	dbManager   *db.DBManager
}

func NewTripService(
	cfg *config.Config,
	tripRepo db.TripRepository,
	userRepo db.UserRepository,
	invitationRepo db.InvitationRepository,
	settingsService *settings.SettingsService,
	mailer mail.Mailer,
	eventLogService *eventlog.EventLogService,
	dbManager *db.DBManager,
) *TripService {
	return &TripService{
		Config:      cfg,
		Repository:  tripRepo,
		Users:       userRepo,
		Invitations: invitationRepo,
		Settings:    settingsService,
		Mailer:      mailer,
		EventLogs:   eventLogService,
		dbManager:   dbManager,
	}
}

// Create stores a new trip owned by owner
func (s *TripService) Create(ctx context.Context, owner *models.User, trip *models.Trip) error {
	trip.OwnerID = owner.ID
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Create(ctx, trip)
	})
	if err != nil {
		return err
	}
	log.Printf("Trip %s created by %s", trip.ID, owner.ID)
	s.EventLogs.Record(ctx, trip.ID, owner, models.TripCreated, trip.Title)
	return nil
}

// GetForMember returns the trip if userID is one of its members. Everyone
// else gets a NotFoundError so trips of others stay invisible.
func (s *TripService) GetForMember(ctx context.Context, tripID, userID string) (*models.Trip, error) {
	ok, err := s.Repository.IsMember(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFoundError{Resource: "trip"}
	}
	trip, err := s.Repository.FindByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, domain.NotFoundError{Resource: "trip", Err: err}
		}
		return nil, err
	}
	return trip, nil
}

// IsMember reports whether userID belongs to the trip
func (s *TripService) IsMember(ctx context.Context, tripID, userID string) (bool, error) {
	return s.Repository.IsMember(ctx, tripID, userID)
}

// ListForUser lists the user's trips, soonest first
func (s *TripService) ListForUser(ctx context.Context, userID string) ([]*models.Trip, error) {
	return s.Repository.FindAllForUser(ctx, userID)
}

// Update stores changed trip details. Only the owner may edit a trip.
func (s *TripService) Update(ctx context.Context, actor *models.User, trip *models.Trip) error {
	if !trip.IsOwner(actor.ID) {
		return domain.ForbiddenError{Msg: "Only the owner can edit this trip."}
	}
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Update(ctx, trip)
	})
	if err != nil {
		return err
	}
	s.EventLogs.Record(ctx, trip.ID, actor, models.TripUpdated, trip.Title)
	return nil
}

// Delete removes the trip with its notes, bills and memberships
func (s *TripService) Delete(ctx context.Context, actor *models.User, trip *models.Trip) error {
	if !trip.IsOwner(actor.ID) {
		return domain.ForbiddenError{Msg: "Only the owner can delete this trip."}
	}
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Delete(ctx, trip.ID)
	})
	if err != nil {
		return err
	}
	log.Printf("Trip %s deleted by %s", trip.ID, actor.ID)
	return nil
}

func (s *TripService) Members(ctx context.Context, tripID string) ([]*models.TripMember, error) {
	return s.Repository.FindMembers(ctx, tripID)
}

func (s *TripService) PendingInvitations(ctx context.Context, tripID string) ([]*models.Invitation, error) {
	return s.Invitations.FindPendingByTrip(ctx, tripID)
}

// InviteMember adds the account registered under email to the trip, or
// mails an invitation to sign up when there is none
func (s *TripService) InviteMember(ctx context.Context, trip *models.Trip, inviter *models.User, email string) (InviteOutcome, error) {
	email = models.NormalizeEmail(email)
	if email == models.NormalizeEmail(inviter.Email) {
		return 0, ErrSelfInvite
	}

	member, err := s.Users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return 0, err
	}

	if member == nil {
		invitation := &models.Invitation{TripID: trip.ID, InvitedBy: inviter.ID, MemberEmail: email}
		err := s.dbManager.ExecuteOperation(ctx, func() error {
			return s.Invitations.Create(ctx, invitation)
		})
		if err != nil {
			return 0, err
		}
		s.sendInvite(ctx, trip, inviter, email)
		s.EventLogs.Record(ctx, trip.ID, inviter, models.MemberInvited, email)
		return InvitationSent, nil
	}

	added, err := db.Execute(ctx, s.dbManager, func() (bool, error) {
		return s.Repository.AddMember(ctx, trip.ID, member.ID)
	})
	if err != nil {
		return 0, err
	}
	if !added {
		return 0, ErrAlreadyMember
	}

	s.sendMemberAdded(ctx, trip, inviter, member)
	s.EventLogs.Record(ctx, trip.ID, inviter, models.MemberInvited, member.FullName())
	return MemberAdded, nil
}

func (s *TripService) tripLink(trip *models.Trip) string {
	return fmt.Sprintf("%s/trips/%s", s.Config.SiteURL, trip.ID)
}

func (s *TripService) sendInvite(ctx context.Context, trip *models.Trip, inviter *models.User, email string) {
	msg, err := mail.InviteMessage(email, inviter.FullName(), trip.Title, s.Config.SiteURL+"/signup/")
	if err == nil {
		err = s.Mailer.Send(ctx, msg)
	}
	if err != nil {
		log.Printf("Error sending invitation for trip %s to %s: %v", trip.ID, email, err)
	}
}

func (s *TripService) sendMemberAdded(ctx context.Context, trip *models.Trip, inviter, member *models.User) {
	if !s.Settings.WantsEmailNotifications(ctx, member.ID) {
		return
	}
	msg, err := mail.MemberAddedMessage(member.Email, member.FullName(), inviter.FullName(), trip.Title, s.tripLink(trip))
	if err == nil {
		err = s.Mailer.Send(ctx, msg)
	}
	if err != nil {
		log.Printf("Error sending member notification for trip %s to %s: %v", trip.ID, member.Email, err)
	}
}

// RemoveMember takes a member off the trip. Only the owner may do so and the
// owner can't be removed.
func (s *TripService) RemoveMember(ctx context.Context, trip *models.Trip, actor *models.User, userID string) error {
	if !trip.IsOwner(actor.ID) {
		return domain.ForbiddenError{Msg: "Only the owner can remove members."}
	}
	if trip.IsOwner(userID) {
		return ErrCannotRemoveOwner
	}
	member, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return domain.NotFoundError{Resource: "member", Err: err}
		}
		return err
	}

	err = s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.RemoveMember(ctx, trip.ID, userID)
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return domain.NotFoundError{Resource: "member", Err: err}
		}
		return err
	}
	s.EventLogs.Record(ctx, trip.ID, actor, models.MemberRemoved, member.FullName())
	return nil
}

// Leave removes user from a trip they do not own
func (s *TripService) Leave(ctx context.Context, trip *models.Trip, user *models.User) error {
	if trip.IsOwner(user.ID) {
		return ErrOwnerCannotLeave
	}
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.RemoveMember(ctx, trip.ID, user.ID)
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return domain.NotFoundError{Resource: "member", Err: err}
		}
		return err
	}
	s.EventLogs.Record(ctx, trip.ID, user, models.MemberLeft, user.FullName())
	return nil
}

// DeleteStaleInvitations removes invitations nobody accepted before cutoff
func (s *TripService) DeleteStaleInvitations(ctx context.Context, cutoff time.Time) (int64, error) {
	return db.Execute(ctx, s.dbManager, func() (int64, error) {
		return s.Invitations.DeletePendingBefore(ctx, cutoff)
	})
}
