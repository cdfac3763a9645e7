package housekeeping

import (
	"context"
	"log"
	"runtime/debug"
	"time"

	"tripplanner/db"
)

// InvitationMaxAge is how long an unanswered invitation is kept
const InvitationMaxAge = 30 * 24 * time.Hour

// AccountCleaner removes accounts that were never activated
type AccountCleaner interface {
	DeleteStaleAccounts(ctx context.Context, cutoff time.Time) (int64, error)
}

// InvitationCleaner removes invitations nobody accepted
type InvitationCleaner interface {
	DeleteStaleInvitations(ctx context.Context, cutoff time.Time) (int64, error)
}

type HousekeepingService struct {
	Accounts    AccountCleaner
	Invitations InvitationCleaner
	// Accounts older than AccountMaxAge that were never activated are removed
	AccountMaxAge time.Duration
	Interval      time.Duration
}

func NewHousekeepingService(accounts AccountCleaner, invitations InvitationCleaner, accountMaxAge time.Duration) *HousekeepingService {
	return &HousekeepingService{
		Accounts:      accounts,
		Invitations:   invitations,
		AccountMaxAge: accountMaxAge,
		Interval:      time.Hour,
	}
}

// RunOnce performs a single cleanup pass
func (s *HousekeepingService) RunOnce(ctx context.Context) error {
	now := db.Now()

	accounts, err := s.Accounts.DeleteStaleAccounts(ctx, now.Add(-s.AccountMaxAge))
	if err != nil {
		return err
	}
	invitations, err := s.Invitations.DeleteStaleInvitations(ctx, now.Add(-InvitationMaxAge))
	if err != nil {
		return err
	}
	if accounts > 0 || invitations > 0 {
		log.Printf("Housekeeping removed %d inactive account(s) and %d stale invitation(s)", accounts, invitations)
	}
	return nil
}

// Run repeats RunOnce every Interval until done is closed
func (s *HousekeepingService) Run(done <-chan bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Housekeeping panic recovered: %v", r)
			log.Printf("Housekeeping stack trace: %s", debug.Stack())
		}
		log.Println("Housekeeping service stopped")
	}()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("Housekeeping scheduled to run every %s", s.Interval)
	s.runSafely()
	for {
		select {
		case <-done:
			log.Println("Housekeeping received shutdown signal")
			return
		case <-ticker.C:
			s.runSafely()
		}
	}
}

func (s *HousekeepingService) runSafely() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Housekeeping RunOnce panic: %v", r)
			log.Printf("Housekeeping RunOnce stack: %s", debug.Stack())
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		log.Printf("Housekeeping failed: %v", err)
	}
}
