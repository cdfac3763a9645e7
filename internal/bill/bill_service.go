package bill

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tripplanner/db"
	"tripplanner/internal/domain"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/util"
	"tripplanner/models"
)

var ErrSharesMismatch = errors.New("the shares must add up to the total amount")

type BillService struct {
	Repository db.BillRepository
	Trips      db.TripRepository
	EventLogs  *eventlog.EventLogService
	dbManager  *db.DBManager
}

func NewBillService(billRepo db.BillRepository, tripRepo db.TripRepository, eventLogService *eventlog.EventLogService, dbManager *db.DBManager) *BillService {
	return &BillService{
		Repository: billRepo,
		Trips:      tripRepo,
		EventLogs:  eventLogService,
		dbManager:  dbManager,
	}
}

// Add stores a bill. Equal bills are split between the current trip members,
// custom bills must already carry one share per member.
func (s *BillService) Add(ctx context.Context, trip *models.Trip, actor *models.User, bill *models.Bill) error {
	members, err := s.Trips.FindMembers(ctx, trip.ID)
	if err != nil {
		return err
	}
	memberIDs := make([]string, len(members))
	isMember := make(map[string]bool, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
		isMember[m.UserID] = true
	}

	if !isMember[bill.PaidBy] {
		return domain.ValidationError{Field: "paid_by", Msg: "the payer must be a trip member"}
	}
	if bill.TotalAmount < 0 {
		return domain.ValidationError{Field: "total_amount", Msg: util.ErrAmountNegative.Error()}
	}

	switch bill.ShareType {
	case models.ShareEqual:
		bill.Shares = SplitEqually(bill.TotalAmount, memberIDs)
	case models.ShareCustom:
		for _, share := range bill.Shares {
			if !isMember[share.UserID] {
				return domain.ValidationError{Field: share.UserID, Msg: "shares can only be assigned to trip members"}
			}
			if share.Amount < 0 {
				return domain.ValidationError{Field: share.UserID, Msg: util.ErrAmountNegative.Error()}
			}
		}
		if bill.SharesTotal() != bill.TotalAmount {
			return domain.ValidationError{Field: "__all__", Msg: "The shares must add up to the total amount.", Err: ErrSharesMismatch}
		}
	default:
		return domain.ValidationError{Field: "share_type", Msg: fmt.Sprintf("unknown share type %q", bill.ShareType)}
	}

	bill.TripID = trip.ID
	err = s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Create(ctx, bill)
	})
	if err != nil {
		return err
	}

	log.Printf("Bill %s of %s added to trip %s", bill.ID, util.FormatMoney(bill.TotalAmount, bill.Currency), trip.ID)
	s.EventLogs.Record(ctx, trip.ID, actor, models.BillAdded, util.FormatMoney(bill.TotalAmount, bill.Currency))
	return nil
}

// FindForMember returns a bill together with its trip if userID is a member of that trip
func (s *BillService) FindForMember(ctx context.Context, billID, userID string) (*models.Bill, *models.Trip, error) {
	bill, err := s.Repository.FindByID(ctx, billID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, domain.NotFoundError{Resource: "bill", Err: err}
		}
		return nil, nil, err
	}
	ok, err := s.Trips.IsMember(ctx, bill.TripID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, domain.NotFoundError{Resource: "bill"}
	}
	trip, err := s.Trips.FindByID(ctx, bill.TripID)
	if err != nil {
		return nil, nil, err
	}
	return bill, trip, nil
}

// Delete removes a bill. Only its payer and the trip owner may do so.
func (s *BillService) Delete(ctx context.Context, bill *models.Bill, trip *models.Trip, actor *models.User) error {
	if bill.PaidBy != actor.ID && !trip.IsOwner(actor.ID) {
		return domain.ForbiddenError{Msg: "Only the payer or the trip owner can delete this bill."}
	}
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Repository.Delete(ctx, bill.ID)
	})
	if err != nil {
		return err
	}
	s.EventLogs.Record(ctx, trip.ID, actor, models.BillDeleted, util.FormatMoney(bill.TotalAmount, bill.Currency))
	return nil
}

func (s *BillService) ListForTrip(ctx context.Context, tripID string) ([]*models.Bill, error) {
	return s.Repository.FindAllByTripID(ctx, tripID)
}

// Balances computes per currency balances and settlement transfers of a trip
func (s *BillService) Balances(ctx context.Context, tripID string) ([]CurrencyBalances, error) {
	bills, err := s.Repository.FindAllByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	members, err := s.Trips.FindMembers(ctx, tripID)
	if err != nil {
		return nil, err
	}
	memberIDs := make([]string, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}
	return ComputeBalances(bills, memberIDs), nil
}
