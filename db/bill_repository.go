package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tripplanner/models"
)

const billColumns = `b.id, b.trip_id, b.expense_category, b.paid_by, b.total_amount, b.currency, b.comment, b.share_type, b.created_at,
	u.id, u.first_name, u.last_name, u.email`

// SQLBillRepository implements the BillRepository interface
type SQLBillRepository struct {
	db *DB
}

// NewSQLBillRepository creates a new SQLBillRepository
func NewSQLBillRepository(db *DB) *SQLBillRepository {
	return &SQLBillRepository{db: db}
}

func scanBill(row rowScanner) (*models.Bill, error) {
	var bill models.Bill
	var payerID, firstName, lastName, email sql.NullString
	var category, shareType string
	err := row.Scan(&bill.ID, &bill.TripID, &category, &bill.PaidBy, &bill.TotalAmount,
		&bill.Currency, &bill.Comment, &shareType, &bill.CreatedAt,
		&payerID, &firstName, &lastName, &email)
	if err != nil {
		return nil, err
	}
	bill.ExpenseCategory = models.ExpenseCategory(category)
	bill.ShareType = models.ShareType(shareType)
	bill.CreatedAt = bill.CreatedAt.UTC()
	// Payer stays nil once the paying account is gone
	if payerID.Valid {
		bill.Payer = &models.User{ID: payerID.String, FirstName: firstName.String, LastName: lastName.String, Email: email.String}
	}
	return &bill, nil
}

// Create inserts a bill and its shares in one transaction
func (r *SQLBillRepository) Create(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = GenerateID()
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO bills (id, trip_id, expense_category, paid_by, total_amount, currency, comment, share_type, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.TripID, string(bill.ExpenseCategory), bill.PaidBy, bill.TotalAmount,
		bill.Currency, bill.Comment, string(bill.ShareType), bill.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting bill: %w", err)
	}

	for i := range bill.Shares {
		bill.Shares[i].BillID = bill.ID
		share := bill.Shares[i]
		_, err = tx.ExecContext(ctx, `INSERT INTO bill_shares (bill_id, user_id, amount) VALUES (?, ?, ?)`,
			share.BillID, share.UserID, share.Amount)
		if err != nil {
			return fmt.Errorf("error inserting bill share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing bill: %w", err)
	}
	return nil
}

// FindByID finds a bill with its shares
func (r *SQLBillRepository) FindByID(ctx context.Context, id string) (*models.Bill, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT `+billColumns+`
	FROM bills b LEFT JOIN users u ON u.id = b.paid_by
	WHERE b.id = ?`, id)
	bill, err := scanBill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning bill: %w", err)
	}

	shares, err := r.findShares(ctx, []string{bill.ID})
	if err != nil {
		return nil, err
	}
	bill.Shares = shares[bill.ID]
	return bill, nil
}

// FindAllByTripID lists a trip's bills newest first, shares included
func (r *SQLBillRepository) FindAllByTripID(ctx context.Context, tripID string) ([]*models.Bill, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+billColumns+`
	FROM bills b LEFT JOIN users u ON u.id = b.paid_by
	WHERE b.trip_id = ?
	ORDER BY b.created_at DESC, b.id ASC`, tripID)
	if err != nil {
		return nil, fmt.Errorf("error querying bills: %w", err)
	}
	defer rows.Close()

	bills := make([]*models.Bill, 0)
	ids := make([]string, 0)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning bill: %w", err)
		}
		bills = append(bills, bill)
		ids = append(ids, bill.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bills: %w", err)
	}
	if len(bills) == 0 {
		return bills, nil
	}

	shares, err := r.findShares(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, bill := range bills {
		bill.Shares = shares[bill.ID]
	}
	return bills, nil
}

func (r *SQLBillRepository) findShares(ctx context.Context, billIDs []string) (map[string][]models.BillShare, error) {
	args := make([]any, len(billIDs))
	for i, id := range billIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
	SELECT s.bill_id, s.user_id, s.amount
	FROM bill_shares s
	LEFT JOIN users u ON u.id = s.user_id
	WHERE s.bill_id IN (`+placeholders(len(billIDs))+`)
	ORDER BY s.bill_id, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), COALESCE(u.email, ''), s.user_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bill shares: %w", err)
	}
	defer rows.Close()

	shares := make(map[string][]models.BillShare)
	for rows.Next() {
		var share models.BillShare
		if err := rows.Scan(&share.BillID, &share.UserID, &share.Amount); err != nil {
			return nil, fmt.Errorf("error scanning bill share: %w", err)
		}
		shares[share.BillID] = append(shares[share.BillID], share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bill shares: %w", err)
	}
	return shares, nil
}

// Delete deletes a bill and its shares
func (r *SQLBillRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting bill: %w", err)
	}
	return expectAffected(res)
}
