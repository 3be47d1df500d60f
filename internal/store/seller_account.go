package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/marketd/internal/model"
)

type SellerAccountStore struct {
	db *sql.DB
}

func NewSellerAccountStore(db *sql.DB) *SellerAccountStore {
	return &SellerAccountStore{db: db}
}

func scanSellerAccount(scanner interface{ Scan(...any) error }) (*model.SellerAccount, error) {
	var a model.SellerAccount
	var details, charges, payouts int
	err := scanner.Scan(
		&a.ID, &a.UserID, &a.ProcessorAccountID,
		&details, &charges, &payouts,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.DetailsSubmitted = details != 0
	a.ChargesEnabled = charges != 0
	a.PayoutsEnabled = payouts != 0
	return &a, nil
}

const sellerAccountCols = `id, user_id, processor_account_id, details_submitted, charges_enabled, payouts_enabled, created_at, updated_at`

func (s *SellerAccountStore) GetByUserID(userID int64) (*model.SellerAccount, error) {
	row := s.db.QueryRow(`SELECT `+sellerAccountCols+` FROM seller_accounts WHERE user_id = ?`, userID)
	a, err := scanSellerAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get seller account: %w", err)
	}
	return a, nil
}

// GetByProcessorAccountID resolves a processor webhook's account id to
// the local seller row.
func (s *SellerAccountStore) GetByProcessorAccountID(processorAccountID string) (*model.SellerAccount, error) {
	row := s.db.QueryRow(
		`SELECT `+sellerAccountCols+` FROM seller_accounts WHERE processor_account_id = ?`,
		processorAccountID,
	)
	a, err := scanSellerAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get seller account by processor id: %w", err)
	}
	return a, nil
}

// Upsert records the processor account id for a seller, creating the row
// on first onboarding and leaving capability flags untouched otherwise.
func (s *SellerAccountStore) Upsert(userID int64, processorAccountID string) (*model.SellerAccount, error) {
	_, err := s.db.Exec(
		`INSERT INTO seller_accounts (user_id, processor_account_id) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			processor_account_id = excluded.processor_account_id,
			updated_at = CURRENT_TIMESTAMP`,
		userID, processorAccountID,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert seller account: %w", err)
	}
	return s.GetByUserID(userID)
}

// UpdateFlags overwrites the capability flags from a processor status
// check. Repeating the same status is a harmless no-op.
func (s *SellerAccountStore) UpdateFlags(userID int64, detailsSubmitted, chargesEnabled, payoutsEnabled bool) (*model.SellerAccount, error) {
	_, err := s.db.Exec(
		`UPDATE seller_accounts SET details_submitted = ?, charges_enabled = ?, payouts_enabled = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ?`,
		boolInt(detailsSubmitted), boolInt(chargesEnabled), boolInt(payoutsEnabled), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update seller account flags: %w", err)
	}
	return s.GetByUserID(userID)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
