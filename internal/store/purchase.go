package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/marketd/internal/model"
)

// ErrActivePurchaseExists is returned by Settle when the buyer already
// holds an active purchase for the project under a different intent.
var ErrActivePurchaseExists = errors.New("store: active purchase already exists")

type PurchaseStore struct {
	db *sql.DB
}

func NewPurchaseStore(db *sql.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func scanPurchase(scanner interface{ Scan(...any) error }) (*model.Purchase, error) {
	var p model.Purchase
	var isActive int
	err := scanner.Scan(
		&p.ID, &p.ProjectID, &p.BuyerID, &p.IntentCorrelationID,
		&p.PricePaidCents, &p.Currency, &p.PurchasedAt, &isActive,
	)
	if err != nil {
		return nil, err
	}
	p.IsActive = isActive != 0
	return &p, nil
}

const purchaseCols = `id, project_id, buyer_id, intent_correlation_id, price_paid_cents, currency, purchased_at, is_active`

// Settle records the purchase for a succeeded intent and marks the intent
// settled, in one transaction. It is safe to call concurrently for the
// same intent: the unique index on the correlation id makes the second
// caller return the first caller's purchase, and the partial unique index
// on active (project, buyer) rejects a second intent for an owned pair
// with ErrActivePurchaseExists.
func (s *PurchaseStore) Settle(intent *model.PaymentIntent) (*model.Purchase, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin settle: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO purchases (project_id, buyer_id, intent_correlation_id, price_paid_cents, currency)
		 VALUES (?, ?, ?, ?, ?)`,
		intent.ProjectID, intent.BuyerID, intent.CorrelationID, intent.AmountCents, intent.Currency,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Same intent already settled by a racing confirm.
			if existing, getErr := s.GetByCorrelationID(intent.CorrelationID); getErr == nil && existing != nil {
				return existing, nil
			}
			return nil, ErrActivePurchaseExists
		}
		return nil, fmt.Errorf("insert purchase: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE payment_intents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE correlation_id = ?`,
		model.IntentSucceeded, intent.CorrelationID,
	); err != nil {
		return nil, fmt.Errorf("mark intent settled: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *PurchaseStore) GetByID(id int64) (*model.Purchase, error) {
	row := s.db.QueryRow(`SELECT `+purchaseCols+` FROM purchases WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

func (s *PurchaseStore) GetByCorrelationID(correlationID string) (*model.Purchase, error) {
	row := s.db.QueryRow(
		`SELECT `+purchaseCols+` FROM purchases WHERE intent_correlation_id = ?`,
		correlationID,
	)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase by correlation id: %w", err)
	}
	return p, nil
}

// GetActive returns the buyer's active purchase for a project, or nil.
func (s *PurchaseStore) GetActive(projectID, buyerID int64) (*model.Purchase, error) {
	row := s.db.QueryRow(
		`SELECT `+purchaseCols+` FROM purchases WHERE project_id = ? AND buyer_id = ? AND is_active = 1`,
		projectID, buyerID,
	)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active purchase: %w", err)
	}
	return p, nil
}

func (s *PurchaseStore) ListByBuyer(buyerID int64) ([]*model.Purchase, error) {
	rows, err := s.db.Query(
		`SELECT `+purchaseCols+` FROM purchases WHERE buyer_id = ? ORDER BY purchased_at DESC`,
		buyerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases by buyer: %w", err)
	}
	defer rows.Close()

	var purchases []*model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// CountActiveByProject reports how many active purchases a project holds.
// Projects with any are archived on delete, never hard-deleted.
func (s *PurchaseStore) CountActiveByProject(projectID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM purchases WHERE project_id = ? AND is_active = 1`,
		projectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active purchases: %w", err)
	}
	return n, nil
}

// Deactivate flips is_active off. Refund handling only; the settlement
// path never calls this.
func (s *PurchaseStore) Deactivate(id int64) error {
	_, err := s.db.Exec(`UPDATE purchases SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate purchase: %w", err)
	}
	return nil
}
