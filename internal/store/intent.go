package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/marketd/internal/model"
)

type IntentStore struct {
	db *sql.DB
}

func NewIntentStore(db *sql.DB) *IntentStore {
	return &IntentStore{db: db}
}

func scanIntent(scanner interface{ Scan(...any) error }) (*model.PaymentIntent, error) {
	var in model.PaymentIntent
	err := scanner.Scan(
		&in.ID, &in.CorrelationID, &in.ProcessorIntentID, &in.ClientSecret,
		&in.ProjectID, &in.BuyerID, &in.AmountCents, &in.Currency, &in.Status,
		&in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

const intentCols = `id, correlation_id, processor_intent_id, client_secret, project_id, buyer_id, amount_cents, currency, status, created_at, updated_at`

func (s *IntentStore) Create(in *model.PaymentIntent) (*model.PaymentIntent, error) {
	result, err := s.db.Exec(
		`INSERT INTO payment_intents (correlation_id, processor_intent_id, client_secret, project_id, buyer_id, amount_cents, currency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.CorrelationID, in.ProcessorIntentID, in.ClientSecret,
		in.ProjectID, in.BuyerID, in.AmountCents, in.Currency,
	)
	if err != nil {
		return nil, fmt.Errorf("insert intent: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+intentCols+` FROM payment_intents WHERE id = ?`, id)
	return scanIntent(row)
}

func (s *IntentStore) GetByCorrelationID(correlationID string) (*model.PaymentIntent, error) {
	row := s.db.QueryRow(
		`SELECT `+intentCols+` FROM payment_intents WHERE correlation_id = ?`,
		correlationID,
	)
	in, err := scanIntent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get intent by correlation id: %w", err)
	}
	return in, nil
}

// GetPendingByPair returns the newest pending intent for (project, buyer),
// so a repeated checkout start reuses it instead of minting another.
func (s *IntentStore) GetPendingByPair(projectID, buyerID int64) (*model.PaymentIntent, error) {
	row := s.db.QueryRow(
		`SELECT `+intentCols+` FROM payment_intents
		 WHERE project_id = ? AND buyer_id = ? AND status = ?
		 ORDER BY created_at DESC LIMIT 1`,
		projectID, buyerID, model.IntentPending,
	)
	in, err := scanIntent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending intent: %w", err)
	}
	return in, nil
}

func (s *IntentStore) SetStatus(id int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE payment_intents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set intent status: %w", err)
	}
	return nil
}
