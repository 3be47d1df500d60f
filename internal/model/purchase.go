package model

import "time"

// Payment intent statuses as tracked locally. The processor's own state
// machine is richer; we only care about pending/settled/failed.
const (
	IntentPending   = "pending"
	IntentSucceeded = "succeeded"
	IntentFailed    = "failed"
)

// PaymentIntent is the local correlation record for an in-flight checkout.
// Abandoned intents simply stay pending and are never confirmed.
type PaymentIntent struct {
	ID                int64     `json:"id"`
	CorrelationID     string    `json:"correlation_id"`
	ProcessorIntentID string    `json:"-"`
	ClientSecret      string    `json:"client_secret"`
	ProjectID         int64     `json:"project_id"`
	BuyerID           int64     `json:"buyer_id"`
	AmountCents       int64     `json:"amount_cents"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Purchase is the durable access grant. Financial fields are append-only;
// IsActive flips to false only through refund handling, never by the
// settlement path.
type Purchase struct {
	ID                  int64     `json:"id"`
	ProjectID           int64     `json:"project_id"`
	BuyerID             int64     `json:"buyer_id"`
	IntentCorrelationID string    `json:"intent_correlation_id"`
	PricePaidCents      int64     `json:"price_paid_cents"`
	Currency            string    `json:"currency"`
	PurchasedAt         time.Time `json:"purchased_at"`
	IsActive            bool      `json:"is_active"`
}

// SellerAccount mirrors the external processor's Connect account state.
// The three capability flags are written only from explicit status
// refreshes or webhook events, never inferred.
type SellerAccount struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	ProcessorAccountID string    `json:"-"`
	DetailsSubmitted   bool      `json:"details_submitted"`
	ChargesEnabled     bool      `json:"charges_enabled"`
	PayoutsEnabled     bool      `json:"payouts_enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasAccount reports whether onboarding has been started.
func (a *SellerAccount) HasAccount() bool {
	return a != nil && a.ProcessorAccountID != ""
}
