// Package payment defines the narrow boundary the engine needs from an
// external payment processor. Implementations are injected; nothing in
// the engine imports a processor SDK directly.
package payment

import "context"

// IntentStatus is the engine's view of a processor-side payment intent.
type IntentStatus string

const (
	// IntentStatusPending covers every processor state where the buyer
	// has not finished paying (requires confirmation, processing, ...).
	IntentStatusPending IntentStatus = "pending"
	// IntentStatusSucceeded means the charge completed.
	IntentStatusSucceeded IntentStatus = "succeeded"
	// IntentStatusFailed means the charge was declined or the intent
	// canceled; the buyer must start a new checkout.
	IntentStatusFailed IntentStatus = "failed"
)

// Intent is the processor's handle for a created payment intent.
type Intent struct {
	ID           string
	ClientSecret string
}

// AccountStatus reports a Connect account's capability flags.
type AccountStatus struct {
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
}

// Processor is the payment-side collaborator. Amounts are minor currency
// units. Metadata rides along to the processor and comes back on webhooks.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)
	GetPaymentIntentStatus(ctx context.Context, intentID string) (IntentStatus, error)
	CreateConnectAccount(ctx context.Context, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID string) (string, error)
	GetConnectAccountStatus(ctx context.Context, accountID string) (AccountStatus, error)
}
