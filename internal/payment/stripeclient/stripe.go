// Package stripeclient implements the payment.Processor boundary on
// Stripe PaymentIntents and Connect Express accounts.
package stripeclient

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/account"
	"github.com/stripe/stripe-go/v82/accountlink"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/dukerupert/marketd/internal/payment"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	// Onboarding redirect targets for Connect account links.
	OnboardingReturnURL  string
	OnboardingRefreshURL string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// CreatePaymentIntent creates a Stripe payment intent for the given amount.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (payment.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return payment.Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return payment.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// GetPaymentIntentStatus fetches the intent and maps Stripe's state machine
// onto the engine's three statuses.
func (c *Client) GetPaymentIntentStatus(ctx context.Context, intentID string) (payment.IntentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return "", fmt.Errorf("get payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return payment.IntentStatusSucceeded, nil
	case stripe.PaymentIntentStatusCanceled:
		return payment.IntentStatusFailed, nil
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// Back at square one after a decline.
		if pi.LastPaymentError != nil {
			return payment.IntentStatusFailed, nil
		}
		return payment.IntentStatusPending, nil
	default:
		return payment.IntentStatusPending, nil
	}
}

// CreateConnectAccount creates an Express account for a seller and returns
// the account id.
func (c *Client) CreateConnectAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	params.Context = ctx

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("create connect account: %w", err)
	}
	return acct.ID, nil
}

// CreateOnboardingLink returns a fresh onboarding URL for the account.
// Links are single-use; a seller resuming onboarding gets a new one.
func (c *Client) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		ReturnURL:  stripe.String(c.cfg.OnboardingReturnURL),
		RefreshURL: stripe.String(c.cfg.OnboardingRefreshURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := accountlink.New(params)
	if err != nil {
		return "", fmt.Errorf("create onboarding link: %w", err)
	}
	return link.URL, nil
}

// GetConnectAccountStatus reads the account's capability flags.
func (c *Client) GetConnectAccountStatus(ctx context.Context, accountID string) (payment.AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return payment.AccountStatus{}, fmt.Errorf("get connect account: %w", err)
	}
	return payment.AccountStatus{
		DetailsSubmitted: acct.DetailsSubmitted,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}, nil
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}
