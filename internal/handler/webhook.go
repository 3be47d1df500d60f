package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/dukerupert/marketd/internal/onboarding"
	"github.com/dukerupert/marketd/internal/payment/stripeclient"
	"github.com/dukerupert/marketd/internal/settlement"
	"github.com/dukerupert/marketd/internal/store"
)

type WebhookHandler struct {
	stripeClient *stripeclient.Client
	orchestrator *settlement.Orchestrator
	onboarding   *onboarding.Service
	sellers      *store.SellerAccountStore
	logger       *slog.Logger
}

func NewWebhookHandler(
	sc *stripeclient.Client,
	orchestrator *settlement.Orchestrator,
	ob *onboarding.Service,
	sellers *store.SellerAccountStore,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		stripeClient: sc,
		orchestrator: orchestrator,
		onboarding:   ob,
		sellers:      sellers,
		logger:       logger,
	}
}

// HandleStripeWebhook verifies and dispatches processor events. Handlers
// are idempotent, so Stripe's retries are harmless.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.stripeClient.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentSucceeded(r, event)
	case "payment_intent.payment_failed":
		h.handlePaymentFailed(r, event)
	case "account.updated":
		h.handleAccountUpdated(r, event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handlePaymentSucceeded(r *http.Request, event stripe.Event) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		h.logger.Error("webhook: unmarshal payment intent", "error", err)
		return
	}

	correlationID := pi.Metadata["correlation_id"]
	if correlationID == "" {
		// Not one of ours.
		return
	}

	_, err := h.orchestrator.Confirm(r.Context(), correlationID)
	switch {
	case err == nil:
	case errors.Is(err, settlement.ErrIntentNotFound):
		h.logger.Warn("webhook: intent unknown locally", "correlation_id", correlationID)
	case errors.Is(err, settlement.ErrDuplicatePurchase):
		// Buyer settled through another intent; nothing to do.
	default:
		h.logger.Error("webhook: confirm payment", "correlation_id", correlationID, "error", err)
	}
}

func (h *WebhookHandler) handlePaymentFailed(r *http.Request, event stripe.Event) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		h.logger.Error("webhook: unmarshal payment intent", "error", err)
		return
	}

	correlationID := pi.Metadata["correlation_id"]
	if correlationID == "" {
		return
	}

	// Confirm re-checks with the processor and marks the intent failed.
	if _, err := h.orchestrator.Confirm(r.Context(), correlationID); err != nil &&
		!errors.Is(err, settlement.ErrPaymentDeclined) &&
		!errors.Is(err, settlement.ErrIntentPending) &&
		!errors.Is(err, settlement.ErrIntentNotFound) {
		h.logger.Error("webhook: record payment failure", "correlation_id", correlationID, "error", err)
	}
}

func (h *WebhookHandler) handleAccountUpdated(r *http.Request, event stripe.Event) {
	var acct stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
		h.logger.Error("webhook: unmarshal account", "error", err)
		return
	}

	seller, err := h.sellers.GetByProcessorAccountID(acct.ID)
	if err != nil {
		h.logger.Error("webhook: look up seller", "error", err)
		return
	}
	if seller == nil {
		return
	}

	if _, err := h.onboarding.RefreshStatus(r.Context(), seller.UserID); err != nil {
		h.logger.Error("webhook: refresh seller status", "user_id", seller.UserID, "error", err)
	}
}
