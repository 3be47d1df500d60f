// Package settlement orchestrates checkout: it turns a buyer's purchase
// request into a processor payment intent, and a confirmed payment into
// exactly one durable purchase record.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/marketd/internal/model"
	"github.com/dukerupert/marketd/internal/payment"
	"github.com/dukerupert/marketd/internal/pricing"
	"github.com/dukerupert/marketd/internal/store"
)

var (
	ErrProjectNotFound       = errors.New("settlement: project not found")
	ErrProjectNotPurchasable = errors.New("settlement: project is not purchasable")
	ErrOwnProject            = errors.New("settlement: authors cannot purchase their own project")
	ErrDuplicatePurchase     = errors.New("settlement: buyer already owns this project")
	ErrIntentNotFound        = errors.New("settlement: unknown payment intent")
	ErrIntentPending         = errors.New("settlement: payment not completed yet")
	ErrPaymentDeclined       = errors.New("settlement: payment declined")
)

// Notifier receives settlement events. Implementations must not block.
type Notifier interface {
	PurchaseSettled(buyerID int64, purchase *model.Purchase)
}

type Orchestrator struct {
	projects  *store.ProjectStore
	intents   *store.IntentStore
	purchases *store.PurchaseStore
	processor payment.Processor
	notifier  Notifier
	logger    *slog.Logger
}

func New(projects *store.ProjectStore, intents *store.IntentStore, purchases *store.PurchaseStore, processor payment.Processor, notifier Notifier, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		projects:  projects,
		intents:   intents,
		purchases: purchases,
		processor: processor,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateIntent begins checkout for (buyer, project). The amount is locked
// from the project's current license at this moment; later price edits do
// not move it. If the buyer already has a pending intent for the pair it
// is returned instead of minting a second one.
func (o *Orchestrator) CreateIntent(ctx context.Context, buyerID, projectID int64) (*model.PaymentIntent, error) {
	project, err := o.projects.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	if project.Status != model.StatusPublished {
		return nil, ErrProjectNotPurchasable
	}
	if project.License.Type == model.LicenseFree {
		return nil, ErrProjectNotPurchasable
	}
	if project.AuthorID == buyerID {
		return nil, ErrOwnProject
	}

	existing, err := o.purchases.GetActive(projectID, buyerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicatePurchase
	}

	if pending, err := o.intents.GetPendingByPair(projectID, buyerID); err != nil {
		return nil, err
	} else if pending != nil {
		return pending, nil
	}

	breakdown, err := pricing.ComputeBreakdown(project.License.SellerPriceCents, project.License.FeePct)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.NewString()
	pi, err := o.processor.CreatePaymentIntent(ctx, breakdown.CustomerTotalCents, project.License.Currency, map[string]string{
		"correlation_id": correlationID,
		"project_id":     fmt.Sprint(projectID),
		"buyer_id":       fmt.Sprint(buyerID),
	})
	if err != nil {
		return nil, fmt.Errorf("processor intent: %w", err)
	}

	intent, err := o.intents.Create(&model.PaymentIntent{
		CorrelationID:     correlationID,
		ProcessorIntentID: pi.ID,
		ClientSecret:      pi.ClientSecret,
		ProjectID:         projectID,
		BuyerID:           buyerID,
		AmountCents:       breakdown.CustomerTotalCents,
		Currency:          project.License.Currency,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("payment intent created",
		"correlation_id", correlationID, "project_id", projectID,
		"buyer_id", buyerID, "amount_cents", intent.AmountCents)
	return intent, nil
}

// Confirm settles a checkout. It verifies with the processor that the
// intent actually succeeded, then records the purchase. Confirming an
// already-settled intent returns the existing purchase; access is never
// granted optimistically.
func (o *Orchestrator) Confirm(ctx context.Context, correlationID string) (*model.Purchase, error) {
	intent, err := o.intents.GetByCorrelationID(correlationID)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, ErrIntentNotFound
	}

	switch intent.Status {
	case model.IntentSucceeded:
		// Idempotent replay of a settled confirmation.
		purchase, err := o.purchases.GetByCorrelationID(correlationID)
		if err != nil {
			return nil, err
		}
		if purchase == nil {
			return nil, fmt.Errorf("settled intent %s has no purchase", correlationID)
		}
		return purchase, nil
	case model.IntentFailed:
		return nil, ErrPaymentDeclined
	}

	status, err := o.processor.GetPaymentIntentStatus(ctx, intent.ProcessorIntentID)
	if err != nil {
		return nil, fmt.Errorf("processor status: %w", err)
	}

	switch status {
	case payment.IntentStatusSucceeded:
		return o.settle(intent)
	case payment.IntentStatusFailed:
		if err := o.intents.SetStatus(intent.ID, model.IntentFailed); err != nil {
			o.logger.Error("mark intent failed", "correlation_id", correlationID, "error", err)
		}
		return nil, ErrPaymentDeclined
	default:
		return nil, ErrIntentPending
	}
}

func (o *Orchestrator) settle(intent *model.PaymentIntent) (*model.Purchase, error) {
	purchase, err := o.purchases.Settle(intent)
	if errors.Is(err, store.ErrActivePurchaseExists) {
		// Another intent already won this (buyer, project) pair. This
		// intent can never settle, so retire it.
		if serr := o.intents.SetStatus(intent.ID, model.IntentFailed); serr != nil {
			o.logger.Error("retire superseded intent", "correlation_id", intent.CorrelationID, "error", serr)
		}
		return nil, ErrDuplicatePurchase
	}
	if err != nil {
		return nil, err
	}

	o.logger.Info("purchase settled",
		"purchase_id", purchase.ID, "project_id", purchase.ProjectID,
		"buyer_id", purchase.BuyerID, "price_paid_cents", purchase.PricePaidCents)

	if o.notifier != nil {
		o.notifier.PurchaseSettled(purchase.BuyerID, purchase)
	}
	return purchase, nil
}
