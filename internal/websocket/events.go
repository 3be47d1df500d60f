package websocket

import "github.com/dukerupert/marketd/internal/model"

// Events adapts the hub to the notifier interfaces the engine services
// accept. Delivery is fire-and-forget.
type Events struct {
	hub *Hub
}

func NewEvents(hub *Hub) *Events {
	return &Events{hub: hub}
}

// PurchaseSettled tells the buyer their payment settled and access is live.
func (e *Events) PurchaseSettled(buyerID int64, purchase *model.Purchase) {
	e.hub.Send(buyerID, NewMessage("purchase", "settled", purchase.ID, map[string]any{
		"project_id":       purchase.ProjectID,
		"price_paid_cents": purchase.PricePaidCents,
		"currency":         purchase.Currency,
	}))
}

// SellerStatusChanged tells the seller their onboarding flags moved.
func (e *Events) SellerStatusChanged(userID int64, account *model.SellerAccount) {
	e.hub.Send(userID, NewMessage("seller_account", "updated", account.ID, map[string]any{
		"details_submitted": account.DetailsSubmitted,
		"charges_enabled":   account.ChargesEnabled,
		"payouts_enabled":   account.PayoutsEnabled,
	}))
}
