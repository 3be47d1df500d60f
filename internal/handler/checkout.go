package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/marketd/internal/auth"
	"github.com/dukerupert/marketd/internal/model"
	"github.com/dukerupert/marketd/internal/pricing"
	"github.com/dukerupert/marketd/internal/settlement"
	"github.com/dukerupert/marketd/internal/store"
)

type CheckoutHandler struct {
	orchestrator *settlement.Orchestrator
	purchases    *store.PurchaseStore
	logger       *slog.Logger
}

func NewCheckoutHandler(orchestrator *settlement.Orchestrator, purchases *store.PurchaseStore, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator, purchases: purchases, logger: logger}
}

type previewRequest struct {
	SellerPriceCents int64 `json:"seller_price_cents"`
	FeePct           int64 `json:"fee_pct"`
}

// PricingPreview computes the customer-facing breakdown for an arbitrary
// asking price, so sellers can see fees before saving a license.
func (h *CheckoutHandler) PricingPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}
	if req.FeePct == 0 {
		req.FeePct = pricing.DefaultFeePct
	}

	b, err := pricing.ComputeBreakdown(req.SellerPriceCents, req.FeePct)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type intentRequest struct {
	ProjectID int64 `json:"project_id"`
}

// CreateIntent begins checkout for the authenticated buyer.
func (h *CheckoutHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	intent, err := h.orchestrator.CreateIntent(r.Context(), auth.UserID(r.Context()), req.ProjectID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}

type confirmRequest struct {
	CorrelationID string `json:"correlation_id"`
}

// Confirm settles a payment intent after the buyer completes payment.
// Safe to call again; a settled intent returns its purchase unchanged.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CorrelationID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	purchase, err := h.orchestrator.Confirm(r.Context(), req.CorrelationID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

// Purchases lists the authenticated buyer's purchase history, newest first.
func (h *CheckoutHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.ListByBuyer(auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if purchases == nil {
		purchases = []*model.Purchase{}
	}
	writeJSON(w, http.StatusOK, purchases)
}
