package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/marketd/internal/auth"
	"github.com/dukerupert/marketd/internal/onboarding"
)

type SellerHandler struct {
	svc    *onboarding.Service
	logger *slog.Logger
}

func NewSellerHandler(svc *onboarding.Service, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{svc: svc, logger: logger}
}

type onboardingResponse struct {
	OnboardingURL string `json:"onboarding_url"`
}

// CreateAccount starts or resumes payment onboarding and returns the URL
// to send the seller to.
func (h *SellerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.CreateAccount(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, onboardingResponse{OnboardingURL: url})
}

// RefreshStatus re-reads the processor's account state and returns the
// stored flags. Sellers hit this when returning from the onboarding flow.
func (h *SellerHandler) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	acct, err := h.svc.RefreshStatus(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

// Account returns the locally known onboarding state.
func (h *SellerHandler) Account(w http.ResponseWriter, r *http.Request) {
	acct, err := h.svc.Account(auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if acct == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no_seller_account"})
		return
	}
	writeJSON(w, http.StatusOK, acct)
}
