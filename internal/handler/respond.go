package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/marketd/internal/license"
	"github.com/dukerupert/marketd/internal/onboarding"
	"github.com/dukerupert/marketd/internal/pricing"
	"github.com/dukerupert/marketd/internal/project"
	"github.com/dukerupert/marketd/internal/settlement"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// errorKind maps an engine error to its wire code and HTTP status.
func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, pricing.ErrInvalidPrice):
		return "invalid_price", http.StatusUnprocessableEntity
	case errors.Is(err, license.ErrLicenseIncomplete):
		return "license_incomplete", http.StatusUnprocessableEntity
	case errors.Is(err, license.ErrUnknownType):
		return "license_incomplete", http.StatusUnprocessableEntity
	case errors.Is(err, license.ErrSellerNotPayable):
		return "seller_not_payable", http.StatusConflict
	case errors.Is(err, settlement.ErrDuplicatePurchase):
		return "duplicate_purchase", http.StatusConflict
	case errors.Is(err, settlement.ErrIntentNotFound):
		return "intent_not_found", http.StatusNotFound
	case errors.Is(err, settlement.ErrIntentPending):
		return "payment_pending", http.StatusConflict
	case errors.Is(err, settlement.ErrPaymentDeclined):
		return "payment_declined", http.StatusPaymentRequired
	case errors.Is(err, settlement.ErrOwnProject):
		return "own_project", http.StatusConflict
	case errors.Is(err, settlement.ErrProjectNotPurchasable):
		return "project_not_purchasable", http.StatusConflict
	case errors.Is(err, settlement.ErrProjectNotFound), errors.Is(err, project.ErrNotFound):
		return "project_not_found", http.StatusNotFound
	case errors.Is(err, project.ErrProjectNotDraftable):
		return "project_not_draftable", http.StatusConflict
	case errors.Is(err, project.ErrUnauthorized):
		return "unauthorized", http.StatusForbidden
	case errors.Is(err, onboarding.ErrNoAccount):
		return "no_seller_account", http.StatusNotFound
	case errors.Is(err, project.ErrRepoUnverified):
		return "repository_unverified", http.StatusUnprocessableEntity
	default:
		return "internal", http.StatusInternalServerError
	}
}

// writeEngineError renders an engine error. Unexpected errors are logged
// and hidden behind a generic 500.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code, status := errorKind(err)
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "error", err)
	}
	writeJSON(w, status, errorBody{Error: code})
}
