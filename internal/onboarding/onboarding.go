// Package onboarding tracks a seller's external payment account from
// creation through charges/payouts enablement. The capability flags are
// written only from explicit processor status reads; nothing here infers
// them.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/marketd/internal/model"
	"github.com/dukerupert/marketd/internal/payment"
	"github.com/dukerupert/marketd/internal/store"
)

var ErrNoAccount = errors.New("onboarding: seller has not started onboarding")

// Notifier receives onboarding status changes. Implementations must not block.
type Notifier interface {
	SellerStatusChanged(userID int64, account *model.SellerAccount)
}

type Service struct {
	users     *store.UserStore
	sellers   *store.SellerAccountStore
	processor payment.Processor
	notifier  Notifier
	logger    *slog.Logger
}

func New(users *store.UserStore, sellers *store.SellerAccountStore, processor payment.Processor, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		users:     users,
		sellers:   sellers,
		processor: processor,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateAccount starts or resumes onboarding for a seller and returns the
// URL to redirect them to. A seller with an incomplete account gets a
// fresh link for the same processor account rather than a second account.
func (s *Service) CreateAccount(ctx context.Context, userID int64) (string, error) {
	acct, err := s.sellers.GetByUserID(userID)
	if err != nil {
		return "", err
	}

	if !acct.HasAccount() {
		user, err := s.users.GetByID(userID)
		if err != nil {
			return "", err
		}
		if user == nil {
			return "", fmt.Errorf("onboarding: unknown user %d", userID)
		}

		accountID, err := s.processor.CreateConnectAccount(ctx, user.Email)
		if err != nil {
			return "", fmt.Errorf("create processor account: %w", err)
		}
		if acct, err = s.sellers.Upsert(userID, accountID); err != nil {
			return "", err
		}
		s.logger.Info("seller onboarding started", "user_id", userID)
	}

	url, err := s.processor.CreateOnboardingLink(ctx, acct.ProcessorAccountID)
	if err != nil {
		return "", fmt.Errorf("create onboarding link: %w", err)
	}
	return url, nil
}

// RefreshStatus pulls the processor's view of the account and stores the
// capability flags. Safe to repeat; the same status twice is a no-op.
// Polling cadence belongs to the caller.
func (s *Service) RefreshStatus(ctx context.Context, userID int64) (*model.SellerAccount, error) {
	acct, err := s.sellers.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if !acct.HasAccount() {
		return nil, ErrNoAccount
	}

	status, err := s.processor.GetConnectAccountStatus(ctx, acct.ProcessorAccountID)
	if err != nil {
		return nil, fmt.Errorf("get account status: %w", err)
	}

	changed := status.DetailsSubmitted != acct.DetailsSubmitted ||
		status.ChargesEnabled != acct.ChargesEnabled ||
		status.PayoutsEnabled != acct.PayoutsEnabled

	updated, err := s.sellers.UpdateFlags(userID, status.DetailsSubmitted, status.ChargesEnabled, status.PayoutsEnabled)
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("seller account status changed",
			"user_id", userID,
			"details_submitted", updated.DetailsSubmitted,
			"charges_enabled", updated.ChargesEnabled,
			"payouts_enabled", updated.PayoutsEnabled)
		if s.notifier != nil {
			s.notifier.SellerStatusChanged(userID, updated)
		}
	}
	return updated, nil
}

// Account returns the locally known account state without touching the
// processor, or nil if onboarding has not started.
func (s *Service) Account(userID int64) (*model.SellerAccount, error) {
	return s.sellers.GetByUserID(userID)
}
