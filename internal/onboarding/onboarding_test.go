package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukerupert/marketd/internal/database"
	"github.com/dukerupert/marketd/internal/model"
	"github.com/dukerupert/marketd/internal/payment"
	"github.com/dukerupert/marketd/internal/store"
)

type fakeConnect struct {
	accounts int
	status   payment.AccountStatus
	links    int
}

func (f *fakeConnect) CreatePaymentIntent(context.Context, int64, string, map[string]string) (payment.Intent, error) {
	return payment.Intent{}, nil
}

func (f *fakeConnect) GetPaymentIntentStatus(context.Context, string) (payment.IntentStatus, error) {
	return payment.IntentStatusPending, nil
}

func (f *fakeConnect) CreateConnectAccount(_ context.Context, email string) (string, error) {
	f.accounts++
	return "acct_fake", nil
}

func (f *fakeConnect) CreateOnboardingLink(context.Context, string) (string, error) {
	f.links++
	return "https://connect.example/onboard", nil
}

func (f *fakeConnect) GetConnectAccountStatus(context.Context, string) (payment.AccountStatus, error) {
	return f.status, nil
}

type statusRecorder struct {
	changes int
}

func (r *statusRecorder) SellerStatusChanged(int64, *model.SellerAccount) { r.changes++ }

func setup(t *testing.T) (*Service, *fakeConnect, *statusRecorder, *model.User) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	sellers := store.NewSellerAccountStore(db)
	seller, err := users.Create("seller@example.com", "Seller", "password-one")
	if err != nil {
		t.Fatalf("create seller: %v", err)
	}

	processor := &fakeConnect{}
	recorder := &statusRecorder{}
	svc := New(users, sellers, processor, recorder, slog.New(slog.DiscardHandler))
	return svc, processor, recorder, seller
}

func TestCreateAccountFirstTime(t *testing.T) {
	svc, processor, _, seller := setup(t)

	url, err := svc.CreateAccount(t.Context(), seller.ID)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if url == "" {
		t.Error("missing onboarding url")
	}
	if processor.accounts != 1 {
		t.Errorf("processor accounts = %d, want 1", processor.accounts)
	}

	acct, _ := svc.Account(seller.ID)
	if !acct.HasAccount() {
		t.Error("expected local account row after onboarding start")
	}
	if acct.ChargesEnabled {
		t.Error("charges must not be enabled before processor confirmation")
	}
}

func TestCreateAccountResumes(t *testing.T) {
	svc, processor, _, seller := setup(t)

	if _, err := svc.CreateAccount(t.Context(), seller.ID); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.CreateAccount(t.Context(), seller.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if processor.accounts != 1 {
		t.Errorf("processor accounts = %d, want 1 (resume must not create a second)", processor.accounts)
	}
	if processor.links != 2 {
		t.Errorf("onboarding links = %d, want 2", processor.links)
	}
}

func TestRefreshStatusWithoutAccount(t *testing.T) {
	svc, _, _, seller := setup(t)

	if _, err := svc.RefreshStatus(t.Context(), seller.ID); !errors.Is(err, ErrNoAccount) {
		t.Errorf("err = %v, want ErrNoAccount", err)
	}
}

func TestRefreshStatusProgression(t *testing.T) {
	svc, processor, recorder, seller := setup(t)
	svc.CreateAccount(t.Context(), seller.ID)

	// Details submitted, charges not yet enabled.
	processor.status = payment.AccountStatus{DetailsSubmitted: true}
	acct, err := svc.RefreshStatus(t.Context(), seller.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !acct.DetailsSubmitted || acct.ChargesEnabled {
		t.Errorf("flags = %+v", acct)
	}

	// Fully enabled.
	processor.status = payment.AccountStatus{DetailsSubmitted: true, ChargesEnabled: true, PayoutsEnabled: true}
	acct, err = svc.RefreshStatus(t.Context(), seller.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !acct.ChargesEnabled || !acct.PayoutsEnabled {
		t.Errorf("flags = %+v", acct)
	}
	if recorder.changes != 2 {
		t.Errorf("change notifications = %d, want 2", recorder.changes)
	}
}

func TestRefreshStatusIdempotent(t *testing.T) {
	svc, processor, recorder, seller := setup(t)
	svc.CreateAccount(t.Context(), seller.ID)

	processor.status = payment.AccountStatus{DetailsSubmitted: true, ChargesEnabled: true}
	if _, err := svc.RefreshStatus(t.Context(), seller.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := svc.RefreshStatus(t.Context(), seller.ID); err != nil {
		t.Fatalf("repeat refresh: %v", err)
	}

	if recorder.changes != 1 {
		t.Errorf("change notifications = %d, want 1 (same status twice is a no-op)", recorder.changes)
	}

	acct, _ := svc.Account(seller.ID)
	if !acct.ChargesEnabled {
		t.Error("repeated refresh regressed charges_enabled")
	}
}
