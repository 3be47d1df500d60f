package project

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukerupert/marketd/internal/database"
	"github.com/dukerupert/marketd/internal/license"
	"github.com/dukerupert/marketd/internal/model"
	"github.com/dukerupert/marketd/internal/pricing"
	"github.com/dukerupert/marketd/internal/store"
)

type fixture struct {
	svc       *Service
	sellers   *store.SellerAccountStore
	intents   *store.IntentStore
	purchases *store.PurchaseStore
	author    *model.User
	other     *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	projects := store.NewProjectStore(db)
	purchases := store.NewPurchaseStore(db)
	intents := store.NewIntentStore(db)
	sellers := store.NewSellerAccountStore(db)

	author, err := users.Create("author@example.com", "Author", "password-one")
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	other, err := users.Create("other@example.com", "Other", "password-two")
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	svc := New(projects, purchases, sellers, nil, slog.New(slog.DiscardHandler))
	return &fixture{svc: svc, sellers: sellers, intents: intents, purchases: purchases, author: author, other: other}
}

func paidDraft(t *testing.T, f *fixture) *model.Project {
	t.Helper()
	p, err := f.svc.SaveDraft(f.author.ID, &model.Project{
		Title: "CLI Toolkit",
		License: model.License{
			Type:             model.LicensePaid,
			SellerPriceCents: 2500,
			Currency:         "usd",
		},
		Repository: model.Repository{PaidURL: "https://github.com/acme/toolkit"},
	})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	return p
}

func enableCharges(t *testing.T, f *fixture) {
	t.Helper()
	if _, err := f.sellers.Upsert(f.author.ID, "acct_1"); err != nil {
		t.Fatalf("upsert seller account: %v", err)
	}
	if _, err := f.sellers.UpdateFlags(f.author.ID, true, true, false); err != nil {
		t.Fatalf("enable charges: %v", err)
	}
}

func TestSaveDraftAllowsIncompleteLicense(t *testing.T) {
	f := setup(t)

	// A paid draft with no price yet is fine; publish will enforce it.
	p, err := f.svc.SaveDraft(f.author.ID, &model.Project{
		Title:   "WIP",
		License: model.License{Type: model.LicensePaid},
	})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if p.Status != model.StatusDraft {
		t.Errorf("status = %q, want draft", p.Status)
	}
}

func TestSaveDraftRejectsNegativePrice(t *testing.T) {
	f := setup(t)

	_, err := f.svc.SaveDraft(f.author.ID, &model.Project{
		Title:   "Bad",
		License: model.License{Type: model.LicensePaid, SellerPriceCents: -500},
	})
	if !errors.Is(err, pricing.ErrInvalidPrice) {
		t.Errorf("err = %v, want ErrInvalidPrice", err)
	}
}

func TestPublishGatedOnChargesEnabled(t *testing.T) {
	f := setup(t)
	p := paidDraft(t, f)

	_, err := f.svc.Publish(context.Background(), f.author.ID, p.ID)
	if !errors.Is(err, license.ErrSellerNotPayable) {
		t.Fatalf("publish without charges: err = %v, want ErrSellerNotPayable", err)
	}

	enableCharges(t, f)
	published, err := f.svc.Publish(context.Background(), f.author.ID, p.ID)
	if err != nil {
		t.Fatalf("publish with charges enabled: %v", err)
	}
	if published.Status != model.StatusPublished {
		t.Errorf("status = %q, want published", published.Status)
	}
	if published.PublishedAt == nil {
		t.Error("published_at not stamped")
	}
}

func TestPublishIdempotent(t *testing.T) {
	f := setup(t)
	p := paidDraft(t, f)
	enableCharges(t, f)

	first, err := f.svc.Publish(context.Background(), f.author.ID, p.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	second, err := f.svc.Publish(context.Background(), f.author.ID, p.ID)
	if err != nil {
		t.Fatalf("re-publish: %v", err)
	}
	if !second.PublishedAt.Equal(*first.PublishedAt) {
		t.Error("re-publish moved the publish timestamp")
	}
}

func TestPublishFreemiumNeedsFeatureLists(t *testing.T) {
	f := setup(t)
	enableCharges(t, f)

	p, err := f.svc.SaveDraft(f.author.ID, &model.Project{
		Title: "Freemium",
		License: model.License{
			Type:             model.LicenseFreemium,
			SellerPriceCents: 1000,
		},
	})
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}

	_, err = f.svc.Publish(context.Background(), f.author.ID, p.ID)
	if !errors.Is(err, license.ErrLicenseIncomplete) {
		t.Errorf("err = %v, want ErrLicenseIncomplete", err)
	}
}

func TestMutationsAreAuthorOnly(t *testing.T) {
	f := setup(t)
	p := paidDraft(t, f)

	if _, err := f.svc.Publish(context.Background(), f.other.ID, p.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("publish by non-author: err = %v, want ErrUnauthorized", err)
	}
	if err := f.svc.Delete(f.other.ID, p.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("delete by non-author: err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.svc.Update(f.other.ID, p); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("update by non-author: err = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteOnlyFromDraft(t *testing.T) {
	f := setup(t)
	p := paidDraft(t, f)
	enableCharges(t, f)

	if err := f.svc.Delete(f.author.ID, p.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}

	p2 := paidDraft(t, f)
	if _, err := f.svc.Publish(context.Background(), f.author.ID, p2.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := f.svc.Delete(f.author.ID, p2.ID); !errors.Is(err, ErrProjectNotDraftable) {
		t.Errorf("delete published: err = %v, want ErrProjectNotDraftable", err)
	}
}

type denyVerifier struct{}

func (denyVerifier) VerifyOwnership(context.Context, string, int64) (bool, error) {
	return false, nil
}

func TestPublishRequiresRepoOwnership(t *testing.T) {
	f := setup(t)
	p := paidDraft(t, f)
	enableCharges(t, f)

	f.svc.verifier = denyVerifier{}
	if _, err := f.svc.Publish(context.Background(), f.author.ID, p.ID); !errors.Is(err, ErrRepoUnverified) {
		t.Errorf("err = %v, want ErrRepoUnverified", err)
	}
}

func TestForceDeleteRefusesWithActivePurchases(t *testing.T) {
	f := setup(t)
	p := paidDraft(t, f)
	enableCharges(t, f)
	if _, err := f.svc.Publish(context.Background(), f.author.ID, p.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	in, err := f.intents.Create(&model.PaymentIntent{
		CorrelationID: "corr-1",
		ProjectID:     p.ID,
		BuyerID:       f.other.ID,
		AmountCents:   3000,
		Currency:      "usd",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if _, err := f.purchases.Settle(in); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if err := f.svc.ForceDelete(p.ID); !errors.Is(err, ErrProjectNotDraftable) {
		t.Errorf("force delete with purchases: err = %v, want ErrProjectNotDraftable", err)
	}

	// Archiving is the supported way off the market.
	if err := f.svc.Archive(f.author.ID, p.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	got, _ := f.svc.Get(p.ID)
	if got.Status != model.StatusArchived {
		t.Errorf("status = %q, want archived", got.Status)
	}
}
