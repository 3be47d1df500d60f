package store

import (
	"path/filepath"
	"testing"

	"github.com/dukerupert/marketd/internal/database"
	"github.com/dukerupert/marketd/internal/model"
)

// testStores opens an in-memory database and returns all stores bound to it.
type testStores struct {
	users     *UserStore
	sessions  *SessionStore
	projects  *ProjectStore
	purchases *PurchaseStore
	intents   *IntentStore
	sellers   *SellerAccountStore
}

func setupTestDB(t *testing.T) *testStores {
	t.Helper()
	// A file-backed database: with modernc sqlite, each pool connection to
	// ":memory:" gets its own empty database, which breaks queries that run
	// while another connection holds an open transaction.
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &testStores{
		users:     NewUserStore(db),
		sessions:  NewSessionStore(db),
		projects:  NewProjectStore(db),
		purchases: NewPurchaseStore(db),
		intents:   NewIntentStore(db),
		sellers:   NewSellerAccountStore(db),
	}
}

func mustUser(t *testing.T, ts *testStores, email string) *model.User {
	t.Helper()
	u, err := ts.users.Create(email, "Test User", "hunter2-long-enough")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustDraft(t *testing.T, ts *testStores, authorID int64) *model.Project {
	t.Helper()
	p, err := ts.projects.Create(&model.Project{
		AuthorID: authorID,
		Title:    "CLI Toolkit",
		Category: "tools",
		Tags:     []string{"go", "cli"},
		License: model.License{
			Type:             model.LicensePaid,
			SellerPriceCents: 2500,
			Currency:         "usd",
			FeePct:           20,
		},
		Repository: model.Repository{PaidURL: "https://github.com/acme/toolkit"},
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func mustIntent(t *testing.T, ts *testStores, projectID, buyerID int64, correlationID string) *model.PaymentIntent {
	t.Helper()
	in, err := ts.intents.Create(&model.PaymentIntent{
		CorrelationID:     correlationID,
		ProcessorIntentID: "pi_" + correlationID,
		ClientSecret:      "secret_" + correlationID,
		ProjectID:         projectID,
		BuyerID:           buyerID,
		AmountCents:       3000,
		Currency:          "usd",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	return in
}
