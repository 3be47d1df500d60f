package access

import (
	"testing"

	"github.com/dukerupert/marketd/internal/model"
)

func project(licType string) *model.Project {
	return &model.Project{
		ID:       7,
		AuthorID: 1,
		Status:   model.StatusPublished,
		License:  model.License{Type: licType, SellerPriceCents: 2500, FeePct: 20},
		Repository: model.Repository{
			FreeURL: "https://github.com/acme/widget-lite",
			PaidURL: "https://github.com/acme/widget",
		},
	}
}

func activePurchase(buyerID int64) *model.Purchase {
	return &model.Purchase{ProjectID: 7, BuyerID: buyerID, PricePaidCents: 3000, IsActive: true}
}

func TestResolveUnauthenticated(t *testing.T) {
	d := Resolve(0, project(model.LicenseFree), nil)
	if d.Granted {
		t.Error("unauthenticated principal should be denied")
	}
}

func TestResolveFree(t *testing.T) {
	d := Resolve(2, project(model.LicenseFree), nil)
	if !d.Granted || d.URL != TierFree {
		t.Errorf("decision = %+v, want free grant", d)
	}
}

func TestResolvePaidWithoutPurchase(t *testing.T) {
	d := Resolve(2, project(model.LicensePaid), nil)
	if d.Granted {
		t.Errorf("decision = %+v, want denied", d)
	}
}

func TestResolvePaidWithPurchase(t *testing.T) {
	d := Resolve(2, project(model.LicensePaid), activePurchase(2))
	if !d.Granted || d.URL != TierPaid {
		t.Errorf("decision = %+v, want paid grant", d)
	}
}

func TestResolvePaidInactivePurchase(t *testing.T) {
	p := activePurchase(2)
	p.IsActive = false
	d := Resolve(2, project(model.LicensePaid), p)
	if d.Granted {
		t.Errorf("decision = %+v, want denied for inactive purchase", d)
	}
}

func TestResolvePaidForeignPurchase(t *testing.T) {
	// A purchase held by someone else never grants access.
	d := Resolve(2, project(model.LicensePaid), activePurchase(3))
	if d.Granted {
		t.Errorf("decision = %+v, want denied", d)
	}
}

func TestResolveFreemium(t *testing.T) {
	p := project(model.LicenseFreemium)

	d := Resolve(2, p, nil)
	if !d.Granted || d.URL != TierFree {
		t.Errorf("no purchase: decision = %+v, want free grant", d)
	}

	d = Resolve(2, p, activePurchase(2))
	if !d.Granted || d.URL != TierPaid {
		t.Errorf("with purchase: decision = %+v, want paid grant", d)
	}
}

func TestResolveAuthorSelfAccess(t *testing.T) {
	for _, typ := range []string{model.LicenseFree, model.LicensePaid, model.LicenseFreemium} {
		d := Resolve(1, project(typ), nil)
		if !d.Granted || d.URL != TierPaid {
			t.Errorf("%s: author decision = %+v, want paid grant", typ, d)
		}
	}
}

func TestResolveStable(t *testing.T) {
	// Once granted with a purchase present, repeated calls keep granting.
	p := project(model.LicensePaid)
	pur := activePurchase(2)
	for i := 0; i < 5; i++ {
		if d := Resolve(2, p, pur); !d.Granted {
			t.Fatalf("call %d: access flapped to denied", i)
		}
	}
}

func TestGrantedURL(t *testing.T) {
	p := project(model.LicenseFreemium)

	if got := GrantedURL(Decision{}, p); got != "" {
		t.Errorf("denied decision url = %q, want empty", got)
	}
	if got := GrantedURL(Decision{Granted: true, URL: TierFree}, p); got != p.Repository.FreeURL {
		t.Errorf("free url = %q, want %q", got, p.Repository.FreeURL)
	}
	if got := GrantedURL(Decision{Granted: true, URL: TierPaid}, p); got != p.Repository.PaidURL {
		t.Errorf("paid url = %q, want %q", got, p.Repository.PaidURL)
	}
}
