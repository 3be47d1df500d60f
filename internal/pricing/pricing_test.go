package pricing

import (
	"errors"
	"testing"
)

func TestComputeBreakdownWorkedExample(t *testing.T) {
	// $25.00 ask at 20% -> $5.00 fee, $30 total, seller keeps $25.00
	b, err := ComputeBreakdown(2500, 20)
	if err != nil {
		t.Fatalf("compute breakdown: %v", err)
	}
	if b.MarketplaceFeeCents != 500 {
		t.Errorf("fee = %d, want 500", b.MarketplaceFeeCents)
	}
	if b.CustomerTotalCents != 3000 {
		t.Errorf("customer total = %d, want 3000", b.CustomerTotalCents)
	}
	if b.SellerEarningsCents != 2500 {
		t.Errorf("seller earnings = %d, want 2500", b.SellerEarningsCents)
	}
}

func TestComputeBreakdownZeroPrice(t *testing.T) {
	b, err := ComputeBreakdown(0, 20)
	if err != nil {
		t.Fatalf("compute breakdown: %v", err)
	}
	if b.MarketplaceFeeCents != 0 || b.CustomerTotalCents != 0 || b.SellerEarningsCents != 0 {
		t.Errorf("expected all-zero breakdown, got %+v", b)
	}
}

func TestComputeBreakdownNegativePrice(t *testing.T) {
	_, err := ComputeBreakdown(-100, 20)
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("err = %v, want ErrInvalidPrice", err)
	}
}

func TestComputeBreakdownSellerKeepsAsk(t *testing.T) {
	prices := []int64{1, 40, 99, 100, 999, 2500, 12345, 1000000}
	for _, p := range prices {
		b, err := ComputeBreakdown(p, 20)
		if err != nil {
			t.Fatalf("compute breakdown(%d): %v", p, err)
		}
		if b.SellerEarningsCents != p {
			t.Errorf("price %d: earnings = %d, want %d", p, b.SellerEarningsCents, p)
		}
		if b.CustomerTotalCents < p {
			t.Errorf("price %d: customer total %d below seller price", p, b.CustomerTotalCents)
		}
		if b.CustomerTotalCents%CentsPerUnit != 0 {
			t.Errorf("price %d: customer total %d not a whole unit", p, b.CustomerTotalCents)
		}
		if b.CustomerTotalCents < p+b.MarketplaceFeeCents {
			t.Errorf("price %d: total %d undercuts price+fee", p, b.CustomerTotalCents)
		}
	}
}

func TestComputeBreakdownSubUnitAsk(t *testing.T) {
	// $0.40 ask must still bill at least price + fee, so the total rounds
	// up to the next whole unit rather than down to zero.
	b, err := ComputeBreakdown(40, 20)
	if err != nil {
		t.Fatalf("compute breakdown: %v", err)
	}
	if b.MarketplaceFeeCents != 8 {
		t.Errorf("fee = %d, want 8", b.MarketplaceFeeCents)
	}
	if b.CustomerTotalCents != 100 {
		t.Errorf("customer total = %d, want 100", b.CustomerTotalCents)
	}
}

func TestComputeBreakdownDeterministic(t *testing.T) {
	a, _ := ComputeBreakdown(4999, 20)
	b, _ := ComputeBreakdown(4999, 20)
	if a != b {
		t.Errorf("breakdown not reproducible: %+v vs %+v", a, b)
	}
}
