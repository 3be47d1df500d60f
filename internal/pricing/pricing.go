// Package pricing converts a seller's asking price into the customer-facing
// price under the fixed marketplace fee. The fee is additive: the buyer
// pays the surcharge and the seller keeps the full ask.
package pricing

import "errors"

// DefaultFeePct is the marketplace surcharge applied on top of the
// seller's asking price.
const DefaultFeePct = 20

// CentsPerUnit is the number of minor units in one whole currency unit.
const CentsPerUnit = 100

var ErrInvalidPrice = errors.New("pricing: seller price must be non-negative")

// Breakdown is the full price decomposition for a listing. All amounts
// are in minor currency units (cents).
type Breakdown struct {
	SellerPriceCents    int64 `json:"seller_price_cents"`
	MarketplaceFeeCents int64 `json:"marketplace_fee_cents"`
	CustomerTotalCents  int64 `json:"customer_total_cents"`
	SellerEarningsCents int64 `json:"seller_earnings_cents"`
	FeePct              int64 `json:"fee_pct"`
}

// ComputeBreakdown derives the marketplace fee, customer total, and seller
// earnings from an asking price. It is deterministic: a recorded purchase
// amount can always be audited by recomputation.
//
// The fee rounds half-up to the nearest cent. The customer total rounds up
// to a whole currency unit so the billed amount never undercuts
// price + fee.
func ComputeBreakdown(sellerPriceCents, feePct int64) (Breakdown, error) {
	if sellerPriceCents < 0 {
		return Breakdown{}, ErrInvalidPrice
	}
	if sellerPriceCents == 0 {
		return Breakdown{FeePct: feePct}, nil
	}

	fee := (sellerPriceCents*feePct + 50) / 100
	exact := sellerPriceCents + fee
	total := ceilToUnit(exact)

	return Breakdown{
		SellerPriceCents:    sellerPriceCents,
		MarketplaceFeeCents: fee,
		CustomerTotalCents:  total,
		SellerEarningsCents: sellerPriceCents,
		FeePct:              feePct,
	}, nil
}

func ceilToUnit(cents int64) int64 {
	return (cents + CentsPerUnit - 1) / CentsPerUnit * CentsPerUnit
}
