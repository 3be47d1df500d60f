// Package license validates a project's monetization terms against the
// seller's payment-account state.
package license

import (
	"errors"

	"github.com/dukerupert/marketd/internal/model"
	"github.com/dukerupert/marketd/internal/pricing"
)

var (
	ErrLicenseIncomplete = errors.New("license: incomplete for publication")
	ErrSellerNotPayable  = errors.New("license: seller cannot accept charges")
	ErrUnknownType       = errors.New("license: unknown license type")
)

// Paid reports whether the license type can take money.
func Paid(typ string) bool {
	return typ == model.LicensePaid || typ == model.LicenseFreemium
}

// Validate checks a license for internal consistency. When publishing is
// true the stricter publish-time rules apply: paid listings need a
// positive price and a charge-enabled seller account, freemium listings
// additionally need both feature lists. Drafts only have to be
// self-consistent.
//
// Validation never coerces: a negative price is rejected, not clamped.
func Validate(lic model.License, acct *model.SellerAccount, publishing bool) error {
	if lic.SellerPriceCents < 0 {
		return pricing.ErrInvalidPrice
	}

	switch lic.Type {
	case model.LicenseFree:
		if lic.SellerPriceCents != 0 {
			return pricing.ErrInvalidPrice
		}
		return nil
	case model.LicensePaid:
		if !publishing {
			return nil
		}
		return validatePayable(lic, acct)
	case model.LicenseFreemium:
		if !publishing {
			return nil
		}
		if len(lic.FreeFeatures) == 0 || len(lic.PaidFeatures) == 0 {
			return ErrLicenseIncomplete
		}
		return validatePayable(lic, acct)
	default:
		return ErrUnknownType
	}
}

func validatePayable(lic model.License, acct *model.SellerAccount) error {
	if lic.SellerPriceCents == 0 {
		return ErrLicenseIncomplete
	}
	if acct == nil || !acct.ChargesEnabled {
		return ErrSellerNotPayable
	}
	return nil
}
