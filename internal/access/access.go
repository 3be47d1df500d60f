// Package access answers whether a principal may view a project's gated
// repository content. It is pure: it reads the project, the principal id,
// and an optional purchase, and never touches storage.
package access

import "github.com/dukerupert/marketd/internal/model"

// URL tiers a decision can grant.
const (
	TierFree = "free"
	TierPaid = "paid"
)

// Decision is the outcome of an access check. URL names the tier granted,
// not the repository URL itself; callers map it to the project's
// repository reference.
type Decision struct {
	Granted bool   `json:"granted"`
	URL     string `json:"granted_url,omitempty"`
}

// Resolve decides access for principalID on project given the buyer's
// active purchase, if any. principalID 0 means unauthenticated. purchase
// may be nil; an inactive purchase grants nothing.
func Resolve(principalID int64, project *model.Project, purchase *model.Purchase) Decision {
	if principalID == 0 {
		return Decision{}
	}
	if principalID == project.AuthorID {
		// Authors always see their own paid content.
		return Decision{Granted: true, URL: TierPaid}
	}

	owned := purchase != nil && purchase.IsActive &&
		purchase.ProjectID == project.ID && purchase.BuyerID == principalID

	switch project.License.Type {
	case model.LicenseFree:
		return Decision{Granted: true, URL: TierFree}
	case model.LicensePaid:
		if owned {
			return Decision{Granted: true, URL: TierPaid}
		}
		return Decision{}
	case model.LicenseFreemium:
		if owned {
			return Decision{Granted: true, URL: TierPaid}
		}
		return Decision{Granted: true, URL: TierFree}
	default:
		return Decision{}
	}
}

// GrantedURL maps a decision to the concrete repository URL, or "" when
// access is denied or the project has no URL at that tier.
func GrantedURL(d Decision, project *model.Project) string {
	if !d.Granted {
		return ""
	}
	if d.URL == TierPaid {
		return project.Repository.PaidURL
	}
	return project.Repository.FreeURL
}
