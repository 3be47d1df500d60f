package model

import "time"

// Project status values.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// License types.
const (
	LicenseFree     = "free"
	LicensePaid     = "paid"
	LicenseFreemium = "freemium"
)

// License holds a project's monetization terms. It is embedded in the
// project row; historical purchases carry their own copy of the price.
type License struct {
	Type             string   `json:"type"`
	SellerPriceCents int64    `json:"seller_price_cents"`
	Currency         string   `json:"currency"`
	FeePct           int64    `json:"fee_pct"`
	FreeFeatures     []string `json:"free_features"`
	PaidFeatures     []string `json:"paid_features"`
}

// Repository points at the gated content. The engine treats both URLs as
// opaque strings; the free URL may be empty for paid-only projects.
type Repository struct {
	FreeURL string `json:"free_url,omitempty"`
	PaidURL string `json:"paid_url,omitempty"`
}

type Project struct {
	ID          int64      `json:"id"`
	AuthorID    int64      `json:"author_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	License     License    `json:"license"`
	Repository  Repository `json:"repository"`
	DemoURL     string     `json:"demo_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
