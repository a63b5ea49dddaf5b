package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed_amount"
)

type BundleStatus string

const (
	StatusDraft    BundleStatus = "draft"
	StatusActive   BundleStatus = "active"
	StatusArchived BundleStatus = "archived"
)

// Bundle is a merchant-defined set of products sold together under one
// discount rule. Owned by a single shop; PriceRuleID is the handle of the
// platform-side price rule mirroring the discount, when one exists.
type Bundle struct {
	ID            string          `json:"id"`
	Shop          string          `json:"-"`
	Title         string          `json:"title"`
	Products      []BundleProduct `json:"products"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Status        BundleStatus    `json:"status"`
	PriceRuleID   *int64          `json:"-"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// BundleProduct is one line of a bundle. Order within Bundle.Products is
// display order only; it does not affect pricing.
type BundleProduct struct {
	ProductID         string          `json:"product_id"`
	VariantID         string          `json:"variant_id,omitempty"`
	Title             string          `json:"title,omitempty"`
	Image             string          `json:"image,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int             `json:"quantity"`
	InventoryQuantity *int            `json:"inventory_quantity,omitempty"`
}

// PriceBreakdown is derived, never persisted.
type PriceBreakdown struct {
	OriginalPrice  decimal.Decimal `json:"original_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalPrice     decimal.Decimal `json:"final_price"`
}

func ValidDiscountType(t DiscountType) bool {
	return t == DiscountPercentage || t == DiscountFixed
}

func ValidBundleStatus(s BundleStatus) bool {
	return s == StatusDraft || s == StatusActive || s == StatusArchived
}
