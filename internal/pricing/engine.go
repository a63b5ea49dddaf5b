// Package pricing computes bundle price breakdowns. It is pure: no I/O, no
// clock, same input always yields the same breakdown.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"kitly/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// Compute derives the price breakdown for a set of bundle products under the
// given discount. Amounts are rounded half-up to cents so fractional cents
// are never given away. A fixed discount larger than the pre-discount total
// is clamped; the final price is never negative.
func Compute(products []domain.BundleProduct, discountType domain.DiscountType, discountValue decimal.Decimal) (domain.PriceBreakdown, error) {
	if err := validate(products, discountType, discountValue); err != nil {
		return domain.PriceBreakdown{}, err
	}

	original := decimal.Zero
	for _, p := range products {
		original = original.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	original = original.Round(2)

	var discount decimal.Decimal
	switch discountType {
	case domain.DiscountPercentage:
		discount = original.Mul(discountValue).Div(oneHundred).Round(2)
	case domain.DiscountFixed:
		discount = discountValue.Round(2)
		if discount.GreaterThan(original) {
			discount = original
		}
	}

	return domain.PriceBreakdown{
		OriginalPrice:  original,
		DiscountAmount: discount,
		FinalPrice:     original.Sub(discount),
	}, nil
}

// Validate checks products and discount without computing a breakdown.
// Used by the orchestrator to reject malformed bundles before persisting.
func Validate(products []domain.BundleProduct, discountType domain.DiscountType, discountValue decimal.Decimal) error {
	return validate(products, discountType, discountValue)
}

func validate(products []domain.BundleProduct, discountType domain.DiscountType, discountValue decimal.Decimal) error {
	if len(products) == 0 {
		return &domain.InvalidBundleError{Reason: "at least one product required"}
	}
	for i, p := range products {
		if p.Price.IsNegative() {
			return &domain.InvalidBundleError{Reason: fmt.Sprintf("product %d: price must not be negative", i)}
		}
		if p.Quantity < 1 {
			return &domain.InvalidBundleError{Reason: fmt.Sprintf("product %d: quantity must be at least 1", i)}
		}
	}
	if !domain.ValidDiscountType(discountType) {
		return &domain.InvalidDiscountError{Reason: fmt.Sprintf("unknown discount type %q", discountType)}
	}
	if discountValue.IsNegative() {
		return &domain.InvalidDiscountError{Reason: "discount value must not be negative"}
	}
	if discountType == domain.DiscountPercentage && discountValue.GreaterThan(oneHundred) {
		return &domain.InvalidDiscountError{Reason: "percentage discount must not exceed 100"}
	}
	return nil
}
