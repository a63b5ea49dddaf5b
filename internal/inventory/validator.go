// Package inventory checks bundle items against the shop's live catalog
// before a priced bundle can be sold.
package inventory

import (
	"context"
	"errors"
	"io"
	"log"

	"kitly/internal/domain"
	"kitly/internal/platform"
)

// Item is one availability query: a variant and the quantity wanted.
type Item struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Unavailable describes one item that cannot be fulfilled. The validator
// returns every failing item rather than stopping at the first, so callers
// can show the merchant the complete picture.
type Unavailable struct {
	VariantID string `json:"variant_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Reason    string `json:"reason"`
}

type catalog interface {
	GetVariant(ctx context.Context, sess platform.Session, variantID string) (*platform.Variant, error)
}

type Validator struct {
	catalog catalog
	logger  *log.Logger
}

func New(c catalog, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Validator{catalog: c, logger: logger}
}

// ValidateAvailability queries the catalog for every item and returns the
// list of unavailable ones; an empty list means all items can be fulfilled.
// A variant missing from the catalog counts as unavailable; any other
// collaborator failure aborts the check.
func (v *Validator) ValidateAvailability(ctx context.Context, sess platform.Session, items []Item) ([]Unavailable, error) {
	var unavailable []Unavailable
	for _, item := range items {
		variant, err := v.catalog.GetVariant(ctx, sess, item.VariantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				unavailable = append(unavailable, Unavailable{
					VariantID: item.VariantID,
					Requested: item.Quantity,
					Reason:    "variant not found",
				})
				continue
			}
			return nil, err
		}
		switch {
		case !variant.Available:
			unavailable = append(unavailable, Unavailable{
				VariantID: item.VariantID,
				Requested: item.Quantity,
				Available: variant.InventoryQuantity,
				Reason:    "not available for sale",
			})
		case variant.InventoryQuantity < item.Quantity:
			unavailable = append(unavailable, Unavailable{
				VariantID: item.VariantID,
				Requested: item.Quantity,
				Available: variant.InventoryQuantity,
				Reason:    "insufficient stock",
			})
		}
	}
	if len(unavailable) > 0 {
		v.logger.Printf("availability check shop=%s unavailable=%d of %d", sess.Shop, len(unavailable), len(items))
	}
	return unavailable, nil
}
