package platform

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// Variant is the catalog snapshot of a purchasable item.
type Variant struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	Available         bool            `json:"available"`
	InventoryQuantity int             `json:"inventory_quantity"`
}

type variantEnvelope struct {
	Variant Variant `json:"variant"`
}

// GetVariant reads a single variant from the shop's catalog.
func (c *Client) GetVariant(ctx context.Context, sess Session, variantID string) (*Variant, error) {
	var env variantEnvelope
	if err := c.do(ctx, sess, "get variant", http.MethodGet, "/variants/"+variantID+".json", nil, &env); err != nil {
		return nil, err
	}
	return &env.Variant, nil
}
