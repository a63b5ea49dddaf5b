package bundle

import (
	"context"

	"github.com/shopspring/decimal"

	"kitly/internal/domain"
)

type CreateInput struct {
	Shop          string
	Title         string
	Products      []domain.BundleProduct
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
}

// UpdateInput mutates a bundle's editable fields. Version must match the
// stored row; a mismatch means a concurrent writer got there first.
type UpdateInput struct {
	Version       int
	Title         string
	Products      []domain.BundleProduct
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*domain.Bundle, error)
	GetByID(ctx context.Context, shop, id string) (*domain.Bundle, error)
	ListByShop(ctx context.Context, shop string) ([]domain.Bundle, error)
	ListActiveByShop(ctx context.Context, shop string) ([]domain.Bundle, error)
	Update(ctx context.Context, shop, id string, in UpdateInput) (*domain.Bundle, error)
	SetStatus(ctx context.Context, shop, id string, status domain.BundleStatus) (*domain.Bundle, error)
	SetPriceRuleID(ctx context.Context, shop, id string, ruleID *int64) error
	Delete(ctx context.Context, shop, id string) error
	DeleteByShop(ctx context.Context, shop string) (int64, error)
}
