package shop

import (
	"context"

	"kitly/internal/domain"
)

type Repository interface {
	Upsert(ctx context.Context, shop domain.Shop) (*domain.Shop, error)
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
	Delete(ctx context.Context, shopDomain string) error
}
