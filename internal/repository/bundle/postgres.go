package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"kitly/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const bundleColumns = `id::text, shop, title, products, discount_type, discount_value::text, status, price_rule_id, version, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Bundle, error) {
	products, err := json.Marshal(in.Products)
	if err != nil {
		return nil, fmt.Errorf("bundle repo: encode products: %w", err)
	}
	const q = `
INSERT INTO bundles (shop, title, products, discount_type, discount_value, status, version)
VALUES ($1, $2, $3, $4, $5::numeric, 'draft', 1)
RETURNING ` + bundleColumns + `
`
	row := r.pool.QueryRow(ctx, q, in.Shop, in.Title, products, string(in.DiscountType), in.DiscountValue.String())
	b, err := scanBundle(row)
	if err != nil {
		r.logger.Printf("bundle repo: create shop=%s error=%v", in.Shop, err)
		return nil, err
	}
	r.logger.Printf("bundle repo: created shop=%s id=%s", b.Shop, b.ID)
	return b, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, shop, id string) (*domain.Bundle, error) {
	const q = `
SELECT ` + bundleColumns + `
FROM bundles
WHERE shop = $1 AND id = $2
`
	b, err := scanBundle(r.pool.QueryRow(ctx, q, shop, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *postgresRepo) ListByShop(ctx context.Context, shop string) ([]domain.Bundle, error) {
	const q = `
SELECT ` + bundleColumns + `
FROM bundles
WHERE shop = $1
ORDER BY created_at DESC
`
	return r.list(ctx, q, shop)
}

func (r *postgresRepo) ListActiveByShop(ctx context.Context, shop string) ([]domain.Bundle, error) {
	const q = `
SELECT ` + bundleColumns + `
FROM bundles
WHERE shop = $1 AND status = 'active'
ORDER BY created_at DESC
`
	return r.list(ctx, q, shop)
}

func (r *postgresRepo) list(ctx context.Context, q, shop string) ([]domain.Bundle, error) {
	rows, err := r.pool.Query(ctx, q, shop)
	if err != nil {
		r.logger.Printf("bundle repo: list shop=%s error=%v", shop, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update applies the mutation only when the stored version still matches;
// the version bump and the field update are a single atomic statement.
func (r *postgresRepo) Update(ctx context.Context, shop, id string, in UpdateInput) (*domain.Bundle, error) {
	products, err := json.Marshal(in.Products)
	if err != nil {
		return nil, fmt.Errorf("bundle repo: encode products: %w", err)
	}
	const q = `
UPDATE bundles
SET title = $1,
    products = $2,
    discount_type = $3,
    discount_value = $4::numeric,
    version = version + 1,
    updated_at = now()
WHERE shop = $5 AND id = $6 AND version = $7
RETURNING ` + bundleColumns + `
`
	row := r.pool.QueryRow(ctx, q, in.Title, products, string(in.DiscountType), in.DiscountValue.String(), shop, id, in.Version)
	b, err := scanBundle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row absent or version stale; tell the two apart so the
			// caller gets 404 vs 409 right.
			if _, getErr := r.GetByID(ctx, shop, id); getErr == nil {
				return nil, domain.ErrVersionConflict
			}
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("bundle repo: update shop=%s id=%s error=%v", shop, id, err)
		return nil, err
	}
	return b, nil
}

func (r *postgresRepo) SetStatus(ctx context.Context, shop, id string, status domain.BundleStatus) (*domain.Bundle, error) {
	const q = `
UPDATE bundles
SET status = $1,
    version = version + 1,
    updated_at = now()
WHERE shop = $2 AND id = $3
RETURNING ` + bundleColumns + `
`
	b, err := scanBundle(r.pool.QueryRow(ctx, q, string(status), shop, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *postgresRepo) SetPriceRuleID(ctx context.Context, shop, id string, ruleID *int64) error {
	const q = `
UPDATE bundles
SET price_rule_id = $1,
    updated_at = now()
WHERE shop = $2 AND id = $3
`
	tag, err := r.pool.Exec(ctx, q, ruleID, shop, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, shop, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bundles WHERE shop = $1 AND id = $2`, shop, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("bundle repo: deleted shop=%s id=%s", shop, id)
	return nil
}

// DeleteByShop removes every bundle for the shop. Zero rows is not an
// error: uninstall webhooks are replayed and the second pass must succeed.
func (r *postgresRepo) DeleteByShop(ctx context.Context, shop string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bundles WHERE shop = $1`, shop)
	if err != nil {
		return 0, err
	}
	r.logger.Printf("bundle repo: deleted shop=%s count=%d", shop, tag.RowsAffected())
	return tag.RowsAffected(), nil
}

func scanBundle(row pgx.Row) (*domain.Bundle, error) {
	var (
		b            domain.Bundle
		products     []byte
		discountType string
		discountVal  string
		status       string
		ruleID       *int64
	)
	if err := row.Scan(
		&b.ID,
		&b.Shop,
		&b.Title,
		&products,
		&discountType,
		&discountVal,
		&status,
		&ruleID,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(products) > 0 {
		if err := json.Unmarshal(products, &b.Products); err != nil {
			return nil, fmt.Errorf("bundle repo: decode products: %w", err)
		}
	}
	dv, err := decimal.NewFromString(discountVal)
	if err != nil {
		return nil, fmt.Errorf("bundle repo: decode discount value: %w", err)
	}
	b.DiscountType = domain.DiscountType(discountType)
	b.DiscountValue = dv
	b.Status = domain.BundleStatus(status)
	b.PriceRuleID = ruleID
	return &b, nil
}
