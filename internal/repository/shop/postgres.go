package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kitly/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Upsert(ctx context.Context, s domain.Shop) (*domain.Shop, error) {
	const q = `
INSERT INTO shops (domain, access_token)
VALUES ($1, $2)
ON CONFLICT (domain) DO UPDATE SET
    access_token = EXCLUDED.access_token
RETURNING domain, access_token, installed_at
`
	var out domain.Shop
	if err := r.pool.QueryRow(ctx, q, s.Domain, s.AccessToken).Scan(&out.Domain, &out.AccessToken, &out.InstalledAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	const q = `
SELECT domain, access_token, installed_at
FROM shops
WHERE domain = $1
`
	var s domain.Shop
	err := r.pool.QueryRow(ctx, q, shopDomain).Scan(&s.Domain, &s.AccessToken, &s.InstalledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Delete is a no-op when the shop is already gone; uninstall teardown must
// be replay-safe.
func (r *postgresRepo) Delete(ctx context.Context, shopDomain string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM shops WHERE domain = $1`, shopDomain)
	return err
}
