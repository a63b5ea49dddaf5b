// Package bundle orchestrates the bundle lifecycle: validation, persistence,
// availability checks and the platform-side price rule mirror.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/shopspring/decimal"

	"kitly/internal/domain"
	"kitly/internal/inventory"
	"kitly/internal/platform"
	"kitly/internal/pricing"
	bundlerepo "kitly/internal/repository/bundle"
)

type bundleRepo interface {
	Create(ctx context.Context, in bundlerepo.CreateInput) (*domain.Bundle, error)
	GetByID(ctx context.Context, shop, id string) (*domain.Bundle, error)
	ListByShop(ctx context.Context, shop string) ([]domain.Bundle, error)
	ListActiveByShop(ctx context.Context, shop string) ([]domain.Bundle, error)
	Update(ctx context.Context, shop, id string, in bundlerepo.UpdateInput) (*domain.Bundle, error)
	SetStatus(ctx context.Context, shop, id string, status domain.BundleStatus) (*domain.Bundle, error)
	SetPriceRuleID(ctx context.Context, shop, id string, ruleID *int64) error
	Delete(ctx context.Context, shop, id string) error
	DeleteByShop(ctx context.Context, shop string) (int64, error)
}

type shopRepo interface {
	Delete(ctx context.Context, shopDomain string) error
}

type syncClient interface {
	GetPriceRule(ctx context.Context, sess platform.Session, id int64) (*platform.PriceRule, error)
	FindPriceRuleByTitle(ctx context.Context, sess platform.Session, title string) (*platform.PriceRule, error)
	CreatePriceRule(ctx context.Context, sess platform.Session, spec platform.PriceRule) (*platform.PriceRule, error)
	UpdatePriceRule(ctx context.Context, sess platform.Session, id int64, spec platform.PriceRule) (*platform.PriceRule, error)
	DeletePriceRule(ctx context.Context, sess platform.Session, id int64) error
}

type availabilityChecker interface {
	ValidateAvailability(ctx context.Context, sess platform.Session, items []inventory.Item) ([]inventory.Unavailable, error)
}

type Service struct {
	repo              bundleRepo
	shops             shopRepo
	sync              syncClient
	availability      availabilityChecker
	validateOnPublish bool
	logger            *log.Logger
}

func New(repo bundlerepo.Repository, shops shopRepo, sync syncClient, availability availabilityChecker, validateOnPublish bool, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:              repo,
		shops:             shops,
		sync:              sync,
		availability:      availability,
		validateOnPublish: validateOnPublish,
		logger:            logger,
	}
}

type CreateInput struct {
	Title         string
	Products      []domain.BundleProduct
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
}

type UpdateInput struct {
	Version       int
	Title         string
	Products      []domain.BundleProduct
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
}

// Create validates, persists, then mirrors the discount to the platform.
// Sync failure does not roll the bundle back: the persisted bundle is
// returned together with a warning the caller must surface.
func (s *Service) Create(ctx context.Context, sess platform.Session, in CreateInput) (*domain.Bundle, []string, error) {
	if in.Title == "" {
		return nil, nil, &domain.InvalidBundleError{Reason: "title required"}
	}
	if err := pricing.Validate(in.Products, in.DiscountType, in.DiscountValue); err != nil {
		return nil, nil, err
	}

	b, err := s.repo.Create(ctx, bundlerepo.CreateInput{
		Shop:          sess.Shop,
		Title:         in.Title,
		Products:      in.Products,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
	})
	if err != nil {
		return nil, nil, err
	}

	warnings := s.mirrorRule(ctx, sess, b)
	return b, warnings, nil
}

// Update persists the mutation under optimistic versioning and re-syncs the
// mirrored rule only when the rule-relevant fields changed.
func (s *Service) Update(ctx context.Context, sess platform.Session, id string, in UpdateInput) (*domain.Bundle, []string, error) {
	if in.Title == "" {
		return nil, nil, &domain.InvalidBundleError{Reason: "title required"}
	}
	if err := pricing.Validate(in.Products, in.DiscountType, in.DiscountValue); err != nil {
		return nil, nil, err
	}

	prior, err := s.repo.GetByID(ctx, sess.Shop, id)
	if err != nil {
		return nil, nil, err
	}

	b, err := s.repo.Update(ctx, sess.Shop, id, bundlerepo.UpdateInput{
		Version:       in.Version,
		Title:         in.Title,
		Products:      in.Products,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
	})
	if err != nil {
		return nil, nil, err
	}

	ruleChanged := prior.Title != b.Title ||
		prior.DiscountType != b.DiscountType ||
		!prior.DiscountValue.Equal(b.DiscountValue)
	var warnings []string
	if ruleChanged {
		warnings = s.mirrorRule(ctx, sess, b)
	}
	return b, warnings, nil
}

// Delete removes the bundle and tears down its mirrored rule. The local
// delete is authoritative; a failed rule delete is reported as a warning so
// the merchant is not told a deleted bundle still exists.
func (s *Service) Delete(ctx context.Context, sess platform.Session, id string) ([]string, error) {
	b, err := s.repo.GetByID(ctx, sess.Shop, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, sess.Shop, id); err != nil {
		return nil, err
	}

	var warnings []string
	if ruleID, ok := s.resolveRuleID(ctx, sess, b); ok {
		if err := s.sync.DeletePriceRule(ctx, sess, ruleID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("bundle %s: delete price rule %d failed: %v", id, ruleID, err)
			warnings = append(warnings, fmt.Sprintf("platform discount rule %d was not removed: %v", ruleID, err))
		}
	}
	return warnings, nil
}

// SetStatus persists a status transition. Publishing optionally validates
// availability first and never re-triggers rule sync. A non-empty
// unavailable list means the transition was rejected.
func (s *Service) SetStatus(ctx context.Context, sess platform.Session, id string, status domain.BundleStatus) (*domain.Bundle, []inventory.Unavailable, error) {
	if !domain.ValidBundleStatus(status) {
		return nil, nil, &domain.InvalidBundleError{Reason: fmt.Sprintf("unknown status %q", status)}
	}

	if status == domain.StatusActive && s.validateOnPublish {
		b, err := s.repo.GetByID(ctx, sess.Shop, id)
		if err != nil {
			return nil, nil, err
		}
		items := itemsFromProducts(b.Products)
		unavailable, err := s.availability.ValidateAvailability(ctx, sess, items)
		if err != nil {
			return nil, nil, err
		}
		if len(unavailable) > 0 {
			return nil, unavailable, nil
		}
	}

	b, err := s.repo.SetStatus(ctx, sess.Shop, id, status)
	if err != nil {
		return nil, nil, err
	}
	return b, nil, nil
}

func (s *Service) Get(ctx context.Context, sess platform.Session, id string) (*domain.Bundle, error) {
	return s.repo.GetByID(ctx, sess.Shop, id)
}

func (s *Service) List(ctx context.Context, sess platform.Session) ([]domain.Bundle, error) {
	return s.repo.ListByShop(ctx, sess.Shop)
}

// ListActive serves the storefront widget: only published bundles, looked up
// by bare shop domain since storefront calls carry no session.
func (s *Service) ListActive(ctx context.Context, shop string) ([]domain.Bundle, error) {
	return s.repo.ListActiveByShop(ctx, shop)
}

// Price computes a breakdown without touching any collaborator.
func (s *Service) Price(products []domain.BundleProduct, discountType domain.DiscountType, discountValue decimal.Decimal) (domain.PriceBreakdown, error) {
	return pricing.Compute(products, discountType, discountValue)
}

// Uninstall tears down all local state for a shop. Replay-safe: a second
// call finds nothing to delete and succeeds. Platform-initiated, so no
// subscription gate applies.
func (s *Service) Uninstall(ctx context.Context, shop string) error {
	n, err := s.repo.DeleteByShop(ctx, shop)
	if err != nil {
		return err
	}
	if err := s.shops.Delete(ctx, shop); err != nil {
		return err
	}
	s.logger.Printf("uninstall shop=%s bundles_deleted=%d", shop, n)
	return nil
}

// mirrorRule projects the bundle's discount onto the platform using a
// lookup-or-create discipline: stored rule id first, title match second,
// create last. Re-invoking with an unchanged bundle never duplicates rules.
func (s *Service) mirrorRule(ctx context.Context, sess platform.Session, b *domain.Bundle) []string {
	spec := platform.RuleSpecFromDiscount(b.Title, b.DiscountType, b.DiscountValue)

	rule, err := s.upsertRule(ctx, sess, b, spec)
	if err != nil {
		s.logger.Printf("bundle %s: price rule sync failed: %v", b.ID, err)
		return []string{fmt.Sprintf("discount rule was not synced to the platform: %v", err)}
	}

	if b.PriceRuleID == nil || *b.PriceRuleID != rule.ID {
		if err := s.repo.SetPriceRuleID(ctx, sess.Shop, b.ID, &rule.ID); err != nil {
			s.logger.Printf("bundle %s: store price rule id %d failed: %v", b.ID, rule.ID, err)
			return []string{fmt.Sprintf("discount rule %d synced but its handle was not stored: %v", rule.ID, err)}
		}
		b.PriceRuleID = &rule.ID
	}
	return nil
}

func (s *Service) upsertRule(ctx context.Context, sess platform.Session, b *domain.Bundle, spec platform.PriceRule) (*platform.PriceRule, error) {
	if b.PriceRuleID != nil {
		rule, err := s.sync.UpdatePriceRule(ctx, sess, *b.PriceRuleID, spec)
		if err == nil {
			return rule, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// Stored handle is stale (rule deleted platform-side); fall through.
	}

	existing, err := s.sync.FindPriceRuleByTitle(ctx, sess, spec.Title)
	switch {
	case err == nil:
		return s.sync.UpdatePriceRule(ctx, sess, existing.ID, spec)
	case errors.Is(err, domain.ErrNotFound):
		return s.sync.CreatePriceRule(ctx, sess, spec)
	default:
		return nil, err
	}
}

func (s *Service) resolveRuleID(ctx context.Context, sess platform.Session, b *domain.Bundle) (int64, bool) {
	if b.PriceRuleID != nil {
		return *b.PriceRuleID, true
	}
	rule, err := s.sync.FindPriceRuleByTitle(ctx, sess, platform.RuleTitle(b.Title))
	if err != nil {
		return 0, false
	}
	return rule.ID, true
}

func itemsFromProducts(products []domain.BundleProduct) []inventory.Item {
	items := make([]inventory.Item, 0, len(products))
	for _, p := range products {
		id := p.VariantID
		if id == "" {
			id = p.ProductID
		}
		items = append(items, inventory.Item{VariantID: id, Quantity: p.Quantity})
	}
	return items
}
