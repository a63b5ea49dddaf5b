package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"kitly/internal/domain"
)

// PriceRule is the platform-side projection of a bundle discount. The local
// bundle stays the source of truth; rules are written, never read back to
// mutate local state.
type PriceRule struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	TargetType      string          `json:"target_type"`
	TargetSelection string          `json:"target_selection"`
	Allocation      string          `json:"allocation_method"`
	ValueType       string          `json:"value_type"`
	Value           decimal.Decimal `json:"value"`
	StartsAt        time.Time       `json:"starts_at"`
}

// RuleTitle is the construction key for a bundle's mirrored rule.
func RuleTitle(bundleTitle string) string {
	return "Bundle-" + bundleTitle
}

// RuleSpecFromDiscount maps a bundle discount onto rule fields. The value is
// negated: the platform expresses reductions as negative amounts. The rule
// applies across all line items of the order.
func RuleSpecFromDiscount(title string, discountType domain.DiscountType, discountValue decimal.Decimal) PriceRule {
	return PriceRule{
		Title:           RuleTitle(title),
		TargetType:      "line_item",
		TargetSelection: "all",
		Allocation:      "across",
		ValueType:       string(discountType),
		Value:           discountValue.Neg(),
	}
}

type priceRuleEnvelope struct {
	PriceRule PriceRule `json:"price_rule"`
}

type priceRuleListEnvelope struct {
	PriceRules []PriceRule `json:"price_rules"`
}

// GetPriceRule reads a rule by its platform id.
func (c *Client) GetPriceRule(ctx context.Context, sess Session, id int64) (*PriceRule, error) {
	var env priceRuleEnvelope
	path := fmt.Sprintf("/price_rules/%d.json", id)
	if err := c.do(ctx, sess, "get price rule", http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return &env.PriceRule, nil
}

// FindPriceRuleByTitle scans the shop's rules for an exact title match.
// Fallback lookup when no stored rule id exists.
func (c *Client) FindPriceRuleByTitle(ctx context.Context, sess Session, title string) (*PriceRule, error) {
	var env priceRuleListEnvelope
	if err := c.do(ctx, sess, "list price rules", http.MethodGet, "/price_rules.json", nil, &env); err != nil {
		return nil, err
	}
	for i := range env.PriceRules {
		if env.PriceRules[i].Title == title {
			return &env.PriceRules[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// CreatePriceRule creates a new rule on the platform.
func (c *Client) CreatePriceRule(ctx context.Context, sess Session, spec PriceRule) (*PriceRule, error) {
	if spec.StartsAt.IsZero() {
		spec.StartsAt = time.Now().UTC()
	}
	var env priceRuleEnvelope
	if err := c.do(ctx, sess, "create price rule", http.MethodPost, "/price_rules.json", priceRuleEnvelope{PriceRule: spec}, &env); err != nil {
		return nil, err
	}
	return &env.PriceRule, nil
}

// UpdatePriceRule overwrites an existing rule in place.
func (c *Client) UpdatePriceRule(ctx context.Context, sess Session, id int64, spec PriceRule) (*PriceRule, error) {
	spec.ID = id
	var env priceRuleEnvelope
	path := fmt.Sprintf("/price_rules/%d.json", id)
	if err := c.do(ctx, sess, "update price rule", http.MethodPut, path, priceRuleEnvelope{PriceRule: spec}, &env); err != nil {
		return nil, err
	}
	return &env.PriceRule, nil
}

// DeletePriceRule removes the rule; deleting an already absent rule reports
// domain.ErrNotFound, which callers treat as done.
func (c *Client) DeletePriceRule(ctx context.Context, sess Session, id int64) error {
	path := fmt.Sprintf("/price_rules/%d.json", id)
	return c.do(ctx, sess, "delete price rule", http.MethodDelete, path, nil, nil)
}
