// Package billing gates privileged operations behind an active recurring
// charge. Subscription state is re-derived from the platform on every gated
// request: the merchant can cancel or pay out-of-band at any time, so a
// local cache would either grant unpaid access or block a just-paid shop.
package billing

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/shopspring/decimal"

	"kitly/internal/domain"
	"kitly/internal/platform"
)

// Plan is the single subscription plan offered to merchants.
type Plan struct {
	Name      string
	Price     decimal.Decimal
	TrialDays int
	Test      bool
}

// State is the per-request subscription snapshot.
type State struct {
	Active          bool   `json:"active"`
	PlanName        string `json:"plan_name,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type billingClient interface {
	ListRecurringCharges(ctx context.Context, sess platform.Session) ([]platform.Charge, error)
	CreateRecurringCharge(ctx context.Context, sess platform.Session, in platform.ChargeInput) (*platform.Charge, error)
}

type Gate struct {
	client    billingClient
	plan      Plan
	returnURL string
	logger    *log.Logger
}

func NewGate(client billingClient, plan Plan, returnURL string, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Gate{client: client, plan: plan, returnURL: returnURL, logger: logger}
}

// Ensure verifies the shop holds an active charge. When it does not, a
// pending charge for the configured plan is requested on the merchant's
// behalf and ErrSubscriptionRequired is returned together with the
// confirmation URL the merchant must visit. Any collaborator failure fails
// closed: the request is denied, never waved through.
func (g *Gate) Ensure(ctx context.Context, sess platform.Session) (State, error) {
	charges, err := g.client.ListRecurringCharges(ctx, sess)
	if err != nil {
		g.logger.Printf("billing check shop=%s failed closed: %v", sess.Shop, err)
		return State{}, fmt.Errorf("%w: %w", domain.ErrSubscriptionRequired, err)
	}

	for _, charge := range charges {
		if charge.Status == platform.ChargeStatusActive && charge.Name == g.plan.Name {
			return State{Active: true, PlanName: charge.Name}, nil
		}
	}

	charge, err := g.client.CreateRecurringCharge(ctx, sess, platform.ChargeInput{
		Name:      g.plan.Name,
		Price:     g.plan.Price,
		ReturnURL: g.returnURL,
		TrialDays: g.plan.TrialDays,
		Test:      g.plan.Test,
	})
	if err != nil {
		g.logger.Printf("billing request shop=%s failed: %v", sess.Shop, err)
		return State{}, fmt.Errorf("%w: %w", domain.ErrSubscriptionRequired, err)
	}

	g.logger.Printf("billing request shop=%s charge=%d pending confirmation", sess.Shop, charge.ID)
	return State{PlanName: g.plan.Name, ConfirmationURL: charge.ConfirmationURL}, domain.ErrSubscriptionRequired
}
