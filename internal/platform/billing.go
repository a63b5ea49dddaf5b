package platform

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// Charge statuses reported by the platform billing API.
const (
	ChargeStatusPending   = "pending"
	ChargeStatusActive    = "active"
	ChargeStatusDeclined  = "declined"
	ChargeStatusCancelled = "cancelled"
)

// Charge is a recurring application charge. A freshly created charge is
// pending until the merchant follows ConfirmationURL and approves it;
// callers must not treat creation as payment.
type Charge struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Status          string          `json:"status"`
	TrialDays       int             `json:"trial_days"`
	Test            bool            `json:"test"`
	ConfirmationURL string          `json:"confirmation_url"`
}

// ChargeInput describes the recurring charge to create for a plan.
type ChargeInput struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ReturnURL string          `json:"return_url"`
	TrialDays int             `json:"trial_days,omitempty"`
	Test      bool            `json:"test,omitempty"`
}

type chargeEnvelope struct {
	Charge Charge `json:"recurring_application_charge"`
}

type chargeListEnvelope struct {
	Charges []Charge `json:"recurring_application_charges"`
}

// ListRecurringCharges returns the shop's recurring charges, all statuses.
func (c *Client) ListRecurringCharges(ctx context.Context, sess Session) ([]Charge, error) {
	var env chargeListEnvelope
	if err := c.do(ctx, sess, "list charges", http.MethodGet, "/recurring_application_charges.json", nil, &env); err != nil {
		return nil, err
	}
	return env.Charges, nil
}

// CreateRecurringCharge creates a pending charge the merchant must confirm.
func (c *Client) CreateRecurringCharge(ctx context.Context, sess Session, in ChargeInput) (*Charge, error) {
	var env chargeEnvelope
	body := chargeInputEnvelope{Charge: in}
	if err := c.do(ctx, sess, "create charge", http.MethodPost, "/recurring_application_charges.json", body, &env); err != nil {
		return nil, err
	}
	return &env.Charge, nil
}

type chargeInputEnvelope struct {
	Charge ChargeInput `json:"recurring_application_charge"`
}
