package billing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitly/internal/domain"
	"kitly/internal/platform"
)

type stubBilling struct {
	charges   []platform.Charge
	listErr   error
	created   *platform.ChargeInput
	createErr error
}

func (s *stubBilling) ListRecurringCharges(_ context.Context, _ platform.Session) ([]platform.Charge, error) {
	return s.charges, s.listErr
}

func (s *stubBilling) CreateRecurringCharge(_ context.Context, _ platform.Session, in platform.ChargeInput) (*platform.Charge, error) {
	s.created = &in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &platform.Charge{
		ID:              7,
		Name:            in.Name,
		Price:           in.Price,
		Status:          platform.ChargeStatusPending,
		ConfirmationURL: "https://shop/confirm/7",
	}, nil
}

func testPlan() Plan {
	return Plan{Name: "Starter Bundle Plan", Price: decimal.RequireFromString("5.00"), TrialDays: 7, Test: true}
}

func TestEnsure_ActiveChargeAllows(t *testing.T) {
	stub := &stubBilling{charges: []platform.Charge{
		{ID: 1, Name: "Starter Bundle Plan", Status: platform.ChargeStatusActive},
	}}
	gate := NewGate(stub, testPlan(), "https://app/return", nil)

	state, err := gate.Ensure(context.Background(), platform.Session{Shop: "s"})
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Nil(t, stub.created, "must not create a charge when one is active")
}

func TestEnsure_NoActiveChargeProvisionsAndDenies(t *testing.T) {
	stub := &stubBilling{charges: []platform.Charge{
		{ID: 1, Name: "Starter Bundle Plan", Status: platform.ChargeStatusDeclined},
		{ID: 2, Name: "Starter Bundle Plan", Status: platform.ChargeStatusCancelled},
	}}
	gate := NewGate(stub, testPlan(), "https://app/return", nil)

	state, err := gate.Ensure(context.Background(), platform.Session{Shop: "s"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionRequired)
	assert.False(t, state.Active)
	assert.Equal(t, "https://shop/confirm/7", state.ConfirmationURL)
	require.NotNil(t, stub.created)
	assert.Equal(t, "Starter Bundle Plan", stub.created.Name)
	assert.Equal(t, 7, stub.created.TrialDays)
	assert.Equal(t, "https://app/return", stub.created.ReturnURL)
}

func TestEnsure_DifferentPlanNameDoesNotCount(t *testing.T) {
	stub := &stubBilling{charges: []platform.Charge{
		{ID: 1, Name: "Some Other App Plan", Status: platform.ChargeStatusActive},
	}}
	gate := NewGate(stub, testPlan(), "https://app/return", nil)

	_, err := gate.Ensure(context.Background(), platform.Session{Shop: "s"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionRequired)
}

func TestEnsure_CollaboratorTimeoutFailsClosed(t *testing.T) {
	stub := &stubBilling{listErr: &domain.TimeoutError{Op: "list charges"}}
	gate := NewGate(stub, testPlan(), "https://app/return", nil)

	_, err := gate.Ensure(context.Background(), platform.Session{Shop: "s"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionRequired)

	var terr *domain.TimeoutError
	assert.ErrorAs(t, err, &terr, "cause must stay inspectable")
}

func TestEnsure_ChargeCreationFailureFailsClosed(t *testing.T) {
	stub := &stubBilling{createErr: &domain.PlatformError{Op: "create charge", StatusCode: 500}}
	gate := NewGate(stub, testPlan(), "https://app/return", nil)

	_, err := gate.Ensure(context.Background(), platform.Session{Shop: "s"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionRequired)
}
