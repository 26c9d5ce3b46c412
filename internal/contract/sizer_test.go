package contract

import (
	"testing"

	"vigil/internal/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() risk.Policy {
	return risk.Policy{MinPositionPct: 0.10, MaxPositionPct: 0.50}
}

func TestReconcileAboveFloorPassesThrough(t *testing.T) {
	spec := Spec{ContractSize: 0.01, MinContracts: 1, LotStep: 1}
	// 3000 USD notional at price 50000 and 0.01 size = 6 contracts.
	s, err := Reconcile(3000, 50000, spec, testPolicy(), 10000, 20)
	require.NoError(t, err)
	assert.False(t, s.Adjusted)
	assert.InDelta(t, 6.0, s.Contracts, 1e-9)
	assert.InDelta(t, 0.06, s.Quantity, 1e-9)
	assert.InDelta(t, 150.0, s.AmountUSD, 1e-9)
	assert.InDelta(t, 0.30, s.PositionPct, 1e-9)
}

func TestReconcileExactlyAtMinimum(t *testing.T) {
	spec := Spec{ContractSize: 0.01, MinContracts: 6, LotStep: 1}
	s, err := Reconcile(3000, 50000, spec, testPolicy(), 10000, 20)
	require.NoError(t, err)
	assert.False(t, s.Adjusted, "hitting the floor exactly needs no adjustment")
	assert.InDelta(t, 6.0, s.Contracts, 1e-9)
}

func TestReconcileUpsizesToFloorWithinCaps(t *testing.T) {
	// 2 contracts desired, exchange wants 10: min notional = 10*0.01*50000 = 5000,
	// pct = 0.50 which is exactly the ceiling.
	spec := Spec{ContractSize: 0.01, MinContracts: 10, LotStep: 1}
	s, err := Reconcile(1000, 50000, spec, testPolicy(), 10000, 20)
	require.NoError(t, err)
	assert.True(t, s.Adjusted)
	assert.InDelta(t, 10.0, s.Contracts, 1e-9)
	assert.InDelta(t, 5000.0, s.NotionalUSD, 1e-9)
	assert.InDelta(t, 250.0, s.AmountUSD, 1e-9)
	assert.InDelta(t, 0.50, s.PositionPct, 1e-9)
}

func TestReconcileRejectsWhenFloorBreachesCeiling(t *testing.T) {
	// min notional = 20*0.01*50000 = 10000 -> pct 1.0 > 0.50.
	spec := Spec{ContractSize: 0.01, MinContracts: 20, LotStep: 1}
	_, err := Reconcile(1000, 50000, spec, testPolicy(), 10000, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMinContractsExceedsCaps)
}

func TestReconcileRejectsWhenFloorBelowPolicyMinimum(t *testing.T) {
	// Upsized pct 0.05 still under the 10% floor: reject rather than place an
	// order the gate would have refused.
	spec := Spec{ContractSize: 0.01, MinContracts: 1, LotStep: 1}
	_, err := Reconcile(100, 50000, spec, testPolicy(), 10000, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMinContractsExceedsCaps)
}

func TestReconcileRoundsUpToLotStep(t *testing.T) {
	spec := Spec{ContractSize: 0.01, MinContracts: 1, LotStep: 0.1}
	// 3010 / 50000 / 0.01 = 6.02 contracts -> 6.1 after step rounding.
	s, err := Reconcile(3010, 50000, spec, testPolicy(), 10000, 20)
	require.NoError(t, err)
	assert.InDelta(t, 6.1, s.Contracts, 1e-9)
}

func TestReconcileInvalidInputs(t *testing.T) {
	pol := testPolicy()
	_, err := Reconcile(1000, 0, Spec{ContractSize: 0.01}, pol, 10000, 20)
	assert.Error(t, err)
	_, err = Reconcile(1000, 50000, Spec{ContractSize: 0}, pol, 10000, 20)
	assert.Error(t, err)
}
