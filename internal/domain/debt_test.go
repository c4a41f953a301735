package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewDebt_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	d := NewDebt(7, "1102334455", dec("100"), decimal.Zero, "", now)

	assert.Equal(t, DebtStatusPending, d.Status)
	assert.True(t, d.OutstandingAmount.Equal(dec("100")), "outstanding defaults to total")
	assert.Equal(t, "Deuda por venta", d.Description)
	assert.Equal(t, now.AddDate(0, 2, 0), d.DueAt)
}

func TestNewDebt_CallerSuppliedOutstanding(t *testing.T) {
	now := time.Now()

	d := NewDebt(7, "1102334455", dec("100"), dec("60"), "venta de insumos", now)

	assert.True(t, d.OutstandingAmount.Equal(dec("60")))
	assert.True(t, d.TotalAmount.Equal(dec("100")))
	assert.Equal(t, "venta de insumos", d.Description)
}

func TestApplyPayment_PartialKeepsPending(t *testing.T) {
	d := NewDebt(1, "123", dec("100"), decimal.Zero, "", time.Now())

	got, event, err := ApplyPayment(d, dec("40"))
	require.NoError(t, err)

	assert.Equal(t, EventBalanceReduced, event)
	assert.Equal(t, DebtStatusPending, got.Status)
	assert.True(t, got.OutstandingAmount.Equal(dec("60")))
}

func TestApplyPayment_ExactSettles(t *testing.T) {
	d := NewDebt(1, "123", dec("100"), decimal.Zero, "", time.Now())

	got, event, err := ApplyPayment(d, dec("100"))
	require.NoError(t, err)

	assert.Equal(t, EventDebtSettled, event)
	assert.Equal(t, DebtStatusPaid, got.Status)
	assert.True(t, got.OutstandingAmount.IsZero())
}

func TestApplyPayment_OverpaymentClampsToZero(t *testing.T) {
	d := NewDebt(1, "123", dec("100"), decimal.Zero, "", time.Now())

	// 40 then 70: the second deduction exceeds the remaining 60 and the
	// balance floors at zero instead of going negative. Clamp-and-accept is
	// questionable product behavior but it is the contract callers rely on.
	first, _, err := ApplyPayment(d, dec("40"))
	require.NoError(t, err)

	second, event, err := ApplyPayment(first, dec("70"))
	require.NoError(t, err)

	assert.Equal(t, EventDebtSettled, event)
	assert.Equal(t, DebtStatusPaid, second.Status)
	assert.True(t, second.OutstandingAmount.IsZero())
}

func TestApplyPayment_RejectsSettledDebt(t *testing.T) {
	d := NewDebt(1, "123", dec("50"), decimal.Zero, "", time.Now())

	paid, _, err := ApplyPayment(d, dec("50"))
	require.NoError(t, err)

	_, _, err = ApplyPayment(paid, dec("10"))
	assert.ErrorIs(t, err, ErrDebtAlreadySettled)
}

func TestApplyPayment_RejectsNonPositiveAmount(t *testing.T) {
	d := NewDebt(1, "123", dec("50"), decimal.Zero, "", time.Now())

	for _, amount := range []decimal.Decimal{decimal.Zero, dec("-5")} {
		_, _, err := ApplyPayment(d, amount)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "want ValidationError for %s", amount)
		assert.Equal(t, "amount", verr.Field)
	}
}

func TestApplyPayment_OutstandingNeverIncreases(t *testing.T) {
	d := NewDebt(1, "123", dec("100"), decimal.Zero, "", time.Now())

	prev := d.OutstandingAmount
	for _, amount := range []string{"10", "0.01", "49.99", "200"} {
		next, _, err := ApplyPayment(d, dec(amount))
		require.NoError(t, err)

		assert.True(t, next.OutstandingAmount.LessThanOrEqual(prev), "outstanding grew after paying %s", amount)
		assert.False(t, next.OutstandingAmount.IsNegative())
		d, prev = next, next.OutstandingAmount
		if d.Status == DebtStatusPaid {
			break
		}
	}
}
