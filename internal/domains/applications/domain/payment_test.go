package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMonthlyPaymentAmortizes(t *testing.T) {
	payment, err := MonthlyPayment(decimal.NewFromInt(20000), decimal.RequireFromString("5.9"), 60)
	require.NoError(t, err)
	diff := payment.Sub(decimal.NewFromInt(386)).Abs()
	require.True(t, diff.LessThanOrEqual(decimal.NewFromInt(1)), "payment %s not within 1 of 386", payment)
	require.Equal(t, int32(-2), payment.Exponent())
}

func TestMonthlyPaymentZeroRate(t *testing.T) {
	payment, err := MonthlyPayment(decimal.NewFromInt(30000), decimal.Zero, 72)
	require.NoError(t, err)
	want := decimal.NewFromInt(30000).Div(decimal.NewFromInt(72)).Round(2)
	require.True(t, payment.Equal(want), "got %s want %s", payment, want)
	require.Equal(t, "416.67", payment.StringFixed(2))
}

func TestMonthlyPaymentRejectsBadInput(t *testing.T) {
	_, err := MonthlyPayment(decimal.Zero, decimal.NewFromInt(5), 60)
	require.ErrorIs(t, err, ErrLoanAmountInvalid)
	_, err = MonthlyPayment(decimal.NewFromInt(1000), decimal.NewFromInt(5), 0)
	require.ErrorIs(t, err, ErrTermNotAllowed)
	_, err = MonthlyPayment(decimal.NewFromInt(1000), decimal.NewFromInt(-1), 36)
	require.ErrorIs(t, err, ErrAPROutOfRange)
}
