package domain

import "github.com/shopspring/decimal"

var (
	one           = decimal.NewFromInt(1)
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// MonthlyPayment amortizes principal over termMonths at the annual aprPercent.
// The result is rounded half away from zero to cents.
func MonthlyPayment(principal, aprPercent decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if !principal.IsPositive() {
		return decimal.Zero, ErrLoanAmountInvalid
	}
	if termMonths <= 0 {
		return decimal.Zero, ErrTermNotAllowed
	}
	if aprPercent.IsNegative() {
		return decimal.Zero, ErrAPROutOfRange
	}
	n := decimal.NewFromInt(int64(termMonths))
	rate := aprPercent.Div(hundred).Div(monthsPerYear)
	if rate.IsZero() {
		return principal.Div(n).Round(2), nil
	}
	growth := one.Add(rate).Pow(n)
	payment := principal.Mul(rate).Mul(growth).Div(growth.Sub(one))
	return payment.Round(2), nil
}
