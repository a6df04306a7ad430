// Package pricing splits customer-facing prices into platform commission and
// producer earnings. Prices are integer minor units; the commission rate is a
// decimal percentage so fractional rates do not drift through float math.
package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/wieeerzbickim/community-feast/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the commission split for one amount. Commission + Earnings
// always recompose Price exactly.
type Breakdown struct {
	Price      int64
	Commission int64
	Earnings   int64
}

// Split computes the commission amount, rounded to a whole minor unit, and
// the producer earnings as the exact remainder. A rate outside [0,100] is a
// configuration error and is rejected, never clamped.
func Split(price int64, rate decimal.Decimal) (Breakdown, error) {
	if price < 0 {
		return Breakdown{}, domain.ErrInvalidPrice
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return Breakdown{}, domain.ErrInvalidCommission
	}

	commission := decimal.NewFromInt(price).
		Mul(rate).
		Div(hundred).
		Round(0).
		IntPart()

	return Breakdown{
		Price:      price,
		Commission: commission,
		Earnings:   price - commission,
	}, nil
}

// ParseRate validates an externally-configured commission rate string.
func ParseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, domain.ErrInvalidCommission
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return decimal.Decimal{}, domain.ErrInvalidCommission
	}

	return rate, nil
}
