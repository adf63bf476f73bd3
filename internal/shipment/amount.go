package shipment

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotANumber = errors.New("not a number")
	ErrNegative   = errors.New("must not be negative")
)

// ParseAmount reads a non-negative weight or price typed by an operator.
// Both "2,5" and "2.5" are accepted.
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if s == "" || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrNotANumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotANumber
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegative
	}
	return d, nil
}
