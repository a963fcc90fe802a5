package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Order bounds. Quantities and prices outside these ranges are
// rejected before any state read.
var (
	MinOrderKwh = decimal.RequireFromString("0.1")
	MaxOrderKwh = decimal.RequireFromString("10000")
	MinPriceKwh = decimal.RequireFromString("0.01")
	MaxPriceKwh = decimal.RequireFromString("1000")
)

// ValidateOrderAmount checks an order quantity against the admissible
// range [0.1, 10000] kWh.
func ValidateOrderAmount(kwh decimal.Decimal) error {
	if kwh.Cmp(MinOrderKwh) < 0 || kwh.Cmp(MaxOrderKwh) > 0 {
		return &ValidationError{
			Message: fmt.Sprintf("amount_kwh must be between %s and %s, got %s",
				MinOrderKwh, MaxOrderKwh, kwh),
		}
	}
	return nil
}

// ValidatePrice checks an order price against the admissible range
// [0.01, 1000] per kWh.
func ValidatePrice(price decimal.Decimal) error {
	if price.Cmp(MinPriceKwh) < 0 || price.Cmp(MaxPriceKwh) > 0 {
		return &ValidationError{
			Message: fmt.Sprintf("price_per_kwh must be between %s and %s, got %s",
				MinPriceKwh, MaxPriceKwh, price),
		}
	}
	return nil
}
