package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide indicates whether an order buys or sells energy.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus represents the lifecycle state of an order. The only
// transitions are active → filled (by settlement) and active →
// cancelled (by the owner); filled and cancelled are terminal.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order represents a standing offer to buy or sell energy at a price.
// Orders are partially fillable; FilledKwh is advanced only by the
// settlement executor.
type Order struct {
	OrderID      string
	Owner        string // participant address
	Side         OrderSide
	RequestedKwh decimal.Decimal
	FilledKwh    decimal.Decimal
	PricePerKwh  decimal.Decimal
	Status       OrderStatus
	CreatedAt    time.Time // price-time priority tie-break
	CancelledAt  *time.Time
}

// RemainingKwh returns the unfilled quantity.
func (o *Order) RemainingKwh() decimal.Decimal {
	return o.RequestedKwh.Sub(o.FilledKwh)
}
