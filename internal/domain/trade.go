package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus distinguishes settled trades from attempted settlements
// that failed ledger validation. A voided trade is a record of the
// failed attempt, not a reversal of a completed one.
type TradeStatus string

const (
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusVoided    TradeStatus = "voided"
)

// Trade represents one settlement attempt. Immutable once created.
// Direct peer-to-peer trades carry empty order IDs.
type Trade struct {
	TradeID        string
	BuyOrderID     string
	SellOrderID    string
	Buyer          string
	Seller         string
	AmountKwh      decimal.Decimal
	ExecutionPrice decimal.Decimal
	IdempotencyKey string
	Status         TradeStatus
	VoidReason     string // empty for completed trades
	ExecutedAt     time.Time
}
