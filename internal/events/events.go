// Package events fans out TradeCompleted events to reporting
// collaborators. The core emits events and never depends on who is
// listening; delivery is best-effort.
package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
)

// TradeCompleted is the event payload emitted for every completed
// trade, matched or direct.
type TradeCompleted struct {
	TradeID   string          `json:"trade_id"`
	Seller    string          `json:"seller"`
	Buyer     string          `json:"buyer"`
	AmountKwh decimal.Decimal `json:"amount_kwh"`
	Price     decimal.Decimal `json:"execution_price"`
	Direct    bool            `json:"direct"`
	At        time.Time       `json:"executed_at"`
}

// Publisher delivers trade events. Implementations must not block the
// settlement path.
type Publisher interface {
	PublishTradeCompleted(ev TradeCompleted)
}

// FromTrade builds the event payload for a completed trade.
func FromTrade(t *domain.Trade) TradeCompleted {
	return TradeCompleted{
		TradeID:   t.TradeID,
		Seller:    t.Seller,
		Buyer:     t.Buyer,
		AmountKwh: t.AmountKwh,
		Price:     t.ExecutionPrice,
		Direct:    t.BuyOrderID == "",
		At:        t.ExecutedAt,
	}
}

// Multi fans one event out to several publishers.
type Multi []Publisher

func (m Multi) PublishTradeCompleted(ev TradeCompleted) {
	for _, p := range m {
		p.PublishTradeCompleted(ev)
	}
}

// Nop discards events. Used when no collaborator is configured and in
// tests.
type Nop struct{}

func (Nop) PublishTradeCompleted(TradeCompleted) {}
