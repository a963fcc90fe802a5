package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/events"
	"github.com/gridmesh/energymarket/internal/ledger"
	"github.com/gridmesh/energymarket/internal/metrics"
	"github.com/gridmesh/energymarket/internal/store"
)

// TradeService handles direct peer-to-peer trades and trade history
// queries.
type TradeService struct {
	ledger *ledger.Ledger
	trades store.TradeLog
	events events.Publisher

	transferTimeout time.Duration
}

// NewTradeService creates a TradeService.
func NewTradeService(l *ledger.Ledger, trades store.TradeLog, pub events.Publisher, transferTimeout time.Duration) *TradeService {
	return &TradeService{
		ledger:          l,
		trades:          trades,
		events:          pub,
		transferTimeout: transferTimeout,
	}
}

// ExecuteDirect moves amountKwh from the caller (the seller) to buyer
// outside the order book. The transfer moves energy only; no price is
// involved. Emits a TradeCompleted event on success.
func (s *TradeService) ExecuteDirect(ctx context.Context, seller, buyer string, amountKwh decimal.Decimal) (*domain.Trade, error) {
	if !domain.ValidAddress(buyer) {
		return nil, &domain.ValidationError{
			Message: "buyer must be a 0x-prefixed 40 hex digit string",
		}
	}

	tctx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()
	if err := s.ledger.Transfer(tctx, seller, buyer, amountKwh); err != nil {
		return nil, err
	}

	trade := &domain.Trade{
		TradeID:        uuid.New().String(),
		Buyer:          buyer,
		Seller:         seller,
		AmountKwh:      amountKwh,
		ExecutionPrice: decimal.Zero,
		Status:         domain.TradeStatusCompleted,
		ExecutedAt:     time.Now(),
	}
	trade.IdempotencyKey = "direct:" + trade.TradeID

	// The transfer is already committed; a lost trade record must not
	// undo it.
	if err := s.trades.Append(ctx, trade); err != nil {
		slog.Warn("direct trade record append failed",
			slog.String("trade_id", trade.TradeID),
			slog.String("error", err.Error()))
	}
	metrics.TradesTotal.WithLabelValues(string(domain.TradeStatusCompleted)).Inc()
	s.events.PublishTradeCompleted(events.FromTrade(trade))

	return trade, nil
}

// List returns trades executed within [from, to], oldest first.
func (s *TradeService) List(ctx context.Context, from, to time.Time) ([]*domain.Trade, error) {
	return s.trades.Between(ctx, from, to)
}
