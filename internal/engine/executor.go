package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/book"
	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/events"
	"github.com/gridmesh/energymarket/internal/ledger"
	"github.com/gridmesh/energymarket/internal/metrics"
	"github.com/gridmesh/energymarket/internal/store"
)

// Executor settles the matches proposed by a matching pass. Settlement
// application is serialized by a single mutex so two concurrent passes
// cannot both consume the same remaining quantity; the matching
// computation itself runs unsynchronized against a snapshot.
type Executor struct {
	ledger *ledger.Ledger
	book   *book.Book
	trades store.TradeLog
	events events.Publisher

	transferTimeout time.Duration

	mu      sync.Mutex
	passSeq atomic.Uint64
}

// PassResult reports what one matching-and-settlement pass produced.
type PassResult struct {
	PassSeq   uint64
	Completed []*domain.Trade
	Voided    []*domain.Trade
}

// NewExecutor creates an Executor.
func NewExecutor(l *ledger.Ledger, b *book.Book, trades store.TradeLog, pub events.Publisher, transferTimeout time.Duration) *Executor {
	return &Executor{
		ledger:          l,
		book:            b,
		trades:          trades,
		events:          pub,
		transferTimeout: transferTimeout,
	}
}

// IdempotencyKey derives the deterministic settlement key for a match
// within a pass.
func IdempotencyKey(buyOrderID, sellOrderID string, qty decimal.Decimal, passSeq uint64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", buyOrderID, sellOrderID, qty, passSeq)))
	return hex.EncodeToString(sum[:])
}

// RunPass executes one matching-and-settlement pass with a fresh pass
// sequence number.
func (e *Executor) RunPass(ctx context.Context) (*PassResult, error) {
	return e.RunPassSeq(ctx, 0)
}

// RunPassSeq executes one pass. A non-zero passSeq lets a retried
// external trigger reuse its original sequence so the idempotency keys
// match and already-settled trades are not re-executed; passSeq 0
// assigns the next sequence.
func (e *Executor) RunPassSeq(ctx context.Context, passSeq uint64) (*PassResult, error) {
	start := time.Now()
	if passSeq == 0 {
		passSeq = e.passSeq.Add(1)
	}

	buys, sells := e.book.Snapshot()
	matches := ProposeMatches(buys, sells)

	result := &PassResult{PassSeq: passSeq}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			// Caller went away. Nothing proposed-but-uncommitted
			// survives: remaining matches are simply discarded.
			return result, err
		}

		key := IdempotencyKey(m.BuyOrderID, m.SellOrderID, m.Quantity, passSeq)
		exists, err := e.trades.HasKey(ctx, key)
		if err != nil {
			return result, err
		}
		if exists {
			continue
		}

		qty, err := e.book.SettleMatch(m.BuyOrderID, m.SellOrderID, m.Quantity, func(q decimal.Decimal) error {
			tctx, cancel := context.WithTimeout(ctx, e.transferTimeout)
			defer cancel()
			return e.ledger.Transfer(tctx, m.Seller, m.Buyer, q)
		})

		if err == nil && qty.Sign() == 0 {
			// A concurrent pass or a cancellation consumed the
			// quantity first; nothing to settle.
			continue
		}

		trade := &domain.Trade{
			TradeID:        uuid.New().String(),
			BuyOrderID:     m.BuyOrderID,
			SellOrderID:    m.SellOrderID,
			Buyer:          m.Buyer,
			Seller:         m.Seller,
			AmountKwh:      qty,
			ExecutionPrice: m.Price,
			IdempotencyKey: key,
			Status:         domain.TradeStatusCompleted,
			ExecutedAt:     time.Now(),
		}

		if err != nil {
			// Per-match failure isolation: void this match, keep going.
			trade.Status = domain.TradeStatusVoided
			trade.VoidReason = voidReason(err)
			if errors.Is(err, context.DeadlineExceeded) {
				slog.Warn("transfer exceeded time budget, match voided (retryable)",
					slog.String("buy_order_id", m.BuyOrderID),
					slog.String("sell_order_id", m.SellOrderID),
					slog.String("quantity", qty.String()))
			}
		}

		if err := e.trades.Append(ctx, trade); err != nil {
			if errors.Is(err, domain.ErrDuplicateTrade) {
				continue
			}
			return result, err
		}
		metrics.TradesTotal.WithLabelValues(string(trade.Status)).Inc()

		if trade.Status == domain.TradeStatusCompleted {
			result.Completed = append(result.Completed, trade)
			e.events.PublishTradeCompleted(events.FromTrade(trade))
		} else {
			result.Voided = append(result.Voided, trade)
		}
	}

	nbuys, nsells := e.book.ActiveCounts()
	metrics.ActiveOrders.WithLabelValues(string(domain.OrderSideBuy)).Set(float64(nbuys))
	metrics.ActiveOrders.WithLabelValues(string(domain.OrderSideSell)).Set(float64(nsells))
	metrics.MatchingPassesTotal.Inc()
	metrics.MatchingPassDuration.Observe(time.Since(start).Seconds())

	return result, nil
}

// voidReason maps a settlement failure to the recorded reason string.
func voidReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrInvalidCounterparty):
		return "invalid_counterparty"
	case errors.Is(err, context.DeadlineExceeded):
		return "transfer_timeout"
	default:
		return err.Error()
	}
}
