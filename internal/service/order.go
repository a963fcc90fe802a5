package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/book"
	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/engine"
	"github.com/gridmesh/energymarket/internal/metrics"
)

// CreateOrderRequest represents the input for order creation.
type CreateOrderRequest struct {
	Side        domain.OrderSide
	AmountKwh   decimal.Decimal
	PricePerKwh decimal.Decimal
}

// OrderService handles order creation, cancellation, listing, and
// on-demand matching triggers.
type OrderService struct {
	book     *book.Book
	executor *engine.Executor
}

// NewOrderService creates an OrderService.
func NewOrderService(b *book.Book, executor *engine.Executor) *OrderService {
	return &OrderService{book: b, executor: executor}
}

// Create admits a new order owned by the caller.
func (s *OrderService) Create(caller string, req CreateOrderRequest) (*domain.Order, error) {
	o := &domain.Order{
		Owner:        caller,
		Side:         req.Side,
		RequestedKwh: req.AmountKwh,
		PricePerKwh:  req.PricePerKwh,
	}
	if err := s.book.Admit(o); err != nil {
		return nil, err
	}
	s.updateOrderGauges()
	return o, nil
}

// Get returns an order by ID, active or terminal.
func (s *OrderService) Get(orderID string) (*domain.Order, error) {
	return s.book.Get(orderID)
}

// Cancel cancels the caller's order. Cancelling an already filled or
// cancelled order is a no-op.
func (s *OrderService) Cancel(orderID, caller string) (*domain.Order, error) {
	o, err := s.book.Cancel(orderID, caller)
	if err != nil {
		return nil, err
	}
	s.updateOrderGauges()
	return o, nil
}

// ListActive returns the active orders on both sides in priority
// order.
func (s *OrderService) ListActive() (buys, sells []domain.Order) {
	return s.book.Snapshot()
}

// TriggerMatching runs one matching-and-settlement pass. A non-zero
// passSeq lets a retried trigger reuse its original idempotency keys.
func (s *OrderService) TriggerMatching(ctx context.Context, passSeq uint64) (*engine.PassResult, error) {
	return s.executor.RunPassSeq(ctx, passSeq)
}

func (s *OrderService) updateOrderGauges() {
	nbuys, nsells := s.book.ActiveCounts()
	metrics.ActiveOrders.WithLabelValues(string(domain.OrderSideBuy)).Set(float64(nbuys))
	metrics.ActiveOrders.WithLabelValues(string(domain.OrderSideSell)).Set(float64(nsells))
}
