// Package store defines the persistence interfaces for trades and
// audit records. The in-memory implementations are the source of
// truth; PostgreSQL implementations provide a durable archive and a
// composite fans writes out to both.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/gridmesh/energymarket/internal/domain"
)

// TradeLog stores trade records. Append enforces a uniqueness
// constraint on the idempotency key so a given match can never be
// settled twice.
type TradeLog interface {
	// Append adds a trade. Returns domain.ErrDuplicateTrade if a trade
	// with the same idempotency key already exists.
	Append(ctx context.Context, t *domain.Trade) error

	// HasKey reports whether a trade with the given idempotency key
	// exists.
	HasKey(ctx context.Context, key string) (bool, error)

	// Get retrieves a trade by ID. Returns domain.ErrOrderNotFound's
	// sibling semantics: nil, false when absent.
	Get(ctx context.Context, tradeID string) (*domain.Trade, bool)

	// Between returns trades with ExecutedAt in [from, to], in
	// chronological order.
	Between(ctx context.Context, from, to time.Time) ([]*domain.Trade, error)
}

// MemoryTradeLog is a thread-safe in-memory TradeLog with a secondary
// index by idempotency key.
type MemoryTradeLog struct {
	mu     sync.RWMutex
	trades []*domain.Trade // chronological
	byID   map[string]*domain.Trade
	byKey  map[string]*domain.Trade
}

// NewMemoryTradeLog creates an empty MemoryTradeLog.
func NewMemoryTradeLog() *MemoryTradeLog {
	return &MemoryTradeLog{
		byID:  make(map[string]*domain.Trade),
		byKey: make(map[string]*domain.Trade),
	}
}

func (s *MemoryTradeLog) Append(_ context.Context, t *domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[t.IdempotencyKey]; exists {
		return domain.ErrDuplicateTrade
	}
	s.trades = append(s.trades, t)
	s.byID[t.TradeID] = t
	s.byKey[t.IdempotencyKey] = t
	return nil
}

func (s *MemoryTradeLog) HasKey(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byKey[key]
	return ok, nil
}

func (s *MemoryTradeLog) Get(_ context.Context, tradeID string) (*domain.Trade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[tradeID]
	return t, ok
}

func (s *MemoryTradeLog) Between(_ context.Context, from, to time.Time) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trade, 0)
	for _, t := range s.trades {
		if t.ExecutedAt.Before(from) || t.ExecutedAt.After(to) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}
