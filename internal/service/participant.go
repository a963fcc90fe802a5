// Package service implements the application services behind the HTTP
// handlers: capability checks, input validation, and orchestration of
// the ledger, book, and engine.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/access"
	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/ledger"
	"github.com/gridmesh/energymarket/internal/store"
)

// BalanceResponse is the balance view returned by participant
// operations.
type BalanceResponse struct {
	Address    string
	BalanceKwh decimal.Decimal
}

// ParticipantService handles registration, surplus reporting, balance
// queries, and audit trail retrieval.
type ParticipantService struct {
	ledger *ledger.Ledger
	gate   *access.Gate
	audit  store.AuditLog
	cache  *store.BalanceCache // nil when no cache is configured
}

// NewParticipantService creates a ParticipantService. cache may be nil.
func NewParticipantService(l *ledger.Ledger, gate *access.Gate, audit store.AuditLog, cache *store.BalanceCache) *ParticipantService {
	return &ParticipantService{
		ledger: l,
		gate:   gate,
		audit:  audit,
		cache:  cache,
	}
}

// Register creates a participant with a zero balance. Administrator
// only; the zero address can never be registered.
func (s *ParticipantService) Register(caller, address string) (*BalanceResponse, error) {
	if err := s.gate.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if !domain.ValidAddress(address) {
		return nil, &domain.ValidationError{
			Message: "address must be a 0x-prefixed 40 hex digit string",
		}
	}
	if address == domain.ZeroAddress {
		return nil, &domain.ValidationError{
			Message: "address must not be the zero address",
		}
	}

	if err := s.ledger.Register(address); err != nil {
		return nil, err
	}
	return &BalanceResponse{Address: address, BalanceKwh: decimal.Zero}, nil
}

// ReportSurplus credits produced energy to the caller's own balance.
func (s *ParticipantService) ReportSurplus(ctx context.Context, caller, address string, amountKwh decimal.Decimal) (*BalanceResponse, error) {
	if err := s.gate.RequireSelf(caller, address); err != nil {
		return nil, err
	}
	if err := s.ledger.CreditSurplus(ctx, address, amountKwh); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(address)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{Address: address, BalanceKwh: balance}, nil
}

// Balance returns the participant's current balance, through the cache
// when one is configured.
func (s *ParticipantService) Balance(ctx context.Context, address string) (*BalanceResponse, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(ctx, address); ok {
			return &BalanceResponse{Address: address, BalanceKwh: b}, nil
		}
	}

	balance, err := s.ledger.Balance(address)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, address, balance)
	}
	return &BalanceResponse{Address: address, BalanceKwh: balance}, nil
}

// AuditTrail returns every balance mutation recorded for the
// participant, oldest first.
func (s *ParticipantService) AuditTrail(ctx context.Context, address string) ([]*domain.AuditRecord, error) {
	if !s.ledger.IsRegistered(address) {
		return nil, domain.ErrNotRegistered
	}
	return s.audit.ByParticipant(ctx, address)
}
