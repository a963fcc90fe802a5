// Package ledger holds the authoritative participant registry and kWh
// balances. It is the only component that mutates balances; the order
// book and matching engine only read them. Every mutation appends an
// audit record.
package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/store"
)

// Audit mutation reasons.
const (
	ReasonSurplus     = "surplus"
	ReasonTransferOut = "transfer_out"
	ReasonTransferIn  = "transfer_in"
)

// BalanceObserver is notified after a participant's balance changes.
// Used to invalidate read caches; must not block.
type BalanceObserver interface {
	BalanceChanged(addr string)
}

// Ledger is the balance store. Participant registration is guarded by
// the registry lock; balance mutations are guarded by per-participant
// locks, acquired in address order for two-party transfers so debit
// and credit are never separately observable.
type Ledger struct {
	mu           sync.RWMutex
	participants map[string]*domain.Participant

	audit    store.AuditLog
	auditSeq atomic.Uint64

	observers []BalanceObserver
}

// New creates an empty Ledger writing audit records to audit.
func New(audit store.AuditLog) *Ledger {
	return &Ledger{
		participants: make(map[string]*domain.Participant),
		audit:        audit,
	}
}

// Observe registers a balance observer. Not safe to call after the
// ledger is in use.
func (l *Ledger) Observe(obs BalanceObserver) {
	l.observers = append(l.observers, obs)
}

// Register creates a participant with a zero balance. Returns
// domain.ErrAlreadyRegistered if the address is known.
func (l *Ledger) Register(addr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.participants[addr]; exists {
		return domain.ErrAlreadyRegistered
	}
	l.participants[addr] = &domain.Participant{
		Address:    addr,
		BalanceKwh: decimal.Zero,
		CreatedAt:  time.Now(),
	}
	return nil
}

// IsRegistered reports whether addr is a known participant.
// Side-effect free.
func (l *Ledger) IsRegistered(addr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.participants[addr]
	return ok
}

// ParticipantCount returns the number of registered participants.
func (l *Ledger) ParticipantCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.participants)
}

// Balance returns the current balance for addr. Returns
// domain.ErrNotRegistered for unknown participants.
func (l *Ledger) Balance(addr string) (decimal.Decimal, error) {
	p, err := l.get(addr)
	if err != nil {
		return decimal.Zero, err
	}

	p.Mu.Lock()
	defer p.Mu.Unlock()
	return p.BalanceKwh, nil
}

// CreditSurplus increases a participant's balance by amountKwh. This
// is the only operation that creates balance ex nihilo. amountKwh must
// be strictly positive; there is no upper bound.
func (l *Ledger) CreditSurplus(ctx context.Context, addr string, amountKwh decimal.Decimal) error {
	if amountKwh.Sign() <= 0 {
		return &domain.ValidationError{Message: "amount_kwh must be greater than 0"}
	}
	p, err := l.get(addr)
	if err != nil {
		return err
	}

	p.Mu.Lock()
	if err := ctx.Err(); err != nil {
		p.Mu.Unlock()
		return err
	}
	p.BalanceKwh = p.BalanceKwh.Add(amountKwh)
	l.appendAudit(ctx, addr, amountKwh, ReasonSurplus, p.BalanceKwh)
	p.Mu.Unlock()

	l.notify(addr)
	return nil
}

// Transfer moves amountKwh from seller to buyer as a single atomic
// unit. Fails with ErrInvalidCounterparty for a zero or self buyer,
// ErrNotRegistered if either party is unknown, and
// ErrInsufficientBalance if the seller's balance is short. In every
// failure case both balances are left untouched.
func (l *Ledger) Transfer(ctx context.Context, seller, buyer string, amountKwh decimal.Decimal) error {
	if buyer == domain.ZeroAddress || buyer == seller {
		return domain.ErrInvalidCounterparty
	}
	if amountKwh.Sign() <= 0 {
		return &domain.ValidationError{Message: "amount_kwh must be greater than 0"}
	}

	s, err := l.get(seller)
	if err != nil {
		return err
	}
	b, err := l.get(buyer)
	if err != nil {
		return err
	}

	// Lock both parties in address order so concurrent transfers
	// between the same pair cannot deadlock.
	first, second := s, b
	if buyer < seller {
		first, second = b, s
	}
	first.Mu.Lock()
	second.Mu.Lock()

	if err := ctx.Err(); err != nil {
		second.Mu.Unlock()
		first.Mu.Unlock()
		return err
	}
	if s.BalanceKwh.Cmp(amountKwh) < 0 {
		second.Mu.Unlock()
		first.Mu.Unlock()
		return domain.ErrInsufficientBalance
	}

	s.BalanceKwh = s.BalanceKwh.Sub(amountKwh)
	b.BalanceKwh = b.BalanceKwh.Add(amountKwh)
	l.appendAudit(ctx, seller, amountKwh.Neg(), ReasonTransferOut, s.BalanceKwh)
	l.appendAudit(ctx, buyer, amountKwh, ReasonTransferIn, b.BalanceKwh)

	second.Mu.Unlock()
	first.Mu.Unlock()

	l.notify(seller)
	l.notify(buyer)
	return nil
}

func (l *Ledger) get(addr string) (*domain.Participant, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.participants[addr]
	if !ok {
		return nil, domain.ErrNotRegistered
	}
	return p, nil
}

func (l *Ledger) appendAudit(ctx context.Context, addr string, delta decimal.Decimal, reason string, balance decimal.Decimal) {
	rec := &domain.AuditRecord{
		Seq:         l.auditSeq.Add(1),
		Participant: addr,
		DeltaKwh:    delta,
		Reason:      reason,
		BalanceKwh:  balance,
		At:          time.Now(),
	}
	// The audit trail never vetoes a committed balance change; archive
	// failures are handled inside the log implementation.
	_ = l.audit.Append(ctx, rec)
}

func (l *Ledger) notify(addr string) {
	for _, obs := range l.observers {
		obs.BalanceChanged(addr)
	}
}
