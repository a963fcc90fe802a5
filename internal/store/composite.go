package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gridmesh/energymarket/internal/domain"
)

// CompositeTradeLog combines a primary TradeLog with secondary
// archives. Writes go to all logs; reads come from the primary. An
// archive failure is logged but does not fail the settlement — the
// primary holds the authoritative record.
type CompositeTradeLog struct {
	primary   TradeLog
	secondary []TradeLog
}

// NewCompositeTradeLog creates a composite over a primary log and any
// number of secondary archives.
func NewCompositeTradeLog(primary TradeLog, secondary ...TradeLog) *CompositeTradeLog {
	return &CompositeTradeLog{primary: primary, secondary: secondary}
}

func (c *CompositeTradeLog) Append(ctx context.Context, t *domain.Trade) error {
	if err := c.primary.Append(ctx, t); err != nil {
		return err
	}
	for _, s := range c.secondary {
		if err := s.Append(ctx, t); err != nil && !errors.Is(err, domain.ErrDuplicateTrade) {
			slog.Warn("trade archive append failed",
				slog.String("trade_id", t.TradeID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (c *CompositeTradeLog) HasKey(ctx context.Context, key string) (bool, error) {
	return c.primary.HasKey(ctx, key)
}

func (c *CompositeTradeLog) Get(ctx context.Context, tradeID string) (*domain.Trade, bool) {
	return c.primary.Get(ctx, tradeID)
}

func (c *CompositeTradeLog) Between(ctx context.Context, from, to time.Time) ([]*domain.Trade, error) {
	return c.primary.Between(ctx, from, to)
}

// CompositeAuditLog fans audit writes out to a primary log and
// secondary archives, reading from the primary.
type CompositeAuditLog struct {
	primary   AuditLog
	secondary []AuditLog
}

// NewCompositeAuditLog creates a composite audit log.
func NewCompositeAuditLog(primary AuditLog, secondary ...AuditLog) *CompositeAuditLog {
	return &CompositeAuditLog{primary: primary, secondary: secondary}
}

func (c *CompositeAuditLog) Append(ctx context.Context, rec *domain.AuditRecord) error {
	if err := c.primary.Append(ctx, rec); err != nil {
		return err
	}
	for _, s := range c.secondary {
		if err := s.Append(ctx, rec); err != nil {
			slog.Warn("audit archive append failed",
				slog.String("participant", rec.Participant),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (c *CompositeAuditLog) ByParticipant(ctx context.Context, addr string) ([]*domain.AuditRecord, error) {
	return c.primary.ByParticipant(ctx, addr)
}
