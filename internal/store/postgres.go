package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
)

// Migrate creates the archive tables if they do not exist. All energy
// quantities are stored as NUMERIC for exact decimal precision.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			trade_id        TEXT PRIMARY KEY,
			buy_order_id    TEXT NOT NULL,
			sell_order_id   TEXT NOT NULL,
			buyer           TEXT NOT NULL,
			seller          TEXT NOT NULL,
			amount_kwh      NUMERIC NOT NULL,
			execution_price NUMERIC NOT NULL,
			idempotency_key TEXT NOT NULL UNIQUE,
			status          TEXT NOT NULL,
			void_reason     TEXT NOT NULL DEFAULT '',
			executed_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS trades_executed_at_idx ON trades (executed_at)`,
		`CREATE TABLE IF NOT EXISTS audit_records (
			seq         BIGINT NOT NULL,
			participant TEXT NOT NULL,
			delta_kwh   NUMERIC NOT NULL,
			reason      TEXT NOT NULL,
			balance_kwh NUMERIC NOT NULL,
			at          TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (participant, seq)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// PostgresTradeLog implements TradeLog backed by PostgreSQL. It serves
// as a durable archive behind the in-memory primary.
type PostgresTradeLog struct {
	pool *pgxpool.Pool
}

// NewPostgresTradeLog creates a PostgreSQL-backed trade log.
func NewPostgresTradeLog(pool *pgxpool.Pool) *PostgresTradeLog {
	return &PostgresTradeLog{pool: pool}
}

func (s *PostgresTradeLog) Append(ctx context.Context, t *domain.Trade) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trades (trade_id, buy_order_id, sell_order_id, buyer, seller,
		                     amount_kwh, execution_price, idempotency_key, status,
		                     void_reason, executed_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8, $9, $10, $11)`,
		t.TradeID, t.BuyOrderID, t.SellOrderID, t.Buyer, t.Seller,
		t.AmountKwh.String(), t.ExecutionPrice.String(), t.IdempotencyKey,
		string(t.Status), t.VoidReason, t.ExecutedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return domain.ErrDuplicateTrade
	}
	return err
}

func (s *PostgresTradeLog) HasKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trades WHERE idempotency_key = $1)`, key).
		Scan(&exists)
	return exists, err
}

func (s *PostgresTradeLog) Get(ctx context.Context, tradeID string) (*domain.Trade, bool) {
	t, err := s.scanTrade(s.pool.QueryRow(ctx,
		`SELECT trade_id, buy_order_id, sell_order_id, buyer, seller,
		        amount_kwh::TEXT, execution_price::TEXT, idempotency_key,
		        status, void_reason, executed_at
		 FROM trades WHERE trade_id = $1`, tradeID))
	if err != nil {
		return nil, false
	}
	return t, true
}

func (s *PostgresTradeLog) Between(ctx context.Context, from, to time.Time) ([]*domain.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT trade_id, buy_order_id, sell_order_id, buyer, seller,
		        amount_kwh::TEXT, execution_price::TEXT, idempotency_key,
		        status, void_reason, executed_at
		 FROM trades
		 WHERE executed_at >= $1 AND executed_at <= $2
		 ORDER BY executed_at`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		t, err := s.scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresTradeLog) scanTrade(row rowScanner) (*domain.Trade, error) {
	var t domain.Trade
	var amount, price, status string
	if err := row.Scan(&t.TradeID, &t.BuyOrderID, &t.SellOrderID, &t.Buyer, &t.Seller,
		&amount, &price, &t.IdempotencyKey, &status, &t.VoidReason, &t.ExecutedAt); err != nil {
		return nil, err
	}
	var err error
	if t.AmountKwh, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("scan trade amount: %w", err)
	}
	if t.ExecutionPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("scan trade price: %w", err)
	}
	t.Status = domain.TradeStatus(status)
	return &t, nil
}

// PostgresAuditLog implements AuditLog backed by PostgreSQL.
type PostgresAuditLog struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditLog creates a PostgreSQL-backed audit log.
func NewPostgresAuditLog(pool *pgxpool.Pool) *PostgresAuditLog {
	return &PostgresAuditLog{pool: pool}
}

func (s *PostgresAuditLog) Append(ctx context.Context, rec *domain.AuditRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_records (seq, participant, delta_kwh, reason, balance_kwh, at)
		 VALUES ($1, $2, $3::NUMERIC, $4, $5::NUMERIC, $6)`,
		rec.Seq, rec.Participant, rec.DeltaKwh.String(), rec.Reason,
		rec.BalanceKwh.String(), rec.At,
	)
	return err
}

func (s *PostgresAuditLog) ByParticipant(ctx context.Context, addr string) ([]*domain.AuditRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT seq, participant, delta_kwh::TEXT, reason, balance_kwh::TEXT, at
		 FROM audit_records WHERE participant = $1 ORDER BY seq`, addr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.AuditRecord, 0)
	for rows.Next() {
		var rec domain.AuditRecord
		var delta, balance string
		if err := rows.Scan(&rec.Seq, &rec.Participant, &delta, &rec.Reason, &balance, &rec.At); err != nil {
			return nil, err
		}
		if rec.DeltaKwh, err = decimal.NewFromString(delta); err != nil {
			return nil, fmt.Errorf("scan audit delta: %w", err)
		}
		if rec.BalanceKwh, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("scan audit balance: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
