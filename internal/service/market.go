package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/book"
	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/ledger"
	"github.com/gridmesh/energymarket/internal/store"
)

// BookPriceLevel represents an aggregated price level in the market
// book response.
type BookPriceLevel struct {
	Price      decimal.Decimal
	TotalKwh   decimal.Decimal
	OrderCount int
}

// BookResponse represents the response for GET /market/book.
type BookResponse struct {
	Buys       []BookPriceLevel
	Sells      []BookPriceLevel
	SnapshotAt time.Time
}

// PriceResponse represents the response for GET /market/price.
type PriceResponse struct {
	CurrentPrice   *decimal.Decimal // nil when no matched trades ever
	Window         string           // e.g. "5m"
	TradesInWindow int
	LastTradeAt    *time.Time // nil when no matched trades ever
}

// StatusResponse represents the response for GET /status.
type StatusResponse struct {
	Participants     int
	ActiveBuyOrders  int
	ActiveSellOrders int
	TradesCompleted  int
	TradesVoided     int
	UptimeSeconds    int64
}

// MarketService handles market book, reference price, and system
// status queries.
type MarketService struct {
	ledger     *ledger.Ledger
	book       *book.Book
	trades     store.TradeLog
	vwapWindow time.Duration
	startedAt  time.Time
}

// NewMarketService creates a MarketService.
func NewMarketService(l *ledger.Ledger, b *book.Book, trades store.TradeLog, vwapWindow time.Duration) *MarketService {
	return &MarketService{
		ledger:     l,
		book:       b,
		trades:     trades,
		vwapWindow: vwapWindow,
		startedAt:  time.Now(),
	}
}

// GetBook returns the top depth aggregated price levels per side, best
// first.
func (s *MarketService) GetBook(depth int) (*BookResponse, error) {
	if depth < 1 || depth > 50 {
		return nil, &domain.ValidationError{
			Message: "depth must be between 1 and 50",
		}
	}

	return &BookResponse{
		Buys:       toBookLevels(s.book.TopBuys(depth)),
		Sells:      toBookLevels(s.book.TopSells(depth)),
		SnapshotAt: time.Now(),
	}, nil
}

func toBookLevels(levels []book.PriceLevel) []BookPriceLevel {
	out := make([]BookPriceLevel, len(levels))
	for i, pl := range levels {
		out[i] = BookPriceLevel{
			Price:      pl.Price,
			TotalKwh:   pl.TotalKwh,
			OrderCount: pl.OrderCount,
		}
	}
	return out
}

// GetPrice returns the market reference price, computed as the
// volume-weighted average execution price of matched trades over the
// configured window. Falls back to the last matched trade's price when
// the window is empty; the price is null when no matched trade has
// ever executed. Direct transfers carry no price and are excluded.
func (s *MarketService) GetPrice(ctx context.Context) (*PriceResponse, error) {
	now := time.Now()
	all, err := s.trades.Between(ctx, time.Time{}, now)
	if err != nil {
		return nil, err
	}

	resp := &PriceResponse{Window: formatWindow(s.vwapWindow)}

	var matched []*domain.Trade
	for _, t := range all {
		if t.Status == domain.TradeStatusCompleted && t.BuyOrderID != "" {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return resp, nil
	}

	last := matched[len(matched)-1]
	resp.LastTradeAt = &last.ExecutedAt

	windowStart := now.Add(-s.vwapWindow)
	sumPriceKwh := decimal.Zero
	sumKwh := decimal.Zero
	for i := len(matched) - 1; i >= 0; i-- {
		t := matched[i]
		if t.ExecutedAt.Before(windowStart) {
			break
		}
		sumPriceKwh = sumPriceKwh.Add(t.ExecutionPrice.Mul(t.AmountKwh))
		sumKwh = sumKwh.Add(t.AmountKwh)
		resp.TradesInWindow++
	}

	if sumKwh.Sign() > 0 {
		vwap := sumPriceKwh.Div(sumKwh)
		resp.CurrentPrice = &vwap
	} else {
		resp.CurrentPrice = &last.ExecutionPrice
	}
	return resp, nil
}

// Status returns the system status summary.
func (s *MarketService) Status(ctx context.Context) (*StatusResponse, error) {
	all, err := s.trades.Between(ctx, time.Time{}, time.Now())
	if err != nil {
		return nil, err
	}

	var completed, voided int
	for _, t := range all {
		if t.Status == domain.TradeStatusCompleted {
			completed++
		} else {
			voided++
		}
	}

	nbuys, nsells := s.book.ActiveCounts()
	return &StatusResponse{
		Participants:     s.ledger.ParticipantCount(),
		ActiveBuyOrders:  nbuys,
		ActiveSellOrders: nsells,
		TradesCompleted:  completed,
		TradesVoided:     voided,
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
	}, nil
}

// formatWindow converts the VWAP window to a short string like "5m".
func formatWindow(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	minutes := int(d.Minutes())
	if d == time.Duration(minutes)*time.Minute && minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return d.String()
}
