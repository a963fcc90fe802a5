package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/service"
)

// MarketHandler handles HTTP requests for market and status endpoints.
type MarketHandler struct {
	svc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(svc *service.MarketService) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// bookLevelResponse is a single aggregated price level.
type bookLevelResponse struct {
	Price      decimal.Decimal `json:"price"`
	TotalKwh   decimal.Decimal `json:"total_kwh"`
	OrderCount int             `json:"order_count"`
}

// bookResponse is the JSON response for GET /market/book.
type bookResponse struct {
	Buys       []bookLevelResponse `json:"buys"`
	Sells      []bookLevelResponse `json:"sells"`
	SnapshotAt time.Time           `json:"snapshot_at"`
}

// priceResponse is the JSON response for GET /market/price.
type priceResponse struct {
	CurrentPrice   *decimal.Decimal `json:"current_price"`
	Window         string           `json:"window"`
	TradesInWindow int              `json:"trades_in_window"`
	LastTradeAt    *time.Time       `json:"last_trade_at"`
}

// statusResponse is the JSON response for GET /status.
type statusResponse struct {
	Participants     int   `json:"participants"`
	ActiveBuyOrders  int   `json:"active_buy_orders"`
	ActiveSellOrders int   `json:"active_sell_orders"`
	TradesCompleted  int   `json:"trades_completed"`
	TradesVoided     int   `json:"trades_voided"`
	UptimeSeconds    int64 `json:"uptime_seconds"`
}

// GetBook handles GET /market/book?depth=.
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	depth := 10
	if d := r.URL.Query().Get("depth"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "depth must be a valid integer")
			return
		}
		depth = parsed
	}

	resp, err := h.svc.GetBook(depth)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, bookResponse{
		Buys:       toBookLevelResponses(resp.Buys),
		Sells:      toBookLevelResponses(resp.Sells),
		SnapshotAt: resp.SnapshotAt,
	})
}

func toBookLevelResponses(levels []service.BookPriceLevel) []bookLevelResponse {
	out := make([]bookLevelResponse, len(levels))
	for i, pl := range levels {
		out[i] = bookLevelResponse{
			Price:      pl.Price,
			TotalKwh:   pl.TotalKwh,
			OrderCount: pl.OrderCount,
		}
	}
	return out
}

// GetPrice handles GET /market/price.
func (h *MarketHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.GetPrice(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, priceResponse{
		CurrentPrice:   resp.CurrentPrice,
		Window:         resp.Window,
		TradesInWindow: resp.TradesInWindow,
		LastTradeAt:    resp.LastTradeAt,
	})
}

// GetStatus handles GET /status.
func (h *MarketHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Status(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, statusResponse{
		Participants:     resp.Participants,
		ActiveBuyOrders:  resp.ActiveBuyOrders,
		ActiveSellOrders: resp.ActiveSellOrders,
		TradesCompleted:  resp.TradesCompleted,
		TradesVoided:     resp.TradesVoided,
		UptimeSeconds:    resp.UptimeSeconds,
	})
}
