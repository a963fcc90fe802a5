package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/service"
)

// TradeHandler handles HTTP requests for trade endpoints.
type TradeHandler struct {
	svc *service.TradeService
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(svc *service.TradeService) *TradeHandler {
	return &TradeHandler{svc: svc}
}

// directTradeRequest is the JSON request body for POST /trades/direct.
// The caller is the seller.
type directTradeRequest struct {
	Buyer     string          `json:"buyer"`
	AmountKwh decimal.Decimal `json:"amount_kwh"`
}

// tradeResponse is the JSON view of a trade record.
type tradeResponse struct {
	TradeID        string          `json:"trade_id"`
	BuyOrderID     string          `json:"buy_order_id,omitempty"`
	SellOrderID    string          `json:"sell_order_id,omitempty"`
	Buyer          string          `json:"buyer"`
	Seller         string          `json:"seller"`
	AmountKwh      decimal.Decimal `json:"amount_kwh"`
	ExecutionPrice decimal.Decimal `json:"execution_price"`
	Status         string          `json:"status"`
	VoidReason     string          `json:"void_reason,omitempty"`
	ExecutedAt     time.Time       `json:"executed_at"`
}

func toTradeResponse(t *domain.Trade) tradeResponse {
	return tradeResponse{
		TradeID:        t.TradeID,
		BuyOrderID:     t.BuyOrderID,
		SellOrderID:    t.SellOrderID,
		Buyer:          t.Buyer,
		Seller:         t.Seller,
		AmountKwh:      t.AmountKwh,
		ExecutionPrice: t.ExecutionPrice,
		Status:         string(t.Status),
		VoidReason:     t.VoidReason,
		ExecutedAt:     t.ExecutedAt,
	}
}

// tradeListResponse is the JSON response for GET /trades.
type tradeListResponse struct {
	Trades []tradeResponse `json:"trades"`
	Total  int             `json:"total"`
}

// ExecuteDirect handles POST /trades/direct.
func (h *TradeHandler) ExecuteDirect(w http.ResponseWriter, r *http.Request) {
	var req directTradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	trade, err := h.svc.ExecuteDirect(r.Context(), caller(r), req.Buyer, req.AmountKwh)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toTradeResponse(trade))
}

// List handles GET /trades?from=&to= with RFC 3339 timestamps. Both
// bounds are optional; the default window is everything up to now.
func (h *TradeHandler) List(w http.ResponseWriter, r *http.Request) {
	from := time.Time{}
	to := time.Now()

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "from must be an RFC 3339 timestamp")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "to must be an RFC 3339 timestamp")
			return
		}
		to = parsed
	}

	trades, err := h.svc.List(r.Context(), from, to)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := tradeListResponse{
		Trades: make([]tradeResponse, len(trades)),
		Total:  len(trades),
	}
	for i, t := range trades {
		resp.Trades[i] = toTradeResponse(t)
	}
	WriteJSON(w, http.StatusOK, resp)
}
