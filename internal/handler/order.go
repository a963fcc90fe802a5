package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
	"github.com/gridmesh/energymarket/internal/service"
)

// OrderHandler handles HTTP requests for order and matching endpoints.
type OrderHandler struct {
	svc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// createOrderRequest is the JSON request body for POST /orders.
type createOrderRequest struct {
	Side        string          `json:"side"`
	AmountKwh   decimal.Decimal `json:"amount_kwh"`
	PricePerKwh decimal.Decimal `json:"price_per_kwh"`
}

// orderResponse is the JSON view of an order.
type orderResponse struct {
	OrderID      string          `json:"order_id"`
	Owner        string          `json:"owner"`
	Side         string          `json:"side"`
	AmountKwh    decimal.Decimal `json:"amount_kwh"`
	FilledKwh    decimal.Decimal `json:"filled_kwh"`
	RemainingKwh decimal.Decimal `json:"remaining_kwh"`
	PricePerKwh  decimal.Decimal `json:"price_per_kwh"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		OrderID:      o.OrderID,
		Owner:        o.Owner,
		Side:         string(o.Side),
		AmountKwh:    o.RequestedKwh,
		FilledKwh:    o.FilledKwh,
		RemainingKwh: o.RemainingKwh(),
		PricePerKwh:  o.PricePerKwh,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		CancelledAt:  o.CancelledAt,
	}
}

// orderListResponse is the JSON response for GET /orders.
type orderListResponse struct {
	Buys  []orderResponse `json:"buys"`
	Sells []orderResponse `json:"sells"`
}

// runMatchingRequest is the optional JSON request body for
// POST /matching/run. A retried trigger resends its original pass_seq
// so the settlement keys match and nothing settles twice.
type runMatchingRequest struct {
	PassSeq uint64 `json:"pass_seq"`
}

// matchingResultResponse is the JSON response for POST /matching/run.
type matchingResultResponse struct {
	PassSeq   uint64          `json:"pass_seq"`
	Completed []tradeResponse `json:"completed"`
	Voided    []tradeResponse `json:"voided"`
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.svc.Create(caller(r), service.CreateOrderRequest{
		Side:        domain.OrderSide(req.Side),
		AmountKwh:   req.AmountKwh,
		PricePerKwh: req.PricePerKwh,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

// Get handles GET /orders/{order_id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Get(chi.URLParam(r, "order_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// Cancel handles DELETE /orders/{order_id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Cancel(chi.URLParam(r, "order_id"), caller(r))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	buys, sells := h.svc.ListActive()

	resp := orderListResponse{
		Buys:  make([]orderResponse, len(buys)),
		Sells: make([]orderResponse, len(sells)),
	}
	for i := range buys {
		resp.Buys[i] = toOrderResponse(&buys[i])
	}
	for i := range sells {
		resp.Sells[i] = toOrderResponse(&sells[i])
	}
	WriteJSON(w, http.StatusOK, resp)
}

// RunMatching handles POST /matching/run. The body is optional.
func (h *OrderHandler) RunMatching(w http.ResponseWriter, r *http.Request) {
	var req runMatchingRequest
	if r.ContentLength > 0 {
		if err := ParseJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	result, err := h.svc.TriggerMatching(r.Context(), req.PassSeq)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := matchingResultResponse{
		PassSeq:   result.PassSeq,
		Completed: make([]tradeResponse, len(result.Completed)),
		Voided:    make([]tradeResponse, len(result.Voided)),
	}
	for i, t := range result.Completed {
		resp.Completed[i] = toTradeResponse(t)
	}
	for i, t := range result.Voided {
		resp.Voided[i] = toTradeResponse(t)
	}
	WriteJSON(w, http.StatusOK, resp)
}
