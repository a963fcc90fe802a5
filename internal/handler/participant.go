package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/service"
)

// ParticipantHandler handles HTTP requests for participant endpoints.
type ParticipantHandler struct {
	svc *service.ParticipantService
}

// NewParticipantHandler creates a new ParticipantHandler.
func NewParticipantHandler(svc *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{svc: svc}
}

// registerRequest is the JSON request body for POST /participants.
type registerRequest struct {
	Address string `json:"address"`
}

// surplusRequest is the JSON request body for
// POST /participants/{address}/surplus.
type surplusRequest struct {
	AmountKwh decimal.Decimal `json:"amount_kwh"`
}

// balanceResponse is the JSON balance view shared by participant
// endpoints.
type balanceResponse struct {
	Address    string          `json:"address"`
	BalanceKwh decimal.Decimal `json:"balance_kwh"`
}

// auditRecordResponse is a single entry in the audit trail response.
type auditRecordResponse struct {
	Seq        uint64          `json:"seq"`
	DeltaKwh   decimal.Decimal `json:"delta_kwh"`
	Reason     string          `json:"reason"`
	BalanceKwh decimal.Decimal `json:"balance_kwh"`
	At         time.Time       `json:"at"`
}

// Register handles POST /participants.
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.svc.Register(caller(r), req.Address)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, balanceResponse{
		Address:    resp.Address,
		BalanceKwh: resp.BalanceKwh,
	})
}

// ReportSurplus handles POST /participants/{address}/surplus.
func (h *ParticipantHandler) ReportSurplus(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	var req surplusRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.svc.ReportSurplus(r.Context(), caller(r), address, req.AmountKwh)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, balanceResponse{
		Address:    resp.Address,
		BalanceKwh: resp.BalanceKwh,
	})
}

// GetBalance handles GET /participants/{address}/balance.
func (h *ParticipantHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	resp, err := h.svc.Balance(r.Context(), address)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, balanceResponse{
		Address:    resp.Address,
		BalanceKwh: resp.BalanceKwh,
	})
}

// GetAuditTrail handles GET /participants/{address}/audit.
func (h *ParticipantHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	recs, err := h.svc.AuditTrail(r.Context(), address)
	if err != nil {
		mapError(w, err)
		return
	}

	out := make([]auditRecordResponse, len(recs))
	for i, rec := range recs {
		out[i] = auditRecordResponse{
			Seq:        rec.Seq,
			DeltaKwh:   rec.DeltaKwh,
			Reason:     rec.Reason,
			BalanceKwh: rec.BalanceKwh,
			At:         rec.At,
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"address": address,
		"records": out,
	})
}
