package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gridmesh/energymarket/internal/domain"
)

// callerHeader carries the opaque caller identity. Absent means the
// null identity (the zero address), which holds no capabilities.
const callerHeader = "X-Caller-Address"

// caller extracts the caller identity from the request.
func caller(r *http.Request) string {
	if addr := r.Header.Get(callerHeader); addr != "" {
		return addr
	}
	return domain.ZeroAddress
}

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status
// code, error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v, rejecting unknown
// fields.
func ParseJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("request body must be valid JSON")
	}
	return nil
}

// mapError maps domain errors to HTTP responses. Shared across all
// endpoints; the error taxonomy is small enough for one table.
func mapError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteError(w, http.StatusBadRequest, "validation_error", verr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrAuthorization):
		WriteError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrNotRegistered):
		WriteError(w, http.StatusNotFound, "participant_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyRegistered):
		WriteError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, domain.ErrDuplicateTrade):
		WriteError(w, http.StatusConflict, "duplicate_trade", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		WriteError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrInvalidCounterparty):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_counterparty", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "timeout", "operation exceeded its time budget")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}

// hasJSONContentType reports whether the request declares a JSON body.
func hasJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct != "" && strings.HasPrefix(ct, "application/json")
}
