package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridmesh/energymarket/internal/events"
	"github.com/gridmesh/energymarket/internal/metrics"
	"github.com/gridmesh/energymarket/internal/service"
)

// NewRouter creates a chi router with all routes registered, request
// logging, metrics, and Content-Type validation middleware. hub may be
// nil when the WebSocket feed is disabled.
func NewRouter(
	participantSvc *service.ParticipantService,
	orderSvc *service.OrderService,
	tradeSvc *service.TradeService,
	marketSvc *service.MarketService,
	hub *events.Hub,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(metrics.Middleware)
	r.Use(contentTypeJSON)

	// Create handlers.
	participantH := NewParticipantHandler(participantSvc)
	orderH := NewOrderHandler(orderSvc)
	tradeH := NewTradeHandler(tradeSvc)
	marketH := NewMarketHandler(marketSvc)

	// Health check and instrumentation.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())
	if hub != nil {
		r.Get("/ws", hub.ServeHTTP)
	}

	// Participant routes.
	r.Post("/participants", participantH.Register)
	r.Post("/participants/{address}/surplus", participantH.ReportSurplus)
	r.Get("/participants/{address}/balance", participantH.GetBalance)
	r.Get("/participants/{address}/audit", participantH.GetAuditTrail)

	// Order and matching routes.
	r.Post("/orders", orderH.Create)
	r.Get("/orders", orderH.List)
	r.Get("/orders/{order_id}", orderH.Get)
	r.Delete("/orders/{order_id}", orderH.Cancel)
	r.Post("/matching/run", orderH.RunMatching)

	// Trade routes.
	r.Post("/trades/direct", tradeH.ExecuteDirect)
	r.Get("/trades", tradeH.List)

	// Market and status routes.
	r.Get("/market/book", marketH.GetBook)
	r.Get("/market/price", marketH.GetPrice)
	r.Get("/status", marketH.GetStatus)

	return r
}

// requestLogging returns middleware that logs each request's method,
// path, status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON validates Content-Type for POST, PUT, and PATCH
// requests that carry a body. Bodyless POSTs (the matching trigger)
// pass through.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if r.ContentLength != 0 && !hasJSONContentType(r) {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
