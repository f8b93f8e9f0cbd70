// Package server exposes the trading core as a JSON-over-HTTP tool API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trade_server/internal/config"
	"trade_server/internal/core"
	"trade_server/internal/infrastructure/health"
	"trade_server/internal/trading"
	"trade_server/pkg/concurrency"
	apperrors "trade_server/pkg/errors"
	"trade_server/pkg/telemetry"

	"github.com/shopspring/decimal"
)

// Server routes tool invocations to the trading facade. Handlers run on a
// bounded worker pool so a burst of tool calls cannot open unbounded
// concurrent exchange work.
type Server struct {
	cfg      config.ServerConfig
	logger   core.ILogger
	exchange core.IExchange
	facade   *trading.Facade
	balances *trading.BalanceService
	hm       *health.HealthManager
	metrics  *telemetry.Metrics
	pool     *concurrency.WorkerPool
	srv      *http.Server
}

// NewServer creates the tool server over an initialized trading stack
func NewServer(
	cfg config.ServerConfig,
	exchange core.IExchange,
	facade *trading.Facade,
	balances *trading.BalanceService,
	hm *health.HealthManager,
	metrics *telemetry.Metrics,
	logger core.ILogger,
) *Server {
	pool := concurrency.NewWorkerPool(concurrency.PoolConfig{
		Name:        "tool_requests",
		MaxWorkers:  cfg.PoolSize,
		MaxCapacity: cfg.PoolCapacity,
	}, logger)

	return &Server{
		cfg:      cfg,
		logger:   logger.WithField("component", "tool_server"),
		exchange: exchange,
		facade:   facade,
		balances: balances,
		hm:       hm,
		metrics:  metrics,
		pool:     pool,
	}
}

// Handler returns the HTTP handler with all routes mounted
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /tools/open_market_long", s.tool("open_market_long", s.handleMarketOrder(core.SideBuy)))
	mux.HandleFunc("POST /tools/open_market_short", s.tool("open_market_short", s.handleMarketOrder(core.SideSell)))
	mux.HandleFunc("POST /tools/open_limit_long", s.tool("open_limit_long", s.handleLimitOrder(core.SideBuy)))
	mux.HandleFunc("POST /tools/open_limit_short", s.tool("open_limit_short", s.handleLimitOrder(core.SideSell)))
	mux.HandleFunc("POST /tools/close_position", s.tool("close_position", s.handleClosePosition))

	mux.HandleFunc("GET /resources/balances", s.tool("balances", s.handleBalances))
	mux.HandleFunc("GET /resources/positions", s.tool("positions", s.handlePositions))

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return mux
}

// Start starts the tool HTTP server
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}

	go func() {
		s.logger.Info("Starting tool server", "port", s.cfg.Port)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Tool server failed", "error", err)
		}
	}()
}

// Stop gracefully stops the server and drains the worker pool
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.logger.Info("Stopping tool server")
	err := s.srv.Shutdown(ctx)
	s.pool.Stop()
	return err
}

// tool wraps a handler with pool scheduling and latency recording.
func (s *Server) tool(name string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.pool.SubmitAndWait(func() {
			handler(w, r)
		})
		if s.metrics != nil {
			s.metrics.RequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		}
	}
}

type orderPayload struct {
	Symbol     string          `json:"symbol"`
	USDTAmount decimal.Decimal `json:"usdt_amount"`
	Price      decimal.Decimal `json:"price"`
}

type closePayload struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleMarketOrder(side core.Side) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderPayload
		if err := decodeJSON(r, &payload); err != nil {
			s.writeError(w, err)
			return
		}

		var order *core.Order
		var err error
		if side == core.SideBuy {
			order, err = s.facade.MarketBuy(r.Context(), payload.Symbol, payload.USDTAmount)
		} else {
			order, err = s.facade.MarketSell(r.Context(), payload.Symbol, payload.USDTAmount)
		}
		s.writeOrderResult(w, order, err)
	}
}

func (s *Server) handleLimitOrder(side core.Side) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderPayload
		if err := decodeJSON(r, &payload); err != nil {
			s.writeError(w, err)
			return
		}

		var order *core.Order
		var err error
		if side == core.SideBuy {
			order, err = s.facade.LimitBuy(r.Context(), payload.Symbol, payload.USDTAmount, payload.Price)
		} else {
			order, err = s.facade.LimitSell(r.Context(), payload.Symbol, payload.USDTAmount, payload.Price)
		}
		s.writeOrderResult(w, order, err)
	}
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	var payload closePayload
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, err)
		return
	}

	report, err := s.facade.ClosePosition(r.Context(), payload.Symbol)
	if err != nil && report == nil {
		s.writeError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.PositionsClosed.Add(float64(report.Closed()))
		s.metrics.CloseLegFails.Add(float64(report.Failed()))
	}

	// A report with failed legs is still a result the caller must see
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]interface{}{
		"symbol": report.Symbol,
		"closed": report.Closed(),
		"failed": report.Failed(),
		"legs":   legsView(report),
	})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.balances.Balances(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"balances": balances})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	positions, err := s.exchange.FetchPositions(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"positions": positions})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	}

	status := http.StatusOK
	if s.hm != nil {
		response["components"] = s.hm.GetStatus()
		if !s.hm.IsHealthy() {
			response["status"] = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, response)
}

func (s *Server) writeOrderResult(w http.ResponseWriter, order *core.Order, err error) {
	if err != nil {
		if s.metrics != nil {
			s.metrics.OrderFailures.WithLabelValues(errorKind(err)).Inc()
		}
		s.writeError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.OrdersSubmitted.WithLabelValues(string(order.Side), string(order.Type)).Inc()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.logger.Warn("tool request failed", "kind", errorKind(err), "error", err)
	writeJSON(w, statusFor(err), map[string]interface{}{
		"error": map[string]string{
			"kind":    errorKind(err),
			"message": err.Error(),
		},
	})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Validation("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidOrder):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrMarketData):
		return http.StatusBadGateway
	case errors.Is(err, apperrors.ErrNetwork):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrInvalidOrder):
		return "invalid_order"
	case errors.Is(err, apperrors.ErrAuthentication):
		return "authentication"
	case errors.Is(err, apperrors.ErrMarketData):
		return "market_data"
	case errors.Is(err, apperrors.ErrNetwork):
		return "network"
	default:
		return "trading"
	}
}

type legView struct {
	Size    decimal.Decimal `json:"size"`
	Side    core.Side       `json:"side"`
	OrderID string          `json:"order_id,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func legsView(report *core.ClosureReport) []legView {
	legs := make([]legView, 0, len(report.Legs))
	for _, leg := range report.Legs {
		view := legView{
			Size:    leg.Size,
			Side:    leg.Side,
			OrderID: leg.OrderID,
		}
		if leg.Err != nil {
			view.Error = leg.Err.Error()
		}
		legs = append(legs, view)
	}
	return legs
}
