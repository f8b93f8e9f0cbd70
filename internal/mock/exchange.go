// Package mock provides an in-memory IExchange for testing
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/shopspring/decimal"
)

// MockExchange implements IExchange for testing
type MockExchange struct {
	name           string
	mu             sync.RWMutex
	orderIDCounter int64

	tickers   map[string]*core.Ticker
	limits    map[string]*core.MarketLimits
	positions map[string][]*core.Position
	balances  map[string]*core.Balance

	// Received order requests, in submission order
	Requests []*core.OrderRequest

	// Injectable failures, keyed by method name
	errs map[string]error

	// Per-call errors for CreateOrder: popped front-first, nil means success
	orderErrs []error
}

func NewMockExchange(name string) *MockExchange {
	return &MockExchange{
		name:           name,
		orderIDCounter: 1000,
		tickers:        make(map[string]*core.Ticker),
		limits:         make(map[string]*core.MarketLimits),
		positions:      make(map[string][]*core.Position),
		balances:       make(map[string]*core.Balance),
		errs:           make(map[string]error),
	}
}

// SetTicker sets the ticker returned for a symbol
func (m *MockExchange) SetTicker(symbol string, last decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[symbol] = &core.Ticker{
		Symbol:    symbol,
		Last:      last,
		Bid:       last,
		Ask:       last,
		Timestamp: time.Now(),
	}
}

// SetLimits sets the market limits for a symbol
func (m *MockExchange) SetLimits(symbol string, minAmount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits[symbol] = &core.MarketLimits{Symbol: symbol, MinAmount: minAmount}
}

// SetPositions sets the position snapshot for a symbol
func (m *MockExchange) SetPositions(symbol string, amounts ...decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	positions := make([]*core.Position, 0, len(amounts))
	for _, amt := range amounts {
		positions = append(positions, &core.Position{
			Symbol:    symbol,
			Amount:    amt,
			MarkPrice: decimal.NewFromInt(100),
		})
	}
	m.positions[symbol] = positions
}

// SetBalance sets the balance for a currency
func (m *MockExchange) SetBalance(currency string, total, available decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[currency] = &core.Balance{
		Currency:  currency,
		Total:     total,
		Available: available,
		Locked:    total.Sub(available),
	}
}

// FailWith makes the named method return err. Method names: "FetchTicker",
// "FetchPositions", "FetchBalances", "CreateOrder", "CheckHealth".
func (m *MockExchange) FailWith(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[method] = err
}

// QueueOrderResults sets per-call CreateOrder outcomes; nil entries succeed.
// Once the queue is drained, CreateOrder falls back to FailWith/"CreateOrder".
func (m *MockExchange) QueueOrderResults(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderErrs = append(m.orderErrs, errs...)
}

func (m *MockExchange) GetName() string {
	return m.name
}

func (m *MockExchange) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errs["CheckHealth"]
}

func (m *MockExchange) LoadMarkets(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errs["LoadMarkets"]
}

func (m *MockExchange) GetMarketLimits(symbol string) (*core.MarketLimits, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limits, ok := m.limits[symbol]
	return limits, ok
}

func (m *MockExchange) FetchTicker(ctx context.Context, symbol string) (*core.Ticker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["FetchTicker"]; err != nil {
		return nil, err
	}
	ticker, ok := m.tickers[symbol]
	if !ok {
		return nil, apperrors.MarketData("unknown symbol: %s", symbol)
	}
	return ticker, nil
}

func (m *MockExchange) FetchPositions(ctx context.Context, symbol string) ([]*core.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["FetchPositions"]; err != nil {
		return nil, err
	}
	return m.positions[symbol], nil
}

func (m *MockExchange) FetchBalances(ctx context.Context) (map[string]*core.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["FetchBalances"]; err != nil {
		return nil, err
	}
	out := make(map[string]*core.Balance, len(m.balances))
	for k, v := range m.balances {
		copied := *v
		out[k] = &copied
	}
	return out, nil
}

func (m *MockExchange) FetchAvailableBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	balances, err := m.FetchBalances(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if b, ok := balances[currency]; ok {
		return b.Available, nil
	}
	return decimal.Zero, nil
}

func (m *MockExchange) CreateOrder(ctx context.Context, req *core.OrderRequest) (*core.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if len(m.orderErrs) > 0 {
		err := m.orderErrs[0]
		m.orderErrs = m.orderErrs[1:]
		if err != nil {
			return nil, err
		}
	} else if err := m.errs["CreateOrder"]; err != nil {
		return nil, err
	}

	m.orderIDCounter++
	return &core.Order{
		ID:            fmt.Sprintf("%d", m.orderIDCounter),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Status:        core.OrderStatusNew,
		Remaining:     req.Quantity,
		Timestamp:     time.Now(),
	}, nil
}
