package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// IExchange defines the exchange connection handle the trading core consumes.
// It is created once during process initialization; credentials and
// sandbox/live mode are supplied at construction time by configuration.
type IExchange interface {
	// Identity
	GetName() string
	CheckHealth(ctx context.Context) error

	// Market metadata, loaded once and reused read-only afterwards
	LoadMarkets(ctx context.Context) error
	GetMarketLimits(symbol string) (*MarketLimits, bool)

	// Market data
	FetchTicker(ctx context.Context, symbol string) (*Ticker, error)

	// Account
	FetchPositions(ctx context.Context, symbol string) ([]*Position, error)
	FetchBalances(ctx context.Context) (map[string]*Balance, error)
	FetchAvailableBalance(ctx context.Context, currency string) (decimal.Decimal, error)

	// Order submission
	CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error)
}

// ILogger defines the interface for logging
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}
