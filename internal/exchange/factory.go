// Package exchange provides exchange implementations
package exchange

import (
	"fmt"
	"strings"

	"trade_server/internal/config"
	"trade_server/internal/core"
	"trade_server/internal/exchange/binance"
	"trade_server/internal/mock"
)

// NewExchange creates a new exchange instance based on configuration
func NewExchange(cfg *config.Config, logger core.ILogger) (core.IExchange, error) {
	switch strings.ToLower(cfg.Exchange.Name) {
	case "binance":
		return binance.NewBinanceExchange(&cfg.Exchange, logger), nil
	case "mock":
		return mock.NewMockExchange("mock"), nil
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", cfg.Exchange.Name)
	}
}
