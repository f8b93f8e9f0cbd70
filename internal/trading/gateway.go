// Package trading implements the order execution core: converting USDT
// notionals into base quantities, dispatching orders, and closing positions.
package trading

import (
	"context"

	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/shopspring/decimal"
)

// MarketDataGateway reads prices, market limits and position snapshots from
// the exchange. It is stateless: every call is a fresh read except the
// minimum-amount lookup, which comes from metadata loaded once at startup.
type MarketDataGateway struct {
	exchange core.IExchange
	logger   core.ILogger
}

// NewMarketDataGateway creates a gateway over an initialized exchange handle
func NewMarketDataGateway(exchange core.IExchange, logger core.ILogger) *MarketDataGateway {
	return &MarketDataGateway{
		exchange: exchange,
		logger:   logger.WithField("component", "market_data_gateway"),
	}
}

// LastPrice returns the last trade price for a symbol
func (g *MarketDataGateway) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ticker, err := g.exchange.FetchTicker(ctx, symbol)
	if err != nil {
		if apperrors.Classified(err) {
			return decimal.Zero, err
		}
		return decimal.Zero, apperrors.MarketData("failed to fetch ticker for %s: %v", symbol, err)
	}
	if !ticker.Last.IsPositive() {
		return decimal.Zero, apperrors.MarketData("no last price available for %s", symbol)
	}
	return ticker.Last, nil
}

// MinimumAmount returns the minimum tradable amount for a symbol from the
// metadata loaded at initialization.
func (g *MarketDataGateway) MinimumAmount(symbol string) (decimal.Decimal, error) {
	limits, ok := g.exchange.GetMarketLimits(symbol)
	if !ok {
		return decimal.Zero, apperrors.MarketData("symbol %s not present in loaded market metadata", symbol)
	}
	return limits.MinAmount, nil
}

// OpenPositions returns the raw position snapshot for a symbol. Zero-amount
// entries are not filtered here; that decision belongs to the caller.
func (g *MarketDataGateway) OpenPositions(ctx context.Context, symbol string) ([]*core.Position, error) {
	positions, err := g.exchange.FetchPositions(ctx, symbol)
	if err != nil {
		if apperrors.Classified(err) {
			return nil, err
		}
		return nil, apperrors.MarketData("failed to fetch positions for %s: %v", symbol, err)
	}
	return positions, nil
}
