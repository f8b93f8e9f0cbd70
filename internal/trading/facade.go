package trading

import (
	"context"

	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/shopspring/decimal"
)

// Facade is the single entry point for trading operations. Each call is an
// independent, non-resumable sequence; nothing persists between calls and
// re-invoking an operation submits a new order. Typed errors from the
// underlying components propagate unchanged: formatting them for humans is
// the presentation layer's job.
type Facade struct {
	converter  *QuantityConverter
	dispatcher *OrderDispatcher
	closer     *PositionCloser
	logger     core.ILogger
}

// NewFacade wires the trading core over an initialized exchange handle
func NewFacade(exchange core.IExchange, logger core.ILogger) *Facade {
	gateway := NewMarketDataGateway(exchange, logger)
	dispatcher := NewOrderDispatcher(exchange, logger)
	return &Facade{
		converter:  NewQuantityConverter(gateway, logger),
		dispatcher: dispatcher,
		closer:     NewPositionCloser(gateway, dispatcher, logger),
		logger:     logger.WithField("component", "trading_facade"),
	}
}

// MarketBuy opens a long position worth usdtAmount at the market price
func (f *Facade) MarketBuy(ctx context.Context, symbol string, usdtAmount decimal.Decimal) (*core.Order, error) {
	return f.notionalOrder(ctx, symbol, core.OrderTypeMarket, core.SideBuy, usdtAmount, decimal.Zero)
}

// MarketSell opens a short position worth usdtAmount at the market price
func (f *Facade) MarketSell(ctx context.Context, symbol string, usdtAmount decimal.Decimal) (*core.Order, error) {
	return f.notionalOrder(ctx, symbol, core.OrderTypeMarket, core.SideSell, usdtAmount, decimal.Zero)
}

// LimitBuy opens a long position worth usdtAmount at the given limit price
func (f *Facade) LimitBuy(ctx context.Context, symbol string, usdtAmount, price decimal.Decimal) (*core.Order, error) {
	return f.notionalOrder(ctx, symbol, core.OrderTypeLimit, core.SideBuy, usdtAmount, price)
}

// LimitSell opens a short position worth usdtAmount at the given limit price
func (f *Facade) LimitSell(ctx context.Context, symbol string, usdtAmount, price decimal.Decimal) (*core.Order, error) {
	return f.notionalOrder(ctx, symbol, core.OrderTypeLimit, core.SideSell, usdtAmount, price)
}

// ClosePosition flattens all open exposure for a symbol
func (f *Facade) ClosePosition(ctx context.Context, symbol string) (*core.ClosureReport, error) {
	if symbol == "" {
		return nil, apperrors.Validation("symbol is required")
	}
	return f.closer.CloseSymbol(ctx, symbol)
}

func (f *Facade) notionalOrder(
	ctx context.Context,
	symbol string,
	orderType core.OrderType,
	side core.Side,
	usdtAmount decimal.Decimal,
	price decimal.Decimal,
) (*core.Order, error) {
	if symbol == "" {
		return nil, apperrors.Validation("symbol is required")
	}
	if orderType == core.OrderTypeLimit && !price.IsPositive() {
		return nil, apperrors.Validation("limit price must be positive, got %s", price)
	}

	quantity, err := f.converter.ToBaseQuantity(ctx, symbol, usdtAmount)
	if err != nil {
		return nil, err
	}

	return f.dispatcher.Submit(ctx, symbol, orderType, side, quantity, price, SubmitParams{})
}
