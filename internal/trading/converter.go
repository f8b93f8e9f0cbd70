package trading

import (
	"context"

	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/shopspring/decimal"
)

// QuantityConverter turns a USDT notional into a base-asset quantity against
// the live price and validates it against the symbol's minimum amount.
type QuantityConverter struct {
	gateway *MarketDataGateway
	logger  core.ILogger
}

// NewQuantityConverter creates a converter over a market data gateway
func NewQuantityConverter(gateway *MarketDataGateway, logger core.ILogger) *QuantityConverter {
	return &QuantityConverter{
		gateway: gateway,
		logger:  logger.WithField("component", "quantity_converter"),
	}
}

// ToBaseQuantity converts a notional amount into a base-asset quantity.
// If the result is below the symbol's minimum tradable amount the conversion
// fails reporting both values; it never raises the quantity to the minimum,
// because that would trade a larger notional than the caller asked for.
func (c *QuantityConverter) ToBaseQuantity(ctx context.Context, symbol string, usdtAmount decimal.Decimal) (decimal.Decimal, error) {
	if !usdtAmount.IsPositive() {
		return decimal.Zero, apperrors.Validation("usdt amount must be positive, got %s", usdtAmount)
	}

	price, err := c.gateway.LastPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	quantity := usdtAmount.Div(price)

	minAmount, err := c.gateway.MinimumAmount(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	if quantity.LessThan(minAmount) {
		return decimal.Zero, apperrors.InvalidOrder(
			"amount %s is less than minimum required amount %s for %s",
			quantity, minAmount, symbol)
	}

	c.logger.Debug("converted notional to base quantity",
		"symbol", symbol,
		"usdt_amount", usdtAmount.String(),
		"price", price.String(),
		"quantity", quantity.String())

	return quantity, nil
}
