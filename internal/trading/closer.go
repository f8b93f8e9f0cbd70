package trading

import (
	"context"

	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/shopspring/decimal"
)

// PositionCloser flattens all open exposure for a symbol using reduce-only
// market orders on the side opposite each position.
type PositionCloser struct {
	gateway    *MarketDataGateway
	dispatcher *OrderDispatcher
	logger     core.ILogger
}

// NewPositionCloser creates a closer over the gateway and dispatcher
func NewPositionCloser(gateway *MarketDataGateway, dispatcher *OrderDispatcher, logger core.ILogger) *PositionCloser {
	return &PositionCloser{
		gateway:    gateway,
		dispatcher: dispatcher,
		logger:     logger.WithField("component", "position_closer"),
	}
}

// CloseSymbol fetches a fresh position snapshot and submits one reduce-only
// market order per nonzero position. A failed leg does not abort the
// remaining closures: every leg's outcome lands in the report so callers
// always know which positions may still be open. The returned error is
// non-nil only when every leg failed.
func (c *PositionCloser) CloseSymbol(ctx context.Context, symbol string) (*core.ClosureReport, error) {
	positions, err := c.gateway.OpenPositions(ctx, symbol)
	if err != nil {
		return nil, err
	}

	report := &core.ClosureReport{Symbol: symbol}

	for _, position := range positions {
		if position.Amount.IsZero() {
			continue
		}

		size := position.Amount.Abs()
		side := closingSide(position.Amount)

		leg := core.ClosureLeg{
			Symbol: symbol,
			Size:   size,
			Side:   side,
		}

		order, err := c.dispatcher.Submit(ctx, symbol, core.OrderTypeMarket, side, size, decimal.Zero, SubmitParams{ReduceOnly: true})
		if err != nil {
			c.logger.Error("closing submission failed",
				"symbol", symbol,
				"side", side,
				"size", size.String(),
				"error", err)
			leg.Err = err
		} else {
			leg.OrderID = order.ID
		}

		report.Legs = append(report.Legs, leg)
	}

	if len(report.Legs) == 0 {
		c.logger.Info("no open positions to close", "symbol", symbol)
		return report, nil
	}

	if report.Closed() == 0 {
		return report, apperrors.Trading("failed to close any of %d position(s) for %s", len(report.Legs), symbol)
	}

	c.logger.Info("close completed",
		"symbol", symbol,
		"closed", report.Closed(),
		"failed", report.Failed())

	return report, nil
}

// closingSide returns the side that reduces a signed position amount.
func closingSide(amount decimal.Decimal) core.Side {
	if amount.IsPositive() {
		return core.SideSell
	}
	return core.SideBuy
}
