package trading

import (
	"context"

	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDispatcher validates order shape and submits orders to the exchange.
// It performs no retries: a submission is not idempotent and a blind retry
// risks duplicate execution. Retry policy, if any, belongs to the caller.
type OrderDispatcher struct {
	exchange core.IExchange
	logger   core.ILogger
}

// NewOrderDispatcher creates a dispatcher over an initialized exchange handle
func NewOrderDispatcher(exchange core.IExchange, logger core.ILogger) *OrderDispatcher {
	return &OrderDispatcher{
		exchange: exchange,
		logger:   logger.WithField("component", "order_dispatcher"),
	}
}

// SubmitParams carries optional order directives merged into the submission.
type SubmitParams struct {
	ReduceOnly bool
}

// Submit validates and sends one order, returning the normalized exchange
// response. LIMIT orders require a price; MARKET orders must not carry one.
func (d *OrderDispatcher) Submit(
	ctx context.Context,
	symbol string,
	orderType core.OrderType,
	side core.Side,
	quantity decimal.Decimal,
	price decimal.Decimal,
	params SubmitParams,
) (*core.Order, error) {
	switch orderType {
	case core.OrderTypeLimit:
		if !price.IsPositive() {
			return nil, apperrors.InvalidOrder("price is required for limit orders")
		}
	case core.OrderTypeMarket:
		if !price.IsZero() {
			return nil, apperrors.InvalidOrder("price must not be set for market orders, got %s", price)
		}
	default:
		return nil, apperrors.InvalidOrder("unsupported order type: %s", orderType)
	}

	if !quantity.IsPositive() {
		return nil, apperrors.InvalidOrder("quantity must be positive, got %s", quantity)
	}

	req := &core.OrderRequest{
		Symbol:        symbol,
		Type:          orderType,
		Side:          side,
		Quantity:      quantity,
		Price:         price,
		ReduceOnly:    params.ReduceOnly,
		ClientOrderID: uuid.NewString(),
	}

	order, err := d.exchange.CreateOrder(ctx, req)
	if err != nil {
		if apperrors.Classified(err) {
			return nil, err
		}
		return nil, apperrors.Trading("failed to create order: %v", err)
	}

	d.logger.Info("order submitted",
		"order_id", order.ID,
		"symbol", order.Symbol,
		"side", order.Side,
		"type", order.Type,
		"quantity", order.Quantity.String(),
		"status", order.Status)

	return order, nil
}
