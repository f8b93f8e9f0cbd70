package trading

import (
	"context"
	"testing"

	"trade_server/internal/core"
	"trade_server/internal/mock"
	apperrors "trade_server/pkg/errors"
	"trade_server/pkg/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFacade(t *testing.T) (*Facade, *mock.MockExchange) {
	t.Helper()
	logger, err := logging.NewZapLogger("ERROR")
	require.NoError(t, err)
	ex := mock.NewMockExchange("mock")
	return NewFacade(ex, logger), ex
}

func TestMarketBuyFlow(t *testing.T) {
	facade, ex := newTestFacade(t)
	ex.SetTicker("BTCUSDT", decimal.NewFromInt(50000))
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.001"))

	order, err := facade.MarketBuy(context.Background(), "BTCUSDT", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, core.SideBuy, order.Side)
	assert.Equal(t, core.OrderTypeMarket, order.Type)

	require.Len(t, ex.Requests, 1)
	assert.True(t, ex.Requests[0].Quantity.Equal(decimal.RequireFromString("0.002")),
		"100 USDT at 50000 must convert to 0.002")
	assert.True(t, ex.Requests[0].Price.IsZero())
}

func TestMarketSellFlow(t *testing.T) {
	facade, ex := newTestFacade(t)
	ex.SetTicker("ETHUSDT", decimal.NewFromInt(2000))
	ex.SetLimits("ETHUSDT", decimal.RequireFromString("0.01"))

	order, err := facade.MarketSell(context.Background(), "ETHUSDT", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, core.SideSell, order.Side)

	require.Len(t, ex.Requests, 1)
	assert.True(t, ex.Requests[0].Quantity.Equal(decimal.RequireFromString("0.025")))
}

func TestLimitBuyFlow(t *testing.T) {
	facade, ex := newTestFacade(t)
	ex.SetTicker("BTCUSDT", decimal.NewFromInt(50000))
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.001"))

	order, err := facade.LimitBuy(context.Background(), "BTCUSDT",
		decimal.NewFromInt(100), decimal.NewFromInt(48000))
	require.NoError(t, err)
	assert.Equal(t, core.OrderTypeLimit, order.Type)
	assert.True(t, order.Price.Equal(decimal.NewFromInt(48000)))

	// Quantity is derived from the live price, not the limit price
	require.Len(t, ex.Requests, 1)
	assert.True(t, ex.Requests[0].Quantity.Equal(decimal.RequireFromString("0.002")))
}

func TestLimitSellRequiresPositivePrice(t *testing.T) {
	facade, ex := newTestFacade(t)
	ex.SetTicker("BTCUSDT", decimal.NewFromInt(50000))
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.001"))

	_, err := facade.LimitSell(context.Background(), "BTCUSDT",
		decimal.NewFromInt(100), decimal.Zero)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, ex.Requests)
}

func TestFacadeEmptySymbol(t *testing.T) {
	facade, _ := newTestFacade(t)

	_, err := facade.MarketBuy(context.Background(), "", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = facade.ClosePosition(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFacadePropagatesConversionError(t *testing.T) {
	facade, ex := newTestFacade(t)
	ex.SetTicker("BTCUSDT", decimal.NewFromInt(50000))
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.01"))

	_, err := facade.MarketBuy(context.Background(), "BTCUSDT", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)
	assert.Empty(t, ex.Requests, "below-minimum orders never reach the exchange")
}

func TestFacadeClosePosition(t *testing.T) {
	facade, ex := newTestFacade(t)
	ex.SetPositions("BTCUSDT", decimal.NewFromInt(2))

	report, err := facade.ClosePosition(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Closed())

	require.Len(t, ex.Requests, 1)
	assert.True(t, ex.Requests[0].ReduceOnly)
	assert.Equal(t, core.SideSell, ex.Requests[0].Side)
}
