package trading

import (
	"context"
	"testing"

	"trade_server/internal/mock"
	apperrors "trade_server/pkg/errors"
	"trade_server/pkg/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConverter(t *testing.T) (*QuantityConverter, *mock.MockExchange) {
	t.Helper()
	logger, err := logging.NewZapLogger("ERROR")
	require.NoError(t, err)
	ex := mock.NewMockExchange("mock")
	gateway := NewMarketDataGateway(ex, logger)
	return NewQuantityConverter(gateway, logger), ex
}

func TestToBaseQuantity(t *testing.T) {
	converter, ex := newTestConverter(t)
	ex.SetTicker("BTCUSDT", decimal.NewFromInt(50000))
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.001"))

	quantity, err := converter.ToBaseQuantity(context.Background(), "BTCUSDT", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, quantity.Equal(decimal.RequireFromString("0.002")),
		"expected 0.002, got %s", quantity)
}

func TestToBaseQuantityBelowMinimum(t *testing.T) {
	converter, ex := newTestConverter(t)
	ex.SetTicker("BTCUSDT", decimal.NewFromInt(50000))
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.01"))

	// 100 / 50000 = 0.002 < 0.01, must fail rather than bump to the minimum
	_, err := converter.ToBaseQuantity(context.Background(), "BTCUSDT", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)
	assert.Contains(t, err.Error(), "0.002")
	assert.Contains(t, err.Error(), "0.01")
}

func TestToBaseQuantityExactMinimum(t *testing.T) {
	converter, ex := newTestConverter(t)
	ex.SetTicker("BTCUSDT", decimal.NewFromInt(50000))
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.002"))

	quantity, err := converter.ToBaseQuantity(context.Background(), "BTCUSDT", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, quantity.Equal(decimal.RequireFromString("0.002")))
}

func TestToBaseQuantityNonPositiveAmount(t *testing.T) {
	converter, _ := newTestConverter(t)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-50)} {
		_, err := converter.ToBaseQuantity(context.Background(), "BTCUSDT", amount)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
}

func TestToBaseQuantityUnknownSymbol(t *testing.T) {
	converter, _ := newTestConverter(t)

	_, err := converter.ToBaseQuantity(context.Background(), "NOPEUSDT", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMarketData)
}

func TestToBaseQuantityMissingLimits(t *testing.T) {
	converter, ex := newTestConverter(t)
	ex.SetTicker("ETHUSDT", decimal.NewFromInt(2000))

	_, err := converter.ToBaseQuantity(context.Background(), "ETHUSDT", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMarketData)
	assert.Contains(t, err.Error(), "ETHUSDT")
}

func TestLastPriceZeroRejected(t *testing.T) {
	converter, ex := newTestConverter(t)
	ex.SetTicker("BTCUSDT", decimal.Zero)
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.001"))

	_, err := converter.ToBaseQuantity(context.Background(), "BTCUSDT", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMarketData)
}

func TestGatewayMinimumAmount(t *testing.T) {
	logger, err := logging.NewZapLogger("ERROR")
	require.NoError(t, err)
	ex := mock.NewMockExchange("mock")
	ex.SetLimits("BTCUSDT", decimal.RequireFromString("0.001"))
	gateway := NewMarketDataGateway(ex, logger)

	min, err := gateway.MinimumAmount("BTCUSDT")
	require.NoError(t, err)
	assert.True(t, min.Equal(decimal.RequireFromString("0.001")))

	_, err = gateway.MinimumAmount("SOLUSDT")
	assert.ErrorIs(t, err, apperrors.ErrMarketData)
}

func TestGatewayOpenPositionsKeepsZeroEntries(t *testing.T) {
	logger, err := logging.NewZapLogger("ERROR")
	require.NoError(t, err)
	ex := mock.NewMockExchange("mock")
	ex.SetPositions("BTCUSDT", decimal.NewFromInt(5), decimal.Zero)
	gateway := NewMarketDataGateway(ex, logger)

	positions, err := gateway.OpenPositions(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.True(t, positions[1].Amount.IsZero())
}
