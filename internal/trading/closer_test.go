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

func newTestCloser(t *testing.T) (*PositionCloser, *mock.MockExchange) {
	t.Helper()
	logger, err := logging.NewZapLogger("ERROR")
	require.NoError(t, err)
	ex := mock.NewMockExchange("mock")
	gateway := NewMarketDataGateway(ex, logger)
	dispatcher := NewOrderDispatcher(ex, logger)
	return NewPositionCloser(gateway, dispatcher, logger), ex
}

func TestCloseLongPosition(t *testing.T) {
	closer, ex := newTestCloser(t)
	ex.SetPositions("BTCUSDT", decimal.NewFromInt(5))

	report, err := closer.CloseSymbol(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, report.Legs, 1)
	assert.Equal(t, 1, report.Closed())
	assert.Equal(t, 0, report.Failed())

	require.Len(t, ex.Requests, 1)
	req := ex.Requests[0]
	assert.Equal(t, core.SideSell, req.Side)
	assert.True(t, req.Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, core.OrderTypeMarket, req.Type)
	assert.True(t, req.ReduceOnly)
}

func TestCloseShortPosition(t *testing.T) {
	closer, ex := newTestCloser(t)
	ex.SetPositions("BTCUSDT", decimal.NewFromInt(-3))

	report, err := closer.CloseSymbol(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Closed())

	require.Len(t, ex.Requests, 1)
	req := ex.Requests[0]
	assert.Equal(t, core.SideBuy, req.Side)
	assert.True(t, req.Quantity.Equal(decimal.NewFromInt(3)), "size must be the absolute amount")
	assert.True(t, req.ReduceOnly)
}

func TestCloseNoOpenPositions(t *testing.T) {
	closer, ex := newTestCloser(t)
	ex.SetPositions("BTCUSDT", decimal.Zero)

	report, err := closer.CloseSymbol(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Empty(t, report.Legs)
	assert.Empty(t, ex.Requests, "zero-amount positions must not produce orders")
}

func TestClosePartialFailureContinues(t *testing.T) {
	closer, ex := newTestCloser(t)
	ex.SetPositions("BTCUSDT", decimal.NewFromInt(5), decimal.NewFromInt(-3))
	ex.QueueOrderResults(apperrors.Network("timeout"), nil)

	report, err := closer.CloseSymbol(context.Background(), "BTCUSDT")
	require.NoError(t, err, "partial success is not an error")
	require.Len(t, report.Legs, 2)
	assert.Equal(t, 1, report.Closed())
	assert.Equal(t, 1, report.Failed())
	assert.Error(t, report.Legs[0].Err)
	assert.NoError(t, report.Legs[1].Err)

	// Both legs were attempted despite the first failing
	assert.Len(t, ex.Requests, 2)
}

func TestCloseAllLegsFailed(t *testing.T) {
	closer, ex := newTestCloser(t)
	ex.SetPositions("BTCUSDT", decimal.NewFromInt(5), decimal.NewFromInt(-3))
	ex.FailWith("CreateOrder", apperrors.Network("connection reset"))

	report, err := closer.CloseSymbol(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTrading)
	require.NotNil(t, report, "report accompanies the error so the caller sees each leg")
	assert.Equal(t, 2, report.Failed())
}

func TestCloseSnapshotFailure(t *testing.T) {
	closer, ex := newTestCloser(t)
	ex.FailWith("FetchPositions", apperrors.Authentication("invalid API key"))

	_, err := closer.CloseSymbol(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	assert.Empty(t, ex.Requests)
}
