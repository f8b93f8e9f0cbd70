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

func newTestBalanceService(t *testing.T) (*BalanceService, *mock.MockExchange) {
	t.Helper()
	logger, err := logging.NewZapLogger("ERROR")
	require.NoError(t, err)
	ex := mock.NewMockExchange("mock")
	return NewBalanceService(ex, logger), ex
}

func TestBalances(t *testing.T) {
	service, ex := newTestBalanceService(t)
	ex.SetBalance("USDT", decimal.NewFromInt(1000), decimal.NewFromInt(800))
	ex.SetBalance("BTC", decimal.RequireFromString("0.5"), decimal.RequireFromString("0.5"))

	balances, err := service.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances["USDT"].Locked.Equal(decimal.NewFromInt(200)))
}

func TestBalanceCaseInsensitiveLookup(t *testing.T) {
	service, ex := newTestBalanceService(t)
	ex.SetBalance("USDT", decimal.NewFromInt(1000), decimal.NewFromInt(1000))

	balance, err := service.Balance(context.Background(), "usdt")
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, "USDT", balance.Currency)
}

func TestAvailableBalanceAbsentCurrency(t *testing.T) {
	service, _ := newTestBalanceService(t)

	available, err := service.AvailableBalance(context.Background(), "DOGE")
	require.NoError(t, err)
	assert.True(t, available.IsZero())
}

func TestHasSufficientBalance(t *testing.T) {
	service, ex := newTestBalanceService(t)
	ex.SetBalance("USDT", decimal.NewFromInt(1000), decimal.NewFromInt(800))

	ok, err := service.HasSufficientBalance(context.Background(), "USDT", decimal.NewFromInt(800))
	require.NoError(t, err)
	assert.True(t, ok, "exactly sufficient counts as sufficient")

	ok, err = service.HasSufficientBalance(context.Background(), "USDT", decimal.NewFromInt(801))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasSufficientBalanceNegativeRequired(t *testing.T) {
	service, _ := newTestBalanceService(t)

	_, err := service.HasSufficientBalance(context.Background(), "USDT", decimal.NewFromInt(-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUSDTBalanceInfo(t *testing.T) {
	service, ex := newTestBalanceService(t)
	ex.SetBalance("USDT", decimal.NewFromInt(1000), decimal.NewFromInt(800))

	info, err := service.USDTBalanceInfo(context.Background(), decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, info.HasBalance)
	assert.True(t, info.AvailableAmount.Equal(decimal.NewFromInt(800)))
	assert.True(t, info.LockedAmount.Equal(decimal.NewFromInt(200)))
	assert.Contains(t, info.Message, "Sufficient")
}

func TestUSDTBalanceInfoInsufficient(t *testing.T) {
	service, ex := newTestBalanceService(t)
	ex.SetBalance("USDT", decimal.NewFromInt(50), decimal.NewFromInt(50))

	info, err := service.USDTBalanceInfo(context.Background(), decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.False(t, info.HasBalance)
	assert.Contains(t, info.Message, "Insufficient")
}

func TestUSDTBalanceInfoNoBalance(t *testing.T) {
	service, _ := newTestBalanceService(t)

	info, err := service.USDTBalanceInfo(context.Background(), decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.False(t, info.HasBalance)
	assert.Contains(t, info.Message, "No USDT balance")
}

func TestBalancesErrorPropagation(t *testing.T) {
	service, ex := newTestBalanceService(t)
	ex.FailWith("FetchBalances", apperrors.Authentication("invalid API key"))

	_, err := service.Balances(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}
