package trading

import (
	"context"
	"fmt"
	"strings"

	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/shopspring/decimal"
)

// BalanceService reports normalized account balances. Every read is fresh;
// nothing is cached across calls.
type BalanceService struct {
	exchange core.IExchange
	logger   core.ILogger
}

// NewBalanceService creates a balance service over an exchange handle
func NewBalanceService(exchange core.IExchange, logger core.ILogger) *BalanceService {
	return &BalanceService{
		exchange: exchange,
		logger:   logger.WithField("component", "balance_service"),
	}
}

// Balances returns all nonzero account balances keyed by currency
func (s *BalanceService) Balances(ctx context.Context) (map[string]*core.Balance, error) {
	balances, err := s.exchange.FetchBalances(ctx)
	if err != nil {
		if apperrors.Classified(err) {
			return nil, err
		}
		return nil, apperrors.Trading("failed to fetch balances: %v", err)
	}
	return balances, nil
}

// Balance returns the balance for one currency, nil if absent
func (s *BalanceService) Balance(ctx context.Context, currency string) (*core.Balance, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return nil, err
	}
	return balances[strings.ToUpper(currency)], nil
}

// AvailableBalance returns the available amount for a currency, zero if absent
func (s *BalanceService) AvailableBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	balance, err := s.Balance(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	if balance == nil {
		return decimal.Zero, nil
	}
	return balance.Available, nil
}

// HasSufficientBalance reports whether the available balance covers required
func (s *BalanceService) HasSufficientBalance(ctx context.Context, currency string, required decimal.Decimal) (bool, error) {
	if required.IsNegative() {
		return false, apperrors.Validation("required amount must be non-negative, got %s", required)
	}
	available, err := s.AvailableBalance(ctx, currency)
	if err != nil {
		return false, err
	}
	return available.GreaterThanOrEqual(required), nil
}

// USDTBalanceInfo is a structured availability report for the quote currency.
type USDTBalanceInfo struct {
	HasBalance      bool            `json:"has_balance"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	LockedAmount    decimal.Decimal `json:"locked_amount"`
	MinimumRequired decimal.Decimal `json:"minimum_required"`
	Message         string          `json:"message"`
}

// USDTBalanceInfo returns USDT availability against a minimum requirement
func (s *BalanceService) USDTBalanceInfo(ctx context.Context, minimum decimal.Decimal) (*USDTBalanceInfo, error) {
	balance, err := s.Balance(ctx, "USDT")
	if err != nil {
		return nil, err
	}

	if balance == nil {
		return &USDTBalanceInfo{
			Message: "No USDT balance found",
		}, nil
	}

	hasSufficient := balance.Available.GreaterThanOrEqual(minimum)
	message := fmt.Sprintf("Sufficient USDT balance: %s", balance.Available)
	if !hasSufficient {
		message = fmt.Sprintf("Insufficient USDT balance. Available: %s, Required: %s", balance.Available, minimum)
	}

	return &USDTBalanceInfo{
		HasBalance:      hasSufficient,
		AvailableAmount: balance.Available,
		TotalAmount:     balance.Total,
		LockedAmount:    balance.Locked,
		MinimumRequired: minimum,
		Message:         message,
	}, nil
}
