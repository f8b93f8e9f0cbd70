// Package apperrors defines the standardized error taxonomy for the trade server.
package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the trading core wraps exactly one
// of these sentinels so callers can classify with errors.Is while the
// original cause text stays in the message.
var (
	ErrValidation     = errors.New("validation error")
	ErrMarketData     = errors.New("market data error")
	ErrInvalidOrder   = errors.New("invalid order")
	ErrAuthentication = errors.New("authentication failed")
	ErrNetwork        = errors.New("network error")
	ErrTrading        = errors.New("trading error")
)

// Validation wraps a caller-input precondition failure.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// MarketData wraps a price or market-metadata lookup failure.
func MarketData(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMarketData, fmt.Sprintf(format, args...))
}

// InvalidOrder wraps a rejected order shape or quantity.
func InvalidOrder(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}

// Authentication wraps an exchange credential rejection.
func Authentication(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAuthentication, fmt.Sprintf(format, args...))
}

// Network wraps a transport-level failure.
func Network(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNetwork, fmt.Sprintf(format, args...))
}

// Trading wraps an exchange-side rejection not otherwise classified.
func Trading(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTrading, fmt.Sprintf(format, args...))
}

// Classified reports whether err already carries one of the taxonomy kinds.
func Classified(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrMarketData) ||
		errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrAuthentication) ||
		errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrTrading)
}
