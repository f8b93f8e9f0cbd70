// Package base provides common functionality for exchange adapters
package base

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"trade_server/internal/config"
	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// SignRequestFunc is a function type for exchange-specific request signing
type SignRequestFunc func(req *http.Request, body []byte) error

// ParseErrorFunc is a function type for exchange-specific error parsing
type ParseErrorFunc func(statusCode int, body []byte) error

// BaseAdapter provides common functionality for all exchange adapters.
// Outbound requests share a single rate limiter, which is the only
// serialization point between concurrent top-level calls: orders are not
// idempotent, so throttling lives here rather than in the trading core.
type BaseAdapter struct {
	Name       string
	Config     *config.ExchangeConfig
	Logger     core.ILogger
	HTTPClient *http.Client

	// Exchange-specific functions set by concrete implementations
	SignRequestFunc SignRequestFunc
	ParseError      ParseErrorFunc

	limiter      *rate.Limiter
	readPipeline failsafe.Executor[*http.Response]
}

// NewBaseAdapter creates a new base adapter with common configuration
func NewBaseAdapter(name string, cfg *config.ExchangeConfig, logger core.ILogger) *BaseAdapter {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	// Read-only calls are retried on transient failures and guarded by a
	// circuit breaker. Order submissions never go through this pipeline.
	retryPolicy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		}).
		WithBackoff(100*time.Millisecond, 2*time.Second).
		WithMaxRetries(3).
		Build()

	breaker := circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500
		}).
		WithFailureThresholdRatio(5, 10).
		WithDelay(10 * time.Second).
		Build()

	return &BaseAdapter{
		Name:   name,
		Config: cfg,
		Logger: logger.WithField("exchange", name),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
		limiter:      limiter,
		readPipeline: failsafe.With[*http.Response](retryPolicy, breaker),
	}
}

// GetName returns the exchange name
func (b *BaseAdapter) GetName() string {
	return b.Name
}

// SetSignRequest sets the exchange-specific request signing function
func (b *BaseAdapter) SetSignRequest(fn SignRequestFunc) {
	b.SignRequestFunc = fn
}

// SetParseError sets the exchange-specific error parsing function
func (b *BaseAdapter) SetParseError(fn ParseErrorFunc) {
	b.ParseError = fn
}

// GetConfig returns the exchange configuration
func (b *BaseAdapter) GetConfig() *config.ExchangeConfig {
	return b.Config
}

// GetLogger returns the logger instance
func (b *BaseAdapter) GetLogger() core.ILogger {
	return b.Logger
}

// ExecuteRequest executes a single HTTP request with no retries. Use for
// order submissions and any other non-idempotent call.
func (b *BaseAdapter) ExecuteRequest(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := b.doOnce(ctx, method, url, body)
	if err != nil {
		return nil, apperrors.Network("failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	return b.readResponse(resp)
}

// ExecuteRead executes a read-only HTTP request through the resilience
// pipeline. Each attempt is signed fresh so timestamped signatures stay valid.
func (b *BaseAdapter) ExecuteRead(ctx context.Context, method, url string) ([]byte, error) {
	resp, err := b.readPipeline.GetWithExecution(func(exec failsafe.Execution[*http.Response]) (*http.Response, error) {
		if err := b.wait(ctx); err != nil {
			return nil, err
		}
		return b.doOnce(ctx, method, url, nil)
	})
	if err != nil {
		return nil, apperrors.Network("request failed: %v", err)
	}
	defer resp.Body.Close()

	return b.readResponse(resp)
}

func (b *BaseAdapter) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *BaseAdapter) doOnce(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if b.SignRequestFunc != nil {
		if err := b.SignRequestFunc(req, body); err != nil {
			return nil, fmt.Errorf("failed to sign request: %w", err)
		}
	}

	return b.HTTPClient.Do(req)
}

func (b *BaseAdapter) readResponse(resp *http.Response) ([]byte, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Network("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		if b.ParseError != nil {
			if parseErr := b.ParseError(resp.StatusCode, respBody); parseErr != nil {
				return nil, parseErr
			}
		}
		return nil, apperrors.Trading("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// ParseDecimal safely parses a string to decimal
func (b *BaseAdapter) ParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		b.Logger.Warn("failed to parse decimal", "value", s, "error", err)
		return decimal.Zero
	}
	return d
}

// ParseTimestamp safely parses a timestamp in milliseconds
func (b *BaseAdapter) ParseTimestamp(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
