// Package binance provides Binance USDT-M Futures exchange connectivity
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"trade_server/internal/config"
	"trade_server/internal/core"
	"trade_server/internal/exchange/base"
	apperrors "trade_server/pkg/errors"

	"github.com/shopspring/decimal"
)

const (
	defaultFuturesURL = "https://fapi.binance.com"
	testnetFuturesURL = "https://testnet.binancefuture.com"
)

// BinanceExchange implements IExchange for Binance USDT-M futures
type BinanceExchange struct {
	*base.BaseAdapter
	limits map[string]*core.MarketLimits
}

// NewBinanceExchange creates a new Binance exchange instance
func NewBinanceExchange(cfg *config.ExchangeConfig, logger core.ILogger) *BinanceExchange {
	b := base.NewBaseAdapter("binance", cfg, logger)
	e := &BinanceExchange{
		BaseAdapter: b,
		limits:      make(map[string]*core.MarketLimits),
	}

	b.SetSignRequest(e.SignRequest)
	b.SetParseError(e.parseError)

	return e
}

func (e *BinanceExchange) baseURL() string {
	if e.Config.BaseURL != "" {
		return e.Config.BaseURL
	}
	if e.Config.SandboxMode {
		return testnetFuturesURL
	}
	return defaultFuturesURL
}

// SignRequest adds authentication headers and signature to the request
func (e *BinanceExchange) SignRequest(req *http.Request, body []byte) error {
	req.Header.Set("X-MBX-APIKEY", string(e.Config.APIKey))

	q := req.URL.Query()
	if q.Get("timestamp") == "" {
		q.Set("timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()))
	}

	queryString := q.Encode()
	mac := hmac.New(sha256.New, []byte(string(e.Config.SecretKey)))
	mac.Write([]byte(queryString))
	signature := hex.EncodeToString(mac.Sum(nil))

	q.Set("signature", signature)
	req.URL.RawQuery = q.Encode()

	return nil
}

func (e *BinanceExchange) parseError(statusCode int, body []byte) error {
	var errResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return apperrors.Trading("binance error (unmarshal failed): %s", string(body))
	}

	// Map Binance error codes to the standard taxonomy
	switch errResp.Code {
	case -2014, -2015, -1022:
		return apperrors.Authentication("binance error %d: %s", errResp.Code, errResp.Msg)
	case -1003:
		return apperrors.Network("binance error %d: %s", errResp.Code, errResp.Msg)
	case -1121:
		return apperrors.MarketData("binance error %d: %s", errResp.Code, errResp.Msg)
	case -1111, -1013, -2010, -4164:
		return apperrors.InvalidOrder("binance error %d: %s", errResp.Code, errResp.Msg)
	}

	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return apperrors.Authentication("binance HTTP %d: %s", statusCode, errResp.Msg)
	}

	return apperrors.Trading("binance error %d: %s", errResp.Code, errResp.Msg)
}

func mapOrderStatus(rawStatus string) core.OrderStatus {
	switch rawStatus {
	case "NEW":
		return core.OrderStatusNew
	case "PARTIALLY_FILLED":
		return core.OrderStatusOpen
	case "FILLED":
		return core.OrderStatusFilled
	case "CANCELED":
		return core.OrderStatusCanceled
	case "EXPIRED":
		return core.OrderStatusExpired
	case "REJECTED":
		return core.OrderStatusRejected
	default:
		return core.OrderStatusNew
	}
}

// CheckHealth pings the exchange
func (e *BinanceExchange) CheckHealth(ctx context.Context) error {
	url := fmt.Sprintf("%s/fapi/v1/ping", e.baseURL())
	_, err := e.ExecuteRead(ctx, "GET", url)
	return err
}

// LoadMarkets loads per-symbol trading limits from exchangeInfo. Called once
// during initialization; the metadata is treated as valid for the process
// lifetime.
func (e *BinanceExchange) LoadMarkets(ctx context.Context) error {
	url := fmt.Sprintf("%s/fapi/v1/exchangeInfo", e.baseURL())
	body, err := e.ExecuteRead(ctx, "GET", url)
	if err != nil {
		return err
	}

	var res struct {
		Symbols []struct {
			Symbol            string `json:"symbol"`
			Status            string `json:"status"`
			PricePrecision    int    `json:"pricePrecision"`
			QuantityPrecision int    `json:"quantityPrecision"`
			Filters           []struct {
				FilterType string `json:"filterType"`
				MinQty     string `json:"minQty"`
			} `json:"filters"`
		} `json:"symbols"`
	}

	if err := json.Unmarshal(body, &res); err != nil {
		return apperrors.MarketData("failed to parse exchangeInfo: %v", err)
	}

	for _, s := range res.Symbols {
		limits := &core.MarketLimits{
			Symbol:            s.Symbol,
			QuantityPrecision: s.QuantityPrecision,
			PricePrecision:    s.PricePrecision,
		}
		for _, f := range s.Filters {
			if f.FilterType == "LOT_SIZE" {
				limits.MinAmount = e.ParseDecimal(f.MinQty)
			}
		}
		e.limits[s.Symbol] = limits
	}

	e.Logger.Info("exchange markets loaded", "symbols", len(e.limits))
	return nil
}

// GetMarketLimits returns the limits for a symbol from loaded metadata
func (e *BinanceExchange) GetMarketLimits(symbol string) (*core.MarketLimits, bool) {
	limits, ok := e.limits[symbol]
	return limits, ok
}

// FetchTicker returns the 24h ticker snapshot for a symbol
func (e *BinanceExchange) FetchTicker(ctx context.Context, symbol string) (*core.Ticker, error) {
	url := fmt.Sprintf("%s/fapi/v1/ticker/24hr?symbol=%s", e.baseURL(), symbol)
	body, err := e.ExecuteRead(ctx, "GET", url)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
		BidPrice  string `json:"bidPrice"`
		AskPrice  string `json:"askPrice"`
		Volume    string `json:"volume"`
		CloseTime int64  `json:"closeTime"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.MarketData("failed to parse ticker: %v", err)
	}

	return &core.Ticker{
		Symbol:    raw.Symbol,
		Last:      e.ParseDecimal(raw.LastPrice),
		Bid:       e.ParseDecimal(raw.BidPrice),
		Ask:       e.ParseDecimal(raw.AskPrice),
		Volume:    e.ParseDecimal(raw.Volume),
		Timestamp: e.ParseTimestamp(raw.CloseTime),
	}, nil
}

// FetchPositions returns the position snapshot for a symbol. Zero-amount
// entries are kept: filtering is the caller's decision.
func (e *BinanceExchange) FetchPositions(ctx context.Context, symbol string) ([]*core.Position, error) {
	url := fmt.Sprintf("%s/fapi/v2/positionRisk", e.baseURL())
	if symbol != "" {
		url += fmt.Sprintf("?symbol=%s", symbol)
	}

	body, err := e.ExecuteRead(ctx, "GET", url)
	if err != nil {
		return nil, err
	}

	var rawPositions []struct {
		Symbol           string `json:"symbol"`
		PositionAmt      string `json:"positionAmt"`
		EntryPrice       string `json:"entryPrice"`
		MarkPrice        string `json:"markPrice"`
		UnRealizedProfit string `json:"unRealizedProfit"`
	}
	if err := json.Unmarshal(body, &rawPositions); err != nil {
		return nil, apperrors.MarketData("failed to parse positions: %v", err)
	}

	positions := make([]*core.Position, 0, len(rawPositions))
	for _, p := range rawPositions {
		positions = append(positions, &core.Position{
			Symbol:        p.Symbol,
			Amount:        e.ParseDecimal(p.PositionAmt),
			EntryPrice:    e.ParseDecimal(p.EntryPrice),
			MarkPrice:     e.ParseDecimal(p.MarkPrice),
			UnrealizedPnL: e.ParseDecimal(p.UnRealizedProfit),
		})
	}

	return positions, nil
}

// FetchBalances returns per-currency balances from the account endpoint
func (e *BinanceExchange) FetchBalances(ctx context.Context) (map[string]*core.Balance, error) {
	url := fmt.Sprintf("%s/fapi/v2/account", e.baseURL())
	body, err := e.ExecuteRead(ctx, "GET", url)
	if err != nil {
		return nil, err
	}

	return ParseBalanceDocument(body)
}

// FetchAvailableBalance returns the available balance for one asset
func (e *BinanceExchange) FetchAvailableBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	balances, err := e.FetchBalances(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if b, ok := balances[currency]; ok {
		return b.Available, nil
	}
	return decimal.Zero, nil
}

// CreateOrder submits a single order. The request is sent exactly once:
// submissions are not idempotent and retry policy belongs to the caller.
func (e *BinanceExchange) CreateOrder(ctx context.Context, req *core.OrderRequest) (*core.Order, error) {
	endpoint := fmt.Sprintf("%s/fapi/v1/order", e.baseURL())

	q := url.Values{}
	q.Add("symbol", req.Symbol)
	q.Add("side", string(req.Side))

	switch req.Type {
	case core.OrderTypeLimit:
		q.Add("type", "LIMIT")
		q.Add("price", req.Price.String())
		q.Add("timeInForce", "GTC")
	case core.OrderTypeMarket:
		q.Add("type", "MARKET")
	default:
		return nil, apperrors.InvalidOrder("unsupported order type: %s", req.Type)
	}

	q.Add("quantity", req.Quantity.String())

	if req.ReduceOnly {
		q.Add("reduceOnly", "true")
	}
	if req.ClientOrderID != "" {
		q.Add("newClientOrderId", req.ClientOrderID)
	}

	body, err := e.ExecuteRequest(ctx, "POST", endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var rawOrder struct {
		OrderID       int64  `json:"orderId"`
		Symbol        string `json:"symbol"`
		Status        string `json:"status"`
		ClientOrderID string `json:"clientOrderId"`
		Price         string `json:"price"`
		OrigQty       string `json:"origQty"`
		ExecutedQty   string `json:"executedQty"`
		UpdateTime    int64  `json:"updateTime"`
	}
	if err := json.Unmarshal(body, &rawOrder); err != nil {
		return nil, apperrors.Trading("failed to parse order response: %v", err)
	}

	qty := e.ParseDecimal(rawOrder.OrigQty)
	filled := e.ParseDecimal(rawOrder.ExecutedQty)

	order := &core.Order{
		ID:            fmt.Sprintf("%d", rawOrder.OrderID),
		ClientOrderID: rawOrder.ClientOrderID,
		Symbol:        rawOrder.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      qty,
		Price:         e.ParseDecimal(rawOrder.Price),
		Status:        mapOrderStatus(rawOrder.Status),
		Filled:        filled,
		Remaining:     qty.Sub(filled),
		Timestamp:     e.ParseTimestamp(rawOrder.UpdateTime),
	}

	e.Logger.Info("order created",
		"order_id", order.ID,
		"symbol", order.Symbol,
		"side", order.Side,
		"type", order.Type,
		"quantity", order.Quantity.String())

	return order, nil
}
