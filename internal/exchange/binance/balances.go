package binance

import (
	"encoding/json"
	"strings"

	"trade_server/internal/core"
	apperrors "trade_server/pkg/errors"

	"github.com/shopspring/decimal"
)

// futuresBalanceDoc is the futures account shape: a per-asset array.
type futuresBalanceDoc struct {
	Assets []struct {
		Asset            string `json:"asset"`
		WalletBalance    string `json:"walletBalance"`
		AvailableBalance string `json:"availableBalance"`
	} `json:"assets"`
}

// genericBalanceDoc is the generic total/free/used map shape.
type genericBalanceDoc struct {
	Total map[string]json.Number `json:"total"`
	Free  map[string]json.Number `json:"free"`
	Used  map[string]json.Number `json:"used"`
}

// ParseBalanceDocument normalizes an account payload into Balance values.
// The exchange reports balances in one of two shapes: a futures per-asset
// array, or a generic total/free/used map. The shape is selected by
// inspecting which one is present; both produce the same normalized output.
// Zero-total entries are dropped.
func ParseBalanceDocument(raw []byte) (map[string]*core.Balance, error) {
	var futures futuresBalanceDoc
	if err := json.Unmarshal(raw, &futures); err == nil && len(futures.Assets) > 0 {
		return parseFuturesAssets(&futures), nil
	}

	var generic genericBalanceDoc
	if err := json.Unmarshal(raw, &generic); err == nil && len(generic.Total) > 0 {
		return parseGenericTotals(&generic), nil
	}

	return nil, apperrors.Trading("unrecognized balance document shape: %s", truncate(string(raw), 200))
}

func parseFuturesAssets(doc *futuresBalanceDoc) map[string]*core.Balance {
	balances := make(map[string]*core.Balance)
	for _, asset := range doc.Assets {
		currency := strings.ToUpper(asset.Asset)
		if currency == "" {
			continue
		}

		total, err := decimal.NewFromString(asset.WalletBalance)
		if err != nil || !total.IsPositive() {
			continue
		}
		available, _ := decimal.NewFromString(asset.AvailableBalance)

		balances[currency] = &core.Balance{
			Currency:  currency,
			Total:     total,
			Available: available,
			Locked:    total.Sub(available),
		}
	}
	return balances
}

func parseGenericTotals(doc *genericBalanceDoc) map[string]*core.Balance {
	balances := make(map[string]*core.Balance)
	for currency, rawTotal := range doc.Total {
		total, err := decimal.NewFromString(rawTotal.String())
		if err != nil || !total.IsPositive() {
			continue
		}

		available := decimal.Zero
		if v, ok := doc.Free[currency]; ok {
			available, _ = decimal.NewFromString(v.String())
		}
		locked := decimal.Zero
		if v, ok := doc.Used[currency]; ok {
			locked, _ = decimal.NewFromString(v.String())
		}

		currency = strings.ToUpper(currency)
		balances[currency] = &core.Balance{
			Currency:  currency,
			Total:     total,
			Available: available,
			Locked:    locked,
		}
	}
	return balances
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
