// Package core defines the core types and interfaces for the trade server
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents an order side
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType represents an order type
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus represents the exchange-assigned order status
type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "NEW"
	OrderStatusOpen     OrderStatus = "OPEN"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusCanceled OrderStatus = "CANCELED"
	OrderStatusExpired  OrderStatus = "EXPIRED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

// OrderRequest is a single order submission. Price is ignored for MARKET
// orders at the wire level; shape validation happens before a request is
// built. ReduceOnly guarantees the order can only decrease existing exposure.
type OrderRequest struct {
	Symbol        string
	Type          OrderType
	Side          Side
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	ReduceOnly    bool
	ClientOrderID string
}

// Order is the normalized record the exchange returns on submission. The
// core only reads back the assigned identifier and initial status; the
// order's later lifecycle is not tracked here.
type Order struct {
	ID            string          `json:"id"`
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	Type          OrderType       `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Status        OrderStatus     `json:"status"`
	Filled        decimal.Decimal `json:"filled"`
	Remaining     decimal.Decimal `json:"remaining"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Position is a read-only snapshot of open exposure for a symbol.
// Amount is signed: positive = long, negative = short.
type Position struct {
	Symbol        string          `json:"symbol"`
	Amount        decimal.Decimal `json:"amount"`
	EntryPrice    decimal.Decimal `json:"entry_price"`
	MarkPrice     decimal.Decimal `json:"mark_price"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// Balance holds per-currency account funds.
type Balance struct {
	Currency  string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
	Locked    decimal.Decimal `json:"locked"`
}

// Ticker is a market ticker snapshot.
type Ticker struct {
	Symbol    string
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Last      decimal.Decimal
	Volume    decimal.Decimal
	Timestamp time.Time
}

// MarketLimits holds per-symbol trading constraints, loaded once at
// initialization and treated as valid for the process lifetime.
type MarketLimits struct {
	Symbol            string
	MinAmount         decimal.Decimal
	QuantityPrecision int
	PricePrecision    int
}

// ClosureLeg is the outcome of one closing submission inside CloseSymbol.
type ClosureLeg struct {
	Symbol  string
	Size    decimal.Decimal
	Side    Side
	OrderID string
	Err     error
}

// ClosureReport aggregates the per-position results of a close operation.
// An empty Legs slice means no open position existed, which is a normal
// outcome, not a failure.
type ClosureReport struct {
	Symbol string
	Legs   []ClosureLeg
}

// Closed returns the number of legs that were submitted successfully.
func (r *ClosureReport) Closed() int {
	n := 0
	for _, leg := range r.Legs {
		if leg.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of legs whose submission failed.
func (r *ClosureReport) Failed() int {
	return len(r.Legs) - r.Closed()
}
