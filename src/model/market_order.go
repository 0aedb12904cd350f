package model

import "strings"

const (
	PositionModeOneWay = "one-way"
	PositionModeHedge  = "hedge"
)

const (
	OrderTypeMarket = "market"
	OrderSideBuy    = "buy"
	OrderSideSell   = "sell"
)

// Venue names as they arrive on a signal.
const (
	ExchangeBinance = "BINANCE"
	ExchangeUpbit   = "UPBIT"
	ExchangeBybit   = "BYBIT"
	ExchangeBitget  = "BITGET"
	ExchangeOKX     = "OKX"
	ExchangeGateIO  = "GATEIO"
	ExchangeKRX     = "KRX"
	ExchangeNasdaq  = "NASDAQ"
	ExchangeNYSE    = "NYSE"
	ExchangeAmex    = "AMEX"
)

var (
	CryptoExchanges = []string{ExchangeBinance, ExchangeUpbit, ExchangeBybit, ExchangeBitget, ExchangeOKX, ExchangeGateIO}
	StockExchanges  = []string{ExchangeKRX, ExchangeNasdaq, ExchangeNYSE, ExchangeAmex}

	// CostBasedOrderExchanges quote spot market buys by spend amount. BINANCE
	// and GATEIO report units and stay out of this list.
	CostBasedOrderExchanges = []string{ExchangeUpbit, ExchangeBybit, ExchangeBitget}
)

// MarketOrder is the venue-neutral description of one trade intent. It is
// created per signal, mutated while the amount is resolved and dropped once the
// notification has been sent.
type MarketOrder struct {
	Exchange      string `json:"exchange"`
	Base          string `json:"base"`
	Quote         string `json:"quote"`
	UnifiedSymbol string `json:"unified_symbol"`
	Type          string `json:"type"`
	Side          string `json:"side"`

	IsFutures  bool `json:"is_futures,omitempty"`
	IsCoinM    bool `json:"is_coinm,omitempty"`
	IsCrypto   bool `json:"is_crypto,omitempty"`
	IsStock    bool `json:"is_stock,omitempty"`
	IsSpot     bool `json:"is_spot,omitempty"`
	IsContract bool `json:"is_contract,omitempty"`

	IsBuy   bool `json:"is_buy,omitempty"`
	IsSell  bool `json:"is_sell,omitempty"`
	IsEntry bool `json:"is_entry,omitempty"`
	IsClose bool `json:"is_close,omitempty"`

	Amount          *float64 `json:"amount,omitempty"`
	Percent         *float64 `json:"percent,omitempty"`
	AmountByPercent *float64 `json:"amount_by_percent,omitempty"`
	ContractSize    *float64 `json:"contract_size,omitempty"`

	Leverage  *int     `json:"leverage,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	OrderName string   `json:"order_name"`
	KisNumber *int     `json:"kis_number,omitempty"`
}

// AmountValue returns the resolved amount or zero when none is set.
func (o *MarketOrder) AmountValue() float64 {
	if o == nil || o.Amount == nil {
		return 0
	}
	return *o.Amount
}

// Pair returns "BASE/QUOTE".
func (o *MarketOrder) Pair() string {
	return o.Base + "/" + o.Quote
}

func IsCostBasedExchange(name string) bool { return contains(CostBasedOrderExchanges, name) }
func IsStockExchange(name string) bool     { return contains(StockExchanges, name) }
func IsCryptoExchange(name string) bool    { return contains(CryptoExchanges, name) }

// UnifiedSymbolFor formats the pair the way the venue expects it.
func UnifiedSymbolFor(exchange, base, quote string) string {
	switch strings.ToUpper(exchange) {
	case ExchangeGateIO:
		return base + "_" + quote
	case ExchangeUpbit:
		return quote + "-" + base
	default:
		if IsStockExchange(exchange) {
			return base
		}
		return base + "/" + quote
	}
}

func contains(list []string, name string) bool {
	name = strings.ToUpper(name)
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func Float64Ptr(v float64) *float64 { return &v }
func IntPtr(v int) *int             { return &v }
func StringPtr(v string) *string    { return &v }
