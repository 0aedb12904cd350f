package model

import (
	"strings"
)

// OrderRequest is the inbound trade signal as it arrives over HTTP or the CLI.
type OrderRequest struct {
	Password  string   `json:"password,omitempty"`
	Exchange  string   `json:"exchange"`
	Base      string   `json:"base"`
	Quote     string   `json:"quote"`
	Type      string   `json:"type"`
	Side      string   `json:"side"`
	Amount    *float64 `json:"amount,omitempty"`
	Percent   *float64 `json:"percent,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Leverage  *int     `json:"leverage,omitempty"`
	OrderName string   `json:"order_name,omitempty"`
	KisNumber *int     `json:"kis_number,omitempty"`
}

const (
	futuresQuoteSuffix = ".P"
	defaultOrderName   = "order"
)

// NewMarketOrder validates req and derives the flags of the order it describes.
//
// Accepted sides are buy, sell, entry/buy, entry/sell, close/buy and
// close/sell. A quote ending in ".P" marks a perpetual futures pair; a USD
// quote on futures marks it coin-margined.
func NewMarketOrder(req OrderRequest) (*MarketOrder, error) {
	exchange := strings.ToUpper(strings.TrimSpace(req.Exchange))
	if exchange == "" {
		return nil, NewValidationError("exchange", "is required")
	}
	isStock := IsStockExchange(exchange)
	if !isStock && !IsCryptoExchange(exchange) {
		return nil, NewValidationError("exchange", "unsupported venue "+exchange)
	}

	base := strings.ToUpper(strings.TrimSpace(req.Base))
	quote := strings.ToUpper(strings.TrimSpace(req.Quote))
	if base == "" || quote == "" {
		return nil, NewValidationError("symbol", "base and quote are required")
	}

	orderType := strings.ToLower(strings.TrimSpace(req.Type))
	if orderType == "" {
		orderType = OrderTypeMarket
	}
	if orderType != OrderTypeMarket {
		return nil, NewValidationError("type", "only market orders are supported")
	}

	order := &MarketOrder{
		Exchange:  exchange,
		Type:      orderType,
		Amount:    req.Amount,
		Percent:   req.Percent,
		Price:     req.Price,
		Leverage:  req.Leverage,
		OrderName: strings.TrimSpace(req.OrderName),
		KisNumber: req.KisNumber,
		IsStock:   isStock,
		IsCrypto:  !isStock,
	}
	if order.OrderName == "" {
		order.OrderName = defaultOrderName
	}

	if strings.HasSuffix(quote, futuresQuoteSuffix) {
		if isStock {
			return nil, NewValidationError("quote", "futures are not available on "+exchange)
		}
		quote = strings.TrimSuffix(quote, futuresQuoteSuffix)
		order.IsFutures = true
		order.IsCoinM = quote == "USD"
	}
	order.IsSpot = !order.IsFutures
	order.Base = base
	order.Quote = quote
	order.UnifiedSymbol = UnifiedSymbolFor(exchange, base, quote)

	if err := applySide(order, req.Side); err != nil {
		return nil, err
	}

	if err := validateSizing(order); err != nil {
		return nil, err
	}

	if order.Leverage != nil {
		if !order.IsFutures {
			return nil, NewValidationError("leverage", "only futures orders accept leverage")
		}
		if *order.Leverage < 1 {
			return nil, NewValidationError("leverage", "must be at least 1")
		}
	}

	if isStock && order.KisNumber == nil {
		order.KisNumber = IntPtr(1)
	}

	return order, nil
}

func applySide(order *MarketOrder, raw string) error {
	side := strings.ToLower(strings.TrimSpace(raw))
	action := ""
	if i := strings.Index(side, "/"); i >= 0 {
		action, side = side[:i], side[i+1:]
	}

	switch side {
	case OrderSideBuy:
		order.IsBuy = true
	case OrderSideSell:
		order.IsSell = true
	default:
		return NewValidationError("side", "unknown side "+raw)
	}
	order.Side = side

	switch action {
	case "":
		if order.IsFutures {
			order.IsEntry = true
		}
	case "entry":
		order.IsEntry = true
	case "close":
		order.IsClose = true
	default:
		return NewValidationError("side", "unknown action "+action)
	}
	return nil
}

// validateSizing enforces amount XOR percent. Close orders may carry neither
// because they size against an existing position.
func validateSizing(order *MarketOrder) error {
	if order.Amount != nil && order.Percent != nil {
		return NewValidationError("amount", "amount and percent are mutually exclusive")
	}
	if order.Amount == nil && order.Percent == nil && !order.IsClose {
		return NewValidationError("amount", "amount or percent is required")
	}
	if order.Amount != nil && *order.Amount <= 0 {
		return NewValidationError("amount", "must be positive")
	}
	if order.Percent != nil && (*order.Percent <= 0 || *order.Percent > 100) {
		return NewValidationError("percent", "must be within (0, 100]")
	}
	return nil
}
