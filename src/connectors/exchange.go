package connectors

import (
	"context"

	"traderelay/src/model"
)

// Ticker is the latest trade of a symbol.
type Ticker struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
}

// Exchange is the capability set every venue adapter implements. An adapter is
// bound to one API session and, after InitInfo, to the order it is servicing.
type Exchange interface {
	InitInfo(ctx context.Context, order *model.MarketOrder) error

	GetTicker(ctx context.Context, symbol string) (*Ticker, error)
	GetPrice(ctx context.Context, symbol string) (float64, error)
	GetBalance(ctx context.Context, asset string) (float64, error)
	GetAmount(ctx context.Context, order *model.MarketOrder) (float64, error)

	SetLeverage(ctx context.Context, leverage int, symbol string) error
	SetPositionMode(ctx context.Context, mode string) error
	PositionMode() string
	GetFuturesPosition(ctx context.Context, symbol string, all bool) (*model.PositionReport, error)

	MarketOrder(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error)
	MarketBuy(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error)
	MarketSell(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error)
	MarketEntry(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error)
	MarketClose(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error)
}
