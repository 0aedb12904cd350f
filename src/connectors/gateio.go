package connectors

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"traderelay/src/model"
	"traderelay/src/retry"
)

const (
	settleUSDT = "usdt"
	settleBTC  = "btc"

	gateAccountSpot        = "spot"
	gateAccountCrossMargin = "cross_margin"
	gateTifIOC             = "ioc"

	gatePositionDualLong  = "dual_long"
	gatePositionDualShort = "dual_short"
)

// GateIO adapts Gate spot and perpetual futures to the Exchange contract.
type GateIO struct {
	api    GateAPI
	policy retry.Policy

	order           *model.MarketOrder
	settle          string
	amountPrecision int32
	quotePrecision  int32
	positionMode    string

	newClientID func() string
}

var _ Exchange = (*GateIO)(nil)

func NewGateIO(api GateAPI, policy retry.Policy) *GateIO {
	return &GateIO{
		api:             api,
		policy:          policy,
		settle:          settleUSDT,
		amountPrecision: 8,
		quotePrecision:  8,
		positionMode:    model.PositionModeOneWay,
		newClientID:     gateClientID,
	}
}

// gateClientID returns a client order id; Gate requires the "t-" prefix.
func gateClientID() string {
	return "t-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func settleFor(order *model.MarketOrder) string {
	if order.IsCoinM {
		return settleBTC
	}
	return settleUSDT
}

// InitInfo binds order to the adapter, loads the market metadata of its symbol
// and rounds the requested amount down to the venue precision.
func (g *GateIO) InitInfo(ctx context.Context, order *model.MarketOrder) error {
	g.order = order
	symbol := order.UnifiedSymbol

	logger.WithFields(logger.Fields{
		"symbol":  symbol,
		"futures": order.IsFutures,
		"coinm":   order.IsCoinM,
	}).Debug("Gate init info")

	if order.IsFutures {
		g.settle = settleFor(order)

		if _, err := g.GetTicker(ctx, symbol); err != nil {
			return err
		}

		contract, err := g.api.GetContract(ctx, g.settle, symbol)
		if err != nil {
			return g.marketInfoErr(symbol, err)
		}
		if size := parseDecimal(contract.QuantoMultiplier); size.IsPositive() {
			contractSize := size.InexactFloat64()
			order.IsContract = true
			order.ContractSize = &contractSize
		}
		// futures trade whole contracts
		g.amountPrecision = 0
	} else {
		if _, err := g.GetTicker(ctx, symbol); err != nil {
			return err
		}

		pair, err := g.api.GetCurrencyPair(ctx, symbol)
		if err != nil {
			return g.marketInfoErr(symbol, err)
		}
		g.amountPrecision = pair.AmountPrecision
		g.quotePrecision = pair.Precision
	}

	if order.Amount != nil {
		rounded := g.roundAmount(*order.Amount)
		order.Amount = &rounded
	}

	logger.WithFields(logger.Fields{
		"symbol":          symbol,
		"settle":          g.settle,
		"isContract":      order.IsContract,
		"amountPrecision": g.amountPrecision,
	}).Info("Gate market info loaded")

	return nil
}

func (g *GateIO) marketInfoErr(symbol string, err error) error {
	if isGateSymbolMissing(err) {
		return fmt.Errorf("%w: %s: %w", model.ErrSymbolNotFound, symbol, err)
	}
	return fmt.Errorf("gate market info %s: %w", symbol, err)
}

func (g *GateIO) roundAmount(amount float64) float64 {
	return decimal.NewFromFloat(amount).RoundFloor(g.amountPrecision).InexactFloat64()
}

func (g *GateIO) futures() bool {
	return g.order != nil && g.order.IsFutures
}

// GetTicker always asks the venue; prices are never cached.
func (g *GateIO) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	var last string
	if g.futures() {
		tickers, err := g.api.ListFuturesTickers(ctx, g.settle, symbol)
		if err != nil {
			return nil, g.marketInfoErr(symbol, err)
		}
		if len(tickers) == 0 {
			return nil, fmt.Errorf("%w: %s", model.ErrSymbolNotFound, symbol)
		}
		last = tickers[0].Last
	} else {
		tickers, err := g.api.ListSpotTickers(ctx, symbol)
		if err != nil {
			return nil, g.marketInfoErr(symbol, err)
		}
		if len(tickers) == 0 {
			return nil, fmt.Errorf("%w: %s", model.ErrSymbolNotFound, symbol)
		}
		last = tickers[0].Last
	}

	price, err := decimal.NewFromString(last)
	if err != nil {
		return nil, fmt.Errorf("gate ticker %s: invalid last price %q: %w", symbol, last, err)
	}
	return &Ticker{Symbol: symbol, Last: price.InexactFloat64()}, nil
}

func (g *GateIO) GetPrice(ctx context.Context, symbol string) (float64, error) {
	ticker, err := g.GetTicker(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return ticker.Last, nil
}

// GetBalance returns the available spot balance of asset, zero when the account
// holds none of it.
func (g *GateIO) GetBalance(ctx context.Context, asset string) (float64, error) {
	accounts, err := g.api.ListSpotAccounts(ctx, "")
	if err != nil {
		logger.WithField("asset", asset).WithError(err).Error("Gate balance lookup failed")
		return 0, fmt.Errorf("%w: %w", model.ErrFreeAmountNone, err)
	}

	for _, acc := range accounts {
		if strings.EqualFold(acc.Currency, asset) {
			return parseDecimal(acc.Available).InexactFloat64(), nil
		}
	}
	return 0, nil
}

// GetAmount resolves the quantity to trade. A percent is applied to the quote
// balance and converted at the live price when buying, or to the base balance
// when selling.
func (g *GateIO) GetAmount(ctx context.Context, order *model.MarketOrder) (float64, error) {
	if order.Amount != nil && order.Percent != nil {
		return 0, model.ErrAmountPercentBoth
	}
	if order.Amount != nil {
		return *order.Amount, nil
	}
	if order.Percent == nil {
		return 0, nil
	}

	asset := order.Base
	if order.IsBuy {
		asset = order.Quote
	}
	balance, err := g.GetBalance(ctx, asset)
	if err != nil {
		return 0, err
	}

	amount := balance * *order.Percent / 100
	if order.IsBuy {
		price, err := g.GetPrice(ctx, order.UnifiedSymbol)
		if err != nil {
			return 0, err
		}
		if price <= 0 {
			return 0, fmt.Errorf("gate price for %s is %v", order.UnifiedSymbol, price)
		}
		amount = amount / price
	}

	order.AmountByPercent = &amount
	return amount, nil
}

// resolveAmount runs GetAmount and turns the result into something the venue
// accepts: whole contracts for futures, venue precision for spot.
func (g *GateIO) resolveAmount(ctx context.Context, order *model.MarketOrder) (float64, error) {
	amount, err := g.GetAmount(ctx, order)
	if err != nil {
		return 0, err
	}

	if order.Percent != nil && order.IsFutures && order.ContractSize != nil && *order.ContractSize > 0 {
		amount = amount / *order.ContractSize
	}
	amount = g.roundAmount(amount)

	if order.Percent != nil {
		order.AmountByPercent = &amount
	}
	return amount, nil
}

// SetLeverage is a no-op for spot. Gate scopes leverage to the base currency
// of the unified account.
func (g *GateIO) SetLeverage(ctx context.Context, leverage int, symbol string) error {
	if !g.futures() {
		return nil
	}

	currency := strings.Split(symbol, "_")[0]
	logger.WithFields(logger.Fields{
		"currency": currency,
		"leverage": leverage,
	}).Info("Gate set leverage")

	if err := g.api.SetLeverage(ctx, currency, leverage); err != nil {
		return fmt.Errorf("gate set leverage %s: %w", currency, err)
	}
	return nil
}

// SetPositionMode switches futures between hedge (dual) and one-way mode. The
// mode is kept for the lifetime of the adapter.
func (g *GateIO) SetPositionMode(ctx context.Context, mode string) error {
	hedge := mode == model.PositionModeHedge

	if err := g.api.SetDualMode(ctx, g.settle, hedge); err != nil {
		logger.WithField("mode", mode).WithError(err).Error("Gate set position mode failed")
		return fmt.Errorf("gate set position mode %s: %w", mode, err)
	}

	if hedge {
		g.positionMode = model.PositionModeHedge
	} else {
		g.positionMode = model.PositionModeOneWay
	}
	logger.WithField("mode", g.positionMode).Info("Gate position mode set")
	return nil
}

func (g *GateIO) PositionMode() string {
	return g.positionMode
}

// GetFuturesPosition lists open positions. For a bound close order it also
// reports how much that order can close: the short size for a closing buy and
// the long size for a closing sell.
func (g *GateIO) GetFuturesPosition(ctx context.Context, symbol string, all bool) (*model.PositionReport, error) {
	raw, err := g.api.ListPositions(ctx, g.settle)
	if err != nil {
		logger.WithField("settle", g.settle).WithError(err).Error("Gate position lookup failed")
		return nil, fmt.Errorf("%w: %w", model.ErrPositionNone, err)
	}

	if symbol == "" && g.order != nil {
		symbol = g.order.UnifiedSymbol
	}

	report := &model.PositionReport{Positions: []model.Position{}}
	var long, short float64
	for _, p := range raw {
		if p.Size == 0 {
			continue
		}
		if !all && symbol != "" && p.Contract != symbol {
			continue
		}

		side := model.PositionSideLong
		if p.Mode == gatePositionDualShort || (p.Mode != gatePositionDualLong && p.Size < 0) {
			side = model.PositionSideShort
		}
		size := math.Abs(float64(p.Size))

		report.Positions = append(report.Positions, model.Position{
			Symbol:     p.Contract,
			Side:       side,
			Size:       size,
			EntryPrice: parseDecimal(p.EntryPrice).InexactFloat64(),
			MarkPrice:  parseDecimal(p.MarkPrice).InexactFloat64(),
			Leverage:   p.Leverage,
			Mode:       p.Mode,
		})

		if p.Contract != symbol {
			continue
		}
		if side == model.PositionSideLong {
			long += size
		} else {
			short += size
		}
	}

	if g.order != nil && g.order.IsClose {
		closable := long
		if g.order.IsBuy {
			closable = short
		}
		report.Closable = &closable
	}

	return report, nil
}

// MarketOrder submits order as a market IOC order, retried by the adapter
// policy. Failures come back as *model.OrderError.
func (g *GateIO) MarketOrder(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error) {
	return g.submit(ctx, order, order.AmountValue())
}

func (g *GateIO) MarketBuy(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error) {
	amount, err := g.resolveAmount(ctx, order)
	if err != nil {
		return nil, err
	}
	return g.submit(ctx, order, amount)
}

func (g *GateIO) MarketSell(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error) {
	amount, err := g.resolveAmount(ctx, order)
	if err != nil {
		return nil, err
	}
	return g.submit(ctx, order, amount)
}

// MarketEntry opens or adds to a futures position, setting leverage first
// when one is given.
func (g *GateIO) MarketEntry(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error) {
	amount, err := g.resolveAmount(ctx, order)
	if err != nil {
		return nil, err
	}
	if order.IsFutures && order.Leverage != nil {
		if err := g.SetLeverage(ctx, *order.Leverage, order.UnifiedSymbol); err != nil {
			return nil, err
		}
	}
	return g.submit(ctx, order, amount)
}

// MarketClose submits the requested amount as is. A futures close without an
// amount sizes against the open position instead of a balance: all of it, or
// percent of it.
func (g *GateIO) MarketClose(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error) {
	amount := order.AmountValue()
	if order.Amount == nil && order.IsFutures {
		var err error
		if amount, err = g.closableAmount(ctx, order); err != nil {
			return nil, err
		}
	}
	return g.submit(ctx, order, amount)
}

func (g *GateIO) closableAmount(ctx context.Context, order *model.MarketOrder) (float64, error) {
	report, err := g.GetFuturesPosition(ctx, order.UnifiedSymbol, false)
	if err != nil {
		return 0, err
	}
	if report.Closable == nil || *report.Closable <= 0 {
		return 0, model.ErrPositionNone
	}

	amount := *report.Closable
	if order.Percent != nil {
		amount = g.roundAmount(amount * *order.Percent / 100)
		order.AmountByPercent = &amount
	}
	return amount, nil
}

func (g *GateIO) submit(ctx context.Context, order *model.MarketOrder, amount float64) (*model.OrderResult, error) {
	fields := logger.Fields{
		"symbol":     order.UnifiedSymbol,
		"side":       order.Side,
		"amount":     amount,
		"account":    marginAccount(order),
		"reduceOnly": order.IsClose,
	}
	logger.WithFields(fields).Info("Gate market order")

	var (
		result *model.OrderResult
		err    error
	)
	if order.IsFutures {
		result, err = g.submitFutures(ctx, order, amount)
	} else {
		result, err = g.submitSpot(ctx, order, amount)
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Gate market order failed")
		return nil, &model.OrderError{Cause: err, Order: order}
	}

	logger.WithFields(fields).WithField("orderID", result.ID).Info("Gate market order placed")
	return result, nil
}

func (g *GateIO) submitFutures(ctx context.Context, order *model.MarketOrder, amount float64) (*model.OrderResult, error) {
	size := int64(amount)
	if order.IsSell {
		size = -size
	}
	req := GateFuturesOrderRequest{
		Contract:   order.UnifiedSymbol,
		Size:       size,
		Price:      "0",
		Tif:        gateTifIOC,
		ReduceOnly: order.IsClose,
		Text:       g.newClientID(),
	}

	resp, err := retry.Do(ctx, g.policy, "gate.CreateFuturesOrder", func() (*GateFuturesOrder, error) {
		return g.api.CreateFuturesOrder(ctx, g.settle, req)
	})
	if err != nil {
		return nil, err
	}
	return futuresOrderResult(order, resp), nil
}

func (g *GateIO) submitSpot(ctx context.Context, order *model.MarketOrder, amount float64) (*model.OrderResult, error) {
	// Gate sizes market buys in quote currency.
	qty := decimal.NewFromFloat(amount)
	if order.IsBuy {
		price, err := g.GetPrice(ctx, order.UnifiedSymbol)
		if err != nil {
			return nil, err
		}
		qty = qty.Mul(decimal.NewFromFloat(price)).RoundFloor(g.quotePrecision)
	}

	req := GateSpotOrderRequest{
		Text:         g.newClientID(),
		CurrencyPair: order.UnifiedSymbol,
		Type:         model.OrderTypeMarket,
		Account:      marginAccount(order),
		Side:         order.Side,
		Amount:       qty.String(),
		TimeInForce:  gateTifIOC,
	}

	resp, err := retry.Do(ctx, g.policy, "gate.CreateSpotOrder", func() (*GateSpotOrder, error) {
		return g.api.CreateSpotOrder(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return spotOrderResult(resp), nil
}

// marginAccount selects cross margin for futures and the spot account otherwise.
func marginAccount(order *model.MarketOrder) string {
	if order.IsFutures {
		return gateAccountCrossMargin
	}
	return gateAccountSpot
}

func futuresOrderResult(order *model.MarketOrder, resp *GateFuturesOrder) *model.OrderResult {
	amount := math.Abs(float64(resp.Size))
	filled := decimal.NewFromInt(resp.Size - resp.Left).Abs().String()

	result := &model.OrderResult{
		ID:        fmt.Sprintf("%d", resp.ID),
		Side:      order.Side,
		Status:    resp.Status,
		Amount:    &amount,
		FilledQty: &filled,
		Info: map[string]interface{}{
			"contract":       resp.Contract,
			"size":           resp.Size,
			"left":           resp.Left,
			"fill_price":     resp.FillPrice,
			"finish_as":      resp.FinishAs,
			"is_reduce_only": resp.IsReduceOnly,
			"text":           resp.Text,
		},
	}
	if resp.FillPrice != "" {
		avg := resp.FillPrice
		result.AvgDealPrice = &avg
		if p := parseDecimal(avg); !p.IsZero() {
			price := p.InexactFloat64()
			result.Price = &price
		}
	}
	return result
}

func spotOrderResult(resp *GateSpotOrder) *model.OrderResult {
	result := &model.OrderResult{
		ID:     resp.ID,
		Side:   resp.Side,
		Status: resp.Status,
		Info: map[string]interface{}{
			"currency_pair":  resp.CurrencyPair,
			"amount":         resp.Amount,
			"left":           resp.Left,
			"filled_amount":  resp.FilledAmount,
			"filled_total":   resp.FilledTotal,
			"avg_deal_price": resp.AvgDealPrice,
			"finish_as":      resp.FinishAs,
			"text":           resp.Text,
		},
	}
	if resp.FilledAmount != "" {
		filled := resp.FilledAmount
		result.FilledQty = &filled
		amount := parseDecimal(filled).InexactFloat64()
		result.Amount = &amount
	}
	if resp.FilledTotal != "" {
		cost := parseDecimal(resp.FilledTotal).InexactFloat64()
		result.Cost = &cost
	}
	if resp.AvgDealPrice != "" {
		avg := resp.AvgDealPrice
		result.AvgDealPrice = &avg
		price := parseDecimal(avg).InexactFloat64()
		result.Price = &price
	}
	return result
}

// parseDecimal reads a Gate numeric string, zero when empty or malformed.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
