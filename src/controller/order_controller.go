package controller

import (
	"context"
	"errors"
	"sync"

	logger "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"traderelay/src/connectors"
	"traderelay/src/model"
	"traderelay/src/notify"
)

type orderNotifier interface {
	LogOrderMessage(ctx context.Context, venue string, result model.OrderResult, order *model.MarketOrder) notify.Fields
	LogErrorMessage(ctx context.Context, err error, name string)
	LogOrderErrorMessage(ctx context.Context, err error, order *model.MarketOrder)
	LogValidationErrorMessage(ctx context.Context, msg string)
	LogAlertMessage(ctx context.Context, order *model.MarketOrder, success bool)
}

// JournalStore appends trade journal entries.
type JournalStore interface {
	Create(ctx context.Context, entry *model.TradeJournal) error
}

// OrderController runs signals for one venue: resolve, submit, notify and
// journal. The adapter keeps the bound order and position mode as state, so
// requests are serialized.
type OrderController struct {
	venue      string
	exchange   connectors.Exchange
	notifier   orderNotifier
	journal    JournalStore
	exceptions ExceptionStore
	config     Config

	mu sync.Mutex
}

// NewOrderController wires a controller. journal and exceptions may be nil
// when the database is disabled.
func NewOrderController(
	venue string,
	exchange connectors.Exchange,
	notifier orderNotifier,
	journal JournalStore,
	exceptions ExceptionStore,
	config Config,
) *OrderController {
	return &OrderController{
		venue:      venue,
		exchange:   exchange,
		notifier:   notifier,
		journal:    journal,
		exceptions: exceptions,
		config:     config,
	}
}

func (c *OrderController) Venue() string {
	return c.venue
}

// Execute runs order against the venue. The returned error is the pipeline
// failure, combined with a journal failure when the error could not be
// recorded either.
func (c *OrderController) Execute(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := logger.WithFields(logger.Fields{
		"exchange": c.venue,
		"symbol":   order.UnifiedSymbol,
		"side":     order.Side,
		"futures":  order.IsFutures,
		"order":    order.OrderName,
	})
	entry.Info("Executing order")

	result, err := c.run(ctx, order)
	if err != nil {
		entry.WithError(err).Error("Order failed")
		return nil, c.fail(ctx, order, "Execute", err)
	}

	fields := c.notifier.LogOrderMessage(ctx, c.venue, *result, order)
	if c.config.AlertOnSignal {
		c.notifier.LogAlertMessage(ctx, order, true)
	}

	if jerr := c.record(ctx, order, fields, result, nil); jerr != nil {
		entry.WithError(jerr).Error("Failed to journal filled order")
	}

	entry.WithField("orderID", result.ID).Info("Order executed")
	return result, nil
}

func (c *OrderController) run(ctx context.Context, order *model.MarketOrder) (*model.OrderResult, error) {
	if err := c.exchange.InitInfo(ctx, order); err != nil {
		return nil, err
	}

	switch {
	case order.IsClose:
		return c.exchange.MarketClose(ctx, order)
	case order.IsFutures:
		return c.exchange.MarketEntry(ctx, order)
	case order.IsBuy:
		return c.exchange.MarketBuy(ctx, order)
	default:
		return c.exchange.MarketSell(ctx, order)
	}
}

// fail routes err to the renderer matching its type, captures it and journals
// it.
func (c *OrderController) fail(ctx context.Context, order *model.MarketOrder, method string, err error) error {
	var (
		orderErr      *model.OrderError
		validationErr *model.ValidationError
	)
	switch {
	case errors.As(err, &orderErr):
		c.notifier.LogOrderErrorMessage(ctx, err, orderErr.Order)
	case errors.As(err, &validationErr):
		c.notifier.LogValidationErrorMessage(ctx, validationErr.Error())
	default:
		c.notifier.LogErrorMessage(ctx, err, c.venue)
	}
	if c.config.AlertOnSignal {
		c.notifier.LogAlertMessage(ctx, order, false)
	}

	Capture(ctx, c.exceptions, c.config.ServiceName, "OrderController", method, "error", err, map[string]interface{}{
		"exchange": c.venue,
		"symbol":   order.UnifiedSymbol,
		"side":     order.Side,
		"order":    order.OrderName,
	})

	return multierr.Append(err, c.record(ctx, order, notify.Fields{}, nil, err))
}

func (c *OrderController) record(ctx context.Context, order *model.MarketOrder, fields notify.Fields, result *model.OrderResult, orderErr error) error {
	if c.journal == nil {
		return nil
	}

	entry := &model.TradeJournal{
		Exchange:      c.venue,
		Symbol:        order.UnifiedSymbol,
		OrderName:     order.OrderName,
		IsFutures:     order.IsFutures,
		SideLabel:     fields.SideLabel,
		FieldName:     fields.FieldName,
		AmountDisplay: fields.AmountDisplay,
		Amount:        order.Amount,
		Percent:       order.Percent,
		Leverage:      order.Leverage,
		Status:        model.TradeStatusFilled,
	}
	if result != nil {
		entry.ExchangeOrderID = result.ID
	}
	if orderErr != nil {
		entry.Status = model.TradeStatusError
		entry.ErrorKind = model.ErrorKind(orderErr)
		entry.ErrorMessage = model.StringPtr(orderErr.Error())
	}

	return c.journal.Create(ctx, entry)
}

// SetPositionMode switches the venue between one-way and hedge mode.
func (c *OrderController) SetPositionMode(ctx context.Context, mode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode != model.PositionModeOneWay && mode != model.PositionModeHedge {
		err := model.NewValidationError("mode", "unknown position mode "+mode)
		c.notifier.LogValidationErrorMessage(ctx, err.Error())
		return err
	}

	if err := c.exchange.SetPositionMode(ctx, mode); err != nil {
		c.notifier.LogErrorMessage(ctx, err, c.venue)
		Capture(ctx, c.exceptions, c.config.ServiceName, "OrderController", "SetPositionMode", "error", err,
			map[string]interface{}{"exchange": c.venue, "mode": mode})
		return err
	}

	logger.WithFields(logger.Fields{
		"exchange": c.venue,
		"mode":     c.exchange.PositionMode(),
	}).Info("Position mode updated")
	return nil
}

// PositionMode returns the mode the adapter last applied.
func (c *OrderController) PositionMode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exchange.PositionMode()
}

// Positions lists open futures positions, all of them when symbol is empty.
func (c *OrderController) Positions(ctx context.Context, symbol string) (*model.PositionReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report, err := c.exchange.GetFuturesPosition(ctx, symbol, symbol == "")
	if err != nil {
		Capture(ctx, c.exceptions, c.config.ServiceName, "OrderController", "Positions", "warn", err,
			map[string]interface{}{"exchange": c.venue, "symbol": symbol})
		return nil, err
	}
	return report, nil
}
