package executors

import (
	"context"
	"fmt"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"traderelay/src/connectors"
	"traderelay/src/controller"
	"traderelay/src/database"
	"traderelay/src/model"
	"traderelay/src/notify"
	"traderelay/src/repository"
)

var (
	newExchange = connectors.NewExchange

	newTradeJournalRepo = func() *repository.TradeJournalRepository {
		return repository.NewTradeJournalRepository()
	}
	newExceptionRepo = func() *repository.ExceptionRepository {
		return repository.NewExceptionRepository()
	}
)

// Dispatcher turns signals into orders and hands each one to the controller of
// its venue. Controllers are built on first use and reused afterwards.
type Dispatcher struct {
	notifier         *notify.Notifier
	connectorConfig  connectors.Config
	controllerConfig controller.Config
	enabled          map[string]bool

	mu          sync.Mutex
	controllers map[string]*controller.OrderController
}

func NewDispatcher(notifier *notify.Notifier, config Config, connectorConfig connectors.Config, controllerConfig controller.Config) *Dispatcher {
	enabled := make(map[string]bool, len(config.Exchanges))
	for _, name := range config.Exchanges {
		enabled[strings.ToUpper(strings.TrimSpace(name))] = true
	}
	return &Dispatcher{
		notifier:         notifier,
		connectorConfig:  connectorConfig,
		controllerConfig: controllerConfig,
		enabled:          enabled,
		controllers:      map[string]*controller.OrderController{},
	}
}

// Submit parses req and executes the resulting order.
func (d *Dispatcher) Submit(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	order, err := model.NewMarketOrder(req)
	if err != nil {
		d.notifier.LogValidationErrorMessage(ctx, err.Error())
		controller.Capture(ctx, d.exceptionStore(), d.controllerConfig.ServiceName, "Dispatcher", "Submit", "warn", err,
			map[string]interface{}{"exchange": req.Exchange, "base": req.Base, "quote": req.Quote, "side": req.Side})
		return nil, err
	}

	c, err := d.runController(order.Exchange)
	if err != nil {
		d.notifier.LogErrorMessage(ctx, err, order.Exchange)
		return nil, err
	}
	return c.Execute(ctx, order)
}

// SetPositionMode applies mode on the venue's adapter.
func (d *Dispatcher) SetPositionMode(ctx context.Context, venue, mode string) error {
	c, err := d.runController(venue)
	if err != nil {
		d.notifier.LogErrorMessage(ctx, err, venue)
		return err
	}
	return c.SetPositionMode(ctx, mode)
}

// Positions lists open futures positions on venue.
func (d *Dispatcher) Positions(ctx context.Context, venue, symbol string) (*model.PositionReport, error) {
	c, err := d.runController(venue)
	if err != nil {
		return nil, err
	}
	return c.Positions(ctx, symbol)
}

// runController returns the controller for venue, building it on first use.
func (d *Dispatcher) runController(venue string) (*controller.OrderController, error) {
	venue = strings.ToUpper(strings.TrimSpace(venue))
	if !d.enabled[venue] {
		err := fmt.Errorf("%w: %s is not enabled", connectors.ErrExchangeNotSupported, venue)
		logger.WithError(err).Error("exchange not enabled")
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.controllers[venue]; ok {
		return c, nil
	}

	exchange, err := newExchange(venue, d.connectorConfig)
	if err != nil {
		return nil, err
	}

	c := controller.NewOrderController(venue, exchange, d.notifier, d.journalStore(), d.exceptionStore(), d.controllerConfig)
	d.controllers[venue] = c
	logger.WithField("exchange", venue).Info("order controller started")
	return c, nil
}

// journalStore returns a nil interface when the database is disabled so
// controllers skip journaling.
func (d *Dispatcher) journalStore() controller.JournalStore {
	if database.MainDB == nil {
		return nil
	}
	return newTradeJournalRepo()
}

func (d *Dispatcher) exceptionStore() controller.ExceptionStore {
	if database.MainDB == nil {
		return nil
	}
	return newExceptionRepo()
}
