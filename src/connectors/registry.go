package connectors

import (
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"traderelay/src/model"
)

var ErrExchangeNotSupported = errors.New("exchange not supported")

// NewExchange returns the adapter for a venue name.
func NewExchange(name string, cfg Config) (Exchange, error) {
	switch strings.ToUpper(name) {
	case model.ExchangeGateIO:
		client := NewGateClient(cfg.GateAPIKey, cfg.GateAPISecret, cfg.GateBaseURL, cfg.HTTPTimeout)
		return NewGateIO(client, cfg.OrderPolicy()), nil
	default:
		err := fmt.Errorf("%w: %s", ErrExchangeNotSupported, name)
		logger.WithError(err).Error("exchange not supported")
		return nil, err
	}
}
