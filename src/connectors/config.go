package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"traderelay/src/retry"
)

type Config struct {
	GateAPIKey    string `envconfig:"GATE_API_KEY"`
	GateAPISecret string `envconfig:"GATE_API_SECRET"`
	GateBaseURL   string `envconfig:"GATE_BASE_URL" default:"https://api.gateio.ws"`

	OrderRetryAttempts uint          `envconfig:"ORDER_RETRY_ATTEMPTS" default:"5"`
	OrderRetryDelay    time.Duration `envconfig:"ORDER_RETRY_DELAY" default:"100ms"`
	OrderRetryBackoff  bool          `envconfig:"ORDER_RETRY_BACKOFF" default:"false"`
	HTTPTimeout        time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// OrderPolicy is the retry policy for order submission.
func (c Config) OrderPolicy() retry.Policy {
	return retry.Policy{
		Attempts:  c.OrderRetryAttempts,
		Delay:     c.OrderRetryDelay,
		Backoff:   c.OrderRetryBackoff,
		Retryable: isRetryableGateErr,
	}
}
