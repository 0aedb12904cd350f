package executors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Venues accepted by the relay. Signals for other venues are rejected
	// before an adapter is built.
	Exchanges []string `envconfig:"RELAY_EXCHANGES" default:"GATEIO"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
