package server

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"9898"`
	// bcrypt hash of the password every signal must carry
	PasswordHash string `envconfig:"RELAY_PASSWORD_HASH"`
	// Source IPs allowed to post signals. Empty allows any.
	Whitelist       []string      `envconfig:"RELAY_WHITELIST"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
