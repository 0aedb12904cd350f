package logging

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Level string `envconfig:"LOG_LEVEL" default:"debug"`
	// Empty disables the file sink.
	File          string `envconfig:"LOG_FILE" default:"./log/relay.log"`
	RetentionDays int    `envconfig:"LOG_RETENTION_DAYS" default:"7"`
	MaxSizeMB     int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	Compress      bool   `envconfig:"LOG_COMPRESS" default:"false"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
