package notify

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DiscordWebhookURL string        `envconfig:"DISCORD_WEBHOOK_URL"`
	WebhookTimeout    time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	MaxInFlight       int           `envconfig:"WEBHOOK_MAX_IN_FLIGHT" default:"4"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// NewNotifierFromConfig builds the notifier the process uses. Without a
// webhook URL notifications only go to the log.
func NewNotifierFromConfig(cfg Config) *Notifier {
	var sender Sender
	if cfg.DiscordWebhookURL != "" {
		sender = NewWebhookSender(cfg.DiscordWebhookURL, cfg.WebhookTimeout)
	}
	return NewNotifier(sender, cfg.MaxInFlight)
}
