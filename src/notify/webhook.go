package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

// Discord rejects empty field values.
const emptyFieldValue = "\u200b"

// Sender delivers a rendered message to the operator channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// WebhookSender posts messages to a Discord compatible webhook.
type WebhookSender struct {
	url  string
	http *resty.Client
}

type webhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []webhookEmbed `json:"embeds,omitempty"`
}

type webhookEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []webhookField `json:"fields,omitempty"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:  strings.Replace(url, "discordapp", "discord", 1),
		http: resty.New().SetTimeout(timeout),
	}
}

// Send posts the embed when there is one and the plain content otherwise.
func (w *WebhookSender) Send(ctx context.Context, msg Message) error {
	payload := webhookPayload{}
	if msg.Embed != nil {
		embed := webhookEmbed{
			Title:       msg.Embed.Title,
			Description: msg.Embed.Description,
			Color:       msg.Embed.Color,
		}
		for _, f := range msg.Embed.Fields {
			value := f.Value
			if value == "" {
				value = emptyFieldValue
			}
			embed.Fields = append(embed.Fields, webhookField{Name: f.Name, Value: value, Inline: f.Inline})
		}
		payload.Embeds = []webhookEmbed{embed}
	} else {
		payload.Content = msg.Content
	}

	resp, err := w.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	if resp.IsError() {
		logger.WithFields(logger.Fields{
			"status": resp.StatusCode(),
			"body":   resp.String(),
		}).Warn("webhook rejected message")
		return fmt.Errorf("webhook HTTP %d", resp.StatusCode())
	}
	return nil
}
