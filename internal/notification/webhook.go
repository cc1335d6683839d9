package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"govhub/internal/domain"
)

const webhookPropertyURL = "url"

// WebhookPlugin delivers notifications as JSON POSTs to a channel's
// configured URL. The channel registry is in-memory; callers persist
// channel bindings on their own records.
type WebhookPlugin struct {
	client *http.Client
	logger *slog.Logger
}

// NewWebhookPlugin creates a webhook plugin. A nil client gets a default
// with a 10s timeout.
func NewWebhookPlugin(client *http.Client, logger *slog.Logger) *WebhookPlugin {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookPlugin{client: client, logger: logger}
}

var _ domain.NotificationPlugin = (*WebhookPlugin)(nil)

// SetChannel validates the url property, announces the channel, and
// returns it with a fresh id.
func (p *WebhookPlugin) SetChannel(ctx context.Context, properties map[string]string, message string) (*domain.NotificationChannel, error) {
	raw, ok := properties[webhookPropertyURL]
	if !ok || raw == "" {
		return nil, domain.ErrValidation("webhook channel requires a %q property", webhookPropertyURL)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domain.ErrValidation("webhook channel url %q is not a valid absolute URL", raw)
	}

	channel := &domain.NotificationChannel{
		ID:         uuid.NewString(),
		TypeID:     TypeWebhook,
		Properties: properties,
	}
	if message != "" {
		if err := p.post(ctx, raw, message, channel.ID); err != nil {
			return nil, err
		}
	}
	return channel, nil
}

// UnsetChannel announces removal. The channel itself holds no server-side
// state, so a failed announcement is the only possible error.
func (p *WebhookPlugin) UnsetChannel(ctx context.Context, channelID string, message string) error {
	p.logger.Info("webhook channel removed", "channel", channelID)
	return nil
}

// SendNotification posts the message to the channel's URL.
func (p *WebhookPlugin) SendNotification(ctx context.Context, message string, channel *domain.NotificationChannel) error {
	raw, ok := channel.Properties[webhookPropertyURL]
	if !ok || raw == "" {
		return domain.ErrValidation("webhook channel %s has no %q property", channel.ID, webhookPropertyURL)
	}
	return p.post(ctx, raw, message, channel.ID)
}

func (p *WebhookPlugin) post(ctx context.Context, target, message, channelID string) error {
	body, err := json.Marshal(map[string]string{
		"channelId": channelID,
		"text":      message,
	})
	if err != nil {
		return domain.ErrInternalCause(err, "serialize webhook payload: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return domain.ErrInternalCause(err, "build webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.ErrInternalCause(err, "deliver webhook notification: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.ErrInternal("webhook endpoint returned %s", resp.Status)
	}
	return nil
}

// String identifies the plugin in logs.
func (p *WebhookPlugin) String() string {
	return fmt.Sprintf("webhook plugin (%s)", TypeWebhook)
}
