package notification

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"govhub/internal/domain"
)

// LogPlugin writes notifications to the process log. It exists so
// deployments without an external channel still see governance events,
// and it doubles as the plugin used in local development.
type LogPlugin struct {
	logger *slog.Logger
}

func NewLogPlugin(logger *slog.Logger) *LogPlugin {
	return &LogPlugin{logger: logger}
}

var _ domain.NotificationPlugin = (*LogPlugin)(nil)

func (p *LogPlugin) SetChannel(ctx context.Context, properties map[string]string, message string) (*domain.NotificationChannel, error) {
	channel := &domain.NotificationChannel{
		ID:         uuid.NewString(),
		TypeID:     TypeLog,
		Properties: properties,
	}
	if message != "" {
		p.logger.Info("notification channel registered", "channel", channel.ID, "message", message)
	}
	return channel, nil
}

func (p *LogPlugin) UnsetChannel(ctx context.Context, channelID string, message string) error {
	p.logger.Info("notification channel removed", "channel", channelID, "message", message)
	return nil
}

func (p *LogPlugin) SendNotification(ctx context.Context, message string, channel *domain.NotificationChannel) error {
	p.logger.Info("notification", "channel", channel.ID, "message", message)
	return nil
}
