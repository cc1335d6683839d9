// Package notification hosts the built-in notification plugins and the
// registry that resolves them by channel type id.
package notification

import "govhub/internal/domain"

// Built-in channel type ids.
const (
	TypeWebhook = "webhook"
	TypeLog     = "log"
)

// Registry maps channel type ids to plugins.
type Registry map[string]domain.NotificationPlugin

var _ domain.NotificationPluginRegistry = Registry{}

// Plugin returns the plugin registered for typeID.
func (r Registry) Plugin(typeID string) (domain.NotificationPlugin, bool) {
	p, ok := r[typeID]
	return p, ok
}
