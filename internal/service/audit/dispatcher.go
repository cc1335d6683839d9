package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"govhub/internal/domain"
)

// Dispatcher consumes fired resource-audit scheduler events: it lists the
// catalog's audit items through the resource type handler and delivers a
// report to the bound notification channel. Failures are logged, never
// retried; the next scheduled firing is the retry.
type Dispatcher struct {
	catalogs domain.CatalogRepository
	plugins  domain.NotificationPluginRegistry
	logger   *slog.Logger
}

func NewDispatcher(catalogs domain.CatalogRepository, plugins domain.NotificationPluginRegistry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		catalogs: catalogs,
		plugins:  plugins,
		logger:   logger.With("component", "audit-dispatcher"),
	}
}

// HandleSchedulerEvent is the scheduler sink. Non-audit events are
// ignored.
func (d *Dispatcher) HandleSchedulerEvent(ctx context.Context, event *domain.SchedulerEvent) {
	if event.EventType != domain.SchedulerEventResourceAudit {
		return
	}
	var prop domain.ResourceAuditProperty
	if err := json.Unmarshal(event.Property, &prop); err != nil {
		d.logger.Warn("malformed audit event property", "event", event.ID, "error", err)
		return
	}
	if err := d.dispatch(ctx, &prop); err != nil {
		d.logger.Warn("audit notification dispatch failed", "event", event.ID,
			"catalog", prop.CatalogID, "resource", prop.ResourceID, "error", err)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, prop *domain.ResourceAuditProperty) error {
	catalog, err := d.catalogs.GetByID(ctx, prop.CatalogID)
	if err != nil {
		return err
	}
	resourceType := catalog.ResourceType(prop.ResourceTypeID)
	if resourceType == nil {
		return domain.ErrNotFound("resource type %s not found in catalog %s", prop.ResourceTypeID, prop.CatalogID)
	}
	plugin, ok := d.plugins.Plugin(prop.NotificationTypeID)
	if !ok {
		return domain.ErrNotFound("notification plugin %s not registered", prop.NotificationTypeID)
	}

	items, err := resourceType.Handler.ListResourceAuditItem(ctx, prop.CatalogID)
	if err != nil {
		return err
	}

	var properties map[string]string
	if prop.ChannelProperties != "" {
		if err := json.Unmarshal([]byte(prop.ChannelProperties), &properties); err != nil {
			return domain.ErrInternalCause(err, "decode channel properties: %v", err)
		}
	}
	channel := &domain.NotificationChannel{
		TypeID:     prop.NotificationTypeID,
		Properties: properties,
	}
	return plugin.SendNotification(ctx, formatAuditReport(catalog, prop.ResourceID, items), channel)
}

func formatAuditReport(catalog *domain.Catalog, resourceID string, items []domain.ResourceAuditItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Audit report for %s (resource %s): %d item(s)\n", catalog.Name, resourceID, len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s)", item.Name, item.ResourceID)
		for k, v := range item.Values {
			fmt.Fprintf(&b, " %s=%s", k, v)
		}
		b.WriteString("\n")
	}
	return b.String()
}
