package app

import (
	"context"
	"encoding/json"
	"fmt"

	"govhub/internal/db/repository"
	"govhub/internal/domain"
)

// restoreAuditSchedules rebuilds in-process scheduler events from the
// audit-notification bindings persisted on resource records. Scheduler
// state does not survive a restart; the bindings are the durable record.
func (a *App) restoreAuditSchedules(ctx context.Context, records *repository.ResourceRecordRepo) error {
	catalogs, err := a.CatalogRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, catalog := range catalogs {
		recs, err := records.ListByCatalog(ctx, catalog.ID)
		if err != nil {
			return fmt.Errorf("list records for catalog %s: %w", catalog.ID, err)
		}
		for _, rec := range recs {
			for _, binding := range rec.AuditNotifications {
				if err := a.restoreBinding(&rec, &binding); err != nil {
					return fmt.Errorf("restore binding %s on %s/%s/%s: %w",
						binding.ID, rec.CatalogID, rec.ResourceTypeID, rec.ID, err)
				}
			}
		}
	}
	return nil
}

func (a *App) restoreBinding(rec *domain.ResourceRecord, binding *domain.AuditNotificationBinding) error {
	channelProps, err := json.Marshal(binding.Channel.Properties)
	if err != nil {
		return err
	}
	property, err := domain.ResourceAuditProperty{
		CatalogID:          rec.CatalogID,
		ResourceTypeID:     rec.ResourceTypeID,
		ResourceID:         rec.ID,
		NotificationTypeID: binding.Channel.TypeID,
		ChannelProperties:  string(channelProps),
	}.Encode()
	if err != nil {
		return err
	}
	return a.Scheduler.Restore(&domain.SchedulerEvent{
		ID:              binding.SchedulerEventID,
		EventType:       domain.SchedulerEventResourceAudit,
		Property:        property,
		SchedulePattern: binding.CronExpression,
	})
}
