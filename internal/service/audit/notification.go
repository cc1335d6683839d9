package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"govhub/internal/domain"
	"govhub/internal/service/authz"
	"govhub/internal/service/resource"
)

// NotificationService manages audit-notification bindings on resources.
// Create and update are strict sagas; delete is best-effort cleanup.
type NotificationService struct {
	catalogs  domain.CatalogRepository
	records   domain.ResourceRecordRepository
	users     domain.UserRepository
	resolver  *resource.Resolver
	evaluator *authz.Evaluator
	scheduler domain.SchedulerProvider
	plugins   domain.NotificationPluginRegistry
	logger    *slog.Logger
}

// NewNotificationService creates an audit-notification service.
func NewNotificationService(
	catalogs domain.CatalogRepository,
	records domain.ResourceRecordRepository,
	users domain.UserRepository,
	resolver *resource.Resolver,
	evaluator *authz.Evaluator,
	scheduler domain.SchedulerProvider,
	plugins domain.NotificationPluginRegistry,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		catalogs:  catalogs,
		records:   records,
		users:     users,
		resolver:  resolver,
		evaluator: evaluator,
		scheduler: scheduler,
		plugins:   plugins,
		logger:    logger,
	}
}

// resolveTarget authorizes the user for edit-resource and resolves the
// target resource.
func (s *NotificationService) resolveTarget(ctx context.Context, catalogID, resourceTypeID, resourceID, userID string) (*domain.Catalog, *domain.ResourceTypeConfig, *domain.ResourceInfo, error) {
	catalog, err := s.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return nil, nil, nil, err
	}
	rt := catalog.ResourceType(resourceTypeID)
	if rt == nil {
		return nil, nil, nil, domain.ErrValidation("resource type %s is not configured in catalog %s", resourceTypeID, catalogID)
	}
	info, err := s.resolver.Resolve(ctx, catalog, rt, resourceID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := s.evaluator.CheckCanEditResource(ctx, catalog, info, userID); err != nil {
		return nil, nil, nil, err
	}
	return catalog, rt, info, nil
}

// resolveCollaborators looks up the notification plugin and the
// requesting user; both must exist before any side effect starts.
func (s *NotificationService) resolveCollaborators(ctx context.Context, notificationTypeID, userID string) (domain.NotificationPlugin, *domain.User, error) {
	plugin, ok := s.plugins.Plugin(notificationTypeID)
	if !ok {
		return nil, nil, domain.ErrValidation("notification type %s is not registered", notificationTypeID)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.As(err, new(*domain.NotFoundError)) {
			return nil, nil, domain.ErrValidation("user %s not found", userID)
		}
		return nil, nil, err
	}
	return plugin, user, nil
}

func auditProperty(catalogID, resourceTypeID, resourceID, notificationTypeID string, channelProps map[string]string) (domain.ResourceAuditProperty, error) {
	serialized, err := json.Marshal(channelProps)
	if err != nil {
		return domain.ResourceAuditProperty{}, domain.ErrInternalCause(err, "serialize channel properties: %v", err)
	}
	return domain.ResourceAuditProperty{
		CatalogID:          catalogID,
		ResourceTypeID:     resourceTypeID,
		ResourceID:         resourceID,
		NotificationTypeID: notificationTypeID,
		ChannelProperties:  string(serialized),
	}, nil
}

// Create binds an audit notification to a resource: a scheduler event is
// created, the notification channel registered, and the binding persisted
// on the resource record. Each successful step registers a compensation
// that runs if a later step fails.
func (s *NotificationService) Create(ctx context.Context, req domain.CreateAuditNotificationRequest, userID string) (*domain.ResourceInfo, error) {
	catalog, rt, info, err := s.resolveTarget(ctx, req.CatalogID, req.ResourceTypeID, req.ResourceID, userID)
	if err != nil {
		return nil, err
	}
	if len(info.AuditNotifications) > 0 {
		return nil, domain.ErrValidation("resource %s already has an audit notification", req.ResourceID)
	}
	plugin, user, err := s.resolveCollaborators(ctx, req.NotificationTypeID, userID)
	if err != nil {
		return nil, err
	}
	property, err := auditProperty(catalog.ID, rt.ID, req.ResourceID, req.NotificationTypeID, req.ChannelProperties)
	if err != nil {
		return nil, err
	}

	var (
		event   *domain.SchedulerEvent
		channel *domain.NotificationChannel
	)
	message := fmt.Sprintf("Audit notification for resource %q enabled by %s on schedule %q.",
		info.Name, user.Name, req.CronExpression)

	err = runSaga(ctx, s.logger, []Action{
		{
			FailureMessage: "Failed to create scheduler event",
			Forward: func(ctx context.Context) error {
				created, err := s.scheduler.CreateSchedulerEvent(ctx, domain.SchedulerEventResourceAudit, property, req.CronExpression)
				if err != nil {
					return err
				}
				event = created
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.scheduler.DeleteSchedulerEvent(ctx, event.ID)
			},
		},
		{
			FailureMessage: "Failed to set channel notification",
			Forward: func(ctx context.Context) error {
				set, err := plugin.SetChannel(ctx, req.ChannelProperties, message)
				if err != nil {
					return err
				}
				channel = set
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return plugin.UnsetChannel(ctx, channel.ID, "Audit notification setup failed; removing channel.")
			},
		},
		{
			FailureMessage: "Failed to save the resource record",
			Forward: func(ctx context.Context) error {
				binding := domain.AuditNotificationBinding{
					ID: uuid.NewString(),
					Channel: domain.NotificationChannel{
						ID:         channel.ID,
						TypeID:     req.NotificationTypeID,
						Properties: req.ChannelProperties,
					},
					SchedulerEventID: event.ID,
					CronExpression:   req.CronExpression,
				}
				rec := recordFromInfo(info)
				rec.AuditNotifications = append(rec.AuditNotifications, binding)
				if err := s.records.Set(ctx, rec); err != nil {
					return err
				}
				info.AuditNotifications = rec.AuditNotifications
				return nil
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Update replaces an existing binding. The prior scheduler event is
// fetched first as the rollback target: compensation restores it to its
// former value rather than deleting it.
func (s *NotificationService) Update(ctx context.Context, req domain.UpdateAuditNotificationRequest, userID string) (*domain.ResourceInfo, error) {
	catalog, rt, info, err := s.resolveTarget(ctx, req.CatalogID, req.ResourceTypeID, req.ResourceID, userID)
	if err != nil {
		return nil, err
	}
	binding := info.AuditNotification(req.BindingID)
	if binding == nil {
		return nil, domain.ErrNotFound("audit notification %s not found on resource %s", req.BindingID, req.ResourceID)
	}
	plugin, user, err := s.resolveCollaborators(ctx, req.NotificationTypeID, userID)
	if err != nil {
		return nil, err
	}
	former, err := s.scheduler.GetSchedulerEvent(ctx, binding.SchedulerEventID)
	if err != nil {
		return nil, err
	}
	if former == nil {
		return nil, domain.ErrNotFound("scheduler event %s of audit notification %s not found", binding.SchedulerEventID, binding.ID)
	}
	property, err := auditProperty(catalog.ID, rt.ID, req.ResourceID, req.NotificationTypeID, req.ChannelProperties)
	if err != nil {
		return nil, err
	}
	raw, err := property.Encode()
	if err != nil {
		return nil, err
	}

	oldChannel := binding.Channel
	var channel *domain.NotificationChannel
	message := fmt.Sprintf("Audit notification for resource %q updated by %s; new schedule %q.",
		info.Name, user.Name, req.CronExpression)

	err = runSaga(ctx, s.logger, []Action{
		{
			FailureMessage: "Failed to update scheduler event",
			Forward: func(ctx context.Context) error {
				_, err := s.scheduler.UpdateSchedulerEvent(ctx, &domain.SchedulerEvent{
					ID:              former.ID,
					EventType:       domain.SchedulerEventResourceAudit,
					Property:        raw,
					SchedulePattern: req.CronExpression,
				})
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := s.scheduler.UpdateSchedulerEvent(ctx, former)
				return err
			},
		},
		{
			FailureMessage: "Failed to set channel notification",
			Forward: func(ctx context.Context) error {
				set, err := plugin.SetChannel(ctx, req.ChannelProperties, message)
				if err != nil {
					return err
				}
				channel = set
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return plugin.UnsetChannel(ctx, channel.ID, "Audit notification update failed; removing channel.")
			},
		},
		{
			FailureMessage: "Failed to save the resource record",
			Forward: func(ctx context.Context) error {
				updated := domain.AuditNotificationBinding{
					ID: binding.ID,
					Channel: domain.NotificationChannel{
						ID:         channel.ID,
						TypeID:     req.NotificationTypeID,
						Properties: req.ChannelProperties,
					},
					SchedulerEventID: former.ID,
					CronExpression:   req.CronExpression,
				}
				rec := recordFromInfo(info)
				for i := range rec.AuditNotifications {
					if rec.AuditNotifications[i].ID == binding.ID {
						rec.AuditNotifications[i] = updated
					}
				}
				if err := s.records.Set(ctx, rec); err != nil {
					return err
				}
				info.AuditNotifications = rec.AuditNotifications
				return nil
			},
		},
	})
	if err != nil {
		return nil, err
	}

	// The superseded channel is no longer referenced; removing it is
	// best-effort.
	if oldChannel.ID != channel.ID {
		if plugin, ok := s.plugins.Plugin(oldChannel.TypeID); ok {
			if err := plugin.UnsetChannel(ctx, oldChannel.ID, "Audit notification channel replaced."); err != nil {
				s.logger.Warn("unset superseded notification channel failed",
					"resource", req.ResourceID, "channel", oldChannel.ID, "error", err)
			}
		}
	}
	return info, nil
}

// Delete removes an audit-notification binding. Scheduler and channel
// cleanup is best-effort: a notification or scheduler backend being
// unreachable must not block the user's intent to delete. Only the final
// record write is a hard failure point.
func (s *NotificationService) Delete(ctx context.Context, catalogID, resourceTypeID, resourceID, bindingID, userID string) (*domain.ResourceInfo, error) {
	_, _, info, err := s.resolveTarget(ctx, catalogID, resourceTypeID, resourceID, userID)
	if err != nil {
		return nil, err
	}
	if len(info.AuditNotifications) == 0 {
		return nil, domain.ErrNotFound("resource %s has no audit notification", resourceID)
	}
	binding := info.AuditNotification(bindingID)
	if binding == nil {
		return nil, domain.ErrNotFound("audit notification %s not found on resource %s", bindingID, resourceID)
	}

	event, err := s.scheduler.GetSchedulerEvent(ctx, binding.SchedulerEventID)
	switch {
	case err != nil:
		s.logger.Warn("fetch scheduler event for deletion failed",
			"resource", resourceID, "event", binding.SchedulerEventID, "error", err)
	case event == nil:
		s.logger.Warn("scheduler event already gone",
			"resource", resourceID, "event", binding.SchedulerEventID)
	default:
		if err := s.scheduler.DeleteSchedulerEvent(ctx, event.ID); err != nil {
			s.logger.Warn("delete scheduler event failed",
				"resource", resourceID, "event", event.ID, "error", err)
		}
	}

	if plugin, ok := s.plugins.Plugin(binding.Channel.TypeID); ok {
		if err := plugin.UnsetChannel(ctx, binding.Channel.ID, "Audit notification removed."); err != nil {
			s.logger.Warn("unset notification channel failed",
				"resource", resourceID, "channel", binding.Channel.ID, "error", err)
		}
	} else {
		s.logger.Warn("notification plugin not found for channel cleanup",
			"resource", resourceID, "type", binding.Channel.TypeID)
	}

	rec := recordFromInfo(info)
	kept := rec.AuditNotifications[:0]
	for _, b := range rec.AuditNotifications {
		if b.ID != bindingID {
			kept = append(kept, b)
		}
	}
	rec.AuditNotifications = kept
	if err := s.records.Set(ctx, rec); err != nil {
		return nil, err
	}
	info.AuditNotifications = kept
	return info, nil
}

// recordFromInfo rebuilds the persisted record portion of a resolved
// resource.
func recordFromInfo(info *domain.ResourceInfo) *domain.ResourceRecord {
	notifications := make([]domain.AuditNotificationBinding, len(info.AuditNotifications))
	copy(notifications, info.AuditNotifications)
	return &domain.ResourceRecord{
		CatalogID:            info.CatalogID,
		ResourceTypeID:       info.ResourceTypeID,
		ID:                   info.ID,
		OwnerGroupID:         info.OwnerGroupID,
		ApproverGroupID:      info.ApproverGroupID,
		ParentResourceTypeID: info.ParentResourceTypeID,
		PendingUpdateParams:  info.PendingUpdateParams,
		AuditNotifications:   notifications,
	}
}
