package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"govhub/internal/domain"
	"govhub/internal/service/authz"
)

// approvalSubmitter is the slice of the approval workflow the resource
// service needs for update-with-approval submissions.
type approvalSubmitter interface {
	Submit(ctx context.Context, req domain.SubmitApprovalRequest) (*domain.ApprovalRequest, error)
}

// Service provides resource lifecycle operations: create, get, list,
// approval-gated update, approver/owner management, and delete with
// audit-notification cleanup cascades.
type Service struct {
	catalogs  domain.CatalogRepository
	records   domain.ResourceRecordRepository
	resolver  *Resolver
	evaluator *authz.Evaluator
	approvals approvalSubmitter
	scheduler domain.SchedulerProvider
	plugins   domain.NotificationPluginRegistry
	logger    *slog.Logger
}

// NewService creates a resource service.
func NewService(
	catalogs domain.CatalogRepository,
	records domain.ResourceRecordRepository,
	resolver *Resolver,
	evaluator *authz.Evaluator,
	approvals approvalSubmitter,
	scheduler domain.SchedulerProvider,
	plugins domain.NotificationPluginRegistry,
	logger *slog.Logger,
) *Service {
	return &Service{
		catalogs:  catalogs,
		records:   records,
		resolver:  resolver,
		evaluator: evaluator,
		approvals: approvals,
		scheduler: scheduler,
		plugins:   plugins,
		logger:    logger,
	}
}

// lookup resolves the catalog and resource type config for an operation.
func (s *Service) lookup(ctx context.Context, catalogID, resourceTypeID string) (*domain.Catalog, *domain.ResourceTypeConfig, error) {
	catalog, err := s.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return nil, nil, err
	}
	rt := catalog.ResourceType(resourceTypeID)
	if rt == nil {
		return nil, nil, domain.ErrValidation("resource type %s is not configured in catalog %s", resourceTypeID, catalogID)
	}
	return catalog, rt, nil
}

// Create provisions a resource through its type handler and persists the
// governance record for it.
func (s *Service) Create(ctx context.Context, req domain.CreateResourceRequest, userID string) (*domain.ResourceInfo, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	catalog, rt, err := s.lookup(ctx, req.CatalogID, req.ResourceTypeID)
	if err != nil {
		return nil, err
	}
	if !rt.IsCreatable {
		return nil, domain.ErrValidation("resource type %s is not creatable", rt.ID)
	}
	if err := s.evaluator.CheckCanCreateResource(ctx, catalog, rt, req.ParentResourceID, userID); err != nil {
		return nil, err
	}

	res, err := rt.Handler.CreateResource(ctx, catalog.ID, &req)
	if err != nil {
		return nil, err
	}

	rec := &domain.ResourceRecord{
		CatalogID:            catalog.ID,
		ResourceTypeID:       rt.ID,
		ID:                   res.ID,
		OwnerGroupID:         req.OwnerGroupID,
		ParentResourceTypeID: rt.ParentResourceTypeID,
	}
	if err := s.records.Set(ctx, rec); err != nil {
		return nil, err
	}
	return domain.MergeResourceInfo(catalog.ID, rt.ID, res, rec), nil
}

// Get resolves one resource with its governance metadata.
func (s *Service) Get(ctx context.Context, catalogID, resourceTypeID, resourceID string) (*domain.ResourceInfo, error) {
	catalog, rt, err := s.lookup(ctx, catalogID, resourceTypeID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, catalog, rt, resourceID)
}

// List returns the handler's resources merged with any governance records.
func (s *Service) List(ctx context.Context, catalogID, resourceTypeID string) ([]domain.ResourceInfo, error) {
	catalog, rt, err := s.lookup(ctx, catalogID, resourceTypeID)
	if err != nil {
		return nil, err
	}
	resources, err := rt.Handler.ListResources(ctx, catalog.ID)
	if err != nil {
		return nil, err
	}
	infos := make([]domain.ResourceInfo, 0, len(resources))
	for i := range resources {
		rec, err := s.records.Get(ctx, catalog.ID, rt.ID, resources[i].ID)
		if err != nil && !errors.As(err, new(*domain.NotFoundError)) {
			return nil, err
		}
		infos = append(infos, *domain.MergeResourceInfo(catalog.ID, rt.ID, &resources[i], rec))
	}
	return infos, nil
}

// UpdateWithApproval submits a resource-parameter update through the
// built-in resource-update approval flow. A resource with pending update
// params cannot accept another one until the in-flight request resolves.
func (s *Service) UpdateWithApproval(ctx context.Context, catalogID, resourceTypeID, resourceID string, params map[string]interface{}, userID, comment string) (*domain.ApprovalRequest, error) {
	catalog, rt, err := s.lookup(ctx, catalogID, resourceTypeID)
	if err != nil {
		return nil, err
	}
	if !rt.IsUpdatable {
		return nil, domain.ErrValidation("resource type %s is not updatable", rt.ID)
	}
	info, err := s.resolver.Resolve(ctx, catalog, rt, resourceID)
	if err != nil {
		return nil, err
	}
	if info.PendingUpdateParams != nil {
		return nil, domain.ErrConflict("resource %s already has a pending update (request %s)", resourceID, info.PendingUpdateParams.ApprovalRequestID)
	}
	if err := s.evaluator.CheckCanEditResource(ctx, catalog, info, userID); err != nil {
		return nil, err
	}

	submit := domain.SubmitApprovalRequest{
		CatalogID:      catalog.ID,
		ApprovalFlowID: domain.ApprovalFlowResourceUpdate,
		RequestUserID:  userID,
		RequestComment: comment,
		InputParams: map[string]interface{}{
			"resourceTypeId": rt.ID,
			"resourceId":     resourceID,
			"updateParams":   params,
		},
	}
	if info.ParentResourceTypeID != nil && info.ParentResourceID != nil {
		submit.InputResources = []domain.InputResource{
			{ResourceTypeID: *info.ParentResourceTypeID, ResourceID: *info.ParentResourceID},
		}
	}

	req, err := s.approvals.Submit(ctx, submit)
	if err != nil {
		return nil, err
	}

	if req.Status == domain.ApprovalStatusPending {
		pending := &domain.PendingUpdateParams{
			ApprovalRequestID: req.RequestID,
			UpdateParams:      params,
			RequestUserID:     userID,
			RequestedAt:       req.RequestDate,
		}
		if err := s.records.UpdatePendingUpdateParams(ctx, catalog.ID, rt.ID, resourceID, pending); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// UpdateApprover sets the approver group of a resource's governance
// record.
func (s *Service) UpdateApprover(ctx context.Context, catalogID, resourceTypeID, resourceID string, approverGroupID *string, userID string) (*domain.ResourceInfo, error) {
	catalog, rt, err := s.lookup(ctx, catalogID, resourceTypeID)
	if err != nil {
		return nil, err
	}
	if !rt.ApproverManagement {
		return nil, domain.ErrValidation("resource type %s does not manage approvers", rt.ID)
	}
	info, err := s.resolver.Resolve(ctx, catalog, rt, resourceID)
	if err != nil {
		return nil, err
	}
	if err := s.evaluator.CheckCanUpdateResourceApprover(ctx, catalog, info, userID); err != nil {
		return nil, err
	}
	rec := recordFromInfo(info)
	rec.ApproverGroupID = approverGroupID
	if err := s.records.Set(ctx, rec); err != nil {
		return nil, err
	}
	info.ApproverGroupID = approverGroupID
	return info, nil
}

// UpdateOwner sets the owner group of a resource's governance record.
func (s *Service) UpdateOwner(ctx context.Context, catalogID, resourceTypeID, resourceID string, ownerGroupID *string, userID string) (*domain.ResourceInfo, error) {
	catalog, rt, err := s.lookup(ctx, catalogID, resourceTypeID)
	if err != nil {
		return nil, err
	}
	if !rt.OwnerManagement {
		return nil, domain.ErrValidation("resource type %s does not manage owners", rt.ID)
	}
	info, err := s.resolver.Resolve(ctx, catalog, rt, resourceID)
	if err != nil {
		return nil, err
	}
	if err := s.evaluator.CheckCanUpdateResourceOwner(ctx, catalog, info, userID); err != nil {
		return nil, err
	}
	rec := recordFromInfo(info)
	rec.OwnerGroupID = ownerGroupID
	if err := s.records.Set(ctx, rec); err != nil {
		return nil, err
	}
	info.OwnerGroupID = ownerGroupID
	return info, nil
}

// Delete removes a resource. Audit-notification scheduler events are
// cleaned up best-effort before the handler delete, and notification
// channels after the record is removed; each item is attempted
// independently and failures are logged without blocking the deletion.
func (s *Service) Delete(ctx context.Context, catalogID, resourceTypeID, resourceID, userID string) error {
	catalog, rt, err := s.lookup(ctx, catalogID, resourceTypeID)
	if err != nil {
		return err
	}
	if !rt.IsDeletable {
		return domain.ErrValidation("resource type %s is not deletable", rt.ID)
	}
	info, err := s.resolver.Resolve(ctx, catalog, rt, resourceID)
	if err != nil {
		return err
	}
	if err := s.evaluator.CheckCanEditResource(ctx, catalog, info, userID); err != nil {
		return err
	}

	for _, binding := range info.AuditNotifications {
		if err := s.scheduler.DeleteSchedulerEvent(ctx, binding.SchedulerEventID); err != nil {
			s.logger.Warn("delete scheduler event during resource deletion failed",
				"resource", resourceID, "event", binding.SchedulerEventID, "error", err)
		}
	}

	if err := rt.Handler.DeleteResource(ctx, catalog.ID, resourceID); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, catalog.ID, rt.ID, resourceID); err != nil && !errors.As(err, new(*domain.NotFoundError)) {
		return err
	}

	for _, binding := range info.AuditNotifications {
		plugin, ok := s.plugins.Plugin(binding.Channel.TypeID)
		if !ok {
			s.logger.Warn("notification plugin missing during resource deletion",
				"resource", resourceID, "type", binding.Channel.TypeID)
			continue
		}
		msg := fmt.Sprintf("Resource %s was deleted at %s; audit notification removed.", info.Name, time.Now().UTC().Format(time.RFC3339))
		if err := plugin.UnsetChannel(ctx, binding.Channel.ID, msg); err != nil {
			s.logger.Warn("unset notification channel during resource deletion failed",
				"resource", resourceID, "channel", binding.Channel.ID, "error", err)
		}
	}
	return nil
}

// recordFromInfo rebuilds the persisted record portion of a resolved
// resource.
func recordFromInfo(info *domain.ResourceInfo) *domain.ResourceRecord {
	return &domain.ResourceRecord{
		CatalogID:            info.CatalogID,
		ResourceTypeID:       info.ResourceTypeID,
		ID:                   info.ID,
		OwnerGroupID:         info.OwnerGroupID,
		ApproverGroupID:      info.ApproverGroupID,
		ParentResourceTypeID: info.ParentResourceTypeID,
		PendingUpdateParams:  info.PendingUpdateParams,
		AuditNotifications:   info.AuditNotifications,
	}
}
