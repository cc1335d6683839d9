// Package approval implements the approval-request lifecycle: submission
// with validation, approver resolution, and approve/reject/revoke
// transitions driven by pluggable per-flow handlers.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"govhub/internal/domain"
)

// Workflow drives approval requests from submission to a terminal status.
type Workflow struct {
	catalogs  domain.CatalogRepository
	requests  domain.ApprovalRequestRepository
	records   domain.ResourceRecordRepository
	groups    domain.GroupRepository
	plugins   domain.NotificationPluginRegistry
	scheduler domain.SchedulerProvider // nil when no scheduler is configured
	logger    *slog.Logger
}

// NewWorkflow creates an approval workflow. scheduler may be nil; flows
// with auto-revoke enabled then reject submissions that request a
// duration.
func NewWorkflow(
	catalogs domain.CatalogRepository,
	requests domain.ApprovalRequestRepository,
	records domain.ResourceRecordRepository,
	groups domain.GroupRepository,
	plugins domain.NotificationPluginRegistry,
	scheduler domain.SchedulerProvider,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		catalogs:  catalogs,
		requests:  requests,
		records:   records,
		groups:    groups,
		plugins:   plugins,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Submit validates the submission, resolves the approver, persists the
// request, runs the flow's validation handler, and dispatches approver
// notifications. The persisted request is the source of truth: approver
// notification is best-effort and never fails the submission.
func (w *Workflow) Submit(ctx context.Context, req domain.SubmitApprovalRequest) (*domain.ApprovalRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	catalog, err := w.catalogs.GetByID(ctx, req.CatalogID)
	if err != nil {
		return nil, err
	}
	flow := catalog.ApprovalFlow(req.ApprovalFlowID)
	if flow == nil {
		return nil, domain.ErrValidation("approval flow %s is not configured in catalog %s", req.ApprovalFlowID, req.CatalogID)
	}

	if err := w.checkAutoRevoke(flow, req.AutoRevokeDuration); err != nil {
		return nil, err
	}

	approverID, err := w.resolveApprover(ctx, catalog, flow, req.InputResources)
	if err != nil {
		return nil, err
	}

	request := &domain.ApprovalRequest{
		RequestID:          uuid.NewString(),
		Status:             domain.ApprovalStatusPending,
		CatalogID:          req.CatalogID,
		ApprovalFlowID:     flow.ID,
		RequestUserID:      req.RequestUserID,
		RequestComment:     req.RequestComment,
		InputParams:        req.InputParams,
		InputResources:     req.InputResources,
		ApproverType:       domain.ApproverTypeGroup,
		ApproverID:         approverID,
		RequestDate:        time.Now().UTC(),
		AutoRevokeDuration: req.AutoRevokeDuration,
	}
	if err := w.requests.Set(ctx, request); err != nil {
		return nil, err
	}

	if failed := w.runValidation(ctx, flow, request); failed != nil {
		return failed, nil
	}

	w.notifyApprovers(ctx, flow, request)
	return request, nil
}

// checkAutoRevoke enforces the flow's auto-revoke policy before anything
// is persisted.
func (w *Workflow) checkAutoRevoke(flow *domain.ApprovalFlowConfig, duration *time.Duration) error {
	if duration != nil {
		if flow.AutoRevoke == nil || !flow.AutoRevoke.Enabled {
			return domain.ErrValidation("approval flow %s does not support auto-revoke", flow.ID)
		}
		if w.scheduler == nil {
			return domain.ErrInternal("auto-revoke requires a scheduler provider, but none is configured")
		}
		if *duration > flow.AutoRevoke.Max() {
			return domain.ErrValidation("auto-revoke duration %s exceeds the maximum %s for flow %s", duration, flow.AutoRevoke.Max(), flow.ID)
		}
	} else if flow.AutoRevoke != nil && flow.AutoRevoke.Enabled && flow.AutoRevoke.Required {
		return domain.ErrValidation("approval flow %s requires an auto-revoke duration", flow.ID)
	}
	return nil
}

// resolveApprover determines the approver group for a submission
// according to the flow's approver policy.
func (w *Workflow) resolveApprover(ctx context.Context, catalog *domain.Catalog, flow *domain.ApprovalFlowConfig, inputs []domain.InputResource) (string, error) {
	switch flow.ApproverPolicy {
	case domain.ApproverPolicyApprovalFlow:
		if flow.ApproverGroupID == nil {
			return "", domain.ErrInternal("approval flow %s declares the approvalFlow policy without an approver group", flow.ID)
		}
		return *flow.ApproverGroupID, nil

	case domain.ApproverPolicyResource:
		target := approverInput(flow, inputs)
		if target == nil {
			return "", domain.ErrValidation("approval flow %s requires an input resource that carries the approver group", flow.ID)
		}
		if catalog.ResourceType(target.ResourceTypeID) == nil {
			return "", domain.ErrValidation("resource type %s is not configured in catalog %s", target.ResourceTypeID, catalog.ID)
		}
		rec, err := w.records.Get(ctx, catalog.ID, target.ResourceTypeID, target.ResourceID)
		if err != nil {
			if errors.As(err, new(*domain.NotFoundError)) {
				return "", domain.ErrValidation("resource %s of type %s has no approver group configured", target.ResourceID, target.ResourceTypeID)
			}
			return "", err
		}
		if rec.ApproverGroupID == nil {
			return "", domain.ErrValidation("resource %s of type %s has no approver group configured", target.ResourceID, target.ResourceTypeID)
		}
		return *rec.ApproverGroupID, nil

	default:
		// requestSpecified is accepted in flow configuration but is not
		// resolvable at submission time.
		return "", domain.ErrInternal("approval flow %s has unsupported approver policy %q", flow.ID, flow.ApproverPolicy)
	}
}

// approverInput picks the input resource that supplies the approver group
// under the resource policy: the one matching the flow's declared
// approver resource type, or the first input when the flow does not name
// one.
func approverInput(flow *domain.ApprovalFlowConfig, inputs []domain.InputResource) *domain.InputResource {
	if flow.ApproverResource != nil {
		for i := range inputs {
			if inputs[i].ResourceTypeID == flow.ApproverResource.ResourceTypeID {
				return &inputs[i]
			}
		}
		return nil
	}
	if len(inputs) > 0 {
		return &inputs[0]
	}
	return nil
}

// runValidation invokes the flow's validation handler. It returns the
// request in its validationFailed form when validation fails, nil when
// validation passed. Handler errors count as failures: the request is
// already persisted and must not be left silently pending.
func (w *Workflow) runValidation(ctx context.Context, flow *domain.ApprovalFlowConfig, request *domain.ApprovalRequest) *domain.ApprovalRequest {
	if flow.Handler == nil {
		return nil
	}
	result, err := flow.Handler.ApprovalRequestValidation(ctx, request)
	message := ""
	switch {
	case err != nil:
		message = err.Error()
	case result != nil && !result.OK:
		message = result.Message
	default:
		now := time.Now().UTC()
		request.ValidatedDate = &now
		if result != nil && result.Message != "" {
			request.ValidationHandlerResult = &result.Message
		}
		if err := w.requests.Set(ctx, request); err != nil {
			w.logger.Warn("persist validated approval request failed", "request", request.RequestID, "error", err)
		}
		return nil
	}

	request.Status = domain.ApprovalStatusValidationFailed
	request.ValidationHandlerResult = &message
	if err := w.requests.Set(ctx, request); err != nil {
		w.logger.Warn("persist validation-failed approval request failed", "request", request.RequestID, "error", err)
	}
	return request
}

// notifyApprovers dispatches the request to every approval-request
// notification channel configured on the approver group. Each channel is
// attempted independently; misses and send failures are logged and
// absorbed.
func (w *Workflow) notifyApprovers(ctx context.Context, flow *domain.ApprovalFlowConfig, request *domain.ApprovalRequest) {
	group, err := w.groups.GetByID(ctx, request.ApproverID)
	if err != nil {
		w.logger.Warn("resolve approver group for notification failed",
			"request", request.RequestID, "group", request.ApproverID, "error", err)
		return
	}
	message := fmt.Sprintf("New approval request %s for flow %q awaits review by group %q.",
		request.RequestID, flow.ID, group.Name)
	for _, n := range group.Notifications {
		if n.Purpose != domain.GroupNotificationApprovalRequest {
			continue
		}
		plugin, ok := w.plugins.Plugin(n.TypeID)
		if !ok {
			w.logger.Warn("notification plugin not found", "request", request.RequestID, "type", n.TypeID)
			continue
		}
		channel := &domain.NotificationChannel{ID: n.ID, TypeID: n.TypeID, Properties: n.Properties}
		if err := plugin.SendNotification(ctx, message, channel); err != nil {
			w.logger.Warn("send approval request notification failed",
				"request", request.RequestID, "channel", n.ID, "error", err)
		}
	}
}

// Get returns one approval request.
func (w *Workflow) Get(ctx context.Context, requestID string) (*domain.ApprovalRequest, error) {
	return w.requests.GetByID(ctx, requestID)
}

// List returns approval requests matching the filter.
func (w *Workflow) List(ctx context.Context, filter domain.ApprovalRequestFilter) ([]domain.ApprovalRequest, error) {
	return w.requests.List(ctx, filter)
}

// loadForTransition fetches a pending request and its flow config and
// verifies the acting user belongs to the approver group.
func (w *Workflow) loadForTransition(ctx context.Context, requestID, userID string) (*domain.ApprovalRequest, *domain.ApprovalFlowConfig, error) {
	request, err := w.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := w.catalogs.GetByID(ctx, request.CatalogID)
	if err != nil {
		return nil, nil, err
	}
	flow := catalog.ApprovalFlow(request.ApprovalFlowID)
	if flow == nil {
		return nil, nil, domain.ErrInternal("approval flow %s of request %s is no longer configured", request.ApprovalFlowID, requestID)
	}
	if _, err := w.groups.GetMember(ctx, request.ApproverID, userID); err != nil {
		if errors.As(err, new(*domain.NotFoundError)) {
			return nil, nil, domain.ErrAccessDenied("user %s is not in the approver group of request %s", userID, requestID)
		}
		return nil, nil, err
	}
	return request, flow, nil
}

// Approve executes the flow's approved handler and persists the approved
// status. Only members of the approver group may approve, and only
// pending requests can transition.
func (w *Workflow) Approve(ctx context.Context, requestID, userID string) (*domain.ApprovalRequest, error) {
	request, flow, err := w.loadForTransition(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.ApprovalStatusPending {
		return nil, domain.ErrValidation("approval request %s is %s, not pending", requestID, request.Status)
	}
	if flow.Handler != nil {
		if err := flow.Handler.Approved(ctx, request); err != nil {
			return nil, domain.ErrInternalCause(err, "approval execution for request %s failed: %v", requestID, err)
		}
	}
	now := time.Now().UTC()
	request.Status = domain.ApprovalStatusApproved
	request.ApprovedDate = &now
	if err := w.requests.Set(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Reject marks a pending request rejected without invoking any handler.
func (w *Workflow) Reject(ctx context.Context, requestID, userID string) (*domain.ApprovalRequest, error) {
	request, _, err := w.loadForTransition(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.ApprovalStatusPending {
		return nil, domain.ErrValidation("approval request %s is %s, not pending", requestID, request.Status)
	}
	request.Status = domain.ApprovalStatusRejected
	if err := w.requests.Set(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Revoke runs the flow's revoked handler and persists the revoked status.
// The flow must enable revocation.
func (w *Workflow) Revoke(ctx context.Context, requestID, userID string) (*domain.ApprovalRequest, error) {
	request, flow, err := w.loadForTransition(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if !flow.EnableRevoke {
		return nil, domain.ErrValidation("approval flow %s does not allow revocation", flow.ID)
	}
	if request.Status != domain.ApprovalStatusPending && request.Status != domain.ApprovalStatusApproved {
		return nil, domain.ErrValidation("approval request %s is %s and cannot be revoked", requestID, request.Status)
	}
	if flow.Handler != nil {
		if err := flow.Handler.Revoked(ctx, request); err != nil {
			return nil, domain.ErrInternalCause(err, "revocation of request %s failed: %v", requestID, err)
		}
	}
	request.Status = domain.ApprovalStatusRevoked
	if err := w.requests.Set(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}
