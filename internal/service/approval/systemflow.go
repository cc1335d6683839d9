package approval

import (
	"context"
	"errors"

	"govhub/internal/domain"
	"govhub/internal/service/authz"
	"govhub/internal/service/resource"
)

// SystemFlow is the built-in "resource-update" approval flow. It gates
// pending resource-parameter updates on the parent resource's configured
// approver group and executes the approved update against the resource
// type handler.
type SystemFlow struct {
	catalogs  domain.CatalogRepository
	records   domain.ResourceRecordRepository
	resolver  *resource.Resolver
	evaluator *authz.Evaluator
}

// NewSystemFlow creates the built-in resource-update flow handler.
func NewSystemFlow(catalogs domain.CatalogRepository, records domain.ResourceRecordRepository, resolver *resource.Resolver, evaluator *authz.Evaluator) *SystemFlow {
	return &SystemFlow{catalogs: catalogs, records: records, resolver: resolver, evaluator: evaluator}
}

var _ domain.ApprovalFlowHandler = (*SystemFlow)(nil)

// Config returns the flow configuration entry for the built-in flow,
// bound to this handler. Catalogs expose it alongside their configured
// flows.
func (f *SystemFlow) Config() domain.ApprovalFlowConfig {
	return domain.ApprovalFlowConfig{
		ID:             domain.ApprovalFlowResourceUpdate,
		Name:           "Resource update",
		ApproverPolicy: domain.ApproverPolicyResource,
		Handler:        f,
	}
}

// target unpacks the request's input params into the target resource and
// the update payload.
func (f *SystemFlow) target(req *domain.ApprovalRequest) (resourceTypeID, resourceID string, params map[string]interface{}, err error) {
	resourceTypeID, _ = req.InputParams["resourceTypeId"].(string)
	resourceID, _ = req.InputParams["resourceId"].(string)
	params, _ = req.InputParams["updateParams"].(map[string]interface{})
	if resourceTypeID == "" || resourceID == "" {
		return "", "", nil, domain.ErrValidation("request %s does not identify a target resource", req.RequestID)
	}
	return resourceTypeID, resourceID, params, nil
}

// checkTarget resolves the target resource and enforces that its parent's
// configured approver group matches the request's approver group. This is
// an exact match: the approver for this flow is fixed to the parent
// resource's approver group, not any current owner.
func (f *SystemFlow) checkTarget(ctx context.Context, req *domain.ApprovalRequest) (*domain.Catalog, *domain.ResourceTypeConfig, *domain.ResourceInfo, error) {
	resourceTypeID, resourceID, _, err := f.target(req)
	if err != nil {
		return nil, nil, nil, err
	}
	catalog, err := f.catalogs.GetByID(ctx, req.CatalogID)
	if err != nil {
		return nil, nil, nil, err
	}
	rt := catalog.ResourceType(resourceTypeID)
	if rt == nil {
		return nil, nil, nil, domain.ErrValidation("resource type %s is not configured in catalog %s", resourceTypeID, req.CatalogID)
	}
	info, err := f.resolver.Resolve(ctx, catalog, rt, resourceID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := f.evaluator.CheckCanApproveResourceUpdate(ctx, info, req.ApproverID); err != nil {
		return nil, nil, nil, err
	}
	return catalog, rt, info, nil
}

// ApprovalRequestValidation verifies the target resource, its parent, and
// the approver-group match. Precondition violations fail validation;
// store failures abort submission.
func (f *SystemFlow) ApprovalRequestValidation(ctx context.Context, req *domain.ApprovalRequest) (*domain.ValidationResult, error) {
	if _, _, _, err := f.checkTarget(ctx, req); err != nil {
		if isPrecondition(err) {
			return &domain.ValidationResult{OK: false, Message: err.Error()}, nil
		}
		return nil, err
	}
	return &domain.ValidationResult{OK: true}, nil
}

// Approved re-runs the approver check, executes the update through the
// resource type handler, and clears the pending update params.
func (f *SystemFlow) Approved(ctx context.Context, req *domain.ApprovalRequest) error {
	catalog, rt, info, err := f.checkTarget(ctx, req)
	if err != nil {
		return err
	}
	_, _, params, err := f.target(req)
	if err != nil {
		return err
	}
	if _, err := rt.Handler.UpdateResource(ctx, catalog.ID, info.ID, params); err != nil {
		return domain.ErrInternalCause(err, "update resource %s failed: %v", info.ID, err)
	}
	return f.records.UpdatePendingUpdateParams(ctx, catalog.ID, rt.ID, info.ID, nil)
}

// Revoked fails fast: revocation of an in-flight parameter update has no
// defined semantics yet.
func (f *SystemFlow) Revoked(ctx context.Context, req *domain.ApprovalRequest) error {
	return domain.ErrInternal("revoking a resource update is not implemented")
}

// isPrecondition reports whether the error is a caller-visible
// precondition violation rather than a collaborator failure.
func isPrecondition(err error) bool {
	return errors.As(err, new(*domain.ValidationError)) ||
		errors.As(err, new(*domain.AccessDeniedError)) ||
		errors.As(err, new(*domain.NotFoundError))
}
