package domain

import "time"

// ApprovalFlowResourceUpdate is the id of the built-in approval flow that
// gates resource-parameter updates.
const ApprovalFlowResourceUpdate = "resource-update"

// Approval request statuses.
const (
	ApprovalStatusPending          = "pending"
	ApprovalStatusValidationFailed = "validationFailed"
	ApprovalStatusApproved         = "approved"
	ApprovalStatusRejected         = "rejected"
	ApprovalStatusRevoked          = "revoked"
)

// InputResource names a resource an approval request operates on.
type InputResource struct {
	ResourceTypeID string
	ResourceID     string
}

// ApprovalRequest is one submitted instance of an approval flow. Requests
// are created by submission and mutated by approve/revoke, never deleted.
type ApprovalRequest struct {
	RequestID               string
	Status                  string
	CatalogID               string
	ApprovalFlowID          string
	RequestUserID           string
	RequestComment          string
	InputParams             map[string]interface{}
	InputResources          []InputResource
	ApproverType            string
	ApproverID              string
	RequestDate             time.Time
	ApprovedDate            *time.Time
	ValidatedDate           *time.Time
	ValidationHandlerResult *string
	AutoRevokeDuration      *time.Duration
}

// FindInputResource returns the first input resource with the given
// resource type id, or nil.
func (r *ApprovalRequest) FindInputResource(resourceTypeID string) *InputResource {
	for i := range r.InputResources {
		if r.InputResources[i].ResourceTypeID == resourceTypeID {
			return &r.InputResources[i]
		}
	}
	return nil
}

// SubmitApprovalRequest carries submission parameters.
type SubmitApprovalRequest struct {
	CatalogID          string
	ApprovalFlowID     string
	RequestUserID      string
	RequestComment     string
	InputParams        map[string]interface{}
	InputResources     []InputResource
	AutoRevokeDuration *time.Duration
}

// Validate checks required fields.
func (r *SubmitApprovalRequest) Validate() error {
	if r.CatalogID == "" {
		return ErrValidation("catalog id is required")
	}
	if r.ApprovalFlowID == "" {
		return ErrValidation("approval flow id is required")
	}
	if r.RequestUserID == "" {
		return ErrValidation("request user id is required")
	}
	for _, in := range r.InputResources {
		if in.ResourceTypeID == "" || in.ResourceID == "" {
			return ErrValidation("input resources need resource type id and resource id")
		}
	}
	return nil
}

// ApprovalRequestFilter limits approval-request listings.
type ApprovalRequestFilter struct {
	CatalogID       string
	ApprovalFlowID  *string
	RequestUserID   *string
	ApproverGroupID *string
	Status          *string
}

// ValidationResult is the outcome of a flow's request-validation handler.
type ValidationResult struct {
	OK      bool
	Message string
}
