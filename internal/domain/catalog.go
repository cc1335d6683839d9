package domain

import "time"

// Catalog is the governance record plus configuration for a family of
// resource types and approval flows.
type Catalog struct {
	ID            string
	Name          string
	Description   string
	OwnerGroupID  *string
	ResourceTypes []ResourceTypeConfig
	ApprovalFlows []ApprovalFlowConfig
}

// ResourceType returns the resource type config with the given id, or nil.
func (c *Catalog) ResourceType(id string) *ResourceTypeConfig {
	for i := range c.ResourceTypes {
		if c.ResourceTypes[i].ID == id {
			return &c.ResourceTypes[i]
		}
	}
	return nil
}

// ApprovalFlow returns the approval flow config with the given id, or nil.
func (c *Catalog) ApprovalFlow(id string) *ApprovalFlowConfig {
	for i := range c.ApprovalFlows {
		if c.ApprovalFlows[i].ID == id {
			return &c.ApprovalFlows[i]
		}
	}
	return nil
}

// Update-approver policies for a resource type.
const (
	UpdateApproverThis           = "this"
	UpdateApproverParentResource = "parentResource"
)

// ResourceTypeConfig declares capabilities and wiring for one resource
// type. The handler is an external collaborator resolved from the
// resource-type handler registry at config load time.
type ResourceTypeConfig struct {
	ID                   string
	IsCreatable          bool
	IsUpdatable          bool
	IsDeletable          bool
	OwnerManagement      bool
	ApproverManagement   bool
	AnyoneCanCreate      bool
	ParentResourceTypeID *string
	UpdateApprover       *string // "this" or "parentResource"
	Handler              ResourceTypeHandler
}

// Approver policies for an approval flow.
const (
	ApproverPolicyApprovalFlow     = "approvalFlow"
	ApproverPolicyResource         = "resource"
	ApproverPolicyRequestSpecified = "requestSpecified"
)

// ApproverType values on an approval request. Only group approvers are
// supported.
const ApproverTypeGroup = "group"

// DefaultMaxAutoRevokeDuration caps auto-revoke durations when a flow
// does not configure its own maximum: 30 days plus 24 hours.
const DefaultMaxAutoRevokeDuration = (30*24 + 24) * time.Hour

// AutoRevokeConfig controls whether requests against a flow may schedule
// automatic revocation.
type AutoRevokeConfig struct {
	Enabled     bool
	Required    bool
	MaxDuration *time.Duration
}

// Max returns the effective duration cap.
func (a *AutoRevokeConfig) Max() time.Duration {
	if a.MaxDuration != nil {
		return *a.MaxDuration
	}
	return DefaultMaxAutoRevokeDuration
}

// ApprovalFlowInputResource declares a named resource input a flow expects
// with a request.
type ApprovalFlowInputResource struct {
	Name           string
	ResourceTypeID string
}

// ApprovalFlowConfig declares one approval workflow: its inputs, how the
// approver is resolved, and its handler set.
type ApprovalFlowConfig struct {
	ID              string
	Name            string
	InputResources  []ApprovalFlowInputResource
	ApproverPolicy  string
	ApproverGroupID *string // used by the approvalFlow policy
	// ApproverResource names which declared input resource supplies the
	// approver group under the resource policy.
	ApproverResource *ApprovalFlowInputResource
	AutoRevoke       *AutoRevokeConfig
	EnableRevoke     bool
	Handler          ApprovalFlowHandler
}
