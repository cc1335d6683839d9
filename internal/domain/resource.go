package domain

import "time"

// Resource is a resource type handler's live view of a resource. The
// backing system is authoritative for existence; the hub only layers
// governance metadata on top.
type Resource struct {
	ID               string
	Name             string
	Params           map[string]interface{}
	ParentResourceID *string
}

// ResourceRecord is the persisted governance record for a resource.
type ResourceRecord struct {
	CatalogID            string
	ResourceTypeID       string
	ID                   string
	OwnerGroupID         *string
	ApproverGroupID      *string
	ParentResourceTypeID *string
	PendingUpdateParams  *PendingUpdateParams
	AuditNotifications   []AuditNotificationBinding
}

// PendingUpdateParams is an approval-gated parameter change awaiting
// approval. Its presence blocks further update-with-approval requests.
type PendingUpdateParams struct {
	ApprovalRequestID string
	UpdateParams      map[string]interface{}
	RequestUserID     string
	RequestedAt       time.Time
}

// NotificationChannel identifies a registered notification destination.
type NotificationChannel struct {
	ID         string
	TypeID     string
	Properties map[string]string
}

// AuditNotificationBinding associates a resource with a scheduled cron
// trigger and a notification channel. At most one binding exists per
// resource at a time.
type AuditNotificationBinding struct {
	ID               string
	Channel          NotificationChannel
	SchedulerEventID string
	CronExpression   string
}

// ResourceInfo merges the handler's live view with the persisted
// governance record. Persisted fields win on overlap.
type ResourceInfo struct {
	Resource
	CatalogID            string
	ResourceTypeID       string
	OwnerGroupID         *string
	ApproverGroupID      *string
	ParentResourceTypeID *string
	PendingUpdateParams  *PendingUpdateParams
	AuditNotifications   []AuditNotificationBinding
}

// AuditNotification returns the binding with the given id, or nil.
func (r *ResourceInfo) AuditNotification(id string) *AuditNotificationBinding {
	for i := range r.AuditNotifications {
		if r.AuditNotifications[i].ID == id {
			return &r.AuditNotifications[i]
		}
	}
	return nil
}

// MergeResourceInfo layers a persisted record (may be nil) on top of a
// handler view.
func MergeResourceInfo(catalogID, resourceTypeID string, res *Resource, rec *ResourceRecord) *ResourceInfo {
	info := &ResourceInfo{
		Resource:       *res,
		CatalogID:      catalogID,
		ResourceTypeID: resourceTypeID,
	}
	if rec != nil {
		info.OwnerGroupID = rec.OwnerGroupID
		info.ApproverGroupID = rec.ApproverGroupID
		info.ParentResourceTypeID = rec.ParentResourceTypeID
		info.PendingUpdateParams = rec.PendingUpdateParams
		info.AuditNotifications = rec.AuditNotifications
	}
	return info
}

// ResourceAuditItem is one row of a resource type's audit listing.
type ResourceAuditItem struct {
	ResourceID string
	Name       string
	Values     map[string]string
}

// CreateResourceRequest carries parameters for creating a resource.
type CreateResourceRequest struct {
	CatalogID        string
	ResourceTypeID   string
	Name             string
	Params           map[string]interface{}
	ParentResourceID *string
	OwnerGroupID     *string
}

// Validate checks required fields.
func (r *CreateResourceRequest) Validate() error {
	if r.CatalogID == "" || r.ResourceTypeID == "" {
		return ErrValidation("catalog id and resource type id are required")
	}
	if r.Name == "" {
		return ErrValidation("resource name is required")
	}
	return nil
}

// CreateAuditNotificationRequest carries parameters for binding an audit
// notification to a resource.
type CreateAuditNotificationRequest struct {
	CatalogID          string
	ResourceTypeID     string
	ResourceID         string
	NotificationTypeID string
	ChannelProperties  map[string]string
	CronExpression     string
}

// UpdateAuditNotificationRequest carries parameters for replacing an
// existing audit-notification binding.
type UpdateAuditNotificationRequest struct {
	CatalogID          string
	ResourceTypeID     string
	ResourceID         string
	BindingID          string
	NotificationTypeID string
	ChannelProperties  map[string]string
	CronExpression     string
}
