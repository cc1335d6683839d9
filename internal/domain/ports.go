package domain

import "context"

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) (*User, error)
	Delete(ctx context.Context, id string) error
}

// GroupRepository persists groups, memberships, and notification bindings.
type GroupRepository interface {
	Create(ctx context.Context, g *Group) (*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	List(ctx context.Context) ([]Group, error)
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, m *GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	GetMember(ctx context.Context, groupID, userID string) (*GroupMember, error)
	ListMembers(ctx context.Context, groupID string) ([]GroupMember, error)
	CountMembers(ctx context.Context, groupID string) (int64, error)

	AddNotification(ctx context.Context, groupID string, n *GroupNotification) error
	RemoveNotification(ctx context.Context, groupID, notificationID string) error
}

// CatalogRepository resolves catalog governance records and full catalog
// configuration (resource types, approval flows) by id.
type CatalogRepository interface {
	GetByID(ctx context.Context, id string) (*Catalog, error)
	List(ctx context.Context) ([]Catalog, error)
}

// ResourceRecordRepository persists resource governance records.
type ResourceRecordRepository interface {
	Get(ctx context.Context, catalogID, resourceTypeID, id string) (*ResourceRecord, error)
	Set(ctx context.Context, rec *ResourceRecord) error
	Delete(ctx context.Context, catalogID, resourceTypeID, id string) error
	UpdatePendingUpdateParams(ctx context.Context, catalogID, resourceTypeID, id string, p *PendingUpdateParams) error
	ListByCatalog(ctx context.Context, catalogID string) ([]ResourceRecord, error)
}

// ApprovalRequestRepository persists approval requests.
type ApprovalRequestRepository interface {
	Set(ctx context.Context, req *ApprovalRequest) error
	GetByID(ctx context.Context, requestID string) (*ApprovalRequest, error)
	List(ctx context.Context, filter ApprovalRequestFilter) ([]ApprovalRequest, error)
}

// ResourceTypeHandler is the opaque per-resource-type collaborator that
// actually provisions resources. One implementation exists per
// resource-type family, selected by a registry keyed on resource type id.
type ResourceTypeHandler interface {
	CreateResource(ctx context.Context, catalogID string, req *CreateResourceRequest) (*Resource, error)
	// GetResource returns nil (without error) when the resource does not
	// exist in the backing system.
	GetResource(ctx context.Context, catalogID, resourceID string) (*Resource, error)
	UpdateResource(ctx context.Context, catalogID, resourceID string, params map[string]interface{}) (*Resource, error)
	DeleteResource(ctx context.Context, catalogID, resourceID string) error
	ListResources(ctx context.Context, catalogID string) ([]Resource, error)
	ListResourceAuditItem(ctx context.Context, catalogID string) ([]ResourceAuditItem, error)
}

// ResourceTypeHandlerRegistry resolves the handler for a resource type id.
type ResourceTypeHandlerRegistry interface {
	Handler(resourceTypeID string) (ResourceTypeHandler, bool)
}

// ApprovalFlowHandler is an approval flow's extension point set.
type ApprovalFlowHandler interface {
	// ApprovalRequestValidation runs after the request is persisted as
	// pending. A returned result with OK=false marks the request
	// validationFailed; an error aborts submission.
	ApprovalRequestValidation(ctx context.Context, req *ApprovalRequest) (*ValidationResult, error)
	// Approved executes the approved action.
	Approved(ctx context.Context, req *ApprovalRequest) error
	// Revoked undoes the approved action.
	Revoked(ctx context.Context, req *ApprovalRequest) error
}

// SchedulerProvider is the external cron-like event trigger.
type SchedulerProvider interface {
	CreateSchedulerEvent(ctx context.Context, eventType string, property interface{}, schedulePattern string) (*SchedulerEvent, error)
	// GetSchedulerEvent returns nil (without error) when no event exists
	// with the given id.
	GetSchedulerEvent(ctx context.Context, id string) (*SchedulerEvent, error)
	UpdateSchedulerEvent(ctx context.Context, event *SchedulerEvent) (*SchedulerEvent, error)
	DeleteSchedulerEvent(ctx context.Context, id string) error
}

// NotificationPlugin delivers notifications for one channel type.
type NotificationPlugin interface {
	// SetChannel registers a channel and returns it with an assigned id.
	SetChannel(ctx context.Context, properties map[string]string, message string) (*NotificationChannel, error)
	UnsetChannel(ctx context.Context, channelID string, message string) error
	SendNotification(ctx context.Context, message string, channel *NotificationChannel) error
}

// NotificationPluginRegistry resolves notification plugins by type id.
type NotificationPluginRegistry interface {
	Plugin(typeID string) (NotificationPlugin, bool)
}
