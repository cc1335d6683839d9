package domain

import "encoding/json"

// Scheduler event types emitted by the hub.
const (
	SchedulerEventResourceAudit = "ResourceAudit"
)

// SchedulerEvent is a cron-triggered event owned by the scheduler
// collaborator. The hub only creates, updates, deletes, and reads events
// by id.
type SchedulerEvent struct {
	ID              string
	EventType       string
	Property        json.RawMessage
	SchedulePattern string // cron expression
}

// ResourceAuditProperty is the typed payload of a ResourceAudit event.
type ResourceAuditProperty struct {
	CatalogID          string `json:"catalogId"`
	ResourceTypeID     string `json:"resourceTypeId"`
	ResourceID         string `json:"resourceId"`
	NotificationTypeID string `json:"notificationTypeId"`
	ChannelProperties  string `json:"channelProperties"`
}

// Encode serializes the property payload for storage on an event.
func (p ResourceAuditProperty) Encode() (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, ErrInternalCause(err, "encode resource audit property: %v", err)
	}
	return b, nil
}
