package api

import (
	"time"

	"govhub/internal/domain"
)

// API representations. Handlers never serialize domain structs directly;
// these keep the wire shape independent of internal fields (notably the
// handler bindings on catalog configs).

type userDTO struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
}

func userToAPI(u *domain.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email, Roles: u.Roles}
}

type groupNotificationDTO struct {
	ID         string            `json:"id"`
	Purpose    string            `json:"purpose"`
	TypeID     string            `json:"typeId"`
	Properties map[string]string `json:"properties,omitempty"`
}

type groupDTO struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Notifications []groupNotificationDTO `json:"notifications,omitempty"`
}

func groupToAPI(g *domain.Group) groupDTO {
	out := groupDTO{ID: g.ID, Name: g.Name, Description: g.Description}
	for _, n := range g.Notifications {
		out.Notifications = append(out.Notifications, groupNotificationDTO{
			ID: n.ID, Purpose: n.Purpose, TypeID: n.TypeID, Properties: n.Properties,
		})
	}
	return out
}

type groupMemberDTO struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
}

func groupMemberToAPI(m domain.GroupMember) groupMemberDTO {
	return groupMemberDTO{GroupID: m.GroupID, UserID: m.UserID, Role: m.Role}
}

type resourceTypeDTO struct {
	ID                   string  `json:"id"`
	Creatable            bool    `json:"creatable"`
	Updatable            bool    `json:"updatable"`
	Deletable            bool    `json:"deletable"`
	OwnerManagement      bool    `json:"ownerManagement"`
	ApproverManagement   bool    `json:"approverManagement"`
	AnyoneCanCreate      bool    `json:"anyoneCanCreate"`
	ParentResourceTypeID *string `json:"parentResourceTypeId,omitempty"`
	UpdateApprover       *string `json:"updateApprover,omitempty"`
}

type approvalFlowDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ApproverPolicy string `json:"approverPolicy"`
	EnableRevoke   bool   `json:"enableRevoke"`
}

type catalogDTO struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	OwnerGroupID  *string           `json:"ownerGroupId,omitempty"`
	ResourceTypes []resourceTypeDTO `json:"resourceTypes,omitempty"`
	ApprovalFlows []approvalFlowDTO `json:"approvalFlows,omitempty"`
}

func catalogToAPI(c *domain.Catalog) catalogDTO {
	out := catalogDTO{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		OwnerGroupID: c.OwnerGroupID,
	}
	for _, rt := range c.ResourceTypes {
		out.ResourceTypes = append(out.ResourceTypes, resourceTypeDTO{
			ID:                   rt.ID,
			Creatable:            rt.IsCreatable,
			Updatable:            rt.IsUpdatable,
			Deletable:            rt.IsDeletable,
			OwnerManagement:      rt.OwnerManagement,
			ApproverManagement:   rt.ApproverManagement,
			AnyoneCanCreate:      rt.AnyoneCanCreate,
			ParentResourceTypeID: rt.ParentResourceTypeID,
			UpdateApprover:       rt.UpdateApprover,
		})
	}
	for _, flow := range c.ApprovalFlows {
		out.ApprovalFlows = append(out.ApprovalFlows, approvalFlowDTO{
			ID:             flow.ID,
			Name:           flow.Name,
			ApproverPolicy: flow.ApproverPolicy,
			EnableRevoke:   flow.EnableRevoke,
		})
	}
	return out
}

type channelDTO struct {
	ID         string            `json:"id"`
	TypeID     string            `json:"typeId"`
	Properties map[string]string `json:"properties,omitempty"`
}

type auditNotificationDTO struct {
	ID               string     `json:"id"`
	Channel          channelDTO `json:"channel"`
	SchedulerEventID string     `json:"schedulerEventId"`
	CronExpression   string     `json:"cronExpression"`
}

type pendingUpdateDTO struct {
	ApprovalRequestID string                 `json:"approvalRequestId"`
	UpdateParams      map[string]interface{} `json:"updateParams,omitempty"`
	RequestUserID     string                 `json:"requestUserId"`
	RequestedAt       time.Time              `json:"requestedAt"`
}

type resourceInfoDTO struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name"`
	CatalogID            string                 `json:"catalogId"`
	ResourceTypeID       string                 `json:"resourceTypeId"`
	Params               map[string]interface{} `json:"params,omitempty"`
	ParentResourceID     *string                `json:"parentResourceId,omitempty"`
	OwnerGroupID         *string                `json:"ownerGroupId,omitempty"`
	ApproverGroupID      *string                `json:"approverGroupId,omitempty"`
	ParentResourceTypeID *string                `json:"parentResourceTypeId,omitempty"`
	PendingUpdateParams  *pendingUpdateDTO      `json:"pendingUpdateParams,omitempty"`
	AuditNotifications   []auditNotificationDTO `json:"auditNotifications,omitempty"`
}

func resourceInfoToAPI(info *domain.ResourceInfo) resourceInfoDTO {
	out := resourceInfoDTO{
		ID:                   info.ID,
		Name:                 info.Name,
		CatalogID:            info.CatalogID,
		ResourceTypeID:       info.ResourceTypeID,
		Params:               info.Params,
		ParentResourceID:     info.ParentResourceID,
		OwnerGroupID:         info.OwnerGroupID,
		ApproverGroupID:      info.ApproverGroupID,
		ParentResourceTypeID: info.ParentResourceTypeID,
	}
	if p := info.PendingUpdateParams; p != nil {
		out.PendingUpdateParams = &pendingUpdateDTO{
			ApprovalRequestID: p.ApprovalRequestID,
			UpdateParams:      p.UpdateParams,
			RequestUserID:     p.RequestUserID,
			RequestedAt:       p.RequestedAt,
		}
	}
	for _, b := range info.AuditNotifications {
		out.AuditNotifications = append(out.AuditNotifications, auditNotificationDTO{
			ID: b.ID,
			Channel: channelDTO{
				ID:         b.Channel.ID,
				TypeID:     b.Channel.TypeID,
				Properties: b.Channel.Properties,
			},
			SchedulerEventID: b.SchedulerEventID,
			CronExpression:   b.CronExpression,
		})
	}
	return out
}

type inputResourceDTO struct {
	ResourceTypeID string `json:"resourceTypeId"`
	ResourceID     string `json:"resourceId"`
}

type approvalRequestDTO struct {
	RequestID               string                 `json:"requestId"`
	Status                  string                 `json:"status"`
	CatalogID               string                 `json:"catalogId"`
	ApprovalFlowID          string                 `json:"approvalFlowId"`
	RequestUserID           string                 `json:"requestUserId"`
	RequestComment          string                 `json:"requestComment,omitempty"`
	InputParams             map[string]interface{} `json:"inputParams,omitempty"`
	InputResources          []inputResourceDTO     `json:"inputResources,omitempty"`
	ApproverType            string                 `json:"approverType"`
	ApproverID              string                 `json:"approverId"`
	RequestDate             time.Time              `json:"requestDate"`
	ApprovedDate            *time.Time             `json:"approvedDate,omitempty"`
	ValidatedDate           *time.Time             `json:"validatedDate,omitempty"`
	ValidationHandlerResult *string                `json:"validationHandlerResult,omitempty"`
	AutoRevokeDuration      *string                `json:"autoRevokeDuration,omitempty"`
}

func approvalRequestToAPI(req *domain.ApprovalRequest) approvalRequestDTO {
	out := approvalRequestDTO{
		RequestID:               req.RequestID,
		Status:                  req.Status,
		CatalogID:               req.CatalogID,
		ApprovalFlowID:          req.ApprovalFlowID,
		RequestUserID:           req.RequestUserID,
		RequestComment:          req.RequestComment,
		InputParams:             req.InputParams,
		ApproverType:            req.ApproverType,
		ApproverID:              req.ApproverID,
		RequestDate:             req.RequestDate,
		ApprovedDate:            req.ApprovedDate,
		ValidatedDate:           req.ValidatedDate,
		ValidationHandlerResult: req.ValidationHandlerResult,
	}
	for _, in := range req.InputResources {
		out.InputResources = append(out.InputResources, inputResourceDTO{
			ResourceTypeID: in.ResourceTypeID,
			ResourceID:     in.ResourceID,
		})
	}
	if req.AutoRevokeDuration != nil {
		d := req.AutoRevokeDuration.String()
		out.AutoRevokeDuration = &d
	}
	return out
}
