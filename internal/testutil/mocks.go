// Package testutil provides shared mock implementations of domain
// interfaces for use in tests across the codebase.
package testutil

import (
	"context"
	"encoding/json"

	"govhub/internal/domain"
)

// === User repository ===

// MockUserRepo implements domain.UserRepository for testing.
type MockUserRepo struct {
	CreateFn  func(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByIDFn func(ctx context.Context, id string) (*domain.User, error)
	ListFn    func(ctx context.Context) ([]domain.User, error)
	UpdateFn  func(ctx context.Context, u *domain.User) (*domain.User, error)
	DeleteFn  func(ctx context.Context, id string) error
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	panic("unexpected call to MockUserRepo.Create")
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockUserRepo.GetByID")
}

func (m *MockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	panic("unexpected call to MockUserRepo.List")
}

func (m *MockUserRepo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, u)
	}
	panic("unexpected call to MockUserRepo.Update")
}

func (m *MockUserRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	panic("unexpected call to MockUserRepo.Delete")
}

var _ domain.UserRepository = (*MockUserRepo)(nil)

// === Group repository ===

// MockGroupRepo implements domain.GroupRepository for testing.
type MockGroupRepo struct {
	CreateFn             func(ctx context.Context, g *domain.Group) (*domain.Group, error)
	GetByIDFn            func(ctx context.Context, id string) (*domain.Group, error)
	ListFn               func(ctx context.Context) ([]domain.Group, error)
	DeleteFn             func(ctx context.Context, id string) error
	AddMemberFn          func(ctx context.Context, m *domain.GroupMember) error
	RemoveMemberFn       func(ctx context.Context, groupID, userID string) error
	GetMemberFn          func(ctx context.Context, groupID, userID string) (*domain.GroupMember, error)
	ListMembersFn        func(ctx context.Context, groupID string) ([]domain.GroupMember, error)
	CountMembersFn       func(ctx context.Context, groupID string) (int64, error)
	AddNotificationFn    func(ctx context.Context, groupID string, n *domain.GroupNotification) error
	RemoveNotificationFn func(ctx context.Context, groupID, notificationID string) error
}

func (m *MockGroupRepo) Create(ctx context.Context, g *domain.Group) (*domain.Group, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, g)
	}
	panic("unexpected call to MockGroupRepo.Create")
}

func (m *MockGroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockGroupRepo.GetByID")
}

func (m *MockGroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	panic("unexpected call to MockGroupRepo.List")
}

func (m *MockGroupRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	panic("unexpected call to MockGroupRepo.Delete")
}

func (m *MockGroupRepo) AddMember(ctx context.Context, gm *domain.GroupMember) error {
	if m.AddMemberFn != nil {
		return m.AddMemberFn(ctx, gm)
	}
	panic("unexpected call to MockGroupRepo.AddMember")
}

func (m *MockGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	if m.RemoveMemberFn != nil {
		return m.RemoveMemberFn(ctx, groupID, userID)
	}
	panic("unexpected call to MockGroupRepo.RemoveMember")
}

func (m *MockGroupRepo) GetMember(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	if m.GetMemberFn != nil {
		return m.GetMemberFn(ctx, groupID, userID)
	}
	panic("unexpected call to MockGroupRepo.GetMember")
}

func (m *MockGroupRepo) ListMembers(ctx context.Context, groupID string) ([]domain.GroupMember, error) {
	if m.ListMembersFn != nil {
		return m.ListMembersFn(ctx, groupID)
	}
	panic("unexpected call to MockGroupRepo.ListMembers")
}

func (m *MockGroupRepo) CountMembers(ctx context.Context, groupID string) (int64, error) {
	if m.CountMembersFn != nil {
		return m.CountMembersFn(ctx, groupID)
	}
	panic("unexpected call to MockGroupRepo.CountMembers")
}

func (m *MockGroupRepo) AddNotification(ctx context.Context, groupID string, n *domain.GroupNotification) error {
	if m.AddNotificationFn != nil {
		return m.AddNotificationFn(ctx, groupID, n)
	}
	panic("unexpected call to MockGroupRepo.AddNotification")
}

func (m *MockGroupRepo) RemoveNotification(ctx context.Context, groupID, notificationID string) error {
	if m.RemoveNotificationFn != nil {
		return m.RemoveNotificationFn(ctx, groupID, notificationID)
	}
	panic("unexpected call to MockGroupRepo.RemoveNotification")
}

var _ domain.GroupRepository = (*MockGroupRepo)(nil)

// === Catalog repository ===

// MockCatalogRepo implements domain.CatalogRepository for testing.
type MockCatalogRepo struct {
	GetByIDFn func(ctx context.Context, id string) (*domain.Catalog, error)
	ListFn    func(ctx context.Context) ([]domain.Catalog, error)
}

func (m *MockCatalogRepo) GetByID(ctx context.Context, id string) (*domain.Catalog, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockCatalogRepo.GetByID")
}

func (m *MockCatalogRepo) List(ctx context.Context) ([]domain.Catalog, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	panic("unexpected call to MockCatalogRepo.List")
}

var _ domain.CatalogRepository = (*MockCatalogRepo)(nil)

// === Resource record repository ===

// MockResourceRecordRepo implements domain.ResourceRecordRepository for
// testing.
type MockResourceRecordRepo struct {
	GetFn                       func(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error)
	SetFn                       func(ctx context.Context, rec *domain.ResourceRecord) error
	DeleteFn                    func(ctx context.Context, catalogID, resourceTypeID, id string) error
	UpdatePendingUpdateParamsFn func(ctx context.Context, catalogID, resourceTypeID, id string, p *domain.PendingUpdateParams) error
	ListByCatalogFn             func(ctx context.Context, catalogID string) ([]domain.ResourceRecord, error)
}

func (m *MockResourceRecordRepo) Get(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, catalogID, resourceTypeID, id)
	}
	panic("unexpected call to MockResourceRecordRepo.Get")
}

func (m *MockResourceRecordRepo) Set(ctx context.Context, rec *domain.ResourceRecord) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, rec)
	}
	panic("unexpected call to MockResourceRecordRepo.Set")
}

func (m *MockResourceRecordRepo) Delete(ctx context.Context, catalogID, resourceTypeID, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, catalogID, resourceTypeID, id)
	}
	panic("unexpected call to MockResourceRecordRepo.Delete")
}

func (m *MockResourceRecordRepo) UpdatePendingUpdateParams(ctx context.Context, catalogID, resourceTypeID, id string, p *domain.PendingUpdateParams) error {
	if m.UpdatePendingUpdateParamsFn != nil {
		return m.UpdatePendingUpdateParamsFn(ctx, catalogID, resourceTypeID, id, p)
	}
	panic("unexpected call to MockResourceRecordRepo.UpdatePendingUpdateParams")
}

func (m *MockResourceRecordRepo) ListByCatalog(ctx context.Context, catalogID string) ([]domain.ResourceRecord, error) {
	if m.ListByCatalogFn != nil {
		return m.ListByCatalogFn(ctx, catalogID)
	}
	panic("unexpected call to MockResourceRecordRepo.ListByCatalog")
}

var _ domain.ResourceRecordRepository = (*MockResourceRecordRepo)(nil)

// === Approval request repository ===

// MockApprovalRequestRepo implements domain.ApprovalRequestRepository for
// testing. Set calls are collected for assertions.
type MockApprovalRequestRepo struct {
	SetFn     func(ctx context.Context, req *domain.ApprovalRequest) error
	GetByIDFn func(ctx context.Context, requestID string) (*domain.ApprovalRequest, error)
	ListFn    func(ctx context.Context, filter domain.ApprovalRequestFilter) ([]domain.ApprovalRequest, error)
	Saved     []domain.ApprovalRequest
}

func (m *MockApprovalRequestRepo) Set(ctx context.Context, req *domain.ApprovalRequest) error {
	if m.SetFn != nil {
		if err := m.SetFn(ctx, req); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, *req)
	return nil
}

func (m *MockApprovalRequestRepo) GetByID(ctx context.Context, requestID string) (*domain.ApprovalRequest, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, requestID)
	}
	panic("unexpected call to MockApprovalRequestRepo.GetByID")
}

func (m *MockApprovalRequestRepo) List(ctx context.Context, filter domain.ApprovalRequestFilter) ([]domain.ApprovalRequest, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockApprovalRequestRepo.List")
}

// LastSaved returns the most recently persisted request, or nil.
func (m *MockApprovalRequestRepo) LastSaved() *domain.ApprovalRequest {
	if len(m.Saved) == 0 {
		return nil
	}
	return &m.Saved[len(m.Saved)-1]
}

var _ domain.ApprovalRequestRepository = (*MockApprovalRequestRepo)(nil)

// === Resource type handler ===

// MockResourceTypeHandler implements domain.ResourceTypeHandler for
// testing.
type MockResourceTypeHandler struct {
	CreateResourceFn        func(ctx context.Context, catalogID string, req *domain.CreateResourceRequest) (*domain.Resource, error)
	GetResourceFn           func(ctx context.Context, catalogID, resourceID string) (*domain.Resource, error)
	UpdateResourceFn        func(ctx context.Context, catalogID, resourceID string, params map[string]interface{}) (*domain.Resource, error)
	DeleteResourceFn        func(ctx context.Context, catalogID, resourceID string) error
	ListResourcesFn         func(ctx context.Context, catalogID string) ([]domain.Resource, error)
	ListResourceAuditItemFn func(ctx context.Context, catalogID string) ([]domain.ResourceAuditItem, error)
}

func (m *MockResourceTypeHandler) CreateResource(ctx context.Context, catalogID string, req *domain.CreateResourceRequest) (*domain.Resource, error) {
	if m.CreateResourceFn != nil {
		return m.CreateResourceFn(ctx, catalogID, req)
	}
	panic("unexpected call to MockResourceTypeHandler.CreateResource")
}

func (m *MockResourceTypeHandler) GetResource(ctx context.Context, catalogID, resourceID string) (*domain.Resource, error) {
	if m.GetResourceFn != nil {
		return m.GetResourceFn(ctx, catalogID, resourceID)
	}
	panic("unexpected call to MockResourceTypeHandler.GetResource")
}

func (m *MockResourceTypeHandler) UpdateResource(ctx context.Context, catalogID, resourceID string, params map[string]interface{}) (*domain.Resource, error) {
	if m.UpdateResourceFn != nil {
		return m.UpdateResourceFn(ctx, catalogID, resourceID, params)
	}
	panic("unexpected call to MockResourceTypeHandler.UpdateResource")
}

func (m *MockResourceTypeHandler) DeleteResource(ctx context.Context, catalogID, resourceID string) error {
	if m.DeleteResourceFn != nil {
		return m.DeleteResourceFn(ctx, catalogID, resourceID)
	}
	panic("unexpected call to MockResourceTypeHandler.DeleteResource")
}

func (m *MockResourceTypeHandler) ListResources(ctx context.Context, catalogID string) ([]domain.Resource, error) {
	if m.ListResourcesFn != nil {
		return m.ListResourcesFn(ctx, catalogID)
	}
	panic("unexpected call to MockResourceTypeHandler.ListResources")
}

func (m *MockResourceTypeHandler) ListResourceAuditItem(ctx context.Context, catalogID string) ([]domain.ResourceAuditItem, error) {
	if m.ListResourceAuditItemFn != nil {
		return m.ListResourceAuditItemFn(ctx, catalogID)
	}
	panic("unexpected call to MockResourceTypeHandler.ListResourceAuditItem")
}

var _ domain.ResourceTypeHandler = (*MockResourceTypeHandler)(nil)

// === Approval flow handler ===

// MockApprovalFlowHandler implements domain.ApprovalFlowHandler for
// testing. The zero value validates successfully and approves/revokes
// without error.
type MockApprovalFlowHandler struct {
	ApprovalRequestValidationFn func(ctx context.Context, req *domain.ApprovalRequest) (*domain.ValidationResult, error)
	ApprovedFn                  func(ctx context.Context, req *domain.ApprovalRequest) error
	RevokedFn                   func(ctx context.Context, req *domain.ApprovalRequest) error
}

func (m *MockApprovalFlowHandler) ApprovalRequestValidation(ctx context.Context, req *domain.ApprovalRequest) (*domain.ValidationResult, error) {
	if m.ApprovalRequestValidationFn != nil {
		return m.ApprovalRequestValidationFn(ctx, req)
	}
	return &domain.ValidationResult{OK: true}, nil
}

func (m *MockApprovalFlowHandler) Approved(ctx context.Context, req *domain.ApprovalRequest) error {
	if m.ApprovedFn != nil {
		return m.ApprovedFn(ctx, req)
	}
	return nil
}

func (m *MockApprovalFlowHandler) Revoked(ctx context.Context, req *domain.ApprovalRequest) error {
	if m.RevokedFn != nil {
		return m.RevokedFn(ctx, req)
	}
	return nil
}

var _ domain.ApprovalFlowHandler = (*MockApprovalFlowHandler)(nil)

// === Scheduler provider ===

// MockSchedulerProvider implements domain.SchedulerProvider for testing.
// Created, updated, and deleted events are collected for assertions.
type MockSchedulerProvider struct {
	CreateFn func(ctx context.Context, eventType string, property interface{}, schedulePattern string) (*domain.SchedulerEvent, error)
	GetFn    func(ctx context.Context, id string) (*domain.SchedulerEvent, error)
	UpdateFn func(ctx context.Context, event *domain.SchedulerEvent) (*domain.SchedulerEvent, error)
	DeleteFn func(ctx context.Context, id string) error

	Created []domain.SchedulerEvent
	Updated []domain.SchedulerEvent
	Deleted []string
}

func (m *MockSchedulerProvider) CreateSchedulerEvent(ctx context.Context, eventType string, property interface{}, schedulePattern string) (*domain.SchedulerEvent, error) {
	if m.CreateFn != nil {
		ev, err := m.CreateFn(ctx, eventType, property, schedulePattern)
		if err != nil {
			return nil, err
		}
		m.Created = append(m.Created, *ev)
		return ev, nil
	}
	raw, _ := json.Marshal(property)
	ev := &domain.SchedulerEvent{
		ID:              "event-" + eventType,
		EventType:       eventType,
		Property:        raw,
		SchedulePattern: schedulePattern,
	}
	m.Created = append(m.Created, *ev)
	return ev, nil
}

func (m *MockSchedulerProvider) GetSchedulerEvent(ctx context.Context, id string) (*domain.SchedulerEvent, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockSchedulerProvider.GetSchedulerEvent")
}

func (m *MockSchedulerProvider) UpdateSchedulerEvent(ctx context.Context, event *domain.SchedulerEvent) (*domain.SchedulerEvent, error) {
	if m.UpdateFn != nil {
		ev, err := m.UpdateFn(ctx, event)
		if err != nil {
			return nil, err
		}
		m.Updated = append(m.Updated, *ev)
		return ev, nil
	}
	m.Updated = append(m.Updated, *event)
	return event, nil
}

func (m *MockSchedulerProvider) DeleteSchedulerEvent(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		if err := m.DeleteFn(ctx, id); err != nil {
			return err
		}
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

var _ domain.SchedulerProvider = (*MockSchedulerProvider)(nil)

// === Notification plugin ===

// MockNotificationPlugin implements domain.NotificationPlugin for testing.
type MockNotificationPlugin struct {
	SetChannelFn       func(ctx context.Context, properties map[string]string, message string) (*domain.NotificationChannel, error)
	UnsetChannelFn     func(ctx context.Context, channelID string, message string) error
	SendNotificationFn func(ctx context.Context, message string, channel *domain.NotificationChannel) error

	SetChannels   []domain.NotificationChannel
	UnsetChannels []string
	Sent          []string
}

func (m *MockNotificationPlugin) SetChannel(ctx context.Context, properties map[string]string, message string) (*domain.NotificationChannel, error) {
	if m.SetChannelFn != nil {
		ch, err := m.SetChannelFn(ctx, properties, message)
		if err != nil {
			return nil, err
		}
		m.SetChannels = append(m.SetChannels, *ch)
		return ch, nil
	}
	ch := &domain.NotificationChannel{ID: "channel-1", Properties: properties}
	m.SetChannels = append(m.SetChannels, *ch)
	return ch, nil
}

func (m *MockNotificationPlugin) UnsetChannel(ctx context.Context, channelID string, message string) error {
	if m.UnsetChannelFn != nil {
		if err := m.UnsetChannelFn(ctx, channelID, message); err != nil {
			return err
		}
	}
	m.UnsetChannels = append(m.UnsetChannels, channelID)
	return nil
}

func (m *MockNotificationPlugin) SendNotification(ctx context.Context, message string, channel *domain.NotificationChannel) error {
	if m.SendNotificationFn != nil {
		if err := m.SendNotificationFn(ctx, message, channel); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, message)
	return nil
}

var _ domain.NotificationPlugin = (*MockNotificationPlugin)(nil)

// MockPluginRegistry implements domain.NotificationPluginRegistry over a
// plain map.
type MockPluginRegistry map[string]domain.NotificationPlugin

func (m MockPluginRegistry) Plugin(typeID string) (domain.NotificationPlugin, bool) {
	p, ok := m[typeID]
	return p, ok
}

var _ domain.NotificationPluginRegistry = (MockPluginRegistry)(nil)

// MockHandlerRegistry implements domain.ResourceTypeHandlerRegistry over a
// plain map.
type MockHandlerRegistry map[string]domain.ResourceTypeHandler

func (m MockHandlerRegistry) Handler(resourceTypeID string) (domain.ResourceTypeHandler, bool) {
	h, ok := m[resourceTypeID]
	return h, ok
}

var _ domain.ResourceTypeHandlerRegistry = (MockHandlerRegistry)(nil)
