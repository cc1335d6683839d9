package resource

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govhub/internal/domain"
	"govhub/internal/service/authz"
	"govhub/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSubmitter satisfies approvalSubmitter with a canned response.
type stubSubmitter struct {
	fn        func(ctx context.Context, req domain.SubmitApprovalRequest) (*domain.ApprovalRequest, error)
	submitted []domain.SubmitApprovalRequest
}

func (s *stubSubmitter) Submit(ctx context.Context, req domain.SubmitApprovalRequest) (*domain.ApprovalRequest, error) {
	s.submitted = append(s.submitted, req)
	if s.fn != nil {
		return s.fn(ctx, req)
	}
	return &domain.ApprovalRequest{
		RequestID:   "req1",
		Status:      domain.ApprovalStatusPending,
		CatalogID:   req.CatalogID,
		RequestDate: time.Now().UTC(),
	}, nil
}

// serviceFixture wires a Service over mocks: catalog "cat" owned by
// group "owners" (user "u1" is a member) with resource type "table"
// backed by a MemoryHandler.
type serviceFixture struct {
	svc       *Service
	handler   *MemoryHandler
	records   map[string]*domain.ResourceRecord
	recRepo   *testutil.MockResourceRecordRepo
	approvals *stubSubmitter
	scheduler *testutil.MockSchedulerProvider
	plugin    *testutil.MockNotificationPlugin
	pending   map[string]*domain.PendingUpdateParams
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		handler:   NewMemoryHandler(),
		records:   make(map[string]*domain.ResourceRecord),
		approvals: &stubSubmitter{},
		scheduler: &testutil.MockSchedulerProvider{},
		plugin:    &testutil.MockNotificationPlugin{},
		pending:   make(map[string]*domain.PendingUpdateParams),
	}

	catalog := &domain.Catalog{
		ID:           "cat",
		OwnerGroupID: strPtr("owners"),
		ResourceTypes: []domain.ResourceTypeConfig{
			{
				ID:                 "table",
				IsCreatable:        true,
				IsUpdatable:        true,
				IsDeletable:        true,
				OwnerManagement:    true,
				ApproverManagement: true,
				Handler:            f.handler,
			},
			{ID: "readonly", Handler: f.handler},
		},
	}
	catalogs := &testutil.MockCatalogRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Catalog, error) {
			if id == "cat" {
				return catalog, nil
			}
			return nil, domain.ErrNotFound("catalog %s not found", id)
		},
	}
	groups := &testutil.MockGroupRepo{
		GetMemberFn: func(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
			if groupID == "owners" && userID == "u1" {
				return &domain.GroupMember{GroupID: groupID, UserID: userID, Role: domain.GroupRoleOwner}, nil
			}
			return nil, domain.ErrNotFound("not a member")
		},
	}
	f.recRepo = &testutil.MockResourceRecordRepo{
		GetFn: func(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error) {
			rec, ok := f.records[id]
			if !ok {
				return nil, domain.ErrNotFound("record not found")
			}
			return rec, nil
		},
		SetFn: func(ctx context.Context, rec *domain.ResourceRecord) error {
			f.records[rec.ID] = rec
			return nil
		},
		DeleteFn: func(ctx context.Context, catalogID, resourceTypeID, id string) error {
			if _, ok := f.records[id]; !ok {
				return domain.ErrNotFound("record not found")
			}
			delete(f.records, id)
			return nil
		},
		UpdatePendingUpdateParamsFn: func(ctx context.Context, catalogID, resourceTypeID, id string, p *domain.PendingUpdateParams) error {
			if rec, ok := f.records[id]; ok {
				rec.PendingUpdateParams = p
			}
			f.pending[id] = p
			return nil
		},
	}

	resolver := NewResolver(f.recRepo)
	evaluator := authz.NewEvaluator(authz.NewCheckers(&testutil.MockUserRepo{}, groups, f.recRepo), f.recRepo)
	f.svc = NewService(catalogs, f.recRepo, resolver, evaluator, f.approvals, f.scheduler,
		testutil.MockPluginRegistry{"webhook": f.plugin}, testLogger())
	return f
}

func (f *serviceFixture) create(t *testing.T, name string) *domain.ResourceInfo {
	t.Helper()
	info, err := f.svc.Create(context.Background(), domain.CreateResourceRequest{
		CatalogID:      "cat",
		ResourceTypeID: "table",
		Name:           name,
		OwnerGroupID:   strPtr("owners"),
	}, "u1")
	require.NoError(t, err)
	return info
}

func TestService_Create(t *testing.T) {
	f := newServiceFixture(t)

	info := f.create(t, "orders")
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "orders", info.Name)
	require.NotNil(t, info.OwnerGroupID)
	assert.Equal(t, "owners", *info.OwnerGroupID)

	// Both handler and record store see the resource.
	require.Contains(t, f.records, info.ID)
	got, err := f.handler.GetResource(context.Background(), "cat", info.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestService_Create_NotCreatable(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateResourceRequest{
		CatalogID:      "cat",
		ResourceTypeID: "readonly",
		Name:           "orders",
	}, "u1")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestService_Create_AccessDenied(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateResourceRequest{
		CatalogID:      "cat",
		ResourceTypeID: "table",
		Name:           "orders",
	}, "stranger")
	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestService_Create_UnknownResourceType(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateResourceRequest{
		CatalogID:      "cat",
		ResourceTypeID: "nope",
		Name:           "orders",
	}, "u1")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestService_GetAndList(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created := f.create(t, "orders")

	info, err := f.svc.Get(ctx, "cat", "table", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "orders", info.Name)
	require.NotNil(t, info.OwnerGroupID)

	list, err := f.svc.List(ctx, "cat", "table")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	_, err = f.svc.Get(ctx, "cat", "table", "ghost")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestService_UpdateWithApproval(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t, "orders")

	req, err := f.svc.UpdateWithApproval(context.Background(), "cat", "table", created.ID,
		map[string]interface{}{"retention": "30d"}, "u1", "extend retention")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusPending, req.Status)

	// Submission targets the built-in flow and names the resource.
	require.Len(t, f.approvals.submitted, 1)
	submitted := f.approvals.submitted[0]
	assert.Equal(t, domain.ApprovalFlowResourceUpdate, submitted.ApprovalFlowID)
	assert.Equal(t, created.ID, submitted.InputParams["resourceId"])
	assert.Equal(t, "table", submitted.InputParams["resourceTypeId"])

	// Pending params are parked on the record until the request resolves.
	pending := f.pending[created.ID]
	require.NotNil(t, pending)
	assert.Equal(t, "req1", pending.ApprovalRequestID)
	assert.Equal(t, map[string]interface{}{"retention": "30d"}, pending.UpdateParams)
}

func TestService_UpdateWithApproval_ConflictOnPending(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t, "orders")
	ctx := context.Background()

	_, err := f.svc.UpdateWithApproval(ctx, "cat", "table", created.ID,
		map[string]interface{}{"retention": "30d"}, "u1", "")
	require.NoError(t, err)

	_, err = f.svc.UpdateWithApproval(ctx, "cat", "table", created.ID,
		map[string]interface{}{"retention": "60d"}, "u1", "")
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestService_UpdateWithApproval_ValidationFailedSkipsPending(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t, "orders")
	f.approvals.fn = func(ctx context.Context, req domain.SubmitApprovalRequest) (*domain.ApprovalRequest, error) {
		return &domain.ApprovalRequest{RequestID: "req1", Status: domain.ApprovalStatusValidationFailed}, nil
	}

	req, err := f.svc.UpdateWithApproval(context.Background(), "cat", "table", created.ID,
		map[string]interface{}{"retention": "30d"}, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusValidationFailed, req.Status)

	// No pending params are parked for a request that failed validation.
	assert.Nil(t, f.pending[created.ID])
}

func TestService_UpdateApprover(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t, "orders")

	info, err := f.svc.UpdateApprover(context.Background(), "cat", "table", created.ID, strPtr("auditors"), "u1")
	require.NoError(t, err)
	require.NotNil(t, info.ApproverGroupID)
	assert.Equal(t, "auditors", *info.ApproverGroupID)
	assert.Equal(t, "auditors", *f.records[created.ID].ApproverGroupID)

	// Clearing works too.
	info, err = f.svc.UpdateApprover(context.Background(), "cat", "table", created.ID, nil, "u1")
	require.NoError(t, err)
	assert.Nil(t, info.ApproverGroupID)
}

func TestService_UpdateOwner(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t, "orders")

	info, err := f.svc.UpdateOwner(context.Background(), "cat", "table", created.ID, strPtr("data-eng"), "u1")
	require.NoError(t, err)
	require.NotNil(t, info.OwnerGroupID)
	assert.Equal(t, "data-eng", *info.OwnerGroupID)
}

func TestService_UpdateApprover_NotManaged(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.UpdateApprover(context.Background(), "cat", "readonly", "t1", strPtr("auditors"), "u1")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestService_Delete(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t, "orders")
	ctx := context.Background()

	// Attach an audit binding so deletion has something to cascade over.
	rec := f.records[created.ID]
	rec.AuditNotifications = []domain.AuditNotificationBinding{{
		ID:               "b1",
		Channel:          domain.NotificationChannel{ID: "ch1", TypeID: "webhook"},
		SchedulerEventID: "ev1",
		CronExpression:   "0 9 * * *",
	}}
	f.scheduler.DeleteFn = func(ctx context.Context, id string) error { return nil }

	require.NoError(t, f.svc.Delete(ctx, "cat", "table", created.ID, "u1"))

	assert.NotContains(t, f.records, created.ID)
	got, err := f.handler.GetResource(ctx, "cat", created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{"ev1"}, f.scheduler.Deleted)
	assert.Equal(t, []string{"ch1"}, f.plugin.UnsetChannels)
}

func TestService_Delete_CleanupFailuresAreAbsorbed(t *testing.T) {
	f := newServiceFixture(t)
	created := f.create(t, "orders")
	ctx := context.Background()

	rec := f.records[created.ID]
	rec.AuditNotifications = []domain.AuditNotificationBinding{{
		ID:               "b1",
		Channel:          domain.NotificationChannel{ID: "ch1", TypeID: "webhook"},
		SchedulerEventID: "ev1",
	}}
	f.scheduler.DeleteFn = func(ctx context.Context, id string) error { return errBoom }
	f.plugin.UnsetChannelFn = func(ctx context.Context, channelID string, message string) error { return errBoom }

	// Unreachable collaborators never block the delete itself.
	require.NoError(t, f.svc.Delete(ctx, "cat", "table", created.ID, "u1"))
	assert.NotContains(t, f.records, created.ID)
}

func TestService_Delete_NotDeletable(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.Delete(context.Background(), "cat", "readonly", "t1", "u1")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}
