package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govhub/internal/domain"
	"govhub/internal/service/authz"
	"govhub/internal/service/resource"
	"govhub/internal/testutil"
)

func strPtr(s string) *string { return &s }

// notificationFixture is a NotificationService wired over mocks: catalog
// "cat" with resource type "table", user "u1" in the catalog's owner
// group, a webhook plugin, and an in-memory record store keyed by
// resource id.
type notificationFixture struct {
	svc       *NotificationService
	handler   *testutil.MockResourceTypeHandler
	records   map[string]*domain.ResourceRecord
	recRepo   *testutil.MockResourceRecordRepo
	scheduler *testutil.MockSchedulerProvider
	plugin    *testutil.MockNotificationPlugin
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()

	f := &notificationFixture{
		handler:   &testutil.MockResourceTypeHandler{},
		records:   make(map[string]*domain.ResourceRecord),
		scheduler: &testutil.MockSchedulerProvider{},
		plugin:    &testutil.MockNotificationPlugin{},
	}
	f.scheduler.GetFn = func(ctx context.Context, id string) (*domain.SchedulerEvent, error) {
		for i := range f.scheduler.Created {
			if f.scheduler.Created[i].ID == id {
				cp := f.scheduler.Created[i]
				return &cp, nil
			}
		}
		return nil, nil
	}
	f.handler.GetResourceFn = func(ctx context.Context, catalogID, resourceID string) (*domain.Resource, error) {
		return &domain.Resource{ID: resourceID, Name: "resource " + resourceID}, nil
	}

	catalog := &domain.Catalog{
		ID:           "cat",
		Name:         "Catalog",
		OwnerGroupID: strPtr("owners"),
		ResourceTypes: []domain.ResourceTypeConfig{
			{ID: "table", IsUpdatable: true, Handler: f.handler},
		},
	}
	catalogs := &testutil.MockCatalogRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Catalog, error) {
			if id == catalog.ID {
				return catalog, nil
			}
			return nil, domain.ErrNotFound("catalog %s not found", id)
		},
	}
	users := &testutil.MockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			if id == "u1" {
				return &domain.User{ID: id, Name: "Alice"}, nil
			}
			return nil, domain.ErrNotFound("user %s not found", id)
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
	}

	resolver := resource.NewResolver(f.recRepo)
	evaluator := authz.NewEvaluator(authz.NewCheckers(users, groups, f.recRepo), f.recRepo)
	registry := testutil.MockPluginRegistry{"webhook": f.plugin}

	f.svc = NewNotificationService(catalogs, f.recRepo, users, resolver, evaluator, f.scheduler, registry, testLogger())
	return f
}

func createReq(resourceID string) domain.CreateAuditNotificationRequest {
	return domain.CreateAuditNotificationRequest{
		CatalogID:          "cat",
		ResourceTypeID:     "table",
		ResourceID:         resourceID,
		NotificationTypeID: "webhook",
		ChannelProperties:  map[string]string{"url": "https://hooks.example.com/a"},
		CronExpression:     "0 9 * * *",
	}
}

func TestNotificationService_Create(t *testing.T) {
	f := newNotificationFixture(t)

	info, err := f.svc.Create(context.Background(), createReq("t1"), "u1")
	require.NoError(t, err)
	require.Len(t, info.AuditNotifications, 1)

	binding := info.AuditNotifications[0]
	assert.NotEmpty(t, binding.ID)
	assert.Equal(t, "webhook", binding.Channel.TypeID)
	assert.Equal(t, "0 9 * * *", binding.CronExpression)

	require.Len(t, f.scheduler.Created, 1)
	assert.Equal(t, domain.SchedulerEventResourceAudit, f.scheduler.Created[0].EventType)
	assert.Equal(t, f.scheduler.Created[0].ID, binding.SchedulerEventID)
	assert.Len(t, f.plugin.SetChannels, 1)

	// Persisted on the record too.
	require.Contains(t, f.records, "t1")
	assert.Len(t, f.records["t1"].AuditNotifications, 1)
}

func TestNotificationService_Create_AlreadyBound(t *testing.T) {
	f := newNotificationFixture(t)

	_, err := f.svc.Create(context.Background(), createReq("t1"), "u1")
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), createReq("t1"), "u1")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestNotificationService_Create_StaleReadLeavesOrphanEvent(t *testing.T) {
	// The "no existing binding" check is read-then-write without a
	// conditional store. Two creates whose reads both precede the first
	// write therefore both succeed: the record ends up with a single
	// binding while the scheduler keeps an event per create. This pins the
	// known gap so a future conditional write shows up as a deliberate
	// behavior change.
	f := newNotificationFixture(t)
	f.recRepo.GetFn = func(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error) {
		return nil, domain.ErrNotFound("record not found")
	}

	_, err := f.svc.Create(context.Background(), createReq("t1"), "u1")
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), createReq("t1"), "u1")
	require.NoError(t, err)

	assert.Len(t, f.scheduler.Created, 2)
	assert.Len(t, f.plugin.SetChannels, 2)
	require.Contains(t, f.records, "t1")
	assert.Len(t, f.records["t1"].AuditNotifications, 1)
}

func TestNotificationService_Create_UnknownPlugin(t *testing.T) {
	f := newNotificationFixture(t)

	req := createReq("t1")
	req.NotificationTypeID = "carrier-pigeon"
	_, err := f.svc.Create(context.Background(), req, "u1")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Empty(t, f.scheduler.Created)
}

func TestNotificationService_Create_AccessDenied(t *testing.T) {
	f := newNotificationFixture(t)

	_, err := f.svc.Create(context.Background(), createReq("t1"), "stranger")
	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestNotificationService_Create_ChannelFailureRollsBackEvent(t *testing.T) {
	f := newNotificationFixture(t)
	f.plugin.SetChannelFn = func(ctx context.Context, properties map[string]string, message string) (*domain.NotificationChannel, error) {
		return nil, errBoom
	}

	_, err := f.svc.Create(context.Background(), createReq("t1"), "u1")
	require.Error(t, err)
	assert.Equal(t, "Failed to set channel notification(rollback successful)", err.Error())

	// The scheduler event created by step one was compensated away.
	require.Len(t, f.scheduler.Created, 1)
	assert.Equal(t, []string{f.scheduler.Created[0].ID}, f.scheduler.Deleted)
	assert.NotContains(t, f.records, "t1")
}

func TestNotificationService_Create_RecordFailureRollsBackAll(t *testing.T) {
	f := newNotificationFixture(t)
	f.recRepo.SetFn = func(ctx context.Context, rec *domain.ResourceRecord) error {
		return errBoom
	}

	_, err := f.svc.Create(context.Background(), createReq("t1"), "u1")
	require.Error(t, err)
	assert.Equal(t, "Failed to save the resource record(rollback successful)", err.Error())

	// Channel unset and scheduler event deleted, in that order of
	// registration reversal.
	assert.Len(t, f.plugin.UnsetChannels, 1)
	assert.Len(t, f.scheduler.Deleted, 1)
}

func TestNotificationService_Update(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createReq("t1"), "u1")
	require.NoError(t, err)
	binding := created.AuditNotifications[0]

	info, err := f.svc.Update(ctx, domain.UpdateAuditNotificationRequest{
		CatalogID:          "cat",
		ResourceTypeID:     "table",
		ResourceID:         "t1",
		BindingID:          binding.ID,
		NotificationTypeID: "webhook",
		ChannelProperties:  map[string]string{"url": "https://hooks.example.com/b"},
		CronExpression:     "0 18 * * *",
	}, "u1")
	require.NoError(t, err)
	require.Len(t, info.AuditNotifications, 1)

	updated := info.AuditNotifications[0]
	assert.Equal(t, binding.ID, updated.ID)
	assert.Equal(t, binding.SchedulerEventID, updated.SchedulerEventID)
	assert.Equal(t, "0 18 * * *", updated.CronExpression)

	require.Len(t, f.scheduler.Updated, 1)
	assert.Equal(t, "0 18 * * *", f.scheduler.Updated[0].SchedulePattern)

	// The superseded channel was cleaned up best-effort.
	assert.Contains(t, f.plugin.UnsetChannels, binding.Channel.ID)
}

func TestNotificationService_Update_UnknownBinding(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, createReq("t1"), "u1")
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, domain.UpdateAuditNotificationRequest{
		CatalogID:          "cat",
		ResourceTypeID:     "table",
		ResourceID:         "t1",
		BindingID:          "nope",
		NotificationTypeID: "webhook",
		ChannelProperties:  map[string]string{},
		CronExpression:     "0 9 * * *",
	}, "u1")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestNotificationService_Update_RecordFailureRestoresFormerEvent(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createReq("t1"), "u1")
	require.NoError(t, err)
	binding := created.AuditNotifications[0]
	former, err := f.scheduler.GetSchedulerEvent(ctx, binding.SchedulerEventID)
	require.NoError(t, err)

	f.recRepo.SetFn = func(ctx context.Context, rec *domain.ResourceRecord) error {
		return errBoom
	}

	_, err = f.svc.Update(ctx, domain.UpdateAuditNotificationRequest{
		CatalogID:          "cat",
		ResourceTypeID:     "table",
		ResourceID:         "t1",
		BindingID:          binding.ID,
		NotificationTypeID: "webhook",
		ChannelProperties:  map[string]string{"url": "https://hooks.example.com/b"},
		CronExpression:     "0 18 * * *",
	}, "u1")
	require.Error(t, err)
	assert.Equal(t, "Failed to save the resource record(rollback successful)", err.Error())

	// First update applies the new schedule; the compensation writes the
	// former event back.
	require.Len(t, f.scheduler.Updated, 2)
	assert.Equal(t, "0 18 * * *", f.scheduler.Updated[0].SchedulePattern)
	assert.Equal(t, former.SchedulePattern, f.scheduler.Updated[1].SchedulePattern)
}

func TestNotificationService_Delete(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createReq("t1"), "u1")
	require.NoError(t, err)
	binding := created.AuditNotifications[0]

	info, err := f.svc.Delete(ctx, "cat", "table", "t1", binding.ID, "u1")
	require.NoError(t, err)
	assert.Empty(t, info.AuditNotifications)
	assert.Contains(t, f.scheduler.Deleted, binding.SchedulerEventID)
	assert.Contains(t, f.plugin.UnsetChannels, binding.Channel.ID)
	assert.Empty(t, f.records["t1"].AuditNotifications)
}

func TestNotificationService_Delete_SchedulerFailureIsAbsorbed(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createReq("t1"), "u1")
	require.NoError(t, err)
	binding := created.AuditNotifications[0]

	f.scheduler.GetFn = func(ctx context.Context, id string) (*domain.SchedulerEvent, error) {
		return nil, errBoom
	}

	// An unreachable scheduler must not block the user's delete.
	info, err := f.svc.Delete(ctx, "cat", "table", "t1", binding.ID, "u1")
	require.NoError(t, err)
	assert.Empty(t, info.AuditNotifications)
}

func TestNotificationService_Delete_UnknownBinding(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, createReq("t1"), "u1")
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, "cat", "table", "t1", "nope", "u1")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestNotificationService_GetSchedulerEventMirror(t *testing.T) {
	// The mock scheduler returns created events by id so Update can fetch
	// its rollback target; keep that contract honest here.
	f := newNotificationFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, createReq("t1"), "u1")
	require.NoError(t, err)
	binding := created.AuditNotifications[0]

	ev, err := f.scheduler.GetSchedulerEvent(ctx, binding.SchedulerEventID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, fmt.Sprintf("event-%s", domain.SchedulerEventResourceAudit), ev.ID)
}
