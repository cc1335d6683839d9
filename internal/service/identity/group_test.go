package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govhub/internal/domain"
	"govhub/internal/service/authz"
	"govhub/internal/testutil"
)

var errBoom = errors.New("boom")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// groupFixture wires a GroupService over an in-memory membership map.
// User "admin" is an administrator; group "g1" exists with "owner-user"
// as its owner.
type groupFixture struct {
	svc     *GroupService
	groups  *testutil.MockGroupRepo
	plugin  *testutil.MockNotificationPlugin
	members map[string]map[string]*domain.GroupMember // group id -> user id
	added   []domain.GroupMember
	removed [][2]string
	deleted []string
	group   *domain.Group
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()

	f := &groupFixture{
		plugin:  &testutil.MockNotificationPlugin{},
		members: map[string]map[string]*domain.GroupMember{},
		group: &domain.Group{
			ID:   "g1",
			Name: "Data Engineering",
			Notifications: []domain.GroupNotification{
				{ID: "n1", Purpose: domain.GroupNotificationMemberAdded, TypeID: "webhook"},
			},
		},
	}
	f.members["g1"] = map[string]*domain.GroupMember{
		"owner-user": {GroupID: "g1", UserID: "owner-user", Role: domain.GroupRoleOwner},
	}

	users := &testutil.MockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			switch id {
			case "admin":
				return &domain.User{ID: id, Name: "Root", Roles: []string{domain.RoleAdmin}}, nil
			case "ghost":
				return nil, domain.ErrNotFound("user %s not found", id)
			default:
				return &domain.User{ID: id, Name: "User " + id}, nil
			}
		},
	}
	f.groups = &testutil.MockGroupRepo{
		CreateFn: func(ctx context.Context, g *domain.Group) (*domain.Group, error) {
			g.ID = "g-new"
			return g, nil
		},
		GetByIDFn: func(ctx context.Context, id string) (*domain.Group, error) {
			if id == f.group.ID {
				return f.group, nil
			}
			return nil, domain.ErrNotFound("group %s not found", id)
		},
		DeleteFn: func(ctx context.Context, id string) error {
			f.deleted = append(f.deleted, id)
			return nil
		},
		GetMemberFn: func(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
			if m, ok := f.members[groupID][userID]; ok {
				return m, nil
			}
			return nil, domain.ErrNotFound("not a member")
		},
		AddMemberFn: func(ctx context.Context, m *domain.GroupMember) error {
			if f.members[m.GroupID] == nil {
				f.members[m.GroupID] = map[string]*domain.GroupMember{}
			}
			f.members[m.GroupID][m.UserID] = m
			f.added = append(f.added, *m)
			return nil
		},
		RemoveMemberFn: func(ctx context.Context, groupID, userID string) error {
			delete(f.members[groupID], userID)
			f.removed = append(f.removed, [2]string{groupID, userID})
			return nil
		},
		CountMembersFn: func(ctx context.Context, groupID string) (int64, error) {
			return int64(len(f.members[groupID])), nil
		},
		AddNotificationFn: func(ctx context.Context, groupID string, n *domain.GroupNotification) error {
			return nil
		},
		RemoveNotificationFn: func(ctx context.Context, groupID, notificationID string) error {
			return nil
		},
	}

	evaluator := authz.NewEvaluator(authz.NewCheckers(users, f.groups, nil), nil)
	f.svc = NewGroupService(f.groups, users, evaluator, testutil.MockPluginRegistry{"webhook": f.plugin}, testLogger())
	return f
}

func TestGroupService_Create(t *testing.T) {
	f := newGroupFixture(t)

	group, err := f.svc.Create(context.Background(), domain.CreateGroupRequest{Name: "New Team"}, "creator")
	require.NoError(t, err)
	assert.Equal(t, "g-new", group.ID)

	// The creator becomes the group's owner.
	require.Len(t, f.added, 1)
	assert.Equal(t, "creator", f.added[0].UserID)
	assert.Equal(t, domain.GroupRoleOwner, f.added[0].Role)
}

func TestGroupService_Create_MissingName(t *testing.T) {
	f := newGroupFixture(t)

	_, err := f.svc.Create(context.Background(), domain.CreateGroupRequest{}, "creator")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestGroupService_AddMember(t *testing.T) {
	f := newGroupFixture(t)

	err := f.svc.AddMember(context.Background(), domain.AddGroupMemberRequest{
		GroupID: "g1",
		UserID:  "newbie",
		Role:    domain.GroupRoleMember,
	}, "owner-user")
	require.NoError(t, err)
	assert.Contains(t, f.members["g1"], "newbie")

	// The member-added channel was notified.
	require.Len(t, f.plugin.Sent, 1)
	assert.Contains(t, f.plugin.Sent[0], "User newbie")
}

func TestGroupService_AddMember_AdminOverride(t *testing.T) {
	f := newGroupFixture(t)

	err := f.svc.AddMember(context.Background(), domain.AddGroupMemberRequest{
		GroupID: "g1",
		UserID:  "newbie",
		Role:    domain.GroupRoleMember,
	}, "admin")
	require.NoError(t, err)
}

func TestGroupService_AddMember_NotOwner(t *testing.T) {
	f := newGroupFixture(t)

	err := f.svc.AddMember(context.Background(), domain.AddGroupMemberRequest{
		GroupID: "g1",
		UserID:  "newbie",
		Role:    domain.GroupRoleMember,
	}, "stranger")
	var denied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestGroupService_AddMember_AlreadyMember(t *testing.T) {
	f := newGroupFixture(t)

	err := f.svc.AddMember(context.Background(), domain.AddGroupMemberRequest{
		GroupID: "g1",
		UserID:  "owner-user",
		Role:    domain.GroupRoleMember,
	}, "owner-user")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestGroupService_AddMember_InvalidRole(t *testing.T) {
	f := newGroupFixture(t)

	err := f.svc.AddMember(context.Background(), domain.AddGroupMemberRequest{
		GroupID: "g1",
		UserID:  "newbie",
		Role:    "superuser",
	}, "owner-user")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestGroupService_AddMember_GroupFull(t *testing.T) {
	f := newGroupFixture(t)
	f.groups.CountMembersFn = func(ctx context.Context, groupID string) (int64, error) {
		return domain.MaxGroupMembers, nil
	}

	err := f.svc.AddMember(context.Background(), domain.AddGroupMemberRequest{
		GroupID: "g1",
		UserID:  "newbie",
		Role:    domain.GroupRoleMember,
	}, "owner-user")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestGroupService_AddMember_NotificationFailureIsAbsorbed(t *testing.T) {
	f := newGroupFixture(t)
	f.plugin.SendNotificationFn = func(ctx context.Context, message string, channel *domain.NotificationChannel) error {
		return errBoom
	}

	err := f.svc.AddMember(context.Background(), domain.AddGroupMemberRequest{
		GroupID: "g1",
		UserID:  "newbie",
		Role:    domain.GroupRoleMember,
	}, "owner-user")
	require.NoError(t, err)
	assert.Contains(t, f.members["g1"], "newbie")
}

func TestGroupService_RemoveMember(t *testing.T) {
	f := newGroupFixture(t)

	require.NoError(t, f.svc.RemoveMember(context.Background(), "g1", "owner-user", "admin"))
	assert.Equal(t, [][2]string{{"g1", "owner-user"}}, f.removed)
}

func TestGroupService_Delete(t *testing.T) {
	f := newGroupFixture(t)

	// One remaining member is fine.
	require.NoError(t, f.svc.Delete(context.Background(), "g1", "owner-user"))
	assert.Equal(t, []string{"g1"}, f.deleted)
}

func TestGroupService_Delete_StillHasMembers(t *testing.T) {
	f := newGroupFixture(t)
	f.members["g1"]["second"] = &domain.GroupMember{GroupID: "g1", UserID: "second", Role: domain.GroupRoleMember}

	err := f.svc.Delete(context.Background(), "g1", "owner-user")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Empty(t, f.deleted)
}

func TestGroupService_AddNotification(t *testing.T) {
	f := newGroupFixture(t)

	n, err := f.svc.AddNotification(context.Background(), "g1", domain.GroupNotification{
		Purpose: domain.GroupNotificationApprovalRequest,
		TypeID:  "webhook",
	}, "owner-user")
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
}

func TestGroupService_AddNotification_InvalidPurpose(t *testing.T) {
	f := newGroupFixture(t)

	_, err := f.svc.AddNotification(context.Background(), "g1", domain.GroupNotification{
		Purpose: "birthday",
		TypeID:  "webhook",
	}, "owner-user")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestGroupService_AddNotification_UnknownPlugin(t *testing.T) {
	f := newGroupFixture(t)

	_, err := f.svc.AddNotification(context.Background(), "g1", domain.GroupNotification{
		Purpose: domain.GroupNotificationMemberAdded,
		TypeID:  "carrier-pigeon",
	}, "owner-user")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}
