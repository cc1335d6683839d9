package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"govhub/internal/domain"
	"govhub/internal/service/authz"
)

// GroupService provides group management: membership with size limits,
// deletion guards, and notification bindings.
type GroupService struct {
	groups    domain.GroupRepository
	users     domain.UserRepository
	evaluator *authz.Evaluator
	plugins   domain.NotificationPluginRegistry
	logger    *slog.Logger
}

// NewGroupService creates a group service.
func NewGroupService(groups domain.GroupRepository, users domain.UserRepository, evaluator *authz.Evaluator, plugins domain.NotificationPluginRegistry, logger *slog.Logger) *GroupService {
	return &GroupService{groups: groups, users: users, evaluator: evaluator, plugins: plugins, logger: logger}
}

// Create creates a group and makes the creating user its owner.
func (s *GroupService) Create(ctx context.Context, req domain.CreateGroupRequest, userID string) (*domain.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	group, err := s.groups.Create(ctx, &domain.Group{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}
	member := &domain.GroupMember{GroupID: group.ID, UserID: userID, Role: domain.GroupRoleOwner}
	if err := s.groups.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return group, nil
}

// GetByID returns one group.
func (s *GroupService) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	return s.groups.GetByID(ctx, id)
}

// List returns all groups.
func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

// Delete removes a group. A group is deletable only while it has at most
// one membership.
func (s *GroupService) Delete(ctx context.Context, groupID, userID string) error {
	if err := s.evaluator.CheckCanEditGroup(ctx, groupID, userID); err != nil {
		return err
	}
	count, err := s.groups.CountMembers(ctx, groupID)
	if err != nil {
		return err
	}
	if count > 1 {
		return domain.ErrValidation("group %s still has %d members; remove them first", groupID, count)
	}
	return s.groups.Delete(ctx, groupID)
}

// AddMember adds a user to a group. Membership is unique per
// (group, user) and bounded at MaxGroupMembers.
func (s *GroupService) AddMember(ctx context.Context, req domain.AddGroupMemberRequest, userID string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.evaluator.CheckCanEditGroup(ctx, req.GroupID, userID); err != nil {
		return err
	}
	if _, err := s.groups.GetMember(ctx, req.GroupID, req.UserID); err == nil {
		return domain.ErrValidation("user %s is already a member of group %s", req.UserID, req.GroupID)
	} else if !errors.As(err, new(*domain.NotFoundError)) {
		return err
	}
	count, err := s.groups.CountMembers(ctx, req.GroupID)
	if err != nil {
		return err
	}
	if count >= domain.MaxGroupMembers {
		return domain.ErrValidation("group %s already has %d members", req.GroupID, domain.MaxGroupMembers)
	}
	if err := s.groups.AddMember(ctx, &domain.GroupMember{
		GroupID: req.GroupID,
		UserID:  req.UserID,
		Role:    req.Role,
	}); err != nil {
		return err
	}
	s.notifyMemberAdded(ctx, req.GroupID, req.UserID)
	return nil
}

// notifyMemberAdded dispatches member-added notifications for the group.
// Dispatch is best-effort: failures are logged and absorbed.
func (s *GroupService) notifyMemberAdded(ctx context.Context, groupID, newUserID string) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		s.logger.Warn("resolve group for member-added notification failed", "group", groupID, "error", err)
		return
	}
	user, err := s.users.GetByID(ctx, newUserID)
	if err != nil {
		s.logger.Warn("resolve user for member-added notification failed", "user", newUserID, "error", err)
		return
	}
	message := fmt.Sprintf("%s joined group %q.", user.Name, group.Name)
	for _, n := range group.Notifications {
		if n.Purpose != domain.GroupNotificationMemberAdded {
			continue
		}
		plugin, ok := s.plugins.Plugin(n.TypeID)
		if !ok {
			s.logger.Warn("notification plugin not found", "group", groupID, "type", n.TypeID)
			continue
		}
		channel := &domain.NotificationChannel{ID: n.ID, TypeID: n.TypeID, Properties: n.Properties}
		if err := plugin.SendNotification(ctx, message, channel); err != nil {
			s.logger.Warn("send member-added notification failed", "group", groupID, "channel", n.ID, "error", err)
		}
	}
}

// RemoveMember removes a user from a group.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, memberUserID, userID string) error {
	if err := s.evaluator.CheckCanEditGroup(ctx, groupID, userID); err != nil {
		return err
	}
	return s.groups.RemoveMember(ctx, groupID, memberUserID)
}

// ListMembers returns the memberships of a group.
func (s *GroupService) ListMembers(ctx context.Context, groupID string) ([]domain.GroupMember, error) {
	return s.groups.ListMembers(ctx, groupID)
}

// AddNotification binds a notification channel to a group.
func (s *GroupService) AddNotification(ctx context.Context, groupID string, n domain.GroupNotification, userID string) (*domain.GroupNotification, error) {
	if err := s.evaluator.CheckCanEditGroup(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if n.Purpose != domain.GroupNotificationMemberAdded && n.Purpose != domain.GroupNotificationApprovalRequest {
		return nil, domain.ErrValidation("invalid notification purpose %q", n.Purpose)
	}
	if _, ok := s.plugins.Plugin(n.TypeID); !ok {
		return nil, domain.ErrValidation("notification type %s is not registered", n.TypeID)
	}
	n.ID = uuid.NewString()
	if err := s.groups.AddNotification(ctx, groupID, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// RemoveNotification removes a notification binding from a group.
func (s *GroupService) RemoveNotification(ctx context.Context, groupID, notificationID, userID string) error {
	if err := s.evaluator.CheckCanEditGroup(ctx, groupID, userID); err != nil {
		return err
	}
	return s.groups.RemoveNotification(ctx, groupID, notificationID)
}
