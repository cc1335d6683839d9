// Package authz implements ownership predicates and the permission
// evaluator that composes them per action.
package authz

import (
	"context"
	"errors"

	"govhub/internal/domain"
)

// Checkers holds the individual ownership predicates. Each predicate
// answers one question about a user; missing optional links short-circuit
// to false without further lookups.
type Checkers struct {
	users   domain.UserRepository
	groups  domain.GroupRepository
	records domain.ResourceRecordRepository
}

func NewCheckers(users domain.UserRepository, groups domain.GroupRepository, records domain.ResourceRecordRepository) *Checkers {
	return &Checkers{users: users, groups: groups, records: records}
}

// IsAdmin reports whether the user carries the administrator role. An
// unknown user is simply not an admin.
func (c *Checkers) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		if errors.As(err, new(*domain.NotFoundError)) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin(), nil
}

// IsGroupOwner reports whether the user holds the owner role in the group.
func (c *Checkers) IsGroupOwner(ctx context.Context, groupID, userID string) (bool, error) {
	member, err := c.groups.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.As(err, new(*domain.NotFoundError)) {
			return false, nil
		}
		return false, err
	}
	return member.Role == domain.GroupRoleOwner, nil
}

// isMemberOf reports whether the user belongs to the group in any role.
func (c *Checkers) isMemberOf(ctx context.Context, groupID, userID string) (bool, error) {
	_, err := c.groups.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.As(err, new(*domain.NotFoundError)) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsCatalogOwner reports whether the user belongs to the catalog's owner
// group. Catalogs without an owner group have no catalog owners.
func (c *Checkers) IsCatalogOwner(ctx context.Context, catalog *domain.Catalog, userID string) (bool, error) {
	if catalog.OwnerGroupID == nil {
		return false, nil
	}
	return c.isMemberOf(ctx, *catalog.OwnerGroupID, userID)
}

// IsResourceOwner reports whether the user belongs to the resource's owner
// group.
func (c *Checkers) IsResourceOwner(ctx context.Context, info *domain.ResourceInfo, userID string) (bool, error) {
	if info.OwnerGroupID == nil {
		return false, nil
	}
	return c.isMemberOf(ctx, *info.OwnerGroupID, userID)
}

// IsParentResourceOwner reports whether the user belongs to the owner
// group of the resource's parent. Resources without a parent link, with
// no persisted parent record, or whose parent has no owner group yield
// false.
func (c *Checkers) IsParentResourceOwner(ctx context.Context, catalogID string, parentResourceTypeID, parentResourceID *string, userID string) (bool, error) {
	if parentResourceTypeID == nil || parentResourceID == nil {
		return false, nil
	}
	parent, err := c.records.Get(ctx, catalogID, *parentResourceTypeID, *parentResourceID)
	if err != nil {
		if errors.As(err, new(*domain.NotFoundError)) {
			return false, nil
		}
		return false, err
	}
	if parent.OwnerGroupID == nil {
		return false, nil
	}
	return c.isMemberOf(ctx, *parent.OwnerGroupID, userID)
}
