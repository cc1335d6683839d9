package authz

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"govhub/internal/domain"
)

// check is a single permission predicate bound to its arguments.
type check func(ctx context.Context) (bool, error)

// anyOf evaluates all checks concurrently and reduces with OR. The first
// predicate error cancels the rest and is returned; a single true grants.
func anyOf(ctx context.Context, checks ...check) (bool, error) {
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	granted := false
	for _, c := range checks {
		c := c
		g.Go(func() error {
			ok, err := c(ctx)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				granted = true
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return granted, nil
}

// Evaluator composes ownership predicates into per-action permission
// checks. Every Check method returns nil when the action is allowed and
// an AccessDeniedError when every predicate came back false.
type Evaluator struct {
	checkers *Checkers
	records  domain.ResourceRecordRepository
}

func NewEvaluator(checkers *Checkers, records domain.ResourceRecordRepository) *Evaluator {
	return &Evaluator{checkers: checkers, records: records}
}

// CheckCanEditGroup allows group owners and admins.
func (e *Evaluator) CheckCanEditGroup(ctx context.Context, groupID, userID string) error {
	ok, err := anyOf(ctx,
		func(ctx context.Context) (bool, error) { return e.checkers.IsGroupOwner(ctx, groupID, userID) },
		func(ctx context.Context) (bool, error) { return e.checkers.IsAdmin(ctx, userID) },
	)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied("user %s may not edit group %s", userID, groupID)
	}
	return nil
}

// CheckCanCreateResource allows anyone when the resource type opts in,
// otherwise catalog owners and owners of the declared parent resource.
func (e *Evaluator) CheckCanCreateResource(ctx context.Context, catalog *domain.Catalog, rt *domain.ResourceTypeConfig, parentResourceID *string, userID string) error {
	if rt.AnyoneCanCreate {
		return nil
	}
	ok, err := anyOf(ctx,
		func(ctx context.Context) (bool, error) { return e.checkers.IsCatalogOwner(ctx, catalog, userID) },
		func(ctx context.Context) (bool, error) {
			return e.checkers.IsParentResourceOwner(ctx, catalog.ID, rt.ParentResourceTypeID, parentResourceID, userID)
		},
	)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied("user %s may not create %s resources in catalog %s", userID, rt.ID, catalog.ID)
	}
	return nil
}

// CheckCanEditResource allows catalog owners, resource owners, and parent
// resource owners.
func (e *Evaluator) CheckCanEditResource(ctx context.Context, catalog *domain.Catalog, info *domain.ResourceInfo, userID string) error {
	ok, err := anyOf(ctx,
		func(ctx context.Context) (bool, error) { return e.checkers.IsCatalogOwner(ctx, catalog, userID) },
		func(ctx context.Context) (bool, error) { return e.checkers.IsResourceOwner(ctx, info, userID) },
		func(ctx context.Context) (bool, error) {
			return e.checkers.IsParentResourceOwner(ctx, info.CatalogID, info.ParentResourceTypeID, info.ParentResourceID, userID)
		},
	)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied("user %s may not edit resource %s", userID, info.ID)
	}
	return nil
}

// checkCatalogOrParentOwner allows catalog owners and parent resource
// owners; resource owners are deliberately excluded from governance-field
// updates.
func (e *Evaluator) checkCatalogOrParentOwner(ctx context.Context, catalog *domain.Catalog, info *domain.ResourceInfo, userID, action string) error {
	ok, err := anyOf(ctx,
		func(ctx context.Context) (bool, error) { return e.checkers.IsCatalogOwner(ctx, catalog, userID) },
		func(ctx context.Context) (bool, error) {
			return e.checkers.IsParentResourceOwner(ctx, info.CatalogID, info.ParentResourceTypeID, info.ParentResourceID, userID)
		},
	)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied("user %s may not %s of resource %s", userID, action, info.ID)
	}
	return nil
}

// CheckCanUpdateResourceApprover gates approver-group changes.
func (e *Evaluator) CheckCanUpdateResourceApprover(ctx context.Context, catalog *domain.Catalog, info *domain.ResourceInfo, userID string) error {
	return e.checkCatalogOrParentOwner(ctx, catalog, info, userID, "change the approver group")
}

// CheckCanUpdateResourceOwner gates owner-group changes.
func (e *Evaluator) CheckCanUpdateResourceOwner(ctx context.Context, catalog *domain.Catalog, info *domain.ResourceInfo, userID string) error {
	return e.checkCatalogOrParentOwner(ctx, catalog, info, userID, "change the owner group")
}

// CheckCanApproveResourceUpdate verifies that the approver group recorded
// on the target's parent resource equals approverGroupID. This is an
// equality precondition, not an ownership disjunction: a missing parent
// or missing approver configuration is a validation failure, a mismatch
// is an access denial.
func (e *Evaluator) CheckCanApproveResourceUpdate(ctx context.Context, info *domain.ResourceInfo, approverGroupID string) error {
	if info.ParentResourceTypeID == nil || info.ParentResourceID == nil {
		return domain.ErrValidation("resource %s has no parent resource to approve through", info.ID)
	}
	parent, err := e.records.Get(ctx, info.CatalogID, *info.ParentResourceTypeID, *info.ParentResourceID)
	if err != nil {
		if errors.As(err, new(*domain.NotFoundError)) {
			return domain.ErrValidation("parent resource %s of %s has no governance record", *info.ParentResourceID, info.ID)
		}
		return err
	}
	if parent.ApproverGroupID == nil {
		return domain.ErrValidation("parent resource %s has no approver group configured", parent.ID)
	}
	if *parent.ApproverGroupID != approverGroupID {
		return domain.ErrAccessDenied("group %s is not the approver for resource %s", approverGroupID, info.ID)
	}
	return nil
}
