// Package resource provides resource resolution and lifecycle operations
// on top of per-resource-type handlers and the persisted governance
// records.
package resource

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"govhub/internal/domain"
)

// Resolver merges a resource type handler's live view of a resource with
// the persisted governance record. The live system is authoritative for
// existence; resource types may exist purely in their own backing system
// while the hub layers ownership, approver, and audit metadata on top.
type Resolver struct {
	records domain.ResourceRecordRepository
}

// NewResolver creates a resolver over the given record store.
func NewResolver(records domain.ResourceRecordRepository) *Resolver {
	return &Resolver{records: records}
}

// Resolve fetches the handler view and the persisted record concurrently
// and merges them. A handler miss yields NotFoundError regardless of the
// persisted record; a missing record yields empty governance fields.
func (r *Resolver) Resolve(ctx context.Context, catalog *domain.Catalog, resourceType *domain.ResourceTypeConfig, resourceID string) (*domain.ResourceInfo, error) {
	var (
		res *domain.Resource
		rec *domain.ResourceRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = resourceType.Handler.GetResource(gctx, catalog.ID, resourceID)
		return err
	})
	g.Go(func() error {
		found, err := r.records.Get(gctx, catalog.ID, resourceType.ID, resourceID)
		if err != nil {
			if errors.As(err, new(*domain.NotFoundError)) {
				return nil
			}
			return err
		}
		rec = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if res == nil {
		return nil, domain.ErrNotFound("resource %s of type %s not found", resourceID, resourceType.ID)
	}
	return domain.MergeResourceInfo(catalog.ID, resourceType.ID, res, rec), nil
}
