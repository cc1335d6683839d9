package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govhub/internal/domain"
	"govhub/internal/testutil"
)

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

func resolverCatalog(handler domain.ResourceTypeHandler) (*domain.Catalog, *domain.ResourceTypeConfig) {
	catalog := &domain.Catalog{
		ID:            "cat",
		ResourceTypes: []domain.ResourceTypeConfig{{ID: "table", Handler: handler}},
	}
	return catalog, catalog.ResourceType("table")
}

func TestResolver_Resolve_MergesRecord(t *testing.T) {
	handler := &testutil.MockResourceTypeHandler{
		GetResourceFn: func(ctx context.Context, catalogID, resourceID string) (*domain.Resource, error) {
			return &domain.Resource{ID: resourceID, Name: "orders", Params: map[string]interface{}{"rows": 42}}, nil
		},
	}
	records := &testutil.MockResourceRecordRepo{
		GetFn: func(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error) {
			return &domain.ResourceRecord{
				CatalogID:       catalogID,
				ResourceTypeID:  resourceTypeID,
				ID:              id,
				OwnerGroupID:    strPtr("owners"),
				ApproverGroupID: strPtr("approvers"),
			}, nil
		},
	}
	catalog, rt := resolverCatalog(handler)

	info, err := NewResolver(records).Resolve(context.Background(), catalog, rt, "t1")
	require.NoError(t, err)
	assert.Equal(t, "orders", info.Name)
	assert.Equal(t, "cat", info.CatalogID)
	assert.Equal(t, "table", info.ResourceTypeID)
	require.NotNil(t, info.OwnerGroupID)
	assert.Equal(t, "owners", *info.OwnerGroupID)
	require.NotNil(t, info.ApproverGroupID)
	assert.Equal(t, "approvers", *info.ApproverGroupID)
}

func TestResolver_Resolve_MissingRecordYieldsBareInfo(t *testing.T) {
	handler := &testutil.MockResourceTypeHandler{
		GetResourceFn: func(ctx context.Context, catalogID, resourceID string) (*domain.Resource, error) {
			return &domain.Resource{ID: resourceID, Name: "orders"}, nil
		},
	}
	records := &testutil.MockResourceRecordRepo{
		GetFn: func(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error) {
			return nil, domain.ErrNotFound("record not found")
		},
	}
	catalog, rt := resolverCatalog(handler)

	// The live system is authoritative for existence; a missing record
	// just means no governance metadata yet.
	info, err := NewResolver(records).Resolve(context.Background(), catalog, rt, "t1")
	require.NoError(t, err)
	assert.Equal(t, "orders", info.Name)
	assert.Nil(t, info.OwnerGroupID)
	assert.Nil(t, info.ApproverGroupID)
	assert.Empty(t, info.AuditNotifications)
}

func TestResolver_Resolve_HandlerMissYieldsNotFound(t *testing.T) {
	handler := &testutil.MockResourceTypeHandler{
		GetResourceFn: func(ctx context.Context, catalogID, resourceID string) (*domain.Resource, error) {
			return nil, nil
		},
	}
	records := &testutil.MockResourceRecordRepo{
		GetFn: func(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error) {
			// A stale record without a live resource does not resurrect it.
			return &domain.ResourceRecord{CatalogID: catalogID, ResourceTypeID: resourceTypeID, ID: id}, nil
		},
	}
	catalog, rt := resolverCatalog(handler)

	_, err := NewResolver(records).Resolve(context.Background(), catalog, rt, "t1")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestResolver_Resolve_RepoErrorPropagates(t *testing.T) {
	handler := &testutil.MockResourceTypeHandler{
		GetResourceFn: func(ctx context.Context, catalogID, resourceID string) (*domain.Resource, error) {
			return &domain.Resource{ID: resourceID}, nil
		},
	}
	records := &testutil.MockResourceRecordRepo{
		GetFn: func(ctx context.Context, catalogID, resourceTypeID, id string) (*domain.ResourceRecord, error) {
			return nil, errBoom
		},
	}
	catalog, rt := resolverCatalog(handler)

	_, err := NewResolver(records).Resolve(context.Background(), catalog, rt, "t1")
	assert.ErrorIs(t, err, errBoom)
}
