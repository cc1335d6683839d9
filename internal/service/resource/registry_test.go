package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govhub/internal/domain"
)

func TestMemoryHandler_Lifecycle(t *testing.T) {
	h := NewMemoryHandler()
	ctx := context.Background()

	created, err := h.CreateResource(ctx, "cat", &domain.CreateResourceRequest{
		Name:   "orders",
		Params: map[string]interface{}{"rows": "42"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := h.GetResource(ctx, "cat", created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "orders", got.Name)

	// Miss is nil, nil: existence is the caller's concern.
	got, err = h.GetResource(ctx, "cat", "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)

	updated, err := h.UpdateResource(ctx, "cat", created.ID, map[string]interface{}{"rows": "43"})
	require.NoError(t, err)
	assert.Equal(t, "43", updated.Params["rows"])

	require.NoError(t, h.DeleteResource(ctx, "cat", created.ID))
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, h.DeleteResource(ctx, "cat", created.ID), &notFound)
}

func TestMemoryHandler_ListSortedByName(t *testing.T) {
	h := NewMemoryHandler()
	ctx := context.Background()

	for _, name := range []string{"zebra", "alpha", "mango"} {
		_, err := h.CreateResource(ctx, "cat", &domain.CreateResourceRequest{Name: name})
		require.NoError(t, err)
	}

	list, err := h.ListResources(ctx, "cat")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mango", list[1].Name)
	assert.Equal(t, "zebra", list[2].Name)

	// Catalogs are isolated from each other.
	other, err := h.ListResources(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryHandler_ListResourceAuditItem(t *testing.T) {
	h := NewMemoryHandler()
	ctx := context.Background()

	_, err := h.CreateResource(ctx, "cat", &domain.CreateResourceRequest{
		Name:   "orders",
		Params: map[string]interface{}{"owner": "data-eng", "rows": 42},
	})
	require.NoError(t, err)

	items, err := h.ListResourceAuditItem(ctx, "cat")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "orders", items[0].Name)
	// Only string params become audit values.
	assert.Equal(t, map[string]string{"owner": "data-eng"}, items[0].Values)
}

func TestHandlerRegistry(t *testing.T) {
	mem := NewMemoryHandler()
	reg := HandlerRegistry{"memory": mem}

	h, ok := reg.Handler("memory")
	require.True(t, ok)
	assert.Same(t, mem, h)

	_, ok = reg.Handler("nope")
	assert.False(t, ok)
}
