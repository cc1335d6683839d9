package resource

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"govhub/internal/domain"
)

// HandlerRegistry maps handler keys to resource type handlers.
type HandlerRegistry map[string]domain.ResourceTypeHandler

var _ domain.ResourceTypeHandlerRegistry = HandlerRegistry{}

// Handler returns the handler registered under key.
func (r HandlerRegistry) Handler(key string) (domain.ResourceTypeHandler, bool) {
	h, ok := r[key]
	return h, ok
}

// MemoryHandler is an in-process resource type handler keeping resources
// in a mutex-guarded map per catalog. It backs resource types that have
// no external system, and doubles as the handler used in development.
type MemoryHandler struct {
	mu        sync.Mutex
	resources map[string]map[string]*domain.Resource // catalog id -> resource id
}

func NewMemoryHandler() *MemoryHandler {
	return &MemoryHandler{resources: make(map[string]map[string]*domain.Resource)}
}

var _ domain.ResourceTypeHandler = (*MemoryHandler)(nil)

func (h *MemoryHandler) catalog(catalogID string) map[string]*domain.Resource {
	c, ok := h.resources[catalogID]
	if !ok {
		c = make(map[string]*domain.Resource)
		h.resources[catalogID] = c
	}
	return c
}

func (h *MemoryHandler) CreateResource(ctx context.Context, catalogID string, req *domain.CreateResourceRequest) (*domain.Resource, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	res := &domain.Resource{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Params:           req.Params,
		ParentResourceID: req.ParentResourceID,
	}
	h.catalog(catalogID)[res.ID] = res
	return res, nil
}

func (h *MemoryHandler) GetResource(ctx context.Context, catalogID, resourceID string) (*domain.Resource, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	res, ok := h.catalog(catalogID)[resourceID]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (h *MemoryHandler) UpdateResource(ctx context.Context, catalogID, resourceID string, params map[string]interface{}) (*domain.Resource, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	res, ok := h.catalog(catalogID)[resourceID]
	if !ok {
		return nil, domain.ErrNotFound("resource %s not found", resourceID)
	}
	if res.Params == nil {
		res.Params = make(map[string]interface{})
	}
	for k, v := range params {
		res.Params[k] = v
	}
	cp := *res
	return &cp, nil
}

func (h *MemoryHandler) DeleteResource(ctx context.Context, catalogID, resourceID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.catalog(catalogID)
	if _, ok := c[resourceID]; !ok {
		return domain.ErrNotFound("resource %s not found", resourceID)
	}
	delete(c, resourceID)
	return nil
}

func (h *MemoryHandler) ListResources(ctx context.Context, catalogID string) ([]domain.Resource, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.catalog(catalogID)
	out := make([]domain.Resource, 0, len(c))
	for _, res := range c {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (h *MemoryHandler) ListResourceAuditItem(ctx context.Context, catalogID string) ([]domain.ResourceAuditItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.catalog(catalogID)
	out := make([]domain.ResourceAuditItem, 0, len(c))
	for _, res := range c {
		item := domain.ResourceAuditItem{ResourceID: res.ID, Name: res.Name, Values: map[string]string{}}
		for k, v := range res.Params {
			if s, ok := v.(string); ok {
				item.Values[k] = s
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
