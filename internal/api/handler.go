// Package api provides HTTP handlers for the governance hub REST API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govhub/internal/domain"
	"govhub/internal/service/approval"
	"govhub/internal/service/audit"
	"govhub/internal/service/identity"
	"govhub/internal/service/resource"
)

// Handler serves the REST API.
type Handler struct {
	users     *identity.UserService
	groups    *identity.GroupService
	catalogs  domain.CatalogRepository
	resources *resource.Service
	approvals *approval.Workflow
	audits    *audit.NotificationService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required service dependencies.
func NewHandler(
	users *identity.UserService,
	groups *identity.GroupService,
	catalogs domain.CatalogRepository,
	resources *resource.Service,
	approvals *approval.Workflow,
	audits *audit.NotificationService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		users:     users,
		groups:    groups,
		catalogs:  catalogs,
		resources: resources,
		approvals: approvals,
		audits:    audits,
		logger:    logger.With("component", "api"),
	}
}

// Routes mounts all API endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)
		r.Get("/{userID}", h.getUser)
		r.Delete("/{userID}", h.deleteUser)
	})

	r.Route("/groups", func(r chi.Router) {
		r.Post("/", h.createGroup)
		r.Get("/", h.listGroups)
		r.Get("/{groupID}", h.getGroup)
		r.Delete("/{groupID}", h.deleteGroup)
		r.Post("/{groupID}/members", h.addGroupMember)
		r.Get("/{groupID}/members", h.listGroupMembers)
		r.Delete("/{groupID}/members/{userID}", h.removeGroupMember)
		r.Post("/{groupID}/notifications", h.addGroupNotification)
		r.Delete("/{groupID}/notifications/{notificationID}", h.removeGroupNotification)
	})

	r.Route("/catalogs", func(r chi.Router) {
		r.Get("/", h.listCatalogs)
		r.Get("/{catalogID}", h.getCatalog)

		r.Route("/{catalogID}/resource-types/{resourceTypeID}/resources", func(r chi.Router) {
			r.Post("/", h.createResource)
			r.Get("/", h.listResources)
			r.Get("/{resourceID}", h.getResource)
			r.Patch("/{resourceID}", h.updateResource)
			r.Delete("/{resourceID}", h.deleteResource)
			r.Put("/{resourceID}/approver", h.updateResourceApprover)
			r.Put("/{resourceID}/owner", h.updateResourceOwner)
			r.Post("/{resourceID}/audit-notifications", h.createAuditNotification)
			r.Put("/{resourceID}/audit-notifications/{bindingID}", h.updateAuditNotification)
			r.Delete("/{resourceID}/audit-notifications/{bindingID}", h.deleteAuditNotification)
		})

		r.Route("/{catalogID}/approval-requests", func(r chi.Router) {
			r.Post("/", h.submitApprovalRequest)
			r.Get("/", h.listApprovalRequests)
		})
	})

	r.Route("/approval-requests/{requestID}", func(r chi.Router) {
		r.Get("/", h.getApprovalRequest)
		r.Post("/approve", h.approveRequest)
		r.Post("/reject", h.rejectRequest)
		r.Post("/revoke", h.revokeRequest)
	})

	return r
}

// principal returns the authenticated principal or writes a 401.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (domain.ContextPrincipal, bool) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: http.StatusUnauthorized, Message: "unauthorized"})
		return domain.ContextPrincipal{}, false
	}
	return p, true
}
