package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"govhub/internal/domain"
)

type createResourceBody struct {
	Name             string                 `json:"name"`
	Params           map[string]interface{} `json:"params"`
	ParentResourceID *string                `json:"parentResourceId"`
	OwnerGroupID     *string                `json:"ownerGroupId"`
}

func (h *Handler) createResource(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body createResourceBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	info, err := h.resources.Create(r.Context(), domain.CreateResourceRequest{
		CatalogID:        chi.URLParam(r, "catalogID"),
		ResourceTypeID:   chi.URLParam(r, "resourceTypeID"),
		Name:             body.Name,
		Params:           body.Params,
		ParentResourceID: body.ParentResourceID,
		OwnerGroupID:     body.OwnerGroupID,
	}, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resourceInfoToAPI(info))
}

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	infos, err := h.resources.List(r.Context(), chi.URLParam(r, "catalogID"), chi.URLParam(r, "resourceTypeID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]resourceInfoDTO, 0, len(infos))
	for i := range infos {
		out = append(out, resourceInfoToAPI(&infos[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getResource(w http.ResponseWriter, r *http.Request) {
	info, err := h.resources.Get(r.Context(),
		chi.URLParam(r, "catalogID"), chi.URLParam(r, "resourceTypeID"), chi.URLParam(r, "resourceID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceInfoToAPI(info))
}

type updateResourceBody struct {
	Params  map[string]interface{} `json:"params"`
	Comment string                 `json:"comment"`
}

// updateResource submits an approval-gated parameter update. The response
// is the created approval request, not the resource: the update applies
// only once approved.
func (h *Handler) updateResource(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body updateResourceBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	request, err := h.resources.UpdateWithApproval(r.Context(),
		chi.URLParam(r, "catalogID"), chi.URLParam(r, "resourceTypeID"), chi.URLParam(r, "resourceID"),
		body.Params, p.UserID, body.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, approvalRequestToAPI(request))
}

func (h *Handler) deleteResource(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	err := h.resources.Delete(r.Context(),
		chi.URLParam(r, "catalogID"), chi.URLParam(r, "resourceTypeID"), chi.URLParam(r, "resourceID"), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateApproverBody struct {
	ApproverGroupID *string `json:"approverGroupId"`
}

func (h *Handler) updateResourceApprover(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body updateApproverBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	info, err := h.resources.UpdateApprover(r.Context(),
		chi.URLParam(r, "catalogID"), chi.URLParam(r, "resourceTypeID"), chi.URLParam(r, "resourceID"),
		body.ApproverGroupID, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceInfoToAPI(info))
}

type updateOwnerBody struct {
	OwnerGroupID *string `json:"ownerGroupId"`
}

func (h *Handler) updateResourceOwner(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body updateOwnerBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	info, err := h.resources.UpdateOwner(r.Context(),
		chi.URLParam(r, "catalogID"), chi.URLParam(r, "resourceTypeID"), chi.URLParam(r, "resourceID"),
		body.OwnerGroupID, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceInfoToAPI(info))
}

// === Audit notifications ===

type auditNotificationBody struct {
	NotificationTypeID string            `json:"notificationTypeId"`
	ChannelProperties  map[string]string `json:"channelProperties"`
	CronExpression     string            `json:"cronExpression"`
}

func (h *Handler) createAuditNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body auditNotificationBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	info, err := h.audits.Create(r.Context(), domain.CreateAuditNotificationRequest{
		CatalogID:          chi.URLParam(r, "catalogID"),
		ResourceTypeID:     chi.URLParam(r, "resourceTypeID"),
		ResourceID:         chi.URLParam(r, "resourceID"),
		NotificationTypeID: body.NotificationTypeID,
		ChannelProperties:  body.ChannelProperties,
		CronExpression:     body.CronExpression,
	}, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resourceInfoToAPI(info))
}

func (h *Handler) updateAuditNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body auditNotificationBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	info, err := h.audits.Update(r.Context(), domain.UpdateAuditNotificationRequest{
		CatalogID:          chi.URLParam(r, "catalogID"),
		ResourceTypeID:     chi.URLParam(r, "resourceTypeID"),
		ResourceID:         chi.URLParam(r, "resourceID"),
		BindingID:          chi.URLParam(r, "bindingID"),
		NotificationTypeID: body.NotificationTypeID,
		ChannelProperties:  body.ChannelProperties,
		CronExpression:     body.CronExpression,
	}, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceInfoToAPI(info))
}

func (h *Handler) deleteAuditNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	info, err := h.audits.Delete(r.Context(),
		chi.URLParam(r, "catalogID"), chi.URLParam(r, "resourceTypeID"), chi.URLParam(r, "resourceID"),
		chi.URLParam(r, "bindingID"), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourceInfoToAPI(info))
}
