package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govhub/internal/domain"
)

type submitApprovalBody struct {
	ApprovalFlowID     string                 `json:"approvalFlowId"`
	Comment            string                 `json:"comment"`
	InputParams        map[string]interface{} `json:"inputParams"`
	InputResources     []inputResourceDTO     `json:"inputResources"`
	AutoRevokeDuration *string                `json:"autoRevokeDuration"`
}

func (h *Handler) submitApprovalRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body submitApprovalBody
	if !h.decodeJSON(w, r, &body) {
		return
	}

	req := domain.SubmitApprovalRequest{
		CatalogID:      chi.URLParam(r, "catalogID"),
		ApprovalFlowID: body.ApprovalFlowID,
		RequestUserID:  p.UserID,
		RequestComment: body.Comment,
		InputParams:    body.InputParams,
	}
	for _, in := range body.InputResources {
		req.InputResources = append(req.InputResources, domain.InputResource{
			ResourceTypeID: in.ResourceTypeID,
			ResourceID:     in.ResourceID,
		})
	}
	if body.AutoRevokeDuration != nil {
		d, err := time.ParseDuration(*body.AutoRevokeDuration)
		if err != nil {
			h.writeError(w, r, domain.ErrValidation("invalid autoRevokeDuration: %v", err))
			return
		}
		req.AutoRevokeDuration = &d
	}

	request, err := h.approvals.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, approvalRequestToAPI(request))
}

func (h *Handler) listApprovalRequests(w http.ResponseWriter, r *http.Request) {
	filter := domain.ApprovalRequestFilter{CatalogID: chi.URLParam(r, "catalogID")}
	q := r.URL.Query()
	if v := q.Get("approvalFlowId"); v != "" {
		filter.ApprovalFlowID = &v
	}
	if v := q.Get("requestUserId"); v != "" {
		filter.RequestUserID = &v
	}
	if v := q.Get("approverGroupId"); v != "" {
		filter.ApproverGroupID = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}

	requests, err := h.approvals.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]approvalRequestDTO, 0, len(requests))
	for i := range requests {
		out = append(out, approvalRequestToAPI(&requests[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getApprovalRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.approvals.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approvalRequestToAPI(request))
}

func (h *Handler) approveRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.approvals.Approve)
}

func (h *Handler) rejectRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.approvals.Reject)
}

func (h *Handler) revokeRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.approvals.Revoke)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, requestID, userID string) (*domain.ApprovalRequest, error)) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	request, err := op(r.Context(), chi.URLParam(r, "requestID"), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approvalRequestToAPI(request))
}
