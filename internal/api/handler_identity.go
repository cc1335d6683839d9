package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"govhub/internal/domain"
)

// === Users ===

type createUserBody struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body createUserBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	user, err := h.users.Create(r.Context(), domain.CreateUserRequest{
		Name:  body.Name,
		Email: body.Email,
		Roles: body.Roles,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToAPI(user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, userToAPI(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToAPI(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Groups ===

type createGroupBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body createGroupBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	group, err := h.groups.Create(r.Context(), domain.CreateGroupRequest{
		Name:        body.Name,
		Description: body.Description,
	}, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupToAPI(group))
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]groupDTO, 0, len(groups))
	for i := range groups {
		out = append(out, groupToAPI(&groups[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetByID(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToAPI(group))
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.groups.Delete(r.Context(), chi.URLParam(r, "groupID"), p.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberBody struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (h *Handler) addGroupMember(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body addMemberBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	err := h.groups.AddMember(r.Context(), domain.AddGroupMemberRequest{
		GroupID: chi.URLParam(r, "groupID"),
		UserID:  body.UserID,
		Role:    body.Role,
	}, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGroupMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.groups.ListMembers(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]groupMemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, groupMemberToAPI(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) removeGroupMember(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	err := h.groups.RemoveMember(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addGroupNotificationBody struct {
	Purpose    string            `json:"purpose"`
	TypeID     string            `json:"typeId"`
	Properties map[string]string `json:"properties"`
}

func (h *Handler) addGroupNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var body addGroupNotificationBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	n, err := h.groups.AddNotification(r.Context(), chi.URLParam(r, "groupID"), domain.GroupNotification{
		Purpose:    body.Purpose,
		TypeID:     body.TypeID,
		Properties: body.Properties,
	}, p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupNotificationDTO{
		ID: n.ID, Purpose: n.Purpose, TypeID: n.TypeID, Properties: n.Properties,
	})
}

func (h *Handler) removeGroupNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	err := h.groups.RemoveNotification(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "notificationID"), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
