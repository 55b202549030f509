package handlers

import (
	"encoding/json"
	"net/http"

	"clipdeck/internal/engine/access"
	"clipdeck/internal/engine/workspaces"
	"clipdeck/internal/pkg/errors"
)

// WorkspaceHandler resolves its repositories per request from the tenant
// context; it carries no state of its own.
type WorkspaceHandler struct{}

func NewWorkspaceHandler() *WorkspaceHandler {
	return &WorkspaceHandler{}
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantCtx := tenantFrom(r)
	claims := claimsFrom(r)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	service := workspaces.NewService(workspaces.NewRepository(tenantCtx.DB))
	ws, err := service.Create(req.Name, req.Description, claims.UserID, claims.Email, tenantCtx.ClientGroupID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ws)
}

func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.load(w, r, access.ActionRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *WorkspaceHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ws, service, ok := h.load(w, r, access.ActionChangeSettings)
	if !ok {
		return
	}

	var req workspaces.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	updated, err := service.UpdateSettings(ws.ID, req)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ws, service, ok := h.load(w, r, access.ActionDeleteWorkspace)
	if !ok {
		return
	}

	if err := service.Delete(ws.ID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkspaceHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	ws, service, ok := h.load(w, r, access.ActionAddMember)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
		Email  string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	updated, err := service.AddMember(ws.ID, req.UserID, req.Role, req.Email)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ws, service, ok := h.loadForMemberTarget(w, r, access.ActionRemoveMember)
	if !ok {
		return
	}

	userID := paramsFrom(r).ByName("user_id")
	updated, err := service.RemoveMember(ws.ID, userID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *WorkspaceHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	ws, service, ok := h.loadForMemberTarget(w, r, access.ActionUpdateMemberRole)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	userID := paramsFrom(r).ByName("user_id")
	updated, err := service.UpdateMemberRole(ws.ID, userID, req.Role)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// load fetches the workspace from the path parameter and gates the given
// action through the evaluator.
func (h *WorkspaceHandler) load(w http.ResponseWriter, r *http.Request, action access.Action) (*workspaces.Workspace, *workspaces.Service, bool) {
	return h.loadWith(w, r, action, "")
}

// loadForMemberTarget additionally resolves the target member's role so the
// evaluator can protect the workspace owner.
func (h *WorkspaceHandler) loadForMemberTarget(w http.ResponseWriter, r *http.Request, action access.Action) (*workspaces.Workspace, *workspaces.Service, bool) {
	return h.loadWith(w, r, action, paramsFrom(r).ByName("user_id"))
}

func (h *WorkspaceHandler) loadWith(w http.ResponseWriter, r *http.Request, action access.Action, targetUserID string) (*workspaces.Workspace, *workspaces.Service, bool) {
	tenantCtx := tenantFrom(r)
	repo := workspaces.NewRepository(tenantCtx.DB)
	service := workspaces.NewService(repo)

	workspaceID := paramsFrom(r).ByName("workspace_id")
	ws, err := service.Get(workspaceID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return nil, nil, false
	}

	identity, err := identityFrom(r, repo)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load memberships", nil)
		return nil, nil, false
	}

	res := access.Resource{
		Kind:        access.KindWorkspace,
		ID:          ws.ID,
		WorkspaceID: ws.ID,
		OwnerID:     ws.OwnerID,
		Members:     accessMembers(ws.Members),
	}
	if targetUserID != "" {
		for _, m := range ws.Members {
			if m.UserID == targetUserID {
				res.TargetMemberRole = m.Role
				break
			}
		}
	}

	if decision := access.Evaluate(identity, res, action); !decision.Allowed {
		errors.WriteDomainError(w, errors.AccessDenied(decision.Reason))
		return nil, nil, false
	}
	return ws, service, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
