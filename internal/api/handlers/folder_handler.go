package handlers

import (
	"encoding/json"
	"net/http"

	"clipdeck/internal/engine/access"
	"clipdeck/internal/engine/folders"
	"clipdeck/internal/engine/videos"
	"clipdeck/internal/engine/workspaces"
	"clipdeck/internal/pkg/errors"
)

type FolderHandler struct{}

func NewFolderHandler() *FolderHandler {
	return &FolderHandler{}
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantCtx := tenantFrom(r)
	claims := claimsFrom(r)

	var req struct {
		Name           string  `json:"name"`
		WorkspaceID    string  `json:"workspace_id"`
		ParentFolderID *string `json:"parent_folder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.WorkspaceID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if !h.gateWorkspace(w, r, req.WorkspaceID, access.ActionContent) {
		return
	}

	service := folders.NewService(folders.NewRepository(tenantCtx.DB))
	folder, err := service.Create(req.Name, req.WorkspaceID, claims.UserID, req.ParentFolderID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// Get returns the folder with its direct children and videos.
func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantCtx := tenantFrom(r)

	service := folders.NewService(folders.NewRepository(tenantCtx.DB))
	folder, err := service.Get(paramsFrom(r).ByName("folder_id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	if !h.gateWorkspace(w, r, folder.WorkspaceID, access.ActionRead) {
		return
	}

	children, err := service.ListChildren(folder.ID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	folderVideos, err := videos.NewRepository(tenantCtx.DB).ListByFolder(folder.WorkspaceID, folder.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list videos", nil)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Folder   *folders.Folder   `json:"folder"`
		Children []*folders.Folder `json:"children"`
		Videos   []*videos.Video   `json:"videos"`
	}{folder, children, folderVideos})
}

// ListRoot returns a workspace's top level folders and unfiled videos.
func (h *FolderHandler) ListRoot(w http.ResponseWriter, r *http.Request) {
	tenantCtx := tenantFrom(r)
	workspaceID := paramsFrom(r).ByName("workspace_id")

	if !h.gateWorkspace(w, r, workspaceID, access.ActionRead) {
		return
	}

	service := folders.NewService(folders.NewRepository(tenantCtx.DB))
	roots, err := service.ListRoot(workspaceID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	rootVideos, err := videos.NewRepository(tenantCtx.DB).ListByFolder(workspaceID, "")
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list videos", nil)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Folders []*folders.Folder `json:"folders"`
		Videos  []*videos.Video   `json:"videos"`
	}{roots, rootVideos})
}

func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	tenantCtx := tenantFrom(r)

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	service := folders.NewService(folders.NewRepository(tenantCtx.DB))
	folder, err := service.Get(paramsFrom(r).ByName("folder_id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	if !h.gateWorkspace(w, r, folder.WorkspaceID, access.ActionRename) {
		return
	}

	updated, err := service.Rename(folder.ID, req.Name)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *FolderHandler) Move(w http.ResponseWriter, r *http.Request) {
	tenantCtx := tenantFrom(r)

	var req struct {
		ParentFolderID *string `json:"parent_folder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	service := folders.NewService(folders.NewRepository(tenantCtx.DB))
	folder, err := service.Get(paramsFrom(r).ByName("folder_id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	if !h.gateWorkspace(w, r, folder.WorkspaceID, access.ActionRename) {
		return
	}

	updated, err := service.Move(folder.ID, req.ParentFolderID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes the folder and its whole subtree; contained videos move to
// the workspace root rather than being destroyed.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantCtx := tenantFrom(r)

	service := folders.NewService(folders.NewRepository(tenantCtx.DB))
	folder, err := service.Get(paramsFrom(r).ByName("folder_id"))
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	if !h.gateWorkspace(w, r, folder.WorkspaceID, access.ActionDelete) {
		return
	}

	if err := service.DeleteCascade(folder.ID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) gateWorkspace(w http.ResponseWriter, r *http.Request, workspaceID string, action access.Action) bool {
	tenantCtx := tenantFrom(r)
	wsRepo := workspaces.NewRepository(tenantCtx.DB)

	ws, err := wsRepo.GetByID(workspaceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load workspace", nil)
		return false
	}
	if ws == nil {
		errors.WriteDomainError(w, errors.NotFound("workspace-not-found"))
		return false
	}

	identity, err := identityFrom(r, wsRepo)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load memberships", nil)
		return false
	}

	decision := access.Evaluate(identity, access.Resource{
		Kind:        access.KindFolder,
		WorkspaceID: ws.ID,
		OwnerID:     ws.OwnerID,
		Members:     accessMembers(ws.Members),
	}, action)
	if !decision.Allowed {
		errors.WriteDomainError(w, errors.AccessDenied(decision.Reason))
		return false
	}
	return true
}
