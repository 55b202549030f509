package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"clipdeck/internal/engine/access"
	"clipdeck/internal/engine/folders"
	"clipdeck/internal/engine/videos"
	"clipdeck/internal/engine/workspaces"
	"clipdeck/internal/pkg/errors"
	"clipdeck/internal/platform/storage"
)

const maxUploadBytes = 4 << 30

type VideoHandler struct {
	store storage.ObjectStore
}

func NewVideoHandler(store storage.ObjectStore) *VideoHandler {
	return &VideoHandler{store: store}
}

func (h *VideoHandler) service(r *http.Request) *videos.Service {
	tenantCtx := tenantFrom(r)
	return videos.NewService(
		videos.NewRepository(tenantCtx.DB),
		folders.NewRepository(tenantCtx.DB),
		h.store,
	)
}

// Upload accepts a multipart form with a "file" part plus metadata fields.
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Expected multipart upload", nil)
		return
	}

	in := videos.UploadInput{UploadedBy: claims.UserID}
	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}
		switch part.FormName() {
		case "title":
			in.Title = formValue(part)
		case "description":
			in.Description = formValue(part)
		case "workspace_id":
			in.WorkspaceID = formValue(part)
		case "folder_id":
			if v := formValue(part); v != "" {
				in.FolderID = &v
			}
		case "duration":
			in.Duration, _ = strconv.ParseFloat(formValue(part), 64)
		case "file":
			in.MimeType = part.Header.Get("Content-Type")
			in.Size = -1
			in.Body = part

			if in.WorkspaceID == "" || in.Title == "" {
				errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Metadata fields must precede the file part", nil)
				return
			}
			if !gateWorkspaceAction(w, r, in.WorkspaceID, access.ActionContent) {
				return
			}

			video, err := h.service(r).Upload(r.Context(), in)
			if err != nil {
				errors.WriteDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, video)
			return
		}
	}

	errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing file part", nil)
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *VideoHandler) ListByWorkspace(w http.ResponseWriter, r *http.Request) {
	tenantCtx := tenantFrom(r)
	workspaceID := paramsFrom(r).ByName("workspace_id")

	if !gateWorkspaceAction(w, r, workspaceID, access.ActionRead) {
		return
	}

	list, err := videos.NewRepository(tenantCtx.DB).ListByWorkspace(workspaceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list videos", nil)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionRename)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	service := h.service(r)
	if err := service.UpdateMeta(video.ID, req.Title, req.Description); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	updated, err := service.Get(video.ID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *VideoHandler) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionChangeSettings)
	if !ok {
		return
	}

	var req struct {
		Access       string              `json:"access"`
		AllowedUsers videos.AllowedUsers `json:"allowed_users"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	service := h.service(r)
	if err := service.UpdateAccess(video.ID, req.Access, req.AllowedUsers); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	updated, err := service.Get(video.ID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *VideoHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionChangeSettings)
	if !ok {
		return
	}

	var req videos.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	service := h.service(r)
	if err := service.UpdateSettings(video.ID, &req); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	updated, err := service.Get(video.ID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *VideoHandler) Move(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionRename)
	if !ok {
		return
	}

	var req struct {
		FolderID *string `json:"folder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	service := h.service(r)
	if err := service.MoveToFolder(video, req.FolderID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	updated, err := service.Get(video.ID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionDelete)
	if !ok {
		return
	}

	if err := h.service(r).Delete(r.Context(), video); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func formValue(part io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(part, 4096))
	return string(data)
}

// LoadVideo fetches the video named by the video_id path parameter and
// gates the action through the evaluator, using the video's workspace
// member list when one exists. Shared with the stream and analytics
// handlers.
func LoadVideo(w http.ResponseWriter, r *http.Request, action access.Action) (*videos.Video, bool) {
	tenantCtx := tenantFrom(r)
	videoID := paramsFrom(r).ByName("video_id")

	video, err := videos.NewRepository(tenantCtx.DB).GetByID(videoID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load video", nil)
		return nil, false
	}
	if video == nil {
		errors.WriteDomainError(w, errors.NotFound("video-not-found"))
		return nil, false
	}

	if !gateVideoAction(w, r, video, action) {
		return nil, false
	}
	return video, true
}

func gateVideoAction(w http.ResponseWriter, r *http.Request, video *videos.Video, action access.Action) bool {
	tenantCtx := tenantFrom(r)
	wsRepo := workspaces.NewRepository(tenantCtx.DB)

	res := access.Resource{
		Kind:        access.KindVideo,
		ID:          video.ID,
		WorkspaceID: video.WorkspaceID,
		OwnerID:     video.UploadedBy,
		AccessMode:  video.Access,
	}
	for _, a := range video.AllowedUsers {
		res.AllowedUsers = append(res.AllowedUsers, access.AllowedUser{UserID: a.UserID, Email: a.Email})
	}
	if video.WorkspaceID != "" {
		members, err := wsRepo.ListMembers(video.WorkspaceID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load workspace", nil)
			return false
		}
		res.Members = accessMembers(members)
	}

	identity, err := identityFrom(r, wsRepo)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load memberships", nil)
		return false
	}

	if decision := access.Evaluate(identity, res, action); !decision.Allowed {
		errors.WriteDomainError(w, errors.AccessDenied(decision.Reason))
		return false
	}
	return true
}

func gateWorkspaceAction(w http.ResponseWriter, r *http.Request, workspaceID string, action access.Action) bool {
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
		Kind:        access.KindWorkspace,
		ID:          ws.ID,
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
