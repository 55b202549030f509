package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"clipdeck/internal/engine/access"
	"clipdeck/internal/engine/analytics"
	"clipdeck/internal/engine/delivery"
	"clipdeck/internal/engine/sharelinks"
	"clipdeck/internal/engine/videos"
	"clipdeck/internal/pkg/errors"
	"clipdeck/internal/platform/database"
	"clipdeck/internal/platform/repositories"
	"clipdeck/internal/platform/storage"
)

// ShareHandler spans both planes: links live in the global database while
// the videos they point at live in per-group tenant databases. Anonymous
// resolution uses the link's client_group_id to find the right tenant.
type ShareHandler struct {
	shareSvc  *sharelinks.Service
	shareRepo *sharelinks.Repository
	groupRepo *repositories.ClientGroupRepository
	dbPool    *database.TenantDBPool
	store     storage.ObjectStore
	signedTTL time.Duration
}

func NewShareHandler(shareRepo *sharelinks.Repository, groupRepo *repositories.ClientGroupRepository, dbPool *database.TenantDBPool, store storage.ObjectStore, signedTTL time.Duration) *ShareHandler {
	return &ShareHandler{
		shareSvc:  sharelinks.NewService(shareRepo),
		shareRepo: shareRepo,
		groupRepo: groupRepo,
		dbPool:    dbPool,
		store:     store,
		signedTTL: signedTTL,
	}
}

func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionChangeSettings)
	if !ok {
		return
	}

	var req struct {
		ExpiresAt    *int64 `json:"expires_at"`
		RequireEmail bool   `json:"require_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	tenantCtx := tenantFrom(r)
	claims := claimsFrom(r)
	link, err := h.shareSvc.Create(sharelinks.CreateInput{
		VideoID:       video.ID,
		ClientGroupID: tenantCtx.ClientGroupID,
		IssuedBy:      claims.UserID,
		ExpiresAt:     req.ExpiresAt,
		RequireEmail:  req.RequireEmail,
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionChangeSettings)
	if !ok {
		return
	}

	links, err := h.shareSvc.ListByVideo(video.ID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionChangeSettings)
	if !ok {
		return
	}

	shareID := paramsFrom(r).ByName("share_id")
	link, err := h.shareRepo.GetByID(shareID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if link == nil || link.VideoID != video.ID {
		errors.WriteDomainError(w, errors.NotFound("share-link-not-found"))
		return
	}

	if err := h.shareSvc.Revoke(link.ID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SharedVideo is the anonymous-safe projection returned on resolution.
type SharedVideo struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	MimeType     string           `json:"mime_type,omitempty"`
	Duration     float64          `json:"duration,omitempty"`
	Settings     *videos.Settings `json:"settings,omitempty"`
	RequireEmail bool             `json:"require_email"`
}

func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	link, video, _, ok := h.resolve(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, SharedVideo{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		MimeType:     video.MimeType,
		Duration:     video.Duration,
		Settings:     video.Settings,
		RequireEmail: link.RequireEmail,
	})
}

func (h *ShareHandler) Stream(w http.ResponseWriter, r *http.Request) {
	_, video, db, ok := h.resolve(w, r)
	if !ok {
		return
	}

	service := delivery.NewService(h.store, videos.NewRepository(db), h.signedTTL)
	if err := service.Stream(r.Context(), w, r, video); err != nil {
		errors.WriteDomainError(w, err)
	}
}

// RecordView ingests playback heartbeats from share-link viewers. The
// bearer token is optional here; authenticated viewers get their user id
// attached to the session.
func (h *ShareHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	_, video, db, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var ev analytics.ViewEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if claims := claimsFrom(r); claims != nil {
		ev.UserID = claims.UserID
	}
	ev.ViewerInfo = &analytics.ViewerInfo{IP: clientIP(r), UserAgent: r.UserAgent(), Email: viewerEmail(r)}

	service := analytics.NewService(analytics.NewRepository(db), videos.NewRepository(db))
	if err := service.RecordViewEvent(video.ID, &ev); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *ShareHandler) RecordQuarter(w http.ResponseWriter, r *http.Request) {
	_, video, db, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req struct {
		SessionID string  `json:"session_id"`
		Quarter   int     `json:"quarter"`
		Position  float64 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	userID := ""
	if claims := claimsFrom(r); claims != nil {
		userID = claims.UserID
	}

	service := analytics.NewService(analytics.NewRepository(db), videos.NewRepository(db))
	if err := service.RecordQuarterEvent(video.ID, req.SessionID, req.Quarter, req.Position, userID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *ShareHandler) RecordCta(w http.ResponseWriter, r *http.Request) {
	_, video, db, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	userID := ""
	if claims := claimsFrom(r); claims != nil {
		userID = claims.UserID
	}

	service := analytics.NewService(analytics.NewRepository(db), videos.NewRepository(db))
	if err := service.RecordCtaClick(video.ID, req.SessionID, userID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// resolve validates the token, locates the owning client group and opens
// its tenant database. Unknown tokens, inactive groups and deleted videos
// are all indistinguishable to the anonymous caller.
func (h *ShareHandler) resolve(w http.ResponseWriter, r *http.Request) (*sharelinks.ShareLink, *videos.Video, *sql.DB, bool) {
	token := paramsFrom(r).ByName("token")

	link, err := h.shareSvc.Resolve(token)
	if err != nil {
		errors.WriteDomainError(w, err)
		return nil, nil, nil, false
	}

	group, err := h.groupRepo.GetByID(link.ClientGroupID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return nil, nil, nil, false
	}
	if group == nil || group.Status != "active" {
		errors.WriteDomainError(w, errors.NotFound("share-link-not-found"))
		return nil, nil, nil, false
	}

	if link.RequireEmail && viewerEmail(r) == "" {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Email required to view this video",
			map[string]bool{"require_email": true})
		return nil, nil, nil, false
	}

	db, err := h.dbPool.Get(group.ID, group.DBFilePath)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to connect to tenant database", nil)
		return nil, nil, nil, false
	}

	video, err := videos.NewRepository(db).GetByID(link.VideoID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return nil, nil, nil, false
	}
	if video == nil {
		errors.WriteDomainError(w, errors.NotFound("share-link-not-found"))
		return nil, nil, nil, false
	}

	return link, video, db, true
}

// viewerEmail is how an email-gated link is satisfied: either the viewer
// supplies ?email= or their bearer token already carries one.
func viewerEmail(r *http.Request) string {
	if email := r.URL.Query().Get("email"); email != "" {
		return email
	}
	if claims := claimsFrom(r); claims != nil {
		return claims.Email
	}
	return ""
}
