package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"clipdeck/internal/engine/access"
	"clipdeck/internal/engine/analytics"
	"clipdeck/internal/engine/videos"
	"clipdeck/internal/pkg/errors"
)

type AnalyticsHandler struct{}

func NewAnalyticsHandler() *AnalyticsHandler {
	return &AnalyticsHandler{}
}

func (h *AnalyticsHandler) service(r *http.Request) *analytics.Service {
	tenantCtx := tenantFrom(r)
	return analytics.NewService(
		analytics.NewRepository(tenantCtx.DB),
		videos.NewRepository(tenantCtx.DB),
	)
}

// RecordView ingests a playback heartbeat. Viewers need content access to
// the video but nothing more; anonymous viewers of public videos report too.
func (h *AnalyticsHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionContent)
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
	ev.ViewerInfo = &analytics.ViewerInfo{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}

	if err := h.service(r).RecordViewEvent(video.ID, &ev); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *AnalyticsHandler) RecordQuarter(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionContent)
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

	if err := h.service(r).RecordQuarterEvent(video.ID, req.SessionID, req.Quarter, req.Position, userID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *AnalyticsHandler) RecordCta(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionContent)
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

	if err := h.service(r).RecordCtaClick(video.ID, req.SessionID, userID); err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetVideoAnalytics returns the aggregate, computed on read. Only callers
// with administrative access to the video see the numbers.
func (h *AnalyticsHandler) GetVideoAnalytics(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionRename)
	if !ok {
		return
	}

	agg, err := h.service(r).ComputeAggregate(video.ID)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
