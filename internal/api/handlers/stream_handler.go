package handlers

import (
	"net/http"
	"time"

	"clipdeck/internal/engine/access"
	"clipdeck/internal/engine/delivery"
	"clipdeck/internal/engine/videos"
	"clipdeck/internal/pkg/errors"
	"clipdeck/internal/platform/storage"
)

type StreamHandler struct {
	store     storage.ObjectStore
	signedTTL time.Duration
}

func NewStreamHandler(store storage.ObjectStore, signedTTL time.Duration) *StreamHandler {
	return &StreamHandler{store: store, signedTTL: signedTTL}
}

// Stream proxies the video bytes, honoring Range requests.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionContent)
	if !ok {
		return
	}

	tenantCtx := tenantFrom(r)
	service := delivery.NewService(h.store, videos.NewRepository(tenantCtx.DB), h.signedTTL)
	if err := service.Stream(r.Context(), w, r, video); err != nil {
		// Stream only fails before any body bytes are written.
		errors.WriteDomainError(w, err)
	}
}

// SignedURL hands out a short-lived direct object URL instead of proxying.
func (h *StreamHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	video, ok := LoadVideo(w, r, access.ActionContent)
	if !ok {
		return
	}

	tenantCtx := tenantFrom(r)
	service := delivery.NewService(h.store, videos.NewRepository(tenantCtx.DB), h.signedTTL)
	url, ttl, err := service.SignedURL(r.Context(), video)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		URL       string `json:"url"`
		ExpiresAt int64  `json:"expires_at"`
	}{url, time.Now().Add(ttl).Unix()})
}
