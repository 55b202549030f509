package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"clipdeck/internal/engine/videos"
	"clipdeck/internal/pkg/errors"
	"clipdeck/internal/platform/storage"
)

type Service struct {
	store     storage.ObjectStore
	videos    *videos.Repository
	signedTTL time.Duration
}

func NewService(store storage.ObjectStore, videoRepo *videos.Repository, signedTTL time.Duration) *Service {
	if signedTTL <= 0 {
		signedTTL = time.Hour
	}
	return &Service{store: store, videos: videoRepo, signedTTL: signedTTL}
}

// Stream writes the video bytes to w, honoring a single-range Range header
// with a 206 partial response. Each streamed request bumps the video's raw
// view counter off the request path.
func (s *Service) Stream(ctx context.Context, w http.ResponseWriter, r *http.Request, video *videos.Video) error {
	if video.Status != videos.StatusReady {
		return errors.InvalidState("video-not-ready")
	}

	info, err := s.store.Stat(ctx, video.ObjectKey)
	if err != nil {
		return errors.NotFound("object-not-found")
	}

	br, err := ParseRange(r.Header.Get("Range"), info.Size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", info.Size))
		return err
	}

	offset, length := int64(0), int64(-1)
	if br != nil {
		offset, length = br.Start, br.Length()
	}

	body, err := s.store.Get(ctx, video.ObjectKey, offset, length)
	if err != nil {
		return errors.Upstream("stream-open", err)
	}
	defer body.Close()

	contentType := video.MimeType
	if contentType == "" {
		contentType = info.ContentType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)
	if br != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, info.Size))
		w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
		w.WriteHeader(http.StatusOK)
	}

	go func(id string) {
		if err := s.videos.IncrementViews(id); err != nil {
			log.Warn().Err(err).Str("video_id", id).Msg("Failed to increment view counter")
		}
	}(video.ID)

	if _, err := io.Copy(w, body); err != nil {
		// The client usually hung up mid-stream; headers are already out.
		log.Debug().Err(err).Str("video_id", video.ID).Msg("Stream copy interrupted")
	}
	return nil
}

// SignedURL returns a short-lived direct retrieval URL for the video's
// object. Backends without signing support report an invalid state so
// callers can fall back to proxied streaming.
func (s *Service) SignedURL(ctx context.Context, video *videos.Video) (string, time.Duration, error) {
	if video.Status != videos.StatusReady {
		return "", 0, errors.InvalidState("video-not-ready")
	}

	url, err := s.store.SignedURL(ctx, video.ObjectKey, s.signedTTL)
	if err != nil {
		if err == storage.ErrSigningUnsupported {
			return "", 0, errors.InvalidState("signing-unsupported")
		}
		return "", 0, errors.Upstream("signed-url", err)
	}
	return url, s.signedTTL, nil
}
