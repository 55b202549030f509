package videos

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"clipdeck/internal/engine/folders"
	"clipdeck/internal/pkg/errors"
	"clipdeck/internal/platform/storage"
)

// Access modes. These mirror the values the evaluator understands.
const (
	AccessPrivate   = "private"
	AccessWorkspace = "workspace"
	AccessPublic    = "public"
	AccessCustom    = "custom"
)

type Service struct {
	repo    *Repository
	folders *folders.Repository
	store   storage.ObjectStore
}

func NewService(repo *Repository, folderRepo *folders.Repository, store storage.ObjectStore) *Service {
	return &Service{repo: repo, folders: folderRepo, store: store}
}

type UploadInput struct {
	Title       string
	Description string
	WorkspaceID string
	FolderID    *string
	UploadedBy  string
	MimeType    string
	Duration    float64
	Size        int64
	Body        io.Reader
}

// Upload registers the video row and pushes the bytes to object storage.
// The row is visible as processing while the upload runs and flips to ready
// on success, so a half-written object is never streamable.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Video, error) {
	if in.Title == "" {
		return nil, errors.InvalidState("title-required")
	}
	if in.FolderID != nil {
		folder, err := s.folders.GetByID(*in.FolderID)
		if err != nil {
			return nil, errors.Upstream("video-upload", err)
		}
		if folder == nil || folder.WorkspaceID != in.WorkspaceID {
			return nil, errors.InvalidState("invalid-folder")
		}
	}

	now := time.Now().Unix()
	video := &Video{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Description: in.Description,
		WorkspaceID: in.WorkspaceID,
		FolderID:    in.FolderID,
		UploadedBy:  in.UploadedBy,
		MimeType:    in.MimeType,
		Duration:    in.Duration,
		Status:      StatusProcessing,
		Access:      AccessPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	video.ObjectKey = "videos/" + video.ID

	if err := s.repo.Create(video); err != nil {
		return nil, errors.Upstream("video-upload", err)
	}

	if err := s.store.Put(ctx, video.ObjectKey, in.Body, in.Size, in.MimeType); err != nil {
		if uerr := s.repo.UpdateStatus(video.ID, StatusError); uerr != nil {
			log.Error().Err(uerr).Str("video_id", video.ID).Msg("Failed to mark video errored")
		}
		return nil, errors.Upstream("video-upload", err)
	}

	if err := s.repo.UpdateStatus(video.ID, StatusReady); err != nil {
		return nil, errors.Upstream("video-upload", err)
	}
	video.Status = StatusReady
	return video, nil
}

func (s *Service) Get(id string) (*Video, error) {
	video, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.Upstream("video-get", err)
	}
	if video == nil {
		return nil, errors.NotFound("video-not-found")
	}
	return video, nil
}

func (s *Service) UpdateMeta(id, title, description string) error {
	if title == "" {
		return errors.InvalidState("title-required")
	}
	if err := s.repo.UpdateMeta(id, title, description); err != nil {
		return errors.Upstream("video-update", err)
	}
	return nil
}

func (s *Service) UpdateAccess(id, access string, allowed AllowedUsers) error {
	switch access {
	case AccessPrivate, AccessWorkspace, AccessPublic:
		allowed = nil
	case AccessCustom:
		if len(allowed) == 0 {
			return errors.InvalidState("custom-access-needs-allowed-users")
		}
	default:
		return errors.InvalidState("unknown-access-mode")
	}

	if err := s.repo.UpdateAccess(id, access, allowed); err != nil {
		return errors.Upstream("video-update", err)
	}
	return nil
}

func (s *Service) UpdateSettings(id string, settings *Settings) error {
	if err := s.repo.UpdateSettings(id, settings); err != nil {
		return errors.Upstream("video-update", err)
	}
	return nil
}

// MoveToFolder relocates a video; a nil folder id moves it to the
// workspace root.
func (s *Service) MoveToFolder(video *Video, folderID *string) error {
	if folderID != nil {
		folder, err := s.folders.GetByID(*folderID)
		if err != nil {
			return errors.Upstream("video-move", err)
		}
		if folder == nil || folder.WorkspaceID != video.WorkspaceID {
			return errors.InvalidState("invalid-folder")
		}
	}
	if err := s.repo.UpdateFolder(video.ID, folderID); err != nil {
		return errors.Upstream("video-move", err)
	}
	return nil
}

// Delete removes the row first so the video disappears immediately; the
// object removal is best effort and logged on failure.
func (s *Service) Delete(ctx context.Context, video *Video) error {
	if err := s.repo.Delete(video.ID); err != nil {
		return errors.Upstream("video-delete", err)
	}
	if err := s.store.Remove(ctx, video.ObjectKey); err != nil {
		log.Warn().Err(err).Str("video_id", video.ID).Msg("Failed to remove video object")
	}
	return nil
}
