package sharelinks

import (
	"time"

	"github.com/google/uuid"

	"clipdeck/internal/pkg/errors"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	VideoID       string
	ClientGroupID string
	IssuedBy      string
	ExpiresAt     *int64
	RequireEmail  bool
}

func (s *Service) Create(in CreateInput) (*ShareLink, error) {
	now := time.Now().Unix()
	if in.ExpiresAt != nil && *in.ExpiresAt <= now {
		return nil, errors.InvalidState("expiry-in-the-past")
	}

	token, err := GenerateToken(s.repo)
	if err != nil {
		return nil, errors.Upstream("share-link-create", err)
	}

	link := &ShareLink{
		ID:            uuid.New().String(),
		VideoID:       in.VideoID,
		ClientGroupID: in.ClientGroupID,
		IssuedBy:      in.IssuedBy,
		Token:         token,
		ExpiresAt:     in.ExpiresAt,
		RequireEmail:  in.RequireEmail,
		CreatedAt:     now,
	}
	if err := s.repo.Create(link); err != nil {
		return nil, errors.Upstream("share-link-create", err)
	}
	return link, nil
}

// Resolve looks up a token and enforces expiry at read time. Expired links
// are refused even before the purge worker reaps the row.
func (s *Service) Resolve(token string) (*ShareLink, error) {
	link, err := s.repo.GetByToken(token)
	if err != nil {
		return nil, errors.Upstream("share-link-resolve", err)
	}
	if link == nil {
		return nil, errors.NotFound("share-link-not-found")
	}
	if link.Expired(time.Now().Unix()) {
		return nil, errors.AccessDenied("share-link-expired")
	}
	return link, nil
}

func (s *Service) ListByVideo(videoID string) ([]*ShareLink, error) {
	links, err := s.repo.ListByVideo(videoID)
	if err != nil {
		return nil, errors.Upstream("share-link-list", err)
	}
	return links, nil
}

func (s *Service) Revoke(id string) error {
	n, err := s.repo.Delete(id)
	if err != nil {
		return errors.Upstream("share-link-revoke", err)
	}
	if n == 0 {
		return errors.NotFound("share-link-not-found")
	}
	return nil
}
