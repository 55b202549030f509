package workspaces

import (
	"database/sql"
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

func (s *Service) Create(name, description, ownerID, ownerEmail, clientGroupID string) (*Workspace, error) {
	now := time.Now().Unix()
	ws := &Workspace{
		ID:            uuid.New().String(),
		Name:          name,
		Description:   description,
		OwnerID:       ownerID,
		ClientGroupID: clientGroupID,
		Members: []Member{{
			UserID:   ownerID,
			Role:     "owner",
			Email:    ownerEmail,
			JoinedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.repo.BeginTx()
	if err != nil {
		return nil, errors.Upstream("workspace-create", err)
	}
	defer tx.Rollback()

	if err := s.repo.CreateTx(tx, ws); err != nil {
		return nil, errors.Upstream("workspace-create", err)
	}
	if err := s.checkOwnerInvariant(tx, ws.ID, ws.OwnerID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Upstream("workspace-create", err)
	}
	return ws, nil
}

func (s *Service) Get(id string) (*Workspace, error) {
	ws, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.Upstream("workspace-get", err)
	}
	if ws == nil {
		return nil, errors.NotFound("workspace-not-found")
	}
	return ws, nil
}

func (s *Service) UpdateSettings(workspaceID string, settings Settings) (*Workspace, error) {
	ws, err := s.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSettings(workspaceID, settings); err != nil {
		return nil, errors.Upstream("workspace-update", err)
	}
	ws.Settings = settings
	return ws, nil
}

func (s *Service) AddMember(workspaceID, userID, role, email string) (*Workspace, error) {
	ws, err := s.Get(workspaceID)
	if err != nil {
		return nil, err
	}

	// The owner role exists exactly once, seeded at creation.
	if role == "owner" {
		return nil, errors.InvalidState("cannot-add-second-owner")
	}
	for _, m := range ws.Members {
		if m.UserID == userID || m.Email == email {
			return nil, errors.Conflict("already-a-member")
		}
	}

	tx, err := s.repo.BeginTx()
	if err != nil {
		return nil, errors.Upstream("member-add", err)
	}
	defer tx.Rollback()

	member := &Member{UserID: userID, Role: role, Email: email, JoinedAt: time.Now().Unix()}
	if err := s.repo.AddMemberTx(tx, workspaceID, member); err != nil {
		return nil, errors.Upstream("member-add", err)
	}
	if err := s.finishMemberMutation(tx, ws); err != nil {
		return nil, err
	}
	return s.Get(workspaceID)
}

func (s *Service) RemoveMember(workspaceID, userID string) (*Workspace, error) {
	ws, err := s.Get(workspaceID)
	if err != nil {
		return nil, err
	}

	target, ok := findMember(ws.Members, userID)
	if !ok {
		return nil, errors.NotFound("member-not-found")
	}
	if target.Role == "owner" {
		return nil, errors.AccessDenied("cannot-modify-owner")
	}

	tx, err := s.repo.BeginTx()
	if err != nil {
		return nil, errors.Upstream("member-remove", err)
	}
	defer tx.Rollback()

	affected, err := s.repo.RemoveMemberTx(tx, workspaceID, userID)
	if err != nil {
		return nil, errors.Upstream("member-remove", err)
	}
	if affected == 0 {
		return nil, errors.NotFound("member-not-found")
	}
	if err := s.finishMemberMutation(tx, ws); err != nil {
		return nil, err
	}
	return s.Get(workspaceID)
}

func (s *Service) UpdateMemberRole(workspaceID, userID, role string) (*Workspace, error) {
	if role != "admin" && role != "member" {
		return nil, errors.InvalidState("invalid-role")
	}

	ws, err := s.Get(workspaceID)
	if err != nil {
		return nil, err
	}

	target, ok := findMember(ws.Members, userID)
	if !ok {
		return nil, errors.NotFound("member-not-found")
	}
	if target.Role == "owner" {
		return nil, errors.AccessDenied("cannot-modify-owner")
	}

	tx, err := s.repo.BeginTx()
	if err != nil {
		return nil, errors.Upstream("member-role", err)
	}
	defer tx.Rollback()

	if _, err := s.repo.UpdateMemberRoleTx(tx, workspaceID, userID, role); err != nil {
		return nil, errors.Upstream("member-role", err)
	}
	if err := s.finishMemberMutation(tx, ws); err != nil {
		return nil, err
	}
	return s.Get(workspaceID)
}

func (s *Service) Delete(workspaceID string) error {
	tx, err := s.repo.BeginTx()
	if err != nil {
		return errors.Upstream("workspace-delete", err)
	}
	defer tx.Rollback()

	if err := s.repo.DeleteTx(tx, workspaceID); err != nil {
		return errors.Upstream("workspace-delete", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Upstream("workspace-delete", err)
	}
	return nil
}

// finishMemberMutation verifies the owner invariant against the pending
// transaction state and commits. Any violation rolls the whole mutation back.
func (s *Service) finishMemberMutation(tx *sql.Tx, ws *Workspace) error {
	if err := s.checkOwnerInvariant(tx, ws.ID, ws.OwnerID); err != nil {
		return err
	}
	if err := s.repo.TouchTx(tx, ws.ID); err != nil {
		return errors.Upstream("member-mutation", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Upstream("member-mutation", err)
	}
	return nil
}

func (s *Service) checkOwnerInvariant(tx *sql.Tx, workspaceID, ownerID string) error {
	total, matching, err := s.repo.CountOwnersTx(tx, workspaceID, ownerID)
	if err != nil {
		return errors.Upstream("owner-invariant", err)
	}
	if total != 1 || matching != 1 {
		return errors.InvalidState("owner-invariant-violated")
	}
	return nil
}

func findMember(members []Member, userID string) (Member, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}
