package folders

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipdeck/internal/pkg/errors"
)

// Structural mutations (move, cascade delete) are serialized per workspace so
// a concurrent move cannot re-parent a folder into a subtree that is being
// deleted. Services are constructed per request against the tenant DB, so the
// lock table lives at package level, keyed by workspace id.
var workspaceLocks sync.Map // map[string]*sync.Mutex

func lockWorkspace(workspaceID string) *sync.Mutex {
	val, _ := workspaceLocks.LoadOrStore(workspaceID, &sync.Mutex{})
	mu := val.(*sync.Mutex)
	mu.Lock()
	return mu
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(name, workspaceID, createdBy string, parentFolderID *string) (*Folder, error) {
	if name == "" {
		return nil, errors.InvalidState("folder-name-required")
	}

	parentPath := ""
	if parentFolderID != nil && *parentFolderID != "" {
		parent, err := s.repo.GetByID(*parentFolderID)
		if err != nil {
			return nil, errors.Upstream("folder-create", err)
		}
		if parent == nil || parent.WorkspaceID != workspaceID {
			return nil, errors.InvalidState("invalid-parent")
		}
		parentPath = parent.Path
	} else {
		parentFolderID = nil
	}

	now := time.Now().Unix()
	f := &Folder{
		ID:             uuid.New().String(),
		Name:           name,
		WorkspaceID:    workspaceID,
		ParentFolderID: parentFolderID,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.Path = parentPath + "/" + f.ID

	if err := s.repo.Create(f); err != nil {
		return nil, errors.Upstream("folder-create", err)
	}
	return f, nil
}

func (s *Service) Get(id string) (*Folder, error) {
	f, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.Upstream("folder-get", err)
	}
	if f == nil {
		return nil, errors.NotFound("folder-not-found")
	}
	return f, nil
}

func (s *Service) ListRoot(workspaceID string) ([]*Folder, error) {
	folders, err := s.repo.ListRoot(workspaceID)
	if err != nil {
		return nil, errors.Upstream("folder-list", err)
	}
	return folders, nil
}

func (s *Service) ListChildren(folderID string) ([]*Folder, error) {
	folders, err := s.repo.ListChildren(folderID)
	if err != nil {
		return nil, errors.Upstream("folder-list", err)
	}
	return folders, nil
}

func (s *Service) Rename(folderID, name string) (*Folder, error) {
	if name == "" {
		return nil, errors.InvalidState("folder-name-required")
	}
	if _, err := s.Get(folderID); err != nil {
		return nil, err
	}
	if err := s.repo.Rename(folderID, name); err != nil {
		return nil, errors.Upstream("folder-rename", err)
	}
	return s.Get(folderID)
}

// Move re-parents a folder. nil newParentID moves it to the root. The moved
// folder's path and every descendant's path are rewritten eagerly in one
// transaction, so reads never observe a stale ancestor prefix.
func (s *Service) Move(folderID string, newParentID *string) (*Folder, error) {
	f, err := s.Get(folderID)
	if err != nil {
		return nil, err
	}

	mu := lockWorkspace(f.WorkspaceID)
	defer mu.Unlock()

	newPath := "/" + f.ID
	if newParentID != nil && *newParentID != "" {
		if *newParentID == folderID {
			return nil, errors.InvalidState("cannot-be-own-parent")
		}

		parent, err := s.repo.GetByID(*newParentID)
		if err != nil {
			return nil, errors.Upstream("folder-move", err)
		}
		if parent == nil || parent.WorkspaceID != f.WorkspaceID {
			return nil, errors.InvalidState("invalid-parent")
		}

		if err := s.checkNoCycle(folderID, parent); err != nil {
			return nil, err
		}
		newPath = parent.Path + "/" + f.ID
	} else {
		newParentID = nil
	}

	tx, err := s.repo.BeginTx()
	if err != nil {
		return nil, errors.Upstream("folder-move", err)
	}
	defer tx.Rollback()

	if err := s.repo.SetParentTx(tx, folderID, newParentID, newPath); err != nil {
		return nil, errors.Upstream("folder-move", err)
	}

	// Rewrite descendant paths by swapping the old subtree prefix.
	oldPath := f.Path
	descendants, err := s.collectDescendants(folderID)
	if err != nil {
		return nil, err
	}
	for _, id := range descendants {
		child, err := s.repo.GetByID(id)
		if err != nil {
			return nil, errors.Upstream("folder-move", err)
		}
		if child == nil || !strings.HasPrefix(child.Path, oldPath+"/") {
			continue
		}
		rewritten := newPath + strings.TrimPrefix(child.Path, oldPath)
		if err := s.repo.SetPathTx(tx, id, rewritten); err != nil {
			return nil, errors.Upstream("folder-move", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Upstream("folder-move", err)
	}
	return s.Get(folderID)
}

// DeleteCascade removes the folder and its whole subtree in one transaction.
// Videos under any removed folder are re-parented to the root, never deleted.
func (s *Service) DeleteCascade(folderID string) error {
	f, err := s.Get(folderID)
	if err != nil {
		return err
	}

	mu := lockWorkspace(f.WorkspaceID)
	defer mu.Unlock()

	descendants, err := s.collectDescendants(folderID)
	if err != nil {
		return err
	}
	doomed := append([]string{folderID}, descendants...)

	tx, err := s.repo.BeginTx()
	if err != nil {
		return errors.Upstream("folder-delete", err)
	}
	defer tx.Rollback()

	if err := s.repo.DeleteCascadeTx(tx, doomed); err != nil {
		return errors.Upstream("folder-delete", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Upstream("folder-delete", err)
	}
	return nil
}

// collectDescendants walks parent edges breadth-first with an explicit
// worklist. Iterative on purpose: depth is bounded only by the tree itself,
// and the seen set catches a corrupted parent cycle instead of looping.
func (s *Service) collectDescendants(folderID string) ([]string, error) {
	var out []string
	seen := map[string]bool{folderID: true}
	queue := []string{folderID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.repo.ChildIDs(current)
		if err != nil {
			return nil, errors.Upstream("folder-traverse", err)
		}
		for _, id := range children {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
			queue = append(queue, id)
		}
	}
	return out, nil
}

// checkNoCycle walks the ancestor chain of the proposed parent. Finding the
// moved folder there means the move would create a cycle.
func (s *Service) checkNoCycle(folderID string, parent *Folder) error {
	seen := map[string]bool{}
	current := parent

	for current != nil {
		if current.ID == folderID {
			return errors.InvalidState("cycle-detected")
		}
		if seen[current.ID] {
			// Ancestor chain already contains a loop; refuse rather than spin.
			return errors.InvalidState("cycle-detected")
		}
		seen[current.ID] = true

		if current.ParentFolderID == nil {
			return nil
		}
		next, err := s.repo.GetByID(*current.ParentFolderID)
		if err != nil {
			return errors.Upstream("folder-move", err)
		}
		current = next
	}
	return nil
}
