package folders

import (
	"database/sql"
	"strings"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *Repository) Create(f *Folder) error {
	_, err := r.db.Exec(`
		INSERT INTO folders (id, name, workspace_id, parent_folder_id, path, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Name, f.WorkspaceID, nullableID(f.ParentFolderID), f.Path, f.CreatedBy, f.CreatedAt, f.UpdatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*Folder, error) {
	row := r.db.QueryRow(`
		SELECT id, name, workspace_id, parent_folder_id, path, created_by, created_at, updated_at
		FROM folders WHERE id = ?
	`, id)
	return scanFolder(row)
}

func (r *Repository) ListRoot(workspaceID string) ([]*Folder, error) {
	return r.list(`
		SELECT id, name, workspace_id, parent_folder_id, path, created_by, created_at, updated_at
		FROM folders WHERE workspace_id = ? AND parent_folder_id IS NULL
		ORDER BY name ASC
	`, workspaceID)
}

func (r *Repository) ListChildren(parentID string) ([]*Folder, error) {
	return r.list(`
		SELECT id, name, workspace_id, parent_folder_id, path, created_by, created_at, updated_at
		FROM folders WHERE parent_folder_id = ?
		ORDER BY name ASC
	`, parentID)
}

func (r *Repository) ChildIDs(parentID string) ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM folders WHERE parent_folder_id = ?`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) Rename(id, name string) error {
	_, err := r.db.Exec(`UPDATE folders SET name = ?, updated_at = ? WHERE id = ?`, name, time.Now().Unix(), id)
	return err
}

func (r *Repository) SetParentTx(tx *sql.Tx, id string, parentID *string, path string) error {
	_, err := tx.Exec(`
		UPDATE folders SET parent_folder_id = ?, path = ?, updated_at = ? WHERE id = ?
	`, nullableID(parentID), path, time.Now().Unix(), id)
	return err
}

func (r *Repository) SetPathTx(tx *sql.Tx, id, path string) error {
	_, err := tx.Exec(`UPDATE folders SET path = ?, updated_at = ? WHERE id = ?`, path, time.Now().Unix(), id)
	return err
}

// DeleteCascadeTx re-parents every video under the collected folder set to
// the workspace root, then removes the folders. Runs inside the caller's
// transaction so a failure leaves nothing half-deleted.
func (r *Repository) DeleteCascadeTx(tx *sql.Tx, folderIDs []string) error {
	if len(folderIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(folderIDs)), ", ")
	args := make([]interface{}, len(folderIDs))
	for i, id := range folderIDs {
		args[i] = id
	}

	if _, err := tx.Exec(
		`UPDATE videos SET folder_id = NULL, updated_at = `+nowExpr+` WHERE folder_id IN (`+placeholders+`)`,
		args...,
	); err != nil {
		return err
	}

	_, err := tx.Exec(`DELETE FROM folders WHERE id IN (`+placeholders+`)`, args...)
	return err
}

const nowExpr = "strftime('%s','now')"

func (r *Repository) list(query string, args ...interface{}) ([]*Folder, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func scanFolder(s interface {
	Scan(dest ...interface{}) error
}) (*Folder, error) {
	var f Folder
	var parentID sql.NullString

	err := s.Scan(&f.ID, &f.Name, &f.WorkspaceID, &parentID, &f.Path, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if parentID.Valid {
		val := parentID.String
		f.ParentFolderID = &val
	}
	return &f, nil
}

func nullableID(id *string) interface{} {
	if id == nil || *id == "" {
		return nil
	}
	return *id
}
