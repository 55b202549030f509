package workspaces

import (
	"database/sql"
	"encoding/json"
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

func (r *Repository) CreateTx(tx *sql.Tx, ws *Workspace) error {
	settingsJSON, _ := json.Marshal(ws.Settings)

	_, err := tx.Exec(`
		INSERT INTO workspaces (id, name, description, owner_id, client_group_id, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ws.ID, ws.Name, ws.Description, ws.OwnerID, nullable(ws.ClientGroupID), string(settingsJSON), ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		return err
	}

	for _, m := range ws.Members {
		if err := r.AddMemberTx(tx, ws.ID, &m); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) GetByID(id string) (*Workspace, error) {
	ws := &Workspace{}
	var clientGroupID sql.NullString
	var settingsRaw []byte

	err := r.db.QueryRow(`
		SELECT id, name, description, owner_id, client_group_id, settings, created_at, updated_at
		FROM workspaces WHERE id = ?
	`, id).Scan(&ws.ID, &ws.Name, &ws.Description, &ws.OwnerID, &clientGroupID, &settingsRaw, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	ws.ClientGroupID = clientGroupID.String
	if len(settingsRaw) > 0 {
		json.Unmarshal(settingsRaw, &ws.Settings)
	}

	members, err := r.ListMembers(id)
	if err != nil {
		return nil, err
	}
	ws.Members = members
	return ws, nil
}

func (r *Repository) UpdateSettings(workspaceID string, settings Settings) error {
	settingsJSON, _ := json.Marshal(settings)
	_, err := r.db.Exec(`UPDATE workspaces SET settings = ?, updated_at = ? WHERE id = ?`,
		string(settingsJSON), time.Now().Unix(), workspaceID)
	return err
}

func (r *Repository) ListMembers(workspaceID string) ([]Member, error) {
	rows, err := r.db.Query(`
		SELECT workspace_id, user_id, role, email, joined_at
		FROM workspace_members WHERE workspace_id = ?
		ORDER BY joined_at ASC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Role, &m.Email, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListMembershipsByUser feeds the identity context at auth time.
func (r *Repository) ListMembershipsByUser(userID string) ([]Member, error) {
	rows, err := r.db.Query(`
		SELECT workspace_id, user_id, role, email, joined_at
		FROM workspace_members WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Role, &m.Email, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) AddMemberTx(tx *sql.Tx, workspaceID string, m *Member) error {
	_, err := tx.Exec(`
		INSERT INTO workspace_members (workspace_id, user_id, role, email, joined_at)
		VALUES (?, ?, ?, ?, ?)
	`, workspaceID, m.UserID, m.Role, m.Email, m.JoinedAt)
	return err
}

func (r *Repository) RemoveMemberTx(tx *sql.Tx, workspaceID, userID string) (int64, error) {
	res, err := tx.Exec(`
		DELETE FROM workspace_members WHERE workspace_id = ? AND user_id = ?
	`, workspaceID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) UpdateMemberRoleTx(tx *sql.Tx, workspaceID, userID, role string) (int64, error) {
	res, err := tx.Exec(`
		UPDATE workspace_members SET role = ? WHERE workspace_id = ? AND user_id = ?
	`, role, workspaceID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountOwnersTx reads the member list back inside the mutation transaction so
// the one-owner postcondition is checked against what is about to commit.
func (r *Repository) CountOwnersTx(tx *sql.Tx, workspaceID, ownerID string) (total int, matchingOwnerID int, err error) {
	rows, err := tx.Query(`
		SELECT user_id FROM workspace_members WHERE workspace_id = ? AND role = 'owner'
	`, workspaceID)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return 0, 0, err
		}
		total++
		if uid == ownerID {
			matchingOwnerID++
		}
	}
	return total, matchingOwnerID, rows.Err()
}

func (r *Repository) DeleteTx(tx *sql.Tx, workspaceID string) error {
	if _, err := tx.Exec(`DELETE FROM workspace_members WHERE workspace_id = ?`, workspaceID); err != nil {
		return err
	}
	_, err := tx.Exec(`DELETE FROM workspaces WHERE id = ?`, workspaceID)
	return err
}

func (r *Repository) TouchTx(tx *sql.Tx, workspaceID string) error {
	_, err := tx.Exec(`UPDATE workspaces SET updated_at = ? WHERE id = ?`, time.Now().Unix(), workspaceID)
	return err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
