package repositories

import (
	"database/sql"

	"clipdeck/internal/platform/models"
)

type ClientGroupRepository struct {
	db *sql.DB
}

func NewClientGroupRepository(db *sql.DB) *ClientGroupRepository {
	return &ClientGroupRepository{db: db}
}

func (r *ClientGroupRepository) Create(group *models.ClientGroup) error {
	_, err := r.db.Exec(`
		INSERT INTO client_groups (id, name, status, db_file_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, group.ID, group.Name, group.Status, group.DBFilePath, group.CreatedAt, group.UpdatedAt)
	return err
}

func (r *ClientGroupRepository) List() ([]*models.ClientGroup, error) {
	rows, err := r.db.Query(`
		SELECT id, name, status, db_file_path, created_at, updated_at
		FROM client_groups ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*models.ClientGroup
	for rows.Next() {
		group := &models.ClientGroup{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Status, &group.DBFilePath, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *ClientGroupRepository) GetByID(id string) (*models.ClientGroup, error) {
	group := &models.ClientGroup{}
	err := r.db.QueryRow(`
		SELECT id, name, status, db_file_path, created_at, updated_at
		FROM client_groups WHERE id = ?
	`, id).Scan(&group.ID, &group.Name, &group.Status, &group.DBFilePath, &group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return group, nil
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id, email, password_hash, full_name, global_role, client_group_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, user.FullName, user.GlobalRole, nullable(user.ClientGroupID), user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.getOne(`
		SELECT id, email, password_hash, full_name, global_role, client_group_id, last_login_at, created_at, updated_at
		FROM users WHERE id = ?
	`, id)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`
		SELECT id, email, password_hash, full_name, global_role, client_group_id, last_login_at, created_at, updated_at
		FROM users WHERE email = ?
	`, email)
}

func (r *UserRepository) getOne(query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	var clientGroupID sql.NullString
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.GlobalRole,
		&clientGroupID, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	user.ClientGroupID = clientGroupID.String
	return user, nil
}

func (r *UserRepository) UpdateLastLogin(userID string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = ? WHERE id = ?`, timestamp, userID)
	return err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
