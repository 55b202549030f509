package videos

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

const videoColumns = `id, title, description, workspace_id, folder_id, uploaded_by, object_key,
	       mime_type, duration, status, access, allowed_users, settings, views, created_at, updated_at`

func (r *Repository) Create(v *Video) error {
	allowedJSON, _ := json.Marshal(v.AllowedUsers)
	var settingsJSON []byte
	if v.Settings != nil {
		settingsJSON, _ = json.Marshal(v.Settings)
	}

	_, err := r.db.Exec(`
		INSERT INTO videos (id, title, description, workspace_id, folder_id, uploaded_by, object_key,
			mime_type, duration, status, access, allowed_users, settings, views, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.ID, v.Title, v.Description, nullableStr(v.WorkspaceID), nullablePtr(v.FolderID),
		v.UploadedBy, v.ObjectKey, v.MimeType, v.Duration, v.Status, v.Access,
		string(allowedJSON), string(settingsJSON), v.Views, v.CreatedAt, v.UpdatedAt,
	)
	return err
}

func (r *Repository) GetByID(id string) (*Video, error) {
	row := r.db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

func (r *Repository) ListByWorkspace(workspaceID string) ([]*Video, error) {
	return r.list(`SELECT `+videoColumns+` FROM videos WHERE workspace_id = ? ORDER BY created_at DESC`, workspaceID)
}

// ListByFolder with an empty folderID returns workspace videos at the root.
func (r *Repository) ListByFolder(workspaceID, folderID string) ([]*Video, error) {
	if folderID == "" {
		return r.list(`SELECT `+videoColumns+` FROM videos WHERE workspace_id = ? AND folder_id IS NULL ORDER BY created_at DESC`, workspaceID)
	}
	return r.list(`SELECT `+videoColumns+` FROM videos WHERE folder_id = ? ORDER BY created_at DESC`, folderID)
}

func (r *Repository) UpdateFolder(videoID string, folderID *string) error {
	_, err := r.db.Exec(`UPDATE videos SET folder_id = ?, updated_at = ? WHERE id = ?`,
		nullablePtr(folderID), time.Now().Unix(), videoID)
	return err
}

func (r *Repository) UpdateMeta(videoID, title, description string) error {
	_, err := r.db.Exec(`UPDATE videos SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
		title, description, time.Now().Unix(), videoID)
	return err
}

func (r *Repository) UpdateAccess(videoID, access string, allowed AllowedUsers) error {
	allowedJSON, _ := json.Marshal(allowed)
	_, err := r.db.Exec(`UPDATE videos SET access = ?, allowed_users = ?, updated_at = ? WHERE id = ?`,
		access, string(allowedJSON), time.Now().Unix(), videoID)
	return err
}

func (r *Repository) UpdateSettings(videoID string, settings *Settings) error {
	var settingsJSON []byte
	if settings != nil {
		settingsJSON, _ = json.Marshal(settings)
	}
	_, err := r.db.Exec(`UPDATE videos SET settings = ?, updated_at = ? WHERE id = ?`,
		string(settingsJSON), time.Now().Unix(), videoID)
	return err
}

func (r *Repository) UpdateDuration(videoID string, duration float64) error {
	_, err := r.db.Exec(`UPDATE videos SET duration = ?, updated_at = ? WHERE id = ?`,
		duration, time.Now().Unix(), videoID)
	return err
}

func (r *Repository) UpdateStatus(videoID, status string) error {
	_, err := r.db.Exec(`UPDATE videos SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().Unix(), videoID)
	return err
}

func (r *Repository) Delete(videoID string) error {
	_, err := r.db.Exec(`DELETE FROM videos WHERE id = ?`, videoID)
	return err
}

// IncrementViews bumps the raw delivery counter in a single atomic update.
// This counter is independent of the session-derived analytics.
func (r *Repository) IncrementViews(videoID string) error {
	_, err := r.db.Exec(`UPDATE videos SET views = views + 1 WHERE id = ?`, videoID)
	return err
}

func (r *Repository) list(query string, args ...interface{}) ([]*Video, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVideo(s interface {
	Scan(dest ...interface{}) error
}) (*Video, error) {
	var v Video
	var workspaceID, folderID, description, mimeType sql.NullString
	var duration sql.NullFloat64
	var allowedRaw, settingsRaw []byte

	err := s.Scan(
		&v.ID, &v.Title, &description, &workspaceID, &folderID, &v.UploadedBy, &v.ObjectKey,
		&mimeType, &duration, &v.Status, &v.Access, &allowedRaw, &settingsRaw,
		&v.Views, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	v.Description = description.String
	v.WorkspaceID = workspaceID.String
	v.MimeType = mimeType.String
	v.Duration = duration.Float64
	if folderID.Valid {
		val := folderID.String
		v.FolderID = &val
	}
	if len(allowedRaw) > 0 {
		json.Unmarshal(allowedRaw, &v.AllowedUsers)
	}
	if len(settingsRaw) > 0 {
		v.Settings = &Settings{}
		json.Unmarshal(settingsRaw, v.Settings)
	}
	return &v, nil
}

func nullableStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullablePtr(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
