package sharelinks

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(l *ShareLink) error {
	_, err := r.db.Exec(`
		INSERT INTO share_links (id, video_id, client_group_id, issued_by, token, expires_at, require_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.VideoID, l.ClientGroupID, l.IssuedBy, l.Token, nullableTime(l.ExpiresAt), l.RequireEmail, l.CreatedAt)
	return err
}

func (r *Repository) GetByToken(token string) (*ShareLink, error) {
	row := r.db.QueryRow(`
		SELECT id, video_id, client_group_id, issued_by, token, expires_at, require_email, created_at
		FROM share_links WHERE token = ?
	`, token)
	return scanShareLink(row)
}

func (r *Repository) GetByID(id string) (*ShareLink, error) {
	row := r.db.QueryRow(`
		SELECT id, video_id, client_group_id, issued_by, token, expires_at, require_email, created_at
		FROM share_links WHERE id = ?
	`, id)
	return scanShareLink(row)
}

func (r *Repository) ExistsByToken(token string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM share_links WHERE token = ?`, token).Scan(&count)
	return count > 0, err
}

func (r *Repository) ListByVideo(videoID string) ([]*ShareLink, error) {
	rows, err := r.db.Query(`
		SELECT id, video_id, client_group_id, issued_by, token, expires_at, require_email, created_at
		FROM share_links WHERE video_id = ? ORDER BY created_at DESC
	`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*ShareLink
	for rows.Next() {
		l, err := scanShareLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *Repository) Delete(id string) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM share_links WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByVideo removes every link pointing at a video, used when the
// video itself is deleted.
func (r *Repository) DeleteByVideo(videoID string) error {
	_, err := r.db.Exec(`DELETE FROM share_links WHERE video_id = ?`, videoID)
	return err
}

// DeleteExpired reaps links whose expiry has passed. Resolution already
// refuses expired links; this keeps the table from growing unbounded.
func (r *Repository) DeleteExpired(now int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM share_links WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanShareLink(s interface {
	Scan(dest ...interface{}) error
}) (*ShareLink, error) {
	var l ShareLink
	var expiresAt sql.NullInt64

	err := s.Scan(&l.ID, &l.VideoID, &l.ClientGroupID, &l.IssuedBy, &l.Token,
		&expiresAt, &l.RequireEmail, &l.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if expiresAt.Valid {
		l.ExpiresAt = &expiresAt.Int64
	}
	return &l, nil
}

func nullableTime(t *int64) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
