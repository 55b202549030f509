package analytics

import (
	"database/sql"
	"encoding/json"
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

const sessionColumns = `video_id, session_id, user_id, start_time, end_time, watch_time,
	       completed_quarters, quarters, cta_clicked, viewer_info, created_at, updated_at`

func (r *Repository) GetTx(tx *sql.Tx, videoID, sessionID string) (*ViewSession, error) {
	row := tx.QueryRow(`SELECT `+sessionColumns+` FROM view_sessions WHERE video_id = ? AND session_id = ?`,
		videoID, sessionID)
	return scanSession(row)
}

func (r *Repository) InsertTx(tx *sql.Tx, s *ViewSession) error {
	completedJSON, _ := json.Marshal(s.CompletedQuarters)
	quartersJSON, _ := json.Marshal(s.Quarters)
	var viewerJSON []byte
	if s.ViewerInfo != nil {
		viewerJSON, _ = json.Marshal(s.ViewerInfo)
	}

	_, err := tx.Exec(`
		INSERT INTO view_sessions (video_id, session_id, user_id, start_time, end_time, watch_time,
			completed_quarters, quarters, cta_clicked, viewer_info, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.VideoID, s.SessionID, nullableStr(s.UserID), s.StartTime, s.EndTime, s.WatchTime,
		string(completedJSON), string(quartersJSON), s.CtaClicked, string(viewerJSON),
		s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *Repository) UpdateTx(tx *sql.Tx, s *ViewSession) error {
	completedJSON, _ := json.Marshal(s.CompletedQuarters)
	quartersJSON, _ := json.Marshal(s.Quarters)
	var viewerJSON []byte
	if s.ViewerInfo != nil {
		viewerJSON, _ = json.Marshal(s.ViewerInfo)
	}

	_, err := tx.Exec(`
		UPDATE view_sessions SET user_id = ?, start_time = ?, end_time = ?, watch_time = ?,
			completed_quarters = ?, quarters = ?, cta_clicked = ?, viewer_info = ?, updated_at = ?
		WHERE video_id = ? AND session_id = ?
	`,
		nullableStr(s.UserID), s.StartTime, s.EndTime, s.WatchTime,
		string(completedJSON), string(quartersJSON), s.CtaClicked, string(viewerJSON), s.UpdatedAt,
		s.VideoID, s.SessionID,
	)
	return err
}

func (r *Repository) ListByVideo(videoID string) ([]*ViewSession, error) {
	rows, err := r.db.Query(`SELECT `+sessionColumns+` FROM view_sessions WHERE video_id = ? ORDER BY created_at ASC`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*ViewSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func scanSession(s interface {
	Scan(dest ...interface{}) error
}) (*ViewSession, error) {
	var sess ViewSession
	var userID sql.NullString
	var completedRaw, quartersRaw, viewerRaw []byte

	err := s.Scan(
		&sess.VideoID, &sess.SessionID, &userID, &sess.StartTime, &sess.EndTime, &sess.WatchTime,
		&completedRaw, &quartersRaw, &sess.CtaClicked, &viewerRaw, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	sess.UserID = userID.String
	if len(completedRaw) > 0 {
		json.Unmarshal(completedRaw, &sess.CompletedQuarters)
	}
	if len(quartersRaw) > 0 {
		json.Unmarshal(quartersRaw, &sess.Quarters)
	}
	if len(viewerRaw) > 0 {
		sess.ViewerInfo = &ViewerInfo{}
		json.Unmarshal(viewerRaw, sess.ViewerInfo)
	}
	return &sess, nil
}

func nullableStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
