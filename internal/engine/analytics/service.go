package analytics

import (
	"sync"
	"time"

	"clipdeck/internal/engine/videos"
	"clipdeck/internal/pkg/errors"
)

// Session mutations for the same video are serialized in-process so a
// read-modify-write on one session row cannot drop a concurrent sibling's
// insert. Keyed per video id; services themselves are per-request.
var videoLocks sync.Map // map[string]*sync.Mutex

func lockVideo(videoID string) *sync.Mutex {
	val, _ := videoLocks.LoadOrStore(videoID, &sync.Mutex{})
	mu := val.(*sync.Mutex)
	mu.Lock()
	return mu
}

type Service struct {
	repo   *Repository
	videos *videos.Repository
}

func NewService(repo *Repository, videoRepo *videos.Repository) *Service {
	return &Service{repo: repo, videos: videoRepo}
}

// ViewEvent carries a session's life-to-date totals, not deltas. Scalar
// fields replace what is stored; sets and histories merge.
type ViewEvent struct {
	SessionID         string             `json:"session_id"`
	UserID            string             `json:"-"`
	StartTime         int64              `json:"start_time"`
	EndTime           int64              `json:"end_time"`
	WatchTime         float64            `json:"watch_time"`
	CompletedQuarters []int              `json:"completed_quarters"`
	PlaybackPositions []PlaybackPosition `json:"playback_positions"`
	ViewerInfo        *ViewerInfo        `json:"-"`
}

type PlaybackPosition struct {
	Position  float64 `json:"position"`
	Timestamp int64   `json:"timestamp"`
}

func (s *Service) RecordViewEvent(videoID string, ev *ViewEvent) error {
	if ev.SessionID == "" {
		return errors.InvalidState("session-id-required")
	}

	video, err := s.videos.GetByID(videoID)
	if err != nil {
		return errors.Upstream("analytics-view", err)
	}
	if video == nil {
		return errors.NotFound("video-not-found")
	}

	marks := translatePositions(ev.PlaybackPositions, video.Duration)

	mu := lockVideo(videoID)
	defer mu.Unlock()

	tx, err := s.repo.BeginTx()
	if err != nil {
		return errors.Upstream("analytics-view", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	sess, err := s.repo.GetTx(tx, videoID, ev.SessionID)
	if err != nil {
		return errors.Upstream("analytics-view", err)
	}

	if sess == nil {
		sess = &ViewSession{
			VideoID:   videoID,
			SessionID: ev.SessionID,
			UserID:    ev.UserID,
			StartTime: orNow(ev.StartTime, now),
			EndTime:   orNow(ev.EndTime, now),
			WatchTime: ev.WatchTime,
			Quarters:  marks,
			ViewerInfo: ev.ViewerInfo,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, q := range ev.CompletedQuarters {
			sess.addQuarter(clampQuarter(q))
		}
		if err := s.repo.InsertTx(tx, sess); err != nil {
			return errors.Upstream("analytics-view", err)
		}
	} else {
		// Replace scalars, merge everything else.
		sess.StartTime = orNow(ev.StartTime, sess.StartTime)
		sess.EndTime = orNow(ev.EndTime, now)
		sess.WatchTime = ev.WatchTime
		if ev.UserID != "" {
			sess.UserID = ev.UserID
		}
		for _, q := range ev.CompletedQuarters {
			sess.addQuarter(clampQuarter(q))
		}
		sess.Quarters = append(sess.Quarters, marks...)
		sess.UpdatedAt = now
		if err := s.repo.UpdateTx(tx, sess); err != nil {
			return errors.Upstream("analytics-view", err)
		}
	}

	return commit(tx, "analytics-view")
}

func (s *Service) RecordQuarterEvent(videoID, sessionID string, quarter int, position float64, userID string) error {
	if sessionID == "" {
		return errors.InvalidState("session-id-required")
	}
	quarter = clampQuarter(quarter)

	mu := lockVideo(videoID)
	defer mu.Unlock()

	tx, err := s.repo.BeginTx()
	if err != nil {
		return errors.Upstream("analytics-quarter", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	mark := QuarterMark{Quarter: quarter, Position: position, Timestamp: now}

	sess, err := s.repo.GetTx(tx, videoID, sessionID)
	if err != nil {
		return errors.Upstream("analytics-quarter", err)
	}

	if sess == nil {
		sess = &ViewSession{
			VideoID:           videoID,
			SessionID:         sessionID,
			UserID:            userID,
			StartTime:         now,
			EndTime:           now,
			CompletedQuarters: []int{quarter},
			Quarters:          []QuarterMark{mark},
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.repo.InsertTx(tx, sess); err != nil {
			return errors.Upstream("analytics-quarter", err)
		}
	} else {
		sess.addQuarter(quarter)
		// History is append-only even when the set already has the quarter.
		sess.Quarters = append(sess.Quarters, mark)
		sess.UpdatedAt = now
		if err := s.repo.UpdateTx(tx, sess); err != nil {
			return errors.Upstream("analytics-quarter", err)
		}
	}

	return commit(tx, "analytics-quarter")
}

func (s *Service) RecordCtaClick(videoID, sessionID, userID string) error {
	if sessionID == "" {
		return errors.InvalidState("session-id-required")
	}

	mu := lockVideo(videoID)
	defer mu.Unlock()

	tx, err := s.repo.BeginTx()
	if err != nil {
		return errors.Upstream("analytics-cta", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	sess, err := s.repo.GetTx(tx, videoID, sessionID)
	if err != nil {
		return errors.Upstream("analytics-cta", err)
	}

	if sess == nil {
		sess = &ViewSession{
			VideoID:    videoID,
			SessionID:  sessionID,
			UserID:     userID,
			StartTime:  now,
			EndTime:    now,
			CtaClicked: true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.InsertTx(tx, sess); err != nil {
			return errors.Upstream("analytics-cta", err)
		}
	} else {
		sess.CtaClicked = true
		sess.UpdatedAt = now
		if err := s.repo.UpdateTx(tx, sess); err != nil {
			return errors.Upstream("analytics-cta", err)
		}
	}

	return commit(tx, "analytics-cta")
}

func (s *Service) ComputeAggregate(videoID string) (*Aggregate, error) {
	video, err := s.videos.GetByID(videoID)
	if err != nil {
		return nil, errors.Upstream("analytics-aggregate", err)
	}
	if video == nil {
		return nil, errors.NotFound("video-not-found")
	}

	sessions, err := s.repo.ListByVideo(videoID)
	if err != nil {
		return nil, errors.Upstream("analytics-aggregate", err)
	}

	agg := aggregate(video.Views, sessions, time.Now().UTC())
	agg.VideoID = videoID
	return agg, nil
}

func translatePositions(positions []PlaybackPosition, duration float64) []QuarterMark {
	if len(positions) == 0 {
		return nil
	}

	quarterSize := duration / 4
	if quarterSize <= 0 {
		quarterSize = 60
	}

	marks := make([]QuarterMark, 0, len(positions))
	now := time.Now().Unix()
	for _, p := range positions {
		ts := p.Timestamp
		if ts == 0 {
			ts = now
		}
		marks = append(marks, QuarterMark{
			Quarter:   clampQuarter(int(p.Position / quarterSize)),
			Position:  p.Position,
			Timestamp: ts,
		})
	}
	return marks
}

func clampQuarter(q int) int {
	if q < 0 {
		return 0
	}
	if q > 3 {
		return 3
	}
	return q
}

func orNow(v, fallback int64) int64 {
	if v == 0 {
		return fallback
	}
	return v
}

func commit(tx interface{ Commit() error }, op string) error {
	if err := tx.Commit(); err != nil {
		return errors.Upstream(op, err)
	}
	return nil
}
