package analytics

// ViewSession is one playback attempt, keyed by (video, client session id).
// Sessions are created on the first event carrying a session id and mutated
// in place by later events; they are never deleted individually.
type ViewSession struct {
	VideoID           string        `json:"-"`
	SessionID         string        `json:"session_id"`
	UserID            string        `json:"user_id,omitempty"`
	StartTime         int64         `json:"start_time"`
	EndTime           int64         `json:"end_time"`
	WatchTime         float64       `json:"watch_time"` // seconds
	CompletedQuarters []int         `json:"completed_quarters"`
	Quarters          []QuarterMark `json:"quarters"`
	CtaClicked        bool          `json:"cta_clicked"`
	ViewerInfo        *ViewerInfo   `json:"viewer_info,omitempty"`
	CreatedAt         int64         `json:"created_at"`
	UpdatedAt         int64         `json:"updated_at"`
}

// QuarterMark is an append-only history entry, distinct from the
// deduplicated CompletedQuarters set.
type QuarterMark struct {
	Quarter   int     `json:"quarter"`
	Position  float64 `json:"position"` // seconds into the video
	Timestamp int64   `json:"timestamp"`
}

type ViewerInfo struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Email     string `json:"email,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
}

func (s *ViewSession) hasQuarter(quarter int) bool {
	for _, q := range s.CompletedQuarters {
		if q == quarter {
			return true
		}
	}
	return false
}

func (s *ViewSession) addQuarter(quarter int) {
	if !s.hasQuarter(quarter) {
		s.CompletedQuarters = append(s.CompletedQuarters, quarter)
	}
}
