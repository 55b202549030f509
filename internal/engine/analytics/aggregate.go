package analytics

import "time"

const historyDays = 30

type Aggregate struct {
	VideoID       string      `json:"video_id"`
	Views         int64       `json:"views"`
	UniqueViewers int         `json:"unique_viewers"`
	WatchTime     WatchTime   `json:"watch_time"`
	Retention     Retention   `json:"retention"`
	CtaClicks     int         `json:"cta_clicks"`
	ViewsByDate   []DateCount `json:"views_by_date"`
}

type WatchTime struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
}

// Retention holds the percentage of sessions that reached each quarter.
type Retention struct {
	Quarters [4]float64 `json:"quarters"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func aggregate(views int64, sessions []*ViewSession, now time.Time) *Aggregate {
	agg := &Aggregate{
		Views:       views,
		ViewsByDate: emptyHistogram(now),
	}

	viewers := make(map[string]struct{})
	byDate := make(map[string]int)
	var reached [4]int

	for _, sess := range sessions {
		if sess.UserID != "" {
			viewers[sess.UserID] = struct{}{}
		}
		agg.WatchTime.Total += sess.WatchTime
		if sess.CtaClicked {
			agg.CtaClicks++
		}
		for _, q := range sess.CompletedQuarters {
			if q >= 0 && q < 4 {
				reached[q]++
			}
		}
		// Minimal sessions (cta before any view event) have no start time.
		start := sess.StartTime
		if start == 0 {
			start = sess.CreatedAt
		}
		day := time.Unix(start, 0).UTC().Format("2006-01-02")
		byDate[day]++
	}

	agg.UniqueViewers = len(viewers)
	if n := len(sessions); n > 0 {
		agg.WatchTime.Average = agg.WatchTime.Total / float64(n)
		for i := range reached {
			agg.Retention.Quarters[i] = 100 * float64(reached[i]) / float64(n)
		}
	}

	for i := range agg.ViewsByDate {
		agg.ViewsByDate[i].Count = byDate[agg.ViewsByDate[i].Date]
	}
	return agg
}

// emptyHistogram returns the last 30 days, oldest first, all zero.
func emptyHistogram(now time.Time) []DateCount {
	days := make([]DateCount, 0, historyDays)
	for i := historyDays - 1; i >= 0; i-- {
		days = append(days, DateCount{Date: now.AddDate(0, 0, -i).Format("2006-01-02")})
	}
	return days
}
