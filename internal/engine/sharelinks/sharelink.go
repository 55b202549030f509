package sharelinks

// ShareLink grants anonymous access to one video through an unguessable
// token. Links live in the global database so a bare token can be resolved
// to its client group before any tenant database is opened.
type ShareLink struct {
	ID            string `json:"id"`
	VideoID       string `json:"video_id"`
	ClientGroupID string `json:"client_group_id"`
	IssuedBy      string `json:"issued_by"`
	Token         string `json:"token"`
	ExpiresAt     *int64 `json:"expires_at,omitempty"`
	RequireEmail  bool   `json:"require_email"`
	CreatedAt     int64  `json:"created_at"`
}

func (l *ShareLink) Expired(now int64) bool {
	return l.ExpiresAt != nil && *l.ExpiresAt <= now
}
