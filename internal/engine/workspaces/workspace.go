package workspaces

type Workspace struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	OwnerID       string   `json:"owner_id"`
	ClientGroupID string   `json:"client_group_id,omitempty"`
	Members       []Member `json:"members"`
	Settings      Settings `json:"settings"`
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
}

type Member struct {
	WorkspaceID string `json:"-"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"` // owner, admin, member
	Email       string `json:"email"`
	JoinedAt    int64  `json:"joined_at"`
}

type Settings struct {
	RequireEmailForVideos bool `json:"require_email_for_videos"`
	DefaultVideoExpiry    int  `json:"default_video_expiry"` // days
}
