package videos

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Video statuses.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

type Video struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	WorkspaceID  string        `json:"workspace_id,omitempty"`
	FolderID     *string       `json:"folder_id,omitempty"`
	UploadedBy   string        `json:"uploaded_by"`
	ObjectKey    string        `json:"object_key"`
	MimeType     string        `json:"mime_type,omitempty"`
	Duration     float64       `json:"duration,omitempty"` // seconds
	Status       string        `json:"status"`             // processing, ready, error
	Access       string        `json:"access"`             // private, workspace, public, custom
	AllowedUsers AllowedUsers  `json:"allowed_users,omitempty"`
	Settings     *Settings     `json:"settings,omitempty"`
	Views        int64         `json:"views"`
	CreatedAt    int64         `json:"created_at"`
	UpdatedAt    int64         `json:"updated_at"`
}

type AllowedUser struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

type AllowedUsers []AllowedUser

func (a AllowedUsers) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *AllowedUsers) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, a)
}

// Settings is the playback customization block embedded on the video.
type Settings struct {
	PlayerColor    string        `json:"player_color,omitempty"`
	SecondaryColor string        `json:"secondary_color,omitempty"`
	AutoPlay       bool          `json:"auto_play"`
	ShowControls   bool          `json:"show_controls"`
	CallToAction   *CallToAction `json:"call_to_action,omitempty"`
}

type CallToAction struct {
	Enabled     bool    `json:"enabled"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	ButtonText  string  `json:"button_text,omitempty"`
	ButtonLink  string  `json:"button_link,omitempty"`
	DisplayTime float64 `json:"display_time,omitempty"` // seconds into playback
}

func (s Settings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Settings) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, s)
}
