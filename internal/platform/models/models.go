package models

// Global role values carried on a user record.
const (
	RoleSuperAdmin  = "super-admin"
	RoleClientAdmin = "client-admin"
	RoleUser        = "user"
)

type ClientGroup struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"` // active, inactive
	DBFilePath string `json:"db_file_path"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	PasswordHash  string `json:"-"`
	FullName      string `json:"full_name"`
	GlobalRole    string `json:"global_role"`
	ClientGroupID string `json:"client_group_id,omitempty"`
	LastLoginAt   *int64 `json:"last_login_at,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`

	ClientGroup *ClientGroup `json:"client_group,omitempty"`
}
