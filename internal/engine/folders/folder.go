package folders

type Folder struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	WorkspaceID    string  `json:"workspace_id"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
	// Path is materialized from the parent chain: "/<id>" at root,
	// otherwise parentPath + "/<id>". Derived, never set directly.
	Path      string `json:"path"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
