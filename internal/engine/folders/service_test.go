package folders

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"clipdeck/internal/pkg/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	// A file-backed DB: the service opens extra pool connections mid-move,
	// and with ":memory:" each connection would see its own empty database.
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "folders_test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	query := `
	CREATE TABLE folders (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		workspace_id TEXT NOT NULL,
		parent_folder_id TEXT,
		path TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE videos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		workspace_id TEXT,
		folder_id TEXT,
		uploaded_by TEXT NOT NULL,
		object_key TEXT NOT NULL,
		mime_type TEXT,
		duration REAL,
		status TEXT NOT NULL DEFAULT 'processing',
		access TEXT NOT NULL DEFAULT 'private',
		allowed_users TEXT,
		settings TEXT,
		views INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *sql.DB) {
	db := setupTestDB(t)
	return NewService(NewRepository(db)), db
}

func mustCreate(t *testing.T, svc *Service, name, workspaceID string, parent *Folder) *Folder {
	t.Helper()
	var parentID *string
	if parent != nil {
		parentID = &parent.ID
	}
	f, err := svc.Create(name, workspaceID, "u1", parentID)
	if err != nil {
		t.Fatalf("Failed to create folder %s: %v", name, err)
	}
	return f
}

func addVideo(t *testing.T, db *sql.DB, id, folderID string) {
	t.Helper()
	var fid interface{}
	if folderID != "" {
		fid = folderID
	}
	_, err := db.Exec(`
		INSERT INTO videos (id, title, workspace_id, folder_id, uploaded_by, object_key, created_at, updated_at)
		VALUES (?, ?, 'ws1', ?, 'u1', ?, 0, 0)
	`, id, id, fid, "videos/"+id)
	if err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}
}

func TestService_CreateMaterializesPath(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	root := mustCreate(t, svc, "root", "ws1", nil)
	if root.Path != "/"+root.ID {
		t.Errorf("Expected root path /%s, got %s", root.ID, root.Path)
	}

	child := mustCreate(t, svc, "child", "ws1", root)
	if child.Path != root.Path+"/"+child.ID {
		t.Errorf("Expected child path %s, got %s", root.Path+"/"+child.ID, child.Path)
	}
}

func TestService_CreateRejectsBadParent(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	missing := "no-such-folder"
	if _, err := svc.Create("f", "ws1", "u1", &missing); errors.ReasonOf(err) != "invalid-parent" {
		t.Errorf("Expected invalid-parent for missing parent, got %v", err)
	}

	other := mustCreate(t, svc, "other", "ws2", nil)
	if _, err := svc.Create("f", "ws1", "u1", &other.ID); errors.ReasonOf(err) != "invalid-parent" {
		t.Errorf("Expected invalid-parent for cross-workspace parent, got %v", err)
	}
}

func TestService_MoveRewritesDescendantPaths(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	a := mustCreate(t, svc, "a", "ws1", nil)
	b := mustCreate(t, svc, "b", "ws1", a)
	c := mustCreate(t, svc, "c", "ws1", b)
	target := mustCreate(t, svc, "target", "ws1", nil)

	moved, err := svc.Move(b.ID, &target.ID)
	if err != nil {
		t.Fatalf("Failed to move folder: %v", err)
	}
	if moved.Path != target.Path+"/"+b.ID {
		t.Errorf("Expected moved path %s, got %s", target.Path+"/"+b.ID, moved.Path)
	}

	reloaded, err := svc.Get(c.ID)
	if err != nil {
		t.Fatalf("Failed to reload descendant: %v", err)
	}
	want := target.Path + "/" + b.ID + "/" + c.ID
	if reloaded.Path != want {
		t.Errorf("Expected descendant path %s, got %s", want, reloaded.Path)
	}

	// Move back to root
	moved, err = svc.Move(b.ID, nil)
	if err != nil {
		t.Fatalf("Failed to move to root: %v", err)
	}
	if moved.Path != "/"+b.ID {
		t.Errorf("Expected root path /%s, got %s", b.ID, moved.Path)
	}
}

func TestService_MoveRejectsCycles(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	a := mustCreate(t, svc, "a", "ws1", nil)
	b := mustCreate(t, svc, "b", "ws1", a)
	c := mustCreate(t, svc, "c", "ws1", b)

	if _, err := svc.Move(a.ID, &a.ID); errors.ReasonOf(err) != "cannot-be-own-parent" {
		t.Errorf("Expected cannot-be-own-parent, got %v", err)
	}
	if _, err := svc.Move(a.ID, &b.ID); errors.ReasonOf(err) != "cycle-detected" {
		t.Errorf("Expected cycle-detected moving under child, got %v", err)
	}
	if _, err := svc.Move(a.ID, &c.ID); errors.ReasonOf(err) != "cycle-detected" {
		t.Errorf("Expected cycle-detected moving under grandchild, got %v", err)
	}

	// Tree unchanged after the failed moves
	for _, tc := range []struct {
		id   string
		path string
	}{
		{a.ID, "/" + a.ID},
		{b.ID, "/" + a.ID + "/" + b.ID},
		{c.ID, "/" + a.ID + "/" + b.ID + "/" + c.ID},
	} {
		f, err := svc.Get(tc.id)
		if err != nil {
			t.Fatalf("Failed to reload folder: %v", err)
		}
		if f.Path != tc.path {
			t.Errorf("Expected path %s unchanged, got %s", tc.path, f.Path)
		}
	}
}

func TestService_MoveRejectsCrossWorkspaceParent(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	a := mustCreate(t, svc, "a", "ws1", nil)
	other := mustCreate(t, svc, "other", "ws2", nil)

	if _, err := svc.Move(a.ID, &other.ID); errors.ReasonOf(err) != "invalid-parent" {
		t.Errorf("Expected invalid-parent, got %v", err)
	}
}

func TestService_DeleteCascadeReparentsVideos(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	a := mustCreate(t, svc, "a", "ws1", nil)
	b := mustCreate(t, svc, "b", "ws1", a)
	c := mustCreate(t, svc, "c", "ws1", b)
	keep := mustCreate(t, svc, "keep", "ws1", nil)

	addVideo(t, db, "v1", a.ID)
	addVideo(t, db, "v2", c.ID)
	addVideo(t, db, "v3", keep.ID)

	if err := svc.DeleteCascade(a.ID); err != nil {
		t.Fatalf("Failed to cascade delete: %v", err)
	}

	for _, id := range []string{a.ID, b.ID, c.ID} {
		f, err := svc.repo.GetByID(id)
		if err != nil {
			t.Fatalf("Failed to query folder: %v", err)
		}
		if f != nil {
			t.Errorf("Expected folder %s deleted", id)
		}
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM videos`).Scan(&count); err != nil {
		t.Fatalf("Failed to count videos: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected all 3 videos retained, got %d", count)
	}

	var orphaned int
	if err := db.QueryRow(`SELECT COUNT(*) FROM videos WHERE folder_id IS NULL`).Scan(&orphaned); err != nil {
		t.Fatalf("Failed to count orphaned videos: %v", err)
	}
	if orphaned != 2 {
		t.Errorf("Expected 2 videos re-parented to root, got %d", orphaned)
	}

	untouched, err := svc.repo.GetByID(keep.ID)
	if err != nil || untouched == nil {
		t.Errorf("Expected sibling folder untouched, got %v / %v", untouched, err)
	}
}
