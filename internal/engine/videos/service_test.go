package videos

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"clipdeck/internal/engine/folders"
	"clipdeck/internal/pkg/errors"
	"clipdeck/internal/platform/storage"
)

type memStore struct {
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, _ := io.ReadAll(body)
	m.objects[key] = data
	return nil
}

func (m *memStore) Get(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memStore) Remove(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", storage.ErrSigningUnsupported
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
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
		description TEXT,
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

	t.Cleanup(func() { db.Close() })
	return db
}

func newTestService(t *testing.T) (*Service, *memStore, *folders.Repository) {
	db := setupTestDB(t)
	store := newMemStore()
	folderRepo := folders.NewRepository(db)
	return NewService(NewRepository(db), folderRepo, store), store, folderRepo
}

func TestUpload(t *testing.T) {
	svc, store, _ := newTestService(t)

	payload := []byte("not really an mp4")
	video, err := svc.Upload(context.Background(), UploadInput{
		Title:       "launch demo",
		WorkspaceID: "ws1",
		UploadedBy:  "u1",
		MimeType:    "video/mp4",
		Size:        int64(len(payload)),
		Body:        bytes.NewReader(payload),
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if video.Status != StatusReady {
		t.Errorf("Expected ready status, got %s", video.Status)
	}
	if video.Access != AccessPrivate {
		t.Errorf("Expected private default access, got %s", video.Access)
	}
	if !bytes.Equal(store.objects[video.ObjectKey], payload) {
		t.Errorf("Object bytes not stored under %s", video.ObjectKey)
	}

	got, err := svc.Get(video.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusReady {
		t.Errorf("Expected persisted ready status, got %s", got.Status)
	}
}

func TestUpload_StorageFailureMarksError(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.putErr = io.ErrUnexpectedEOF

	_, err := svc.Upload(context.Background(), UploadInput{
		Title:       "broken",
		WorkspaceID: "ws1",
		UploadedBy:  "u1",
		Body:        bytes.NewReader([]byte("x")),
		Size:        1,
	})
	if errors.KindOf(err) != errors.KindUpstream {
		t.Fatalf("Expected upstream error, got %v", err)
	}

	// The row survives in error state for diagnosis.
	videos, err := svc.repo.ListByWorkspace("ws1")
	if err != nil {
		t.Fatalf("ListByWorkspace failed: %v", err)
	}
	if len(videos) != 1 || videos[0].Status != StatusError {
		t.Errorf("Expected one errored video, got %+v", videos)
	}
}

func TestUpload_RejectsForeignFolder(t *testing.T) {
	svc, _, folderRepo := newTestService(t)

	now := time.Now().Unix()
	folder := &folders.Folder{
		ID: "f1", Name: "clips", WorkspaceID: "ws2", Path: "/f1",
		CreatedBy: "u1", CreatedAt: now, UpdatedAt: now,
	}
	if err := folderRepo.Create(folder); err != nil {
		t.Fatalf("Failed to seed folder: %v", err)
	}

	fid := "f1"
	_, err := svc.Upload(context.Background(), UploadInput{
		Title:       "misfiled",
		WorkspaceID: "ws1",
		FolderID:    &fid,
		UploadedBy:  "u1",
		Body:        bytes.NewReader([]byte("x")),
		Size:        1,
	})
	if errors.KindOf(err) != errors.KindInvalidState {
		t.Fatalf("Expected invalid-state, got %v", err)
	}
}

func TestUpdateAccess(t *testing.T) {
	svc, _, _ := newTestService(t)

	video, err := svc.Upload(context.Background(), UploadInput{
		Title: "demo", WorkspaceID: "ws1", UploadedBy: "u1",
		Body: bytes.NewReader([]byte("x")), Size: 1,
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if err := svc.UpdateAccess(video.ID, AccessCustom, nil); errors.KindOf(err) != errors.KindInvalidState {
		t.Errorf("Expected invalid-state for custom without allowed users, got %v", err)
	}
	if err := svc.UpdateAccess(video.ID, "friends-only", nil); errors.KindOf(err) != errors.KindInvalidState {
		t.Errorf("Expected invalid-state for unknown mode, got %v", err)
	}

	allowed := AllowedUsers{{Email: "viewer@example.com"}}
	if err := svc.UpdateAccess(video.ID, AccessCustom, allowed); err != nil {
		t.Fatalf("UpdateAccess failed: %v", err)
	}

	got, err := svc.Get(video.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Access != AccessCustom || len(got.AllowedUsers) != 1 {
		t.Errorf("Access not persisted: %+v", got)
	}

	// Switching back to workspace access clears the allow list.
	if err := svc.UpdateAccess(video.ID, AccessWorkspace, allowed); err != nil {
		t.Fatalf("UpdateAccess failed: %v", err)
	}
	got, _ = svc.Get(video.ID)
	if len(got.AllowedUsers) != 0 {
		t.Errorf("Expected cleared allow list, got %+v", got.AllowedUsers)
	}
}

func TestDelete_RemovesObject(t *testing.T) {
	svc, store, _ := newTestService(t)

	video, err := svc.Upload(context.Background(), UploadInput{
		Title: "demo", WorkspaceID: "ws1", UploadedBy: "u1",
		Body: bytes.NewReader([]byte("x")), Size: 1,
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if err := svc.Delete(context.Background(), video); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(video.ID); errors.KindOf(err) != errors.KindNotFound {
		t.Errorf("Expected not-found after delete, got %v", err)
	}
	if _, ok := store.objects[video.ObjectKey]; ok {
		t.Errorf("Object not removed from storage")
	}
}
