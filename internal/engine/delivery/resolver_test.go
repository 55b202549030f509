package delivery

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"clipdeck/internal/engine/videos"
	"clipdeck/internal/pkg/errors"
	"clipdeck/internal/platform/storage"
)

type fakeStore struct {
	objects map[string][]byte
	signed  string
}

func (f *fakeStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, _ := io.ReadAll(body)
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	if length < 0 {
		length = int64(len(data)) - offset
	}
	return io.NopCloser(bytes.NewReader(data[offset : offset+length])), nil
}

func (f *fakeStore) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: "video/mp4"}, nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.signed == "" {
		return "", storage.ErrSigningUnsupported
	}
	return f.signed, nil
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	query := `
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

func newStreamFixture(t *testing.T, status string) (*Service, *videos.Video, *videos.Repository) {
	db := setupTestDB(t)
	repo := videos.NewRepository(db)

	video := &videos.Video{
		ID:         "v1",
		Title:      "demo",
		UploadedBy: "u1",
		ObjectKey:  "videos/v1",
		MimeType:   "video/mp4",
		Status:     status,
		Access:     "public",
		CreatedAt:  time.Now().Unix(),
		UpdatedAt:  time.Now().Unix(),
	}
	if err := repo.Create(video); err != nil {
		t.Fatalf("Failed to seed video: %v", err)
	}

	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	store := &fakeStore{objects: map[string][]byte{"videos/v1": payload}}

	return NewService(store, repo, time.Hour), video, repo
}

func TestStream_FullObject(t *testing.T) {
	svc, video, _ := newStreamFixture(t, videos.StatusReady)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	rec := httptest.NewRecorder()

	if err := svc.Stream(context.Background(), rec, req, video); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Expected Accept-Ranges bytes, got %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "1000" {
		t.Errorf("Expected Content-Length 1000, got %q", got)
	}
	if len(rec.Body.Bytes()) != 1000 {
		t.Errorf("Expected 1000 body bytes, got %d", len(rec.Body.Bytes()))
	}
}

func TestStream_PartialContent(t *testing.T) {
	svc, video, _ := newStreamFixture(t, videos.StatusReady)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	req.Header.Set("Range", "bytes=100-199")
	rec := httptest.NewRecorder()

	if err := svc.Stream(context.Background(), rec, req, video); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if rec.Code != http.StatusPartialContent {
		t.Errorf("Expected 206, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 100-199/1000" {
		t.Errorf("Expected Content-Range bytes 100-199/1000, got %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "100" {
		t.Errorf("Expected Content-Length 100, got %q", got)
	}

	body := rec.Body.Bytes()
	if len(body) != 100 {
		t.Fatalf("Expected 100 body bytes, got %d", len(body))
	}
	if body[0] != byte(100%251) {
		t.Errorf("Body does not start at offset 100")
	}
}

func TestStream_UnsatisfiableRange(t *testing.T) {
	svc, video, _ := newStreamFixture(t, videos.StatusReady)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	req.Header.Set("Range", "bytes=1000-")
	rec := httptest.NewRecorder()

	err := svc.Stream(context.Background(), rec, req, video)
	if errors.KindOf(err) != errors.KindRangeNotSatisfiable {
		t.Fatalf("Expected range-not-satisfiable, got %v", err)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */1000" {
		t.Errorf("Expected Content-Range bytes */1000, got %q", got)
	}
}

func TestStream_NotReady(t *testing.T) {
	svc, video, _ := newStreamFixture(t, videos.StatusProcessing)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	rec := httptest.NewRecorder()

	err := svc.Stream(context.Background(), rec, req, video)
	if errors.KindOf(err) != errors.KindInvalidState {
		t.Fatalf("Expected invalid-state, got %v", err)
	}
}

func TestStream_IncrementsViews(t *testing.T) {
	svc, video, repo := newStreamFixture(t, videos.StatusReady)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	rec := httptest.NewRecorder()
	if err := svc.Stream(context.Background(), rec, req, video); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	// The counter bump runs off the request path.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := repo.GetByID("v1")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Views == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected views 1, got %d", got.Views)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSignedURL(t *testing.T) {
	db := setupTestDB(t)
	repo := videos.NewRepository(db)
	video := &videos.Video{
		ID: "v1", Title: "demo", UploadedBy: "u1", ObjectKey: "videos/v1",
		Status: videos.StatusReady, Access: "public",
		CreatedAt: time.Now().Unix(), UpdatedAt: time.Now().Unix(),
	}
	if err := repo.Create(video); err != nil {
		t.Fatalf("Failed to seed video: %v", err)
	}

	store := &fakeStore{objects: map[string][]byte{}, signed: "https://cdn.example.com/videos/v1?sig=abc"}
	svc := NewService(store, repo, 30*time.Minute)

	url, ttl, err := svc.SignedURL(context.Background(), video)
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}
	if url != store.signed {
		t.Errorf("Got url %q", url)
	}
	if ttl != 30*time.Minute {
		t.Errorf("Expected 30m ttl, got %v", ttl)
	}

	store.signed = ""
	if _, _, err := svc.SignedURL(context.Background(), video); errors.KindOf(err) != errors.KindInvalidState {
		t.Errorf("Expected invalid-state for unsigned backend, got %v", err)
	}
}
