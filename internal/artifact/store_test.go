package artifact

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T, maxAge time.Duration) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), maxAge, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestPutAndOpenRoundTrip(t *testing.T) {
	store := newTestStore(t, time.Hour)

	id, err := store.Put([]byte("mp3-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	f, err := store.Open(id)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "mp3-bytes" {
		t.Errorf("read %q, want mp3-bytes", data)
	}
}

func TestPutRejectsEmptyAudio(t *testing.T) {
	store := newTestStore(t, time.Hour)
	if _, err := store.Put(nil); err == nil {
		t.Error("expected error for empty artifact")
	}
}

func TestOpenRejectsTraversalIDs(t *testing.T) {
	store := newTestStore(t, time.Hour)
	for _, id := range []string{"../../etc/passwd", "..%2F..%2Fsecret", "not-a-uuid", ""} {
		if _, err := store.Open(id); !os.IsNotExist(err) {
			t.Errorf("Open(%q) err = %v, want not-exist", id, err)
		}
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	store := newTestStore(t, time.Hour)

	oldID, err := store.Put([]byte("old"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	newID, err := store.Put([]byte("new"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	oldPath := filepath.Join(store.dir, oldID+artifactExt)
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, err := store.Open(oldID); !os.IsNotExist(err) {
		t.Error("expired artifact should be gone")
	}
	if f, err := store.Open(newID); err != nil {
		t.Error("fresh artifact should survive sweep")
	} else {
		f.Close()
	}
}

func TestHandlerServesArtifact(t *testing.T) {
	store := newTestStore(t, time.Hour)
	id, err := store.Put([]byte("mp3-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audio/"+id, nil)
	rec := httptest.NewRecorder()
	store.Handler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if rec.Body.String() != "mp3-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandlerAnswers404ForUnknownID(t *testing.T) {
	store := newTestStore(t, time.Hour)

	for _, id := range []string{"b5c1d6de-9d6a-4f2e-8a6e-000000000000", "../secret"} {
		req := httptest.NewRequest(http.MethodGet, "/api/audio/"+id, nil)
		rec := httptest.NewRecorder()
		store.Handler()(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status for %q = %d, want 404", id, rec.Code)
		}
	}
}

func TestHandlerRejectsWrites(t *testing.T) {
	store := newTestStore(t, time.Hour)
	req := httptest.NewRequest(http.MethodPost, "/api/audio/some-id", nil)
	rec := httptest.NewRecorder()
	store.Handler()(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
