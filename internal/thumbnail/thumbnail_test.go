package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

type fakeSetter struct {
	calls       int
	gotVideoID  string
	gotBytes    []byte
	gotContent  string
	returnError error
}

func (f *fakeSetter) SetThumbnail(ctx context.Context, videoID string, r io.Reader, contentType string) error {
	f.calls++
	f.gotVideoID = videoID
	f.gotBytes, _ = io.ReadAll(r)
	f.gotContent = contentType
	return f.returnError
}

// isolateTempDir points os.CreateTemp at a fresh directory so leftover temp
// files are detectable.
func isolateTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	return dir
}

func assertNoLeftovers(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d temp file(s) left behind", len(entries))
	}
}

func TestCopyEmptyURLIsNoOp(t *testing.T) {
	setter := &fakeSetter{}
	err := Copy(context.Background(), http.DefaultClient, setter, "bc-1", "")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if setter.calls != 0 {
		t.Errorf("setter called %d times for empty URL", setter.calls)
	}
}

func TestCopyUploadsFetchedBytes(t *testing.T) {
	dir := isolateTempDir(t)
	img := bytes.Repeat([]byte{0xff, 0xd8}, 32)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}))
	defer srv.Close()

	setter := &fakeSetter{}
	err := Copy(context.Background(), srv.Client(), setter, "bc-1", srv.URL+"/thumb.png")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if setter.calls != 1 {
		t.Fatalf("setter calls = %d, want 1", setter.calls)
	}
	if setter.gotVideoID != "bc-1" {
		t.Errorf("videoID = %q", setter.gotVideoID)
	}
	if !bytes.Equal(setter.gotBytes, img) {
		t.Errorf("uploaded %d bytes, want %d", len(setter.gotBytes), len(img))
	}
	if setter.gotContent != "image/png" {
		t.Errorf("content type = %q, want image/png (from response)", setter.gotContent)
	}
	assertNoLeftovers(t, dir)
}

func TestCopyFetch404(t *testing.T) {
	dir := isolateTempDir(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	setter := &fakeSetter{}
	err := Copy(context.Background(), srv.Client(), setter, "bc-1", srv.URL+"/missing.jpg")
	if err == nil {
		t.Fatal("Copy on 404: err = nil")
	}
	if setter.calls != 0 {
		t.Errorf("setter called %d times after failed fetch", setter.calls)
	}
	assertNoLeftovers(t, dir)
}

func TestCopyUploadFailureStillRemovesTempFile(t *testing.T) {
	dir := isolateTempDir(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	}))
	defer srv.Close()

	boom := errors.New("upload rejected")
	setter := &fakeSetter{returnError: boom}
	err := Copy(context.Background(), srv.Client(), setter, "bc-1", srv.URL+"/thumb.jpg")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	assertNoLeftovers(t, dir)
}

func TestCopyDefaultsContentType(t *testing.T) {
	isolateTempDir(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Type header set by the handler.
		w.Header()["Content-Type"] = nil
		w.Write([]byte{0xff, 0xd8, 0xff})
	}))
	defer srv.Close()

	setter := &fakeSetter{}
	if err := Copy(context.Background(), srv.Client(), setter, "bc-1", srv.URL+"/thumb"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if setter.gotContent != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg default", setter.gotContent)
	}
}
