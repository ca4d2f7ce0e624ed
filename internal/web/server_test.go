package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/roost/internal/errors"
)

func writeSnapshot(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Join(dir, "media"), 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"index.html":    "<html>" + name + "</html>",
		"styles.css":    "body{}",
		"media/900.png": "png",
	}
	for rel, body := range files {
		if err := os.WriteFile(filepath.Join(dir, rel), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestServer_ServesSnapshot(t *testing.T) {
	dir := writeSnapshot(t, t.TempDir(), "output-2024-01-01")
	srv := httptest.NewServer(NewServer(dir, "127.0.0.1", 0).Handler)
	defer srv.Close()

	resp, body := get(t, srv, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "output-2024-01-01") {
		t.Errorf("GET / body = %q, want index.html", body)
	}
	if csp := resp.Header.Get("Content-Security-Policy"); !strings.Contains(csp, "img-src 'self'") {
		t.Errorf("CSP = %q", csp)
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options missing")
	}

	if resp, _ := get(t, srv, "/media/900.png"); resp.StatusCode != http.StatusOK {
		t.Errorf("GET media status = %d", resp.StatusCode)
	}
}

func TestServer_HidesDirectoryListings(t *testing.T) {
	dir := writeSnapshot(t, t.TempDir(), "output-2024-01-01")
	srv := httptest.NewServer(NewServer(dir, "127.0.0.1", 0).Handler)
	defer srv.Close()

	if resp, _ := get(t, srv, "/media/"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /media/ status = %d, want 404", resp.StatusCode)
	}
	if resp, _ := get(t, srv, "/missing.html"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /missing.html status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_RejectsWrites(t *testing.T) {
	dir := writeSnapshot(t, t.TempDir(), "output-2024-01-01")
	srv := httptest.NewServer(NewServer(dir, "127.0.0.1", 0).Handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/index.html", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", resp.StatusCode)
	}
}

func TestResolveDir(t *testing.T) {
	root := t.TempDir()

	if _, err := ResolveDir(root, ""); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty root err = %v, want INVALID_REQUEST", err)
	}

	writeSnapshot(t, root, "output-2024-01-01")
	newest := writeSnapshot(t, root, "output-2024-01-01_1")

	got, err := ResolveDir(root, "")
	if err != nil {
		t.Fatalf("ResolveDir() error = %v", err)
	}
	if got != newest {
		t.Errorf("ResolveDir() = %q, want %q", got, newest)
	}

	explicit := filepath.Join(root, "output-2024-01-01")
	if got, _ := ResolveDir(root, explicit); got != explicit {
		t.Errorf("ResolveDir(explicit) = %q", got)
	}

	if _, err := ResolveDir(root, filepath.Join(root, "nope")); !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("missing dir err = %v, want FILE_NOT_FOUND", err)
	}
}
