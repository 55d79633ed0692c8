package downloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"simple", "https://x/cat.jpg", "cat.jpg"},
		{"nested path", "https://cdn.example.com/a/b/dog.png?w=200", "dog.png"},
		{"escaped", "https://x/my%20cat.gif", "my cat.gif"},
		{"no extension", "https://x/bad", SyntheticFilename("https://x/bad")},
		{"trailing slash", "https://x/images/", SyntheticFilename("https://x/images/")},
		{"trailing slash with dot", "https://x/a.b/", SyntheticFilename("https://x/a.b/")},
		{"no path", "https://x", SyntheticFilename("https://x")},
		{"unparseable", "://bad url", SyntheticFilename("://bad url")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilenameFromURL(tt.url); got != tt.want {
				t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestSyntheticFilename(t *testing.T) {
	a := SyntheticFilename("https://x/a")
	if a != SyntheticFilename("https://x/a") {
		t.Error("SyntheticFilename should be stable for the same URL")
	}
	if !strings.HasPrefix(a, "image_") || !strings.HasSuffix(a, ".jpg") {
		t.Errorf("SyntheticFilename = %q, want image_NNNN.jpg", a)
	}
	if len(a) != len("image_0000.jpg") {
		t.Errorf("SyntheticFilename = %q, want four zero-padded digits", a)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cat.jpg", "cat.jpg"},
		{"../../etc/passwd", "passwd"},
		{"dir/sub/file.png", "file.png"},
		{`..\..\evil.gif`, "evil.gif"},
		{"..", ""},
		{".", ""},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtensionForContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want string
	}{
		{"image/jpeg", ".jpg"},
		{"image/jpg", ".jpg"},
		{"IMAGE/JPEG; charset=binary", ".jpg"},
		{"image/png", ".png"},
		{"image/gif", ".gif"},
		{"image/webp", ".jpg"},
		{"application/octet-stream", ".jpg"},
		{"", ".jpg"},
	}

	for _, tt := range tests {
		if got := ExtensionForContentType(tt.ct); got != tt.want {
			t.Errorf("ExtensionForContentType(%q) = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestEnsureExtension(t *testing.T) {
	if got := EnsureExtension("photo", "image/png"); got != "photo.png" {
		t.Errorf("EnsureExtension = %q, want photo.png", got)
	}
	if got := EnsureExtension("photo.gif", "image/png"); got != "photo.gif" {
		t.Errorf("EnsureExtension = %q, want photo.gif", got)
	}
}

func TestCreateUnique_NoCollision(t *testing.T) {
	dir := t.TempDir()

	f, path, err := CreateUnique(dir, "cat.jpg")
	if err != nil {
		t.Fatalf("CreateUnique failed: %v", err)
	}
	f.Close()

	if path != filepath.Join(dir, "cat.jpg") {
		t.Errorf("path = %q, want %q", path, filepath.Join(dir, "cat.jpg"))
	}
}

func TestCreateUnique_SuffixesExisting(t *testing.T) {
	dir := t.TempDir()
	original := []byte("original content")
	if err := os.WriteFile(filepath.Join(dir, "cat.jpg"), original, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cat_1.jpg"), original, 0644); err != nil {
		t.Fatal(err)
	}

	f, path, err := CreateUnique(dir, "cat.jpg")
	if err != nil {
		t.Fatalf("CreateUnique failed: %v", err)
	}
	f.Write([]byte("new"))
	f.Close()

	if filepath.Base(path) != "cat_2.jpg" {
		t.Errorf("path = %q, want cat_2.jpg", filepath.Base(path))
	}

	got, _ := os.ReadFile(filepath.Join(dir, "cat.jpg"))
	if string(got) != string(original) {
		t.Errorf("original file modified: %q", got)
	}
}

func TestCreateUnique_NoExtension(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "blob"), nil, 0644)

	f, path, err := CreateUnique(dir, "blob")
	if err != nil {
		t.Fatalf("CreateUnique failed: %v", err)
	}
	f.Close()

	if filepath.Base(path) != "blob_1" {
		t.Errorf("path = %q, want blob_1", filepath.Base(path))
	}
}

func TestCreateUnique_Concurrent(t *testing.T) {
	dir := t.TempDir()
	const n = 20

	var (
		mu    sync.Mutex
		paths = make(map[string]bool)
		wg    sync.WaitGroup
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, path, err := CreateUnique(dir, "same.png")
			if err != nil {
				t.Errorf("CreateUnique failed: %v", err)
				return
			}
			fmt.Fprintf(f, "writer %d", i)
			f.Close()

			mu.Lock()
			paths[path] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(paths) != n {
		t.Errorf("got %d distinct paths, want %d", len(paths), n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != n {
		t.Errorf("got %d files, want %d", len(entries), n)
	}
}

func TestCreateUnique_MissingDir(t *testing.T) {
	_, _, err := CreateUnique(filepath.Join(t.TempDir(), "missing"), "a.jpg")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
