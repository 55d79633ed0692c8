package downloader

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultExtension is used when neither the name nor the content type gives one.
const DefaultExtension = ".jpg"

// maxCollisionSuffix bounds the _N suffix search in a single directory.
const maxCollisionSuffix = 10000

// ErrNoFreeName is returned when every suffixed name up to maxCollisionSuffix is taken.
var ErrNoFreeName = errors.New("no free filename")

// FilenameFromURL derives a filename from the last element of the URL path.
// When the path ends in a slash, or its last element is empty or has no
// extension, a stable name is synthesized from a hash of the URL.
func FilenameFromURL(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil && !strings.HasSuffix(u.Path, "/") {
		name = SanitizeFilename(path.Base(u.Path))
	}
	if name == "" || !strings.Contains(name, ".") {
		return SyntheticFilename(rawURL)
	}
	return name
}

// SyntheticFilename returns image_NNNN.jpg where NNNN is the URL's FNV-1a
// hash modulo 10000.
func SyntheticFilename(rawURL string) string {
	h := fnv.New32a()
	h.Write([]byte(rawURL))
	return fmt.Sprintf("image_%04d%s", h.Sum32()%10000, DefaultExtension)
}

// SanitizeFilename reduces name to a single path element. It returns an
// empty string when nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.TrimSpace(name)
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}

// ExtensionForContentType maps a Content-Type header to a file extension.
func ExtensionForContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpg"
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "gif"):
		return ".gif"
	default:
		return DefaultExtension
	}
}

// EnsureExtension appends an extension inferred from contentType when name
// has none.
func EnsureExtension(name, contentType string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ExtensionForContentType(contentType)
}

// CreateUnique creates name inside dir with O_EXCL. If the name is taken it
// tries name_1.ext, name_2.ext and so on. Existing files are never opened for
// writing, so concurrent callers cannot overwrite each other.
func CreateUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxCollisionSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		p := filepath.Join(dir, candidate)

		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, p, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return nil, "", fmt.Errorf("create %s: %w", p, err)
	}

	return nil, "", fmt.Errorf("%w for %s in %s", ErrNoFreeName, name, dir)
}
