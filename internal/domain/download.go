package domain

import (
	"fmt"
	"time"
)

// DownloadRequest describes one image to fetch.
type DownloadRequest struct {
	URL string
	// DestDir is the directory the image is written to. Empty means the
	// fetcher's configured base path.
	DestDir string
	// Filename overrides the name derived from the URL.
	Filename string
	// Timeout bounds the request. Zero means the fetcher's default.
	Timeout time.Duration
}

// DownloadResult is the outcome of one DownloadRequest within a batch.
type DownloadResult struct {
	URL  string
	Path string
	Err  error
}

// OK reports whether the download produced a verified file.
func (r DownloadResult) OK() bool {
	return r.Path != "" && r.Err == nil
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
}

// Failed returns the number of failed items.
func (s Summary) Failed() int {
	return s.Total - s.Succeeded
}

// String returns the "<succeeded>/<total>" form.
func (s Summary) String() string {
	return fmt.Sprintf("%d/%d", s.Succeeded, s.Total)
}
