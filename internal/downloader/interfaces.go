package downloader

import (
	"context"

	"github.com/iconidentify/imgrabba/internal/domain"
)

// Fetcher downloads a single image to disk.
type Fetcher interface {
	// Fetch downloads req.URL into req.DestDir and returns the path of the
	// verified file. Any failure returns an empty path and a non-nil error;
	// no file is left behind in that case.
	Fetch(ctx context.Context, req domain.DownloadRequest) (string, error)
}

// ImageObserver receives the decoded format and size of every verified image.
type ImageObserver interface {
	ObserveImage(format string, size int64)
}
