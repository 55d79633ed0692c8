package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/iconidentify/imgrabba/internal/config"
	"github.com/iconidentify/imgrabba/internal/domain"
)

// copyBufferSize is the chunk size used when streaming a body to disk.
const copyBufferSize = 32 * 1024

// HTTPFetcher implements Fetcher using plain HTTP GET requests.
type HTTPFetcher struct {
	client    *http.Client
	basePath  string
	userAgent string
	timeout   time.Duration
	maxBytes  int64
	maxPixels int64
	observer  ImageObserver
	logger    *slog.Logger
}

// NewHTTPFetcher creates a new HTTP-based image fetcher. Requests without a
// destination directory are written under storage.BasePath.
func NewHTTPFetcher(cfg config.FetchConfig, storage config.StorageConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	maxPixels := cfg.MaxImagePixels
	if maxPixels <= 0 {
		maxPixels = config.DefaultMaxImagePixels
	}

	return &HTTPFetcher{
		// No client timeout: each request carries its own deadline via context.
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 8,
			},
		},
		basePath:  storage.BasePath,
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		maxBytes:  cfg.MaxImageBytes,
		maxPixels: maxPixels,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for fetch diagnostics.
func (f *HTTPFetcher) SetLogger(logger *slog.Logger) {
	f.logger = logger
}

// SetObserver registers an observer for verified images.
func (f *HTTPFetcher) SetObserver(o ImageObserver) {
	f.observer = o
}

// Fetch downloads one image. See Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, req domain.DownloadRequest) (string, error) {
	path, err := f.fetch(ctx, req)
	if err != nil {
		f.logger.Debug("image fetch failed",
			"url", req.URL,
			"reason", domain.FailureReason(err),
			"error", err,
		)
		return "", err
	}
	return path, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, req domain.DownloadRequest) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", domain.ErrEmptyURL
	}

	dir := req.DestDir
	if dir == "" {
		dir = f.basePath
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", domain.NewFetchError(req.URL, "create directory", fmt.Errorf("%w: %v", domain.ErrInvalidDestination, err))
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.get(ctx, req.URL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	name := SanitizeFilename(req.Filename)
	if name == "" {
		name = FilenameFromURL(req.URL)
	}
	name = EnsureExtension(name, resp.Header.Get("Content-Type"))

	file, path, err := CreateUnique(dir, name)
	if err != nil {
		return "", domain.NewFetchError(req.URL, "create file", err)
	}

	if err := f.writeBody(file, resp.Body); err != nil {
		os.Remove(path)
		return "", domain.NewFetchError(req.URL, "write", err)
	}

	format, size, err := VerifyImage(path, f.maxPixels)
	if err != nil {
		os.Remove(path)
		return "", domain.NewFetchError(req.URL, "verify", err)
	}

	if f.observer != nil {
		f.observer.ObserveImage(format, size)
	}
	f.logger.Debug("image saved", "url", req.URL, "path", path, "format", format, "bytes", size)

	return path, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewFetchError(url, "create request", fmt.Errorf("%w: %v", domain.ErrNetwork, err))
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(url, "send request", fmt.Errorf("%w: %v", domain.ErrNetwork, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, domain.NewFetchError(url, "response", fmt.Errorf("%w: unexpected status code %d", domain.ErrNetwork, resp.StatusCode))
	}

	return resp, nil
}

// writeBody streams body into file in fixed-size chunks and closes file.
func (f *HTTPFetcher) writeBody(file *os.File, body io.Reader) error {
	src := &bodyReader{r: body}
	var r io.Reader = src
	if f.maxBytes > 0 {
		r = io.LimitReader(src, f.maxBytes+1)
	}

	n, err := io.CopyBuffer(onlyWriter{file}, r, make([]byte, copyBufferSize))
	closeErr := file.Close()

	if err != nil {
		if src.err != nil {
			return fmt.Errorf("%w: read body: %v", domain.ErrNetwork, src.err)
		}
		return fmt.Errorf("write file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close file: %w", closeErr)
	}
	if f.maxBytes > 0 && n > f.maxBytes {
		return fmt.Errorf("%w: larger than %d bytes", domain.ErrInvalidImage, f.maxBytes)
	}

	return nil
}

// bodyReader remembers the first read error so it can be told apart from
// write errors.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF && b.err == nil {
		b.err = err
	}
	return n, err
}

// onlyWriter hides ReadFrom so io.CopyBuffer uses the provided buffer.
type onlyWriter struct {
	w io.Writer
}

func (o onlyWriter) Write(p []byte) (int, error) {
	return o.w.Write(p)
}
