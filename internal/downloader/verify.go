package downloader

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	// Decoders available to VerifyImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/iconidentify/imgrabba/internal/domain"
)

// VerifyImage decodes the file at path and returns its format name and size.
// Empty files, files no registered decoder accepts and images whose header
// declares more than maxPixels pixels yield ErrInvalidImage. The header is
// checked before any pixel data is decoded. maxPixels <= 0 disables the check.
func VerifyImage(path string, maxPixels int64) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open for verify: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat for verify: %w", err)
	}
	if info.Size() == 0 {
		return "", 0, fmt.Errorf("%w: empty file", domain.ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return "", 0, fmt.Errorf("%w: %dx%d exceeds %d pixels", domain.ErrInvalidImage, cfg.Width, cfg.Height, maxPixels)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", 0, fmt.Errorf("rewind for verify: %w", err)
	}
	if _, _, err := image.Decode(bufio.NewReader(f)); err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	return format, info.Size(), nil
}
