package handler

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// imageExtensions are the file extensions counted as downloaded images.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// StorageStats describes the storage root that batches download into.
type StorageStats struct {
	Path       string `json:"path"`
	FreeBytes  int64  `json:"free_bytes"`
	TotalBytes int64  `json:"total_bytes"`
	ImageFiles int    `json:"image_files"`
	ImageBytes int64  `json:"image_bytes"`
}

// scanStorage walks root and totals the image files below it. Hidden files
// and directories are skipped. A missing root is reported as empty.
func scanStorage(root string) (StorageStats, error) {
	stats := StorageStats{Path: root}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !imageExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.ImageFiles++
		stats.ImageBytes += info.Size()
		return nil
	})
	if err != nil {
		return stats, err
	}

	if free, total, err := filesystemSpace(root); err == nil {
		stats.FreeBytes, stats.TotalBytes = free, total
	}
	return stats, nil
}
