//go:build !linux && !darwin

package handler

import "errors"

func filesystemSpace(path string) (free, total int64, err error) {
	return 0, 0, errors.New("filesystem space not supported on this platform")
}
