//go:build linux || darwin

package handler

import "syscall"

// filesystemSpace reports the bytes available to this process and the total
// size of the filesystem holding path.
func filesystemSpace(path string) (free, total int64, err error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	return int64(st.Bavail) * int64(st.Bsize), int64(st.Blocks) * int64(st.Bsize), nil
}
