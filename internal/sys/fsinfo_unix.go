//go:build !windows

package sys

import "golang.org/x/sys/unix"

// GetFsInfo returns capacity information for the filesystem
// containing path.
func GetFsInfo(path string) (FsInfo, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return FsInfo{}, err
	}
	bs := uint64(st.Bsize)
	return FsInfo{
		FreeBytes:  uint64(st.Bavail) * bs,
		TotalBytes: uint64(st.Blocks) * bs,
		BlockSize:  uint32(st.Bsize),
	}, nil
}
