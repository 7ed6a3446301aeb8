//go:build windows

package sys

import "golang.org/x/sys/windows"

// GetFsInfo returns capacity information for the filesystem
// containing path.
func GetFsInfo(path string) (FsInfo, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return FsInfo{}, err
	}
	var freeAvail, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(p, &freeAvail, &total, &free); err != nil {
		return FsInfo{}, err
	}
	return FsInfo{
		FreeBytes:  free,
		TotalBytes: total,
		BlockSize:  4096,
	}, nil
}
