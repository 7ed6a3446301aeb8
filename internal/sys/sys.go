// Package sys wraps the host-specific queries the server needs:
// filesystem capacity and file modification times. Callers see
// portable types; errors are returned as the host call reports them,
// so a failing call's errno reaches the caller unchanged.
package sys

import (
	"os"
	"time"
)

// FsInfo describes the filesystem holding a path.
type FsInfo struct {
	FreeBytes  uint64
	TotalBytes uint64
	BlockSize  uint32
}

// SetMtime stamps path with the given modification time. The access
// time is set to the same value.
func SetMtime(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}
