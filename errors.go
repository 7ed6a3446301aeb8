package access

import (
	"errors"
	"io/fs"
	"syscall"
)

// sentinels for dispatcher conditions with no syscall behind them
var (
	errNoMemory     error = syscall.ENOMEM
	errBadHandle    error = syscall.EBADF
	errTooManyOpen  error = syscall.EMFILE
	errNotSupported error = syscall.ENOSYS
	errNotDir       error = syscall.ENOTDIR
	errNotFound     error = syscall.ENOENT
	errAccess       error = syscall.EACCES
	errInvalid      error = syscall.EINVAL
)

// errnoByte maps an error to the single errno byte carried in an 'E'
// frame. Syscall errors pass through; anything unrecognised degrades
// to EIO.
func errnoByte(err error) byte {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return byte(errno)
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return byte(syscall.ENOENT)
	case errors.Is(err, fs.ErrPermission):
		return byte(syscall.EACCES)
	}
	return byte(syscall.EIO)
}
