package memfs

import (
	"errors"

	"github.com/glacya/memfs/filesystem"
)

// Sentinel errors returned by syscall operations. Callers match them with
// [errors.Is]; the syscall layer wraps each with the operation and path.
var (
	ErrNotExist     = filesystem.ErrNotExist
	ErrExist        = filesystem.ErrExist
	ErrIsDir        = filesystem.ErrIsDir
	ErrNotDir       = filesystem.ErrNotDir
	ErrNotEmpty     = filesystem.ErrNotEmpty
	ErrBusy         = filesystem.ErrBusy
	ErrInvalid      = filesystem.ErrInvalid
	ErrFileTooLarge = filesystem.ErrFileTooLarge
)

var (
	// ErrBadDescriptor rejects operations on descriptor numbers with no
	// open file behind them.
	ErrBadDescriptor = errors.New("bad file descriptor")

	// ErrBadOffset rejects seeks that would land before the start of the
	// file.
	ErrBadOffset = errors.New("invalid seek offset")

	// ErrPermission rejects writes through read-only descriptors and
	// reads through write-only ones.
	ErrPermission = errors.New("permission denied")

	// ErrTooManyOpenFiles rejects opens once a session has exhausted its
	// descriptor limit.
	ErrTooManyOpenFiles = errors.New("too many open files")
)
