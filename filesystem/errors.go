package filesystem

import "errors"

// Error kinds surfaced by namespace and content operations. Callers match
// them with errors.Is; the syscall layer wraps them with operation and
// path context before they reach users.
var (
	ErrNotExist     = errors.New("no such file or directory")
	ErrExist        = errors.New("file exists")
	ErrIsDir        = errors.New("is a directory")
	ErrNotDir       = errors.New("not a directory")
	ErrNotEmpty     = errors.New("directory not empty")
	ErrBusy         = errors.New("device or resource busy")
	ErrInvalid      = errors.New("invalid argument")
	ErrFileTooLarge = errors.New("file too large")
)
