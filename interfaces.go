package memfs

// NodeRequestor is an interface implemented by all node request types
type NodeRequestor interface {
	GetType() NodeCreateRequestType
	GetPath() string
}

// FileSystem is the syscall surface a session [Context] serves. Relative
// paths resolve against the session's working directory; absolute paths
// resolve from the root.
type FileSystem interface {
	// Open binds path to the lowest unused descriptor number.
	Open(path string, flags OpenFlag) (int, error)

	// Close releases a descriptor. The last close of an unlinked file
	// destroys it.
	Close(fd int) error

	// Read copies up to size bytes from the descriptor position and
	// advances it. At end of file it returns an empty slice and no error.
	Read(fd int, size int) ([]byte, error)

	// Write copies data at the descriptor position and advances it,
	// zero-filling any gap left by an earlier seek past the end.
	Write(fd int, data []byte) (int, error)

	// Seek repositions the descriptor and returns the new absolute
	// position. Positions past the end of file are legal.
	Seek(fd int, offset int64, whence int) (int64, error)

	// Mkdir creates a directory; the parent must already exist.
	Mkdir(path string) error

	// Rmdir removes an empty directory.
	Rmdir(path string) error

	// Unlink removes a file from its directory. Open descriptors keep
	// the content alive until the last of them closes.
	Unlink(path string) error

	// Rename moves a node to a new parent or name. The destination must
	// not exist.
	Rename(oldPath, newPath string) error

	// Chdir moves the session's working directory.
	Chdir(path string) error

	// Getwd reports the absolute path of the working directory.
	Getwd() (string, error)

	// Stat describes a single node.
	Stat(path string) (NodeInfo, error)

	// ReadDir lists a directory in name order.
	ReadDir(path string) ([]NodeInfo, error)

	// Release closes every descriptor the session still holds.
	Release()
}
