package memfs

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/glacya/memfs/filesystem"
	"github.com/glacya/memfs/internal/util"
)

// Context is a single session against a [MemFS]: a working directory, a
// descriptor table, and the syscalls acting on them. A Context is safe
// for concurrent use; distinct Contexts share the tree and nothing else.
type Context struct {
	fs    *MemFS
	id    string
	table *descriptorTable

	mu  sync.RWMutex
	cwd *filesystem.Node
}

var _ FileSystem = (*Context)(nil)

// NewContext opens a session with its working directory at the root.
func (m *MemFS) NewContext() *Context {
	c := &Context{
		fs:    m,
		id:    uuid.NewString(),
		table: newDescriptorTable(m.cfg.MaxOpenFiles),
		cwd:   m.tree.Root(),
	}
	logger := util.GetLogger("Syscall")
	logger.Debug().Str("ctx", c.id).Msg("Session opened")
	return c
}

func (c *Context) opLogger(op string) util.Logger {
	return util.GetLogger("Syscall." + op).With().Str("ctx", c.id).Logger()
}

func (c *Context) curDir() *filesystem.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cwd
}

// isDirAlias reports whether a final path component can only name a
// directory: the empty component ("/", "" or a trailing separator), "."
// and "..".
func isDirAlias(name string) bool {
	switch name {
	case "", ".", "..":
		return true
	}
	return false
}

// Open resolves path and binds it to the lowest unused descriptor
// number. Exactly one of O_RDONLY, O_WRONLY or O_RDWR selects the access
// mode; O_CREATE, O_EXCL, O_TRUNC and O_APPEND adjust behavior. Opening
// a directory fails ErrIsDir whatever the flags say.
func (c *Context) Open(path string, flags OpenFlag) (int, error) {
	logger := c.opLogger("Open")
	logger.Debug().Str("path", path).Int("flags", int(flags)).Msg("Open called")

	node, err := c.openNode(path, flags)
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", path, err)
	}
	d, err := c.table.allocate(node, flags)
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", path, err)
	}
	// truncation waits until the open cannot fail anymore
	if flags.has(O_TRUNC) {
		node.Truncate()
	}
	logger.Trace().Int("fd", d.fd).Uint64("id", node.ID()).Msg("Descriptor allocated")
	return d.fd, nil
}

func (c *Context) openNode(path string, flags OpenFlag) (*filesystem.Node, error) {
	if flags.accessMode() == O_ACCMODE {
		return nil, ErrInvalid
	}
	if flags.has(O_TRUNC) && !flags.writable() {
		return nil, ErrPermission
	}

	tree := c.fs.tree
	base := c.curDir()
	dir, name := filesystem.SplitPath(path)

	if isDirAlias(name) {
		n, err := tree.Resolve(base, path)
		if err != nil {
			return nil, err
		}
		if n.IsDir() {
			return nil, ErrIsDir
		}
		return n, nil
	}

	parent, err := tree.ResolveDir(base, dir)
	if err != nil {
		return nil, err
	}

	if !flags.has(O_CREATE) {
		n, ok := parent.GetChild(name)
		if !ok {
			return nil, ErrNotExist
		}
		if n.IsDir() {
			return nil, ErrIsDir
		}
		return n, nil
	}

	n, created, err := tree.CreateFile(parent, name, flags.has(O_EXCL))
	if err != nil {
		return nil, err
	}
	if !created && n.IsDir() {
		return nil, ErrIsDir
	}
	return n, nil
}

// Close releases fd. Closing the last descriptor of an unlinked file
// destroys it for good.
func (c *Context) Close(fd int) error {
	logger := c.opLogger("Close")
	logger.Debug().Int("fd", fd).Msg("Close called")

	node, destroyed, err := c.table.release(fd)
	if err != nil {
		return fmt.Errorf("close fd %d: %w", fd, err)
	}
	if destroyed {
		c.fs.tree.Forget(node)
		logger.Trace().Uint64("id", node.ID()).Msg("Destroyed orphaned file")
	}
	return nil
}

// Read copies up to size bytes from fd's position and advances the
// position by the amount actually read. At end of file it returns an
// empty slice and no error.
func (c *Context) Read(fd int, size int) ([]byte, error) {
	logger := c.opLogger("Read")
	logger.Trace().Int("fd", fd).Int("size", size).Msg("Read called")

	d, err := c.table.lookup(fd)
	if err != nil {
		return nil, fmt.Errorf("read fd %d: %w", fd, err)
	}
	if !d.flags.readable() {
		return nil, fmt.Errorf("read fd %d: %w", fd, ErrPermission)
	}
	if size < 0 {
		return nil, fmt.Errorf("read fd %d: %w", fd, ErrInvalid)
	}
	return d.read(size), nil
}

// Write copies data at fd's position and advances the position past the
// written bytes. A position past the end of file zero-fills the gap
// first. O_APPEND descriptors ignore the position and write atomically
// at the end of file.
func (c *Context) Write(fd int, data []byte) (int, error) {
	logger := c.opLogger("Write")
	logger.Trace().Int("fd", fd).Int("size", len(data)).Msg("Write called")

	d, err := c.table.lookup(fd)
	if err != nil {
		return 0, fmt.Errorf("write fd %d: %w", fd, err)
	}
	if !d.flags.writable() {
		return 0, fmt.Errorf("write fd %d: %w", fd, ErrPermission)
	}
	n, err := d.write(data, int64(c.fs.cfg.MaxFileSize))
	if err != nil {
		return 0, fmt.Errorf("write fd %d: %w", fd, err)
	}
	return n, nil
}

// Seek repositions fd per whence, one of [io.SeekStart], [io.SeekCurrent]
// or [io.SeekEnd], and returns the new absolute position. Positions past
// the end of file are legal; a later write there zero-fills the gap. A
// negative result fails ErrBadOffset and leaves the position alone.
func (c *Context) Seek(fd int, offset int64, whence int) (int64, error) {
	logger := c.opLogger("Seek")
	logger.Trace().Int("fd", fd).Int64("offset", offset).Int("whence", whence).Msg("Seek called")

	d, err := c.table.lookup(fd)
	if err != nil {
		return 0, fmt.Errorf("seek fd %d: %w", fd, err)
	}
	pos, err := d.seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("seek fd %d: %w", fd, err)
	}
	return pos, nil
}

// Mkdir creates the directory named by path. Parent directories must
// already exist.
func (c *Context) Mkdir(path string) error {
	logger := c.opLogger("Mkdir")
	logger.Debug().Str("path", path).Msg("Mkdir called")

	tree := c.fs.tree
	base := c.curDir()
	dir, name := filesystem.SplitPath(path)

	if isDirAlias(name) {
		// "/", "." and ".." name directories that exist whenever they
		// resolve at all
		if _, err := tree.Resolve(base, path); err != nil {
			return fmt.Errorf("mkdir %s: %w", path, err)
		}
		return fmt.Errorf("mkdir %s: %w", path, ErrExist)
	}
	parent, err := tree.ResolveDir(base, dir)
	if err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	if _, err := tree.Mkdir(parent, name); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// Rmdir removes the directory named by path, which must be empty. The
// root is never removable; naming the directory "." or via a trailing
// ".." component is rejected the way the classic syscalls do.
func (c *Context) Rmdir(path string) error {
	logger := c.opLogger("Rmdir")
	logger.Debug().Str("path", path).Msg("Rmdir called")

	tree := c.fs.tree
	base := c.curDir()
	dir, name := filesystem.SplitPath(path)

	switch name {
	case "":
		n, err := tree.Resolve(base, path)
		if err != nil {
			return fmt.Errorf("rmdir %s: %w", path, err)
		}
		if n.IsRoot() {
			return fmt.Errorf("rmdir %s: %w", path, ErrBusy)
		}
		return fmt.Errorf("rmdir %s: %w", path, ErrInvalid)
	case ".":
		return fmt.Errorf("rmdir %s: %w", path, ErrInvalid)
	case "..":
		return fmt.Errorf("rmdir %s: %w", path, ErrNotEmpty)
	}

	parent, err := tree.ResolveDir(base, dir)
	if err != nil {
		return fmt.Errorf("rmdir %s: %w", path, err)
	}
	if err := tree.Rmdir(parent, name); err != nil {
		return fmt.Errorf("rmdir %s: %w", path, err)
	}
	return nil
}

// Unlink removes the file named by path from its directory. Descriptors
// already open keep the content alive; the file is destroyed when the
// last one closes.
func (c *Context) Unlink(path string) error {
	logger := c.opLogger("Unlink")
	logger.Debug().Str("path", path).Msg("Unlink called")

	tree := c.fs.tree
	base := c.curDir()
	dir, name := filesystem.SplitPath(path)

	if isDirAlias(name) {
		if _, err := tree.Resolve(base, path); err != nil {
			return fmt.Errorf("unlink %s: %w", path, err)
		}
		return fmt.Errorf("unlink %s: %w", path, ErrIsDir)
	}
	parent, err := tree.ResolveDir(base, dir)
	if err != nil {
		return fmt.Errorf("unlink %s: %w", path, err)
	}
	if err := tree.Unlink(parent, name); err != nil {
		return fmt.Errorf("unlink %s: %w", path, err)
	}
	return nil
}

// Rename moves oldPath to newPath. The destination name must be free,
// and a directory cannot move into its own subtree.
func (c *Context) Rename(oldPath, newPath string) error {
	logger := c.opLogger("Rename")
	logger.Debug().Str("from", oldPath).Str("to", newPath).Msg("Rename called")

	tree := c.fs.tree
	base := c.curDir()

	srcDir, srcName := filesystem.SplitPath(oldPath)
	dstDir, dstName := filesystem.SplitPath(newPath)
	if isDirAlias(srcName) || isDirAlias(dstName) {
		return fmt.Errorf("rename %s to %s: %w", oldPath, newPath, ErrInvalid)
	}

	srcParent, err := tree.ResolveDir(base, srcDir)
	if err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldPath, newPath, err)
	}
	dstParent, err := tree.ResolveDir(base, dstDir)
	if err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldPath, newPath, err)
	}
	if err := tree.Rename(srcParent, srcName, dstParent, dstName); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

// Chdir moves the session's working directory. Other sessions keep
// their own.
func (c *Context) Chdir(path string) error {
	logger := c.opLogger("Chdir")
	logger.Debug().Str("path", path).Msg("Chdir called")

	n, err := c.fs.tree.ResolveDir(c.curDir(), path)
	if err != nil {
		return fmt.Errorf("chdir %s: %w", path, err)
	}
	c.mu.Lock()
	c.cwd = n
	c.mu.Unlock()
	return nil
}

// Getwd reports the absolute path of the working directory. It fails
// ErrNotExist once the directory has been removed from the tree.
func (c *Context) Getwd() (string, error) {
	n := c.curDir()
	if n.Unlinked() {
		return "", fmt.Errorf("getwd: %w", ErrNotExist)
	}
	return n.Path(), nil
}

// Stat describes the node named by path.
func (c *Context) Stat(path string) (NodeInfo, error) {
	n, err := c.fs.tree.Resolve(c.curDir(), path)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return infoFor(n), nil
}

// ReadDir lists the directory named by path in name order.
func (c *Context) ReadDir(path string) ([]NodeInfo, error) {
	dir, err := c.fs.tree.ResolveDir(c.curDir(), path)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %w", path, err)
	}
	entries := dir.Entries()
	infos := make([]NodeInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, NodeInfo{
			Name: e.Name,
			Path: e.Node.Path(),
			Kind: e.Node.Kind(),
			Size: e.Node.Size(),
		})
	}
	return infos, nil
}

// OpenFiles reports how many descriptors the session currently holds.
func (c *Context) OpenFiles() int {
	return c.table.size()
}

// Release closes every descriptor the session still holds. The session
// remains usable; it simply has no open files left.
func (c *Context) Release() {
	logger := c.opLogger("Release")

	destroyed := c.table.releaseAll()
	for _, n := range destroyed {
		c.fs.tree.Forget(n)
	}
	logger.Debug().Int("destroyed", len(destroyed)).Msg("Session released")
}
