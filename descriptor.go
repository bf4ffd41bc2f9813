package memfs

import (
	"io"
	"sync"

	"github.com/glacya/memfs/filesystem"
)

// descriptor is one open file: a node, the flags it was opened with, and
// a position. The position moves under its own lock so concurrent users
// of the same descriptor see a consistent cursor.
type descriptor struct {
	fd    int
	node  *filesystem.Node
	flags OpenFlag

	mu     sync.Mutex
	offset int64
}

func (d *descriptor) read(size int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	// cap the allocation at what the file can still yield
	if remaining := d.node.Size() - d.offset; remaining < int64(size) {
		size = int(max(remaining, 0))
	}
	buf := make([]byte, size)
	n := d.node.ReadAt(buf, d.offset)
	d.offset += int64(n)
	return buf[:n]
}

func (d *descriptor) write(p []byte, maxSize int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.flags.has(O_APPEND) {
		end, err := d.node.Append(p, maxSize)
		if err != nil {
			return 0, err
		}
		d.offset = end
		return len(p), nil
	}
	n, err := d.node.WriteAt(p, d.offset, maxSize)
	if err != nil {
		return 0, err
	}
	d.offset += int64(n)
	return n, nil
}

func (d *descriptor) seek(offset int64, whence int) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = d.offset
	case io.SeekEnd:
		base = d.node.Size()
	default:
		return 0, ErrInvalid
	}
	pos := base + offset
	if pos < 0 {
		return 0, ErrBadOffset
	}
	d.offset = pos
	return pos, nil
}

// descriptorTable maps descriptor numbers to open files for one session.
type descriptorTable struct {
	mu      sync.Mutex
	entries map[int]*descriptor
	limit   int
}

func newDescriptorTable(limit int) *descriptorTable {
	return &descriptorTable{
		entries: make(map[int]*descriptor),
		limit:   limit,
	}
}

// allocate binds node to the lowest descriptor number not currently in
// use. The node is referenced before the descriptor is published, so an
// allocated descriptor always pins a live node.
func (t *descriptorTable) allocate(node *filesystem.Node, flags OpenFlag) (*descriptor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.limit > 0 && len(t.entries) >= t.limit {
		return nil, ErrTooManyOpenFiles
	}
	if err := node.Ref(); err != nil {
		return nil, err
	}
	fd := 0
	for {
		if _, used := t.entries[fd]; !used {
			break
		}
		fd++
	}
	d := &descriptor{fd: fd, node: node, flags: flags}
	t.entries[fd] = d
	return d, nil
}

func (t *descriptorTable) lookup(fd int) (*descriptor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.entries[fd]
	if !ok {
		return nil, ErrBadDescriptor
	}
	return d, nil
}

// release frees fd and drops its node reference, reporting the node and
// whether dropping the reference destroyed it.
func (t *descriptorTable) release(fd int) (*filesystem.Node, bool, error) {
	t.mu.Lock()
	d, ok := t.entries[fd]
	if !ok {
		t.mu.Unlock()
		return nil, false, ErrBadDescriptor
	}
	delete(t.entries, fd)
	t.mu.Unlock()

	destroyed := d.node.Unref()
	return d.node, destroyed, nil
}

// releaseAll frees every descriptor and returns the nodes destroyed by
// losing their last reference.
func (t *descriptorTable) releaseAll() []*filesystem.Node {
	t.mu.Lock()
	ds := make([]*descriptor, 0, len(t.entries))
	for _, d := range t.entries {
		ds = append(ds, d)
	}
	clear(t.entries)
	t.mu.Unlock()

	var destroyed []*filesystem.Node
	for _, d := range ds {
		if d.node.Unref() {
			destroyed = append(destroyed, d.node)
		}
	}
	return destroyed
}

func (t *descriptorTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
