package filesystem

import (
	"math"
	"slices"
	"strings"
	"sync"
)

// Kind discriminates directory nodes from file nodes.
type Kind int8

const (
	KindDir Kind = iota
	KindFile
)

func (k Kind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// Node is a single element of the namespace tree: a directory holding a
// name-to-child mapping or a file holding a growable byte buffer.
//
// Every mutable field is guarded by mu. Locks are only ever acquired
// top-down: a parent's lock may be held while taking a child's for the
// single install/remove/inspect step, never the other way around.
type Node struct {
	id    uint64
	kind  Kind
	stats *Stats

	mu        sync.RWMutex
	name      string           // last path component; changes only on rename
	parent    *Node            // `..` target; nil for root, kept after unlink
	children  map[string]*Node // directories only
	data      []byte           // files only
	openCount int              // files only; live descriptors
	unlinked  bool             // removed from the parent's mapping
	released  bool             // buffer reclaimed
}

func newNode(id uint64, name string, kind Kind, stats *Stats) *Node {
	n := &Node{id: id, name: name, kind: kind, stats: stats}
	if kind == KindDir {
		n.children = make(map[string]*Node)
	}
	return n
}

// ID returns the node's stable identity. Ids start at RootID and are
// never reused.
func (n *Node) ID() uint64 {
	return n.id
}

// Kind reports whether the node is a directory or a file.
func (n *Node) Kind() Kind {
	return n.kind
}

func (n *Node) IsDir() bool {
	return n.kind == KindDir
}

func (n *Node) IsFile() bool {
	return n.kind == KindFile
}

func (n *Node) IsRoot() bool {
	return n.id == RootID
}

// internal name accessor when Node is already locked
func (n *Node) nameLocked() string {
	return n.name
}

// Name returns the node's current name.
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nameLocked()
}

// Parent returns the `..` target; nil for the root. The back-reference
// survives unlink, so a detached directory still climbs to its former
// parent.
func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Unlinked reports whether the node has been removed from its parent's
// mapping.
func (n *Node) Unlinked() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.unlinked
}

// Released reports whether a file's buffer has been reclaimed.
func (n *Node) Released() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.released
}

// OpenCount returns the number of live descriptors on a file.
func (n *Node) OpenCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.openCount
}

// Path returns the node's absolute path. The walk up takes one ancestor
// lock at a time; no two locks are ever held together.
func (n *Node) Path() string {
	if n.IsRoot() {
		return Separator
	}
	var parts []string
	for cur := n; cur != nil && !cur.IsRoot(); {
		cur.mu.RLock()
		name, next := cur.name, cur.parent
		cur.mu.RUnlock()
		parts = append(parts, name)
		cur = next
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(Separator)
		b.WriteString(parts[i])
	}
	return b.String()
}

// GetChild looks up a child by name. The directory's lock is released
// before the caller touches the child.
func (n *Node) GetChild(name string) (*Node, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	child, ok := n.children[name]
	return child, ok
}

// NumChildren returns the directory's entry count.
func (n *Node) NumChildren() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children)
}

// Entry pairs a directory mapping name with its node.
type Entry struct {
	Name string
	Node *Node
}

// Entries returns a name-sorted snapshot of the directory's mapping.
func (n *Node) Entries() []Entry {
	n.mu.RLock()
	entries := make([]Entry, 0, len(n.children))
	for name, child := range n.children {
		entries = append(entries, Entry{Name: name, Node: child})
	}
	n.mu.RUnlock()
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries
}

// Size returns the file's current length in bytes.
func (n *Node) Size() int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return int64(len(n.data))
}

// ReadAt copies up to len(p) bytes starting at off into p and returns the
// number copied: fewer than len(p) near the end of the buffer, zero at or
// past it. End of file is a zero count, never an error.
func (n *Node) ReadAt(p []byte, off int64) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if off < 0 || off >= int64(len(n.data)) {
		return 0
	}
	return copy(p, n.data[off:])
}

// WriteAt writes p at off, growing the buffer as needed. A gap between
// the old length and off is filled with zero bytes. maxSize caps the
// resulting length when positive; an off so large the end position
// cannot be represented fails the same way. On ErrFileTooLarge nothing
// is written.
func (n *Node) WriteAt(p []byte, off int64, maxSize int64) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.writeAtLocked(p, off, maxSize)
}

// See [Node.WriteAt]
func (n *Node) writeAtLocked(p []byte, off int64, maxSize int64) (int, error) {
	// the end offset must stay in int64 range or the cap check below
	// would see a wrapped value
	if off > math.MaxInt64-int64(len(p)) {
		return 0, ErrFileTooLarge
	}
	end := off + int64(len(p))
	if maxSize > 0 && end > maxSize {
		return 0, ErrFileTooLarge
	}
	if grow := end - int64(len(n.data)); grow > 0 {
		n.data = append(n.data, make([]byte, grow)...)
		n.stats.bytes.Add(grow)
	}
	copy(n.data[off:], p)
	return len(p), nil
}

// Append writes p at the current end of file and returns the offset one
// past the written block. The position is taken under the same exclusive
// lock as the copy, so concurrent appenders never interleave.
func (n *Node) Append(p []byte, maxSize int64) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	off := int64(len(n.data))
	if _, err := n.writeAtLocked(p, off, maxSize); err != nil {
		return 0, err
	}
	return off + int64(len(p)), nil
}

// Truncate discards the file's content.
func (n *Node) Truncate() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stats.bytes.Add(-int64(len(n.data)))
	n.data = nil
}

// Ref registers a live descriptor against the file. It fails ErrNotExist
// once the node is unlinked, so an open racing an unlink cannot resurrect
// a dying file.
func (n *Node) Ref() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.unlinked {
		return ErrNotExist
	}
	n.openCount++
	n.stats.opens.Add(1)
	return nil
}

// Unref drops one descriptor reference and reports whether the drop
// destroyed the node (unlinked with no descriptors left). The buffer is
// reclaimed under the same lock that decides destruction.
func (n *Node) Unref() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.openCount--
	n.stats.opens.Add(-1)
	if n.unlinked && n.openCount == 0 {
		n.releaseLocked()
		return true
	}
	return false
}

// releaseLocked reclaims the file's buffer. Caller holds n.mu.
func (n *Node) releaseLocked() {
	if n.released {
		return
	}
	n.stats.bytes.Add(-int64(len(n.data)))
	n.data = nil
	n.released = true
}
