package filesystem

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/glacya/memfs/internal/util"
)

// RootID is the node id of the root directory.
const RootID uint64 = 1

// Tree owns the root directory and the namespace bookkeeping: node id
// allocation, the orphan registry (unlinked files kept alive by open
// descriptors), and the stats counters.
type Tree struct {
	root    *Node
	lastID  atomic.Uint64
	orphans *xsync.MapOf[uint64, *Node]
	stats   *Stats

	// Cross-parent renames serialize here so the cycle check and the
	// parent lock order see a stable ancestry.
	renameMu sync.Mutex
}

// NewTree creates a tree holding only the root directory.
func NewTree() *Tree {
	t := &Tree{
		orphans: xsync.NewMapOf[uint64, *Node](),
		stats:   &Stats{},
	}
	t.lastID.Store(RootID)
	t.root = newNode(RootID, "", KindDir, t.stats)
	t.stats.dirs.Add(1)
	return t
}

// Root returns the root directory. It is never unlinked.
func (t *Tree) Root() *Node {
	return t.root
}

// Stats returns a snapshot of the tree's counters.
func (t *Tree) Stats() Snapshot {
	return t.stats.snapshot()
}

// newChild allocates a node and installs it in parent's mapping.
// Caller holds parent.mu; the child is not yet published, so its own
// fields are set without its lock.
func (t *Tree) newChild(parent *Node, name string, kind Kind) *Node {
	n := newNode(t.lastID.Add(1), name, kind, t.stats)
	n.parent = parent
	parent.children[name] = n
	if kind == KindDir {
		t.stats.dirs.Add(1)
	} else {
		t.stats.files.Add(1)
	}
	return n
}

// CreateFile installs an empty file under parent. With exclusive unset
// and the name already taken, the existing node is returned with
// created=false, so racing non-exclusive creators converge on one node;
// the caller decides what an existing directory means. The parent's
// write lock is held across the lookup and the insert.
func (t *Tree) CreateFile(parent *Node, name string, exclusive bool) (node *Node, created bool, err error) {
	if err := checkName(name); err != nil {
		return nil, false, err
	}
	if !parent.IsDir() {
		return nil, false, ErrNotDir
	}

	parent.mu.Lock()
	if parent.unlinked {
		parent.mu.Unlock()
		return nil, false, ErrNotExist
	}
	if existing, ok := parent.children[name]; ok {
		parent.mu.Unlock()
		if exclusive {
			return nil, false, ErrExist
		}
		return existing, false, nil
	}
	node = t.newChild(parent, name, KindFile)
	parent.mu.Unlock()

	logger := util.GetLogger("tree")
	logger.Trace().Uint64("id", node.id).Str("name", name).Msg("Created file node")
	return node, true, nil
}

// Mkdir installs an empty directory under parent.
func (t *Tree) Mkdir(parent *Node, name string) (*Node, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if !parent.IsDir() {
		return nil, ErrNotDir
	}

	parent.mu.Lock()
	if parent.unlinked {
		parent.mu.Unlock()
		return nil, ErrNotExist
	}
	if _, ok := parent.children[name]; ok {
		parent.mu.Unlock()
		return nil, ErrExist
	}
	node := t.newChild(parent, name, KindDir)
	parent.mu.Unlock()

	logger := util.GetLogger("tree")
	logger.Trace().Uint64("id", node.id).Str("name", name).Msg("Created directory node")
	return node, nil
}

// MkdirAll creates every missing directory along path, resolved from the
// root, and returns the leaf. Existing directories are reused; a file in
// the way fails ErrNotDir. Racing creators of the same component converge
// on one node.
func (t *Tree) MkdirAll(path string) (*Node, error) {
	cur := t.root
	for _, name := range splitComponents(path) {
		if name == ".." {
			if next := cur.Parent(); next != nil {
				cur = next
			}
			continue
		}
		if !cur.IsDir() {
			return nil, ErrNotDir
		}
		if child, ok := cur.GetChild(name); ok {
			cur = child
			continue
		}
		child, err := t.Mkdir(cur, name)
		if errors.Is(err, ErrExist) {
			// lost the race to another creator; use the winner
			if child, ok := cur.GetChild(name); ok {
				cur = child
				continue
			}
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		cur = child
	}
	if !cur.IsDir() {
		return nil, ErrNotDir
	}
	return cur, nil
}

// Unlink removes the named file from parent. The mapping entry is removed
// and the unlinked flag set in one parent-then-child step. With open
// descriptors outstanding the node moves to the orphan registry and its
// buffer survives until the last of them closes; otherwise the buffer is
// reclaimed on the spot.
func (t *Tree) Unlink(parent *Node, name string) error {
	if !parent.IsDir() {
		return ErrNotDir
	}

	parent.mu.Lock()
	child, ok := parent.children[name]
	if !ok {
		parent.mu.Unlock()
		return ErrNotExist
	}
	if child.IsDir() {
		parent.mu.Unlock()
		return ErrIsDir
	}
	delete(parent.children, name)

	child.mu.Lock()
	child.unlinked = true
	orphaned := child.openCount > 0
	if orphaned {
		// registered inside the child's critical section so the final
		// Unref cannot observe the flag before the registry entry exists
		t.orphans.Store(child.id, child)
		t.stats.orphans.Add(1)
	} else {
		child.releaseLocked()
	}
	child.mu.Unlock()
	parent.mu.Unlock()

	t.stats.files.Add(-1)
	logger := util.GetLogger("tree")
	logger.Trace().Uint64("id", child.id).Str("name", name).Bool("orphaned", orphaned).Msg("Unlinked file node")
	return nil
}

// Rmdir removes the named directory from parent. Emptiness is checked
// with the child's lock held inside the parent's critical section, so a
// racing create under the child cannot slip past the check.
func (t *Tree) Rmdir(parent *Node, name string) error {
	if !parent.IsDir() {
		return ErrNotDir
	}

	parent.mu.Lock()
	child, ok := parent.children[name]
	if !ok {
		parent.mu.Unlock()
		return ErrNotExist
	}
	if !child.IsDir() {
		parent.mu.Unlock()
		return ErrNotDir
	}

	child.mu.Lock()
	if len(child.children) > 0 {
		child.mu.Unlock()
		parent.mu.Unlock()
		return ErrNotEmpty
	}
	child.unlinked = true
	child.mu.Unlock()

	delete(parent.children, name)
	parent.mu.Unlock()

	t.stats.dirs.Add(-1)
	logger := util.GetLogger("tree")
	logger.Trace().Uint64("id", child.id).Str("name", name).Msg("Removed directory node")
	return nil
}

// Forget drops a destroyed file from the orphan registry. Callers invoke
// it after Unref reports destruction.
func (t *Tree) Forget(n *Node) {
	if _, ok := t.orphans.LoadAndDelete(n.ID()); ok {
		t.stats.orphans.Add(-1)
	}
}

// Orphans returns the number of unlinked files still held open.
func (t *Tree) Orphans() int {
	return t.orphans.Size()
}

// Rename moves the child srcParent/srcName to dstParent/dstName. The
// destination name must be free. Distinct parents are locked ancestor
// first, falling back to ascending node-id order when unrelated, with
// the child's lock taken momentarily inside that window to update its
// name and back-reference.
func (t *Tree) Rename(srcParent *Node, srcName string, dstParent *Node, dstName string) error {
	if err := checkName(srcName); err != nil {
		return err
	}
	if err := checkName(dstName); err != nil {
		return err
	}
	if !srcParent.IsDir() || !dstParent.IsDir() {
		return ErrNotDir
	}

	if srcParent == dstParent {
		return t.renameSameParent(srcParent, srcName, dstName)
	}

	t.renameMu.Lock()
	defer t.renameMu.Unlock()

	child, ok := srcParent.GetChild(srcName)
	if !ok {
		return ErrNotExist
	}
	if child.IsDir() {
		// a directory must not move into its own subtree
		if child == dstParent || t.isAncestorOf(child, dstParent) {
			return ErrInvalid
		}
	}

	first, second := t.renameLockOrder(srcParent, dstParent)
	first.mu.Lock()
	second.mu.Lock()
	defer func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}()

	if srcParent.unlinked || dstParent.unlinked {
		return ErrNotExist
	}
	if cur, ok := srcParent.children[srcName]; !ok || cur != child {
		return ErrNotExist
	}
	if _, ok := dstParent.children[dstName]; ok {
		return ErrExist
	}

	delete(srcParent.children, srcName)
	dstParent.children[dstName] = child
	child.mu.Lock()
	child.name = dstName
	child.parent = dstParent
	child.mu.Unlock()

	logger := util.GetLogger("tree")
	logger.Trace().Uint64("id", child.id).Str("from", srcName).Str("to", dstName).Msg("Renamed node across directories")
	return nil
}

func (t *Tree) renameSameParent(parent *Node, srcName, dstName string) error {
	parent.mu.Lock()
	defer parent.mu.Unlock()

	if parent.unlinked {
		return ErrNotExist
	}
	child, ok := parent.children[srcName]
	if !ok {
		return ErrNotExist
	}
	if srcName == dstName {
		return nil
	}
	if _, ok := parent.children[dstName]; ok {
		return ErrExist
	}

	delete(parent.children, srcName)
	parent.children[dstName] = child
	child.mu.Lock()
	child.name = dstName
	child.mu.Unlock()
	return nil
}

// renameLockOrder picks the lock acquisition order for two distinct
// parents. When one is an ancestor of the other it goes first, keeping
// the window consistent with the parent-then-child order Unlink and
// Rmdir use on the same pair; unrelated parents order by ascending node
// id and only ever race other renames, which renameMu serializes.
// Caller holds renameMu, so ancestry cannot shift between the choice
// and the locks.
func (t *Tree) renameLockOrder(srcParent, dstParent *Node) (first, second *Node) {
	switch {
	case t.isAncestorOf(srcParent, dstParent):
		return srcParent, dstParent
	case t.isAncestorOf(dstParent, srcParent):
		return dstParent, srcParent
	case dstParent.id < srcParent.id:
		return dstParent, srcParent
	}
	return srcParent, dstParent
}

// isAncestorOf reports whether a sits on n's parent chain. Called with
// renameMu held, so no concurrent rename can move the chain mid-walk;
// each step takes a single node lock at a time.
func (t *Tree) isAncestorOf(a, n *Node) bool {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if cur == a {
			return true
		}
	}
	return false
}

// Walk visits every node reachable from the root in depth-first,
// name-sorted order. Directory snapshots are taken one lock at a time;
// entries added or removed mid-walk may or may not be seen.
func (t *Tree) Walk(fn func(depth int, name string, n *Node)) {
	walkNode(t.root, Separator, 0, fn)
}

func walkNode(n *Node, name string, depth int, fn func(depth int, name string, n *Node)) {
	fn(depth, name, n)
	if !n.IsDir() {
		return
	}
	for _, e := range n.Entries() {
		walkNode(e.Node, e.Name, depth+1, fn)
	}
}
