package filesystem

import "sync/atomic"

// Stats holds the tree's live accounting. Counters are updated under the
// individual node locks and read without any.
type Stats struct {
	dirs    atomic.Int64
	files   atomic.Int64
	orphans atomic.Int64
	opens   atomic.Int64
	bytes   atomic.Int64
}

// Snapshot is a point-in-time copy of the tree's counters.
type Snapshot struct {
	Dirs            int64 // directories in the namespace, including the root
	Files           int64 // files reachable by path lookup
	OrphanedFiles   int64 // unlinked files kept alive by open descriptors
	OpenDescriptors int64 // live descriptors across all contexts
	Bytes           int64 // resident content bytes, orphans included
}

func (s *Stats) snapshot() Snapshot {
	return Snapshot{
		Dirs:            s.dirs.Load(),
		Files:           s.files.Load(),
		OrphanedFiles:   s.orphans.Load(),
		OpenDescriptors: s.opens.Load(),
		Bytes:           s.bytes.Load(),
	}
}
