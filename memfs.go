// Package memfs implements an in-memory, thread-safe filesystem with a
// POSIX-like syscall surface. A [MemFS] owns the directory tree; each
// [Context] layers a working directory and a descriptor table on top, so
// independent sessions share one namespace while keeping their own open
// files and position state.
package memfs

import (
	"fmt"

	"github.com/glacya/memfs/config"
	"github.com/glacya/memfs/filesystem"
	"github.com/glacya/memfs/internal/util"
)

// Stats is a point-in-time snapshot of the filesystem's counters.
type Stats = filesystem.Snapshot

// MemFS is the filesystem state shared by every session.
type MemFS struct {
	cfg  *config.Config
	tree *filesystem.Tree
}

// New creates an empty filesystem given your config. A nil cfg uses the
// defaults.
func New(cfg *config.Config) *MemFS {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &MemFS{
		cfg:  cfg,
		tree: filesystem.NewTree(),
	}
}

// Stats returns current namespace and descriptor counters.
func (m *MemFS) Stats() Stats {
	return m.tree.Stats()
}

// AddFileNode creates the file named by req.Path with its initial
// content, creating missing parent directories along the way. Paths
// resolve from the root; the create is exclusive, so seeding the same
// path twice fails ErrExist.
func (m *MemFS) AddFileNode(req *FileCreateRequest) (NodeInfo, error) {
	logger := util.GetLogger("MemFS.AddFileNode")
	logger.Debug().Str("path", req.Path).Int("bytes", len(req.Content)).Msg("Adding file node")

	dir, name := filesystem.SplitPath(req.Path)
	if isDirAlias(name) {
		return NodeInfo{}, fmt.Errorf("add file %s: %w", req.Path, ErrInvalid)
	}
	parent, err := m.tree.MkdirAll(dir)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("add file %s: %w", req.Path, err)
	}
	node, _, err := m.tree.CreateFile(parent, name, true)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("add file %s: %w", req.Path, err)
	}
	if len(req.Content) > 0 {
		if _, err := node.WriteAt(req.Content, 0, int64(m.cfg.MaxFileSize)); err != nil {
			// leave no half-seeded file behind
			_ = m.tree.Unlink(parent, name)
			return NodeInfo{}, fmt.Errorf("add file %s: %w", req.Path, err)
		}
	}
	return infoFor(node), nil
}

// AddDirNode creates the directory named by req.Path, parents included.
// Re-seeding an existing directory is a no-op returning the existing
// node.
func (m *MemFS) AddDirNode(req *DirCreateRequest) (NodeInfo, error) {
	logger := util.GetLogger("MemFS.AddDirNode")
	logger.Debug().Str("path", req.Path).Msg("Adding directory node")

	node, err := m.tree.MkdirAll(req.Path)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("add dir %s: %w", req.Path, err)
	}
	return infoFor(node), nil
}

// Seed applies a batch of create requests. Directories are created
// first so empty ones land regardless of request order; files follow.
// Individual failures are logged and skipped, and the counts report
// what actually got created.
func (m *MemFS) Seed(reqs []NodeRequestor) (dirs, files int) {
	logger := util.GetLogger("MemFS.Seed")

	for _, req := range reqs {
		dirReq, ok := req.(*DirCreateRequest)
		if !ok || req.GetType() != DirNodeType {
			continue
		}
		if _, err := m.AddDirNode(dirReq); err != nil {
			logger.Warn().Err(err).Str("path", req.GetPath()).Msg("Failed to seed directory")
			continue
		}
		dirs++
	}
	for _, req := range reqs {
		fileReq, ok := req.(*FileCreateRequest)
		if !ok || req.GetType() != FileNodeType {
			continue
		}
		if _, err := m.AddFileNode(fileReq); err != nil {
			logger.Warn().Err(err).Str("path", req.GetPath()).Msg("Failed to seed file")
			continue
		}
		files++
	}

	logger.Info().Int("dirs", dirs).Int("files", files).Msg("Seeded filesystem")
	return dirs, files
}

// Walk visits every node from the root down, depth-first with siblings
// in name order. Depth 0 is the root itself.
func (m *MemFS) Walk(fn func(depth int, info NodeInfo)) {
	m.tree.Walk(func(depth int, name string, n *filesystem.Node) {
		fn(depth, NodeInfo{
			Name: name,
			Path: n.Path(),
			Kind: n.Kind(),
			Size: n.Size(),
		})
	})
}
