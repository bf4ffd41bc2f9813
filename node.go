package memfs

import "github.com/glacya/memfs/filesystem"

// Kind discriminates directories from regular files.
type Kind = filesystem.Kind

const (
	KindDir  = filesystem.KindDir
	KindFile = filesystem.KindFile
)

// NodeInfo provides read-only access to node information for external
// consumers. Size is zero for directories.
type NodeInfo struct {
	Name string
	Path string
	Kind Kind
	Size int64
}

func infoFor(n *filesystem.Node) NodeInfo {
	info := NodeInfo{
		Name: n.Name(),
		Path: n.Path(),
		Kind: n.Kind(),
		Size: n.Size(),
	}
	if n.IsRoot() {
		info.Name = filesystem.Separator
	}
	return info
}
