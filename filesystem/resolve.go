package filesystem

import "strings"

// Separator delimits path components. Component names may not contain it.
const Separator = "/"

// SplitPath splits a path into its directory part and final component.
// Trailing separators are dropped first, so "a/b/" splits like "a/b".
// The final component is "" when the path reduces to the root ("/") or
// is empty; callers treat that as "the base directory itself".
func SplitPath(path string) (dir, last string) {
	trimmed := strings.TrimRight(path, Separator)
	if trimmed == "" {
		if path == "" {
			return "", ""
		}
		return Separator, ""
	}
	i := strings.LastIndex(trimmed, Separator)
	switch {
	case i < 0:
		return "", trimmed
	case i == 0:
		return Separator, trimmed[1:]
	default:
		return trimmed[:i], trimmed[i+1:]
	}
}

// splitComponents returns the meaningful components of a path: empty
// components (from repeated or trailing separators) and "." are dropped,
// ".." is kept for the resolver to act on.
func splitComponents(path string) []string {
	parts := strings.Split(path, Separator)
	out := parts[:0]
	for _, c := range parts {
		if c == "" || c == "." {
			continue
		}
		out = append(out, c)
	}
	return out
}

// checkName rejects strings that cannot be a directory mapping key.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, Separator) {
		return ErrInvalid
	}
	return nil
}

// Resolve walks path from base, or from the root when path is absolute,
// and returns the final node. "." is a no-op, ".." climbs the parent
// back-reference and stays put at the root, and an empty path resolves to
// base itself. Descending through a file fails ErrNotDir; a missing
// component fails ErrNotExist.
//
// Each step holds at most one directory lock, released before the next
// node's lock may be taken.
func (t *Tree) Resolve(base *Node, path string) (*Node, error) {
	cur := base
	if strings.HasPrefix(path, Separator) {
		cur = t.root
	}
	for _, name := range splitComponents(path) {
		if !cur.IsDir() {
			return nil, ErrNotDir
		}
		if name == ".." {
			if next := cur.Parent(); next != nil {
				cur = next
			}
			continue
		}
		child, ok := cur.GetChild(name)
		if !ok {
			return nil, ErrNotExist
		}
		cur = child
	}
	return cur, nil
}

// ResolveDir resolves path and requires the result to be a directory.
func (t *Tree) ResolveDir(base *Node, path string) (*Node, error) {
	n, err := t.Resolve(base, path)
	if err != nil {
		return nil, err
	}
	if !n.IsDir() {
		return nil, ErrNotDir
	}
	return n, nil
}
