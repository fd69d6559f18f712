package document

import "unicode/utf8"

// Path addresses a node (or an insertion slot) as a sequence of child indices
// from the document root.
type Path []int

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	return append(Path(nil), p...)
}

// Equal reports whether two paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is an ancestor-or-self path of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Compare orders paths lexicographically; a shorter path sorts before its
// descendants.
func (p Path) Compare(other Path) int {
	n := len(p)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if p[i] != other[i] {
			if p[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	default:
		return 0
	}
}

// Child returns the path extended by one index.
func (p Path) Child(ix int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = ix
	return out
}

// Parent returns the parent path and the final index. A root-level path
// yields an empty parent.
func (p Path) Parent() (Path, int) {
	if len(p) == 0 {
		return nil, 0
	}
	return p[:len(p)-1], p[len(p)-1]
}

// NodeAt walks the path and returns the addressed node. It returns nil when
// any index is out of range or the walk descends past a text or void node.
func NodeAt(doc *Document, path Path) *Node {
	if len(path) == 0 {
		return nil
	}
	children := doc.Children
	var node *Node
	for depth, ix := range path {
		if ix < 0 || ix >= len(children) {
			return nil
		}
		node = &children[ix]
		if depth+1 < len(path) {
			if node.Type != ElementNode {
				return nil
			}
			children = node.Children
		}
	}
	return node
}

// ChildrenAt returns the child slice addressed by path: the root children for
// an empty path, otherwise the children of the element at path.
func ChildrenAt(doc *Document, path Path) ([]Node, bool) {
	if len(path) == 0 {
		return doc.Children, true
	}
	node := NodeAt(doc, path)
	if node == nil || node.Type != ElementNode {
		return nil, false
	}
	return node.Children, true
}

// AncestorOfKind scans path prefixes longest-to-shortest and returns the path
// of the first element matching kind, or nil.
func AncestorOfKind(doc *Document, path Path, kind string) Path {
	for end := len(path); end > 0; end-- {
		prefix := path[:end]
		if node := NodeAt(doc, prefix); node != nil && node.Type == ElementNode && node.Kind == kind {
			return prefix.Clone()
		}
	}
	return nil
}

// ClampToCharBoundary clamps ix into [0, len(s)] and backs it up onto a UTF-8
// rune boundary.
func ClampToCharBoundary(s string, ix int) int {
	if ix < 0 {
		ix = 0
	}
	if ix > len(s) {
		ix = len(s)
	}
	for ix > 0 && ix < len(s) && !utf8.RuneStart(s[ix]) {
		ix--
	}
	return ix
}
