package document

// Point is a cursor position: a path to a text node plus a byte offset into
// its text.
type Point struct {
	Path   Path `json:"path"`
	Offset int  `json:"offset"`
}

// NewPoint builds a point.
func NewPoint(path Path, offset int) Point {
	return Point{Path: path, Offset: offset}
}

// Clone returns a copy with an independent path.
func (p Point) Clone() Point {
	return Point{Path: p.Path.Clone(), Offset: p.Offset}
}

// Compare orders points path-first, then by offset.
func (p Point) Compare(other Point) int {
	if c := p.Path.Compare(other.Path); c != 0 {
		return c
	}
	switch {
	case p.Offset < other.Offset:
		return -1
	case p.Offset > other.Offset:
		return 1
	default:
		return 0
	}
}

// Equal reports whether two points address the same position.
func (p Point) Equal(other Point) bool {
	return p.Path.Equal(other.Path) && p.Offset == other.Offset
}

// Selection is a directional anchor/focus pair. Anchor and focus may be in
// either document order; a collapsed selection has them equal.
type Selection struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Collapsed returns a selection with both ends at the given point.
func Collapsed(p Point) Selection {
	return Selection{Anchor: p.Clone(), Focus: p.Clone()}
}

// IsCollapsed reports whether the selection spans no content.
func (s Selection) IsCollapsed() bool {
	return s.Anchor.Equal(s.Focus)
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	return Selection{Anchor: s.Anchor.Clone(), Focus: s.Focus.Clone()}
}

// Ordered returns the selection's points in document order.
func (s Selection) Ordered() (start, end Point) {
	if s.Anchor.Compare(s.Focus) <= 0 {
		return s.Anchor, s.Focus
	}
	return s.Focus, s.Anchor
}

// FirstTextPoint returns the first text node in document order, or false when
// the document holds no text at all.
func FirstTextPoint(doc *Document) (Point, bool) {
	var walk func(children []Node, prefix Path) (Point, bool)
	walk = func(children []Node, prefix Path) (Point, bool) {
		for ix := range children {
			child := &children[ix]
			switch child.Type {
			case TextNode:
				return Point{Path: prefix.Child(ix), Offset: 0}, true
			case ElementNode:
				if p, ok := walk(child.Children, prefix.Child(ix)); ok {
					return p, true
				}
			}
		}
		return Point{}, false
	}
	return walk(doc.Children, nil)
}

// NormalizePointToText repairs a possibly stale point: every path index is
// clamped into range, elements are entered through their first text
// descendant, and the offset is clamped to the addressed text. It returns
// false when the subtree under the clamped path holds no text.
func NormalizePointToText(doc *Document, point Point) (Point, bool) {
	if len(doc.Children) == 0 {
		return Point{}, false
	}

	children := doc.Children
	path := make(Path, 0, len(point.Path))
	var node *Node
	for _, ix := range point.Path {
		if len(children) == 0 {
			break
		}
		if ix < 0 {
			ix = 0
		}
		if ix >= len(children) {
			ix = len(children) - 1
		}
		node = &children[ix]
		path = append(path, ix)
		if node.Type != ElementNode {
			break
		}
		children = node.Children
	}

	if node == nil {
		return Point{}, false
	}
	if node.Type == TextNode {
		return Point{Path: path, Offset: ClampToCharBoundary(node.Text, point.Offset)}, true
	}

	// Landed on an element or void: descend to the first text under the
	// nearest element ancestor.
	for len(path) > 0 {
		candidate := NodeAt(doc, path)
		if candidate.Type == ElementNode {
			sub := &Document{Children: candidate.Children}
			if p, ok := FirstTextPoint(sub); ok {
				return Point{Path: append(path.Clone(), p.Path...), Offset: 0}, true
			}
		}
		path = path[:len(path)-1]
	}
	return FirstTextPoint(doc)
}
