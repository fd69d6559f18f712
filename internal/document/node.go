// Package document defines the tree-shaped document model: tagged nodes,
// paths, points, selections, marks, and attributes.
//
// Offsets are byte positions into text nodes. Callers are expected to pass
// char-boundary-safe offsets; mutation helpers clamp defensively.
package document

// NodeType discriminates the node variants.
type NodeType uint8

const (
	// TextNode is a leaf carrying text and marks.
	TextNode NodeType = iota
	// ElementNode is a container with a kind, attributes, and children.
	ElementNode
	// VoidNode is a childless leaf with a kind and attributes, occupying
	// one caret-stop unit.
	VoidNode
)

// Attrs is a string-keyed map of JSON-like attribute values.
type Attrs map[string]any

// Node is a tagged variant over text, element, and void nodes. Fields that do
// not belong to the variant named by Type are zero.
type Node struct {
	Type NodeType

	// Text variant.
	Text  string
	Marks Marks

	// Element and Void variants.
	Kind  string
	Attrs Attrs

	// Element variant.
	Children []Node
}

// Document is the root container.
type Document struct {
	Children []Node `json:"children"`
}

// Text returns a text node without marks.
func Text(text string) Node {
	return Node{Type: TextNode, Text: text}
}

// StyledText returns a text node carrying the given marks.
func StyledText(text string, marks Marks) Node {
	return Node{Type: TextNode, Text: text, Marks: marks}
}

// Element returns an element node.
func Element(kind string, attrs Attrs, children ...Node) Node {
	return Node{Type: ElementNode, Kind: kind, Attrs: attrs, Children: children}
}

// Void returns a void node.
func Void(kind string, attrs Attrs) Node {
	return Node{Type: VoidNode, Kind: kind, Attrs: attrs}
}

// Paragraph returns a paragraph element holding a single text leaf.
func Paragraph(text string) Node {
	return Element("paragraph", nil, Text(text))
}

// Divider returns a divider void node.
func Divider() Node {
	return Void("divider", nil)
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.Attrs = n.Attrs.Clone()
	if n.Children != nil {
		out.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{}
	if d.Children != nil {
		out.Children = make([]Node, len(d.Children))
		for i, c := range d.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a shallow-value deep copy of the attribute map. Nested
// slice/map values are JSON-like and treated as immutable by convention.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// String returns the attribute as a string.
func (a Attrs) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the attribute as an int, accepting the numeric types JSON
// decoding may produce.
func (a Attrs) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Bool returns the attribute as a bool.
func (a Attrs) Bool(key string) (bool, bool) {
	v, ok := a[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// InlineText returns the text a void node contributes to its line. Mentions
// render as "@label"; every other void renders as a one-byte placeholder.
func (n Node) InlineText() string {
	if n.Type != VoidNode {
		return ""
	}
	if n.Kind == "mention" {
		label, _ := n.Attrs.String("label")
		if label == "" {
			label = "mention"
		}
		if label[0] == '@' {
			return label
		}
		return "@" + label
	}
	return "□"
}

// InlineLen returns the unit length a void node consumes in offset
// accounting within a block.
func (n Node) InlineLen() int {
	if n.Type != VoidNode {
		return 0
	}
	if n.Kind == "mention" {
		label, _ := n.Attrs.String("label")
		if label == "" {
			label = "mention"
		}
		if label[0] == '@' {
			return len(label)
		}
		return len(label) + 1
	}
	return 1
}
