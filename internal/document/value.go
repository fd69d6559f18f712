package document

import (
	"encoding/json"
	"fmt"
)

// Schema and version stamped into serialized values.
const (
	ValueSchema  = "plate"
	ValueVersion = 1
)

// Value is the versioned JSON wrapper documents round-trip through for
// load/save.
type Value struct {
	Schema   string   `json:"schema"`
	Version  int      `json:"version"`
	Document Document `json:"document"`
}

// NewValue wraps a document in the current schema/version envelope.
func NewValue(doc *Document) Value {
	return Value{Schema: ValueSchema, Version: ValueVersion, Document: *doc.Clone()}
}

// EncodeValue serializes the document to indented JSON.
func EncodeValue(doc *Document) ([]byte, error) {
	return json.MarshalIndent(NewValue(doc), "", "  ")
}

// DecodeValue parses a serialized value and returns its document.
func DecodeValue(data []byte) (*Document, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("document: decode value: %w", err)
	}
	doc := v.Document
	return &doc, nil
}

type textJSON struct {
	Node  string `json:"node"`
	Text  string `json:"text"`
	Marks Marks  `json:"marks"`
}

type elementJSON struct {
	Node     string `json:"node"`
	Kind     string `json:"kind"`
	Attrs    Attrs  `json:"attrs,omitempty"`
	Children []Node `json:"children"`
}

type voidJSON struct {
	Node  string `json:"node"`
	Kind  string `json:"kind"`
	Attrs Attrs  `json:"attrs,omitempty"`
}

// MarshalJSON encodes the node with a "node" type tag.
func (n Node) MarshalJSON() ([]byte, error) {
	switch n.Type {
	case TextNode:
		return json.Marshal(textJSON{Node: "text", Text: n.Text, Marks: n.Marks})
	case ElementNode:
		children := n.Children
		if children == nil {
			children = []Node{}
		}
		return json.Marshal(elementJSON{Node: "element", Kind: n.Kind, Attrs: n.Attrs, Children: children})
	case VoidNode:
		return json.Marshal(voidJSON{Node: "void", Kind: n.Kind, Attrs: n.Attrs})
	default:
		return nil, fmt.Errorf("document: unknown node type %d", n.Type)
	}
}

// UnmarshalJSON decodes a type-tagged node.
func (n *Node) UnmarshalJSON(data []byte) error {
	var tag struct {
		Node string `json:"node"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	switch tag.Node {
	case "text":
		var t textJSON
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*n = Node{Type: TextNode, Text: t.Text, Marks: t.Marks}
	case "element":
		var e elementJSON
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		*n = Node{Type: ElementNode, Kind: e.Kind, Attrs: e.Attrs, Children: e.Children}
	case "void":
		var v voidJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*n = Node{Type: VoidNode, Kind: v.Kind, Attrs: v.Attrs}
	default:
		return fmt.Errorf("document: unknown node tag %q", tag.Node)
	}
	return nil
}
