// Package op defines the atomic mutation primitives applied to a document
// and the transactions that group them.
package op

import "github.com/starford/plate/internal/document"

// Type discriminates the op variants.
type Type uint8

const (
	// OpInsertNode inserts Node as a new child at the path's last index.
	OpInsertNode Type = iota
	// OpRemoveNode removes the node addressed by Path.
	OpRemoveNode
	// OpInsertText inserts Text at Offset into the text node at Path.
	OpInsertText
	// OpRemoveText removes the byte range [Start, End) from the text node
	// at Path.
	OpRemoveText
	// OpSetNodeAttrs merges and deletes attribute keys on the element or
	// void at Path.
	OpSetNodeAttrs
	// OpSetTextMarks replaces the marks on the text node at Path.
	OpSetTextMarks
)

// AttrPatch merges Set into a node's attributes and deletes the Remove keys.
type AttrPatch struct {
	Set    document.Attrs `json:"set,omitempty"`
	Remove []string       `json:"remove,omitempty"`
}

// Op is one atomic mutation. Only the fields of the variant named by Type
// are meaningful.
type Op struct {
	Type Type
	Path document.Path

	Node   *document.Node // InsertNode
	Offset int            // InsertText
	Text   string         // InsertText
	Start  int            // RemoveText
	End    int            // RemoveText
	Patch  AttrPatch      // SetNodeAttrs
	Marks  document.Marks // SetTextMarks
}

// InsertNode builds an insert-node op.
func InsertNode(path document.Path, node document.Node) Op {
	return Op{Type: OpInsertNode, Path: path, Node: &node}
}

// RemoveNode builds a remove-node op.
func RemoveNode(path document.Path) Op {
	return Op{Type: OpRemoveNode, Path: path}
}

// InsertText builds an insert-text op.
func InsertText(path document.Path, offset int, text string) Op {
	return Op{Type: OpInsertText, Path: path, Offset: offset, Text: text}
}

// RemoveText builds a remove-text op over the byte range [start, end).
func RemoveText(path document.Path, start, end int) Op {
	return Op{Type: OpRemoveText, Path: path, Start: start, End: end}
}

// SetNodeAttrs builds an attribute-patch op.
func SetNodeAttrs(path document.Path, patch AttrPatch) Op {
	return Op{Type: OpSetNodeAttrs, Path: path, Patch: patch}
}

// SetTextMarks builds a replace-marks op.
func SetTextMarks(path document.Path, marks document.Marks) Op {
	return Op{Type: OpSetTextMarks, Path: path, Marks: marks}
}

// Transaction is an atomic, named group of ops plus the selection to restore
// after applying them.
type Transaction struct {
	Ops            []Op
	SelectionAfter *document.Selection
	Source         string
}

// NewTransaction builds a transaction over the given ops.
func NewTransaction(ops ...Op) Transaction {
	return Transaction{Ops: ops}
}

// WithSelection sets the selection restored after a successful apply.
func (t Transaction) WithSelection(sel document.Selection) Transaction {
	t.SelectionAfter = &sel
	return t
}

// WithSource tags the transaction with its origin, e.g. "command:table.insert".
func (t Transaction) WithSource(source string) Transaction {
	t.Source = source
	return t
}
