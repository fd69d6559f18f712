package op

import (
	"fmt"

	"github.com/starford/plate/internal/document"
)

// ApplyError reports a structurally invalid op: a path or index that does not
// resolve against the document it was applied to. It is fatal to the whole
// transaction.
type ApplyError struct {
	Path   document.Path
	Reason string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply at %v: %s", []int(e.Path), e.Reason)
}

func applyErr(path document.Path, format string, args ...any) *ApplyError {
	return &ApplyError{Path: path.Clone(), Reason: fmt.Sprintf(format, args...)}
}

// Apply executes one op against doc, shifting sel so it keeps addressing the
// same content. The caller is responsible for staging: Apply mutates doc in
// place and must be run against a working copy when atomicity is required.
func Apply(doc *document.Document, sel *document.Selection, o Op) error {
	switch o.Type {
	case OpInsertText:
		text := textNodeAt(doc, o.Path)
		if text == nil {
			return applyErr(o.Path, "insert_text target is not a text node")
		}
		offset := document.ClampToCharBoundary(text.Text, o.Offset)
		text.Text = text.Text[:offset] + o.Text + text.Text[offset:]
		shiftInsertText(sel, o.Path, offset, len(o.Text))
		return nil

	case OpRemoveText:
		text := textNodeAt(doc, o.Path)
		if text == nil {
			return applyErr(o.Path, "remove_text target is not a text node")
		}
		start := document.ClampToCharBoundary(text.Text, o.Start)
		end := document.ClampToCharBoundary(text.Text, o.End)
		if start >= end {
			return nil
		}
		text.Text = text.Text[:start] + text.Text[end:]
		shiftRemoveText(sel, o.Path, start, end)
		return nil

	case OpInsertNode:
		if len(o.Path) == 0 {
			return applyErr(o.Path, "empty insert path")
		}
		parent, ix := o.Path.Parent()
		children, ok := document.ChildrenAt(doc, parent)
		if !ok {
			return applyErr(o.Path, "insert parent is not a container")
		}
		if ix < 0 || ix > len(children) {
			return applyErr(o.Path, "insert index out of bounds: %d > %d", ix, len(children))
		}
		node := o.Node.Clone()
		inserted := append(children[:ix:ix], append([]document.Node{node}, children[ix:]...)...)
		if !setChildren(doc, parent, inserted) {
			return applyErr(o.Path, "insert parent is not a container")
		}
		shiftInsertNode(sel, o.Path)
		return nil

	case OpRemoveNode:
		if len(o.Path) == 0 {
			return applyErr(o.Path, "empty remove path")
		}
		parent, ix := o.Path.Parent()
		children, ok := document.ChildrenAt(doc, parent)
		if !ok {
			return applyErr(o.Path, "remove parent is not a container")
		}
		if ix < 0 || ix >= len(children) {
			return applyErr(o.Path, "remove index out of bounds: %d >= %d", ix, len(children))
		}
		removed := children[ix].Clone()
		remaining := append(children[:ix:ix], children[ix+1:]...)
		if !setChildren(doc, parent, remaining) {
			return applyErr(o.Path, "remove parent is not a container")
		}
		shiftRemoveNode(sel, o.Path, &removed, doc)
		return nil

	case OpSetNodeAttrs:
		node := document.NodeAt(doc, o.Path)
		if node == nil {
			return applyErr(o.Path, "set_node_attrs target not found")
		}
		if node.Type == document.TextNode {
			return applyErr(o.Path, "text nodes carry no attrs")
		}
		if node.Attrs == nil && len(o.Patch.Set) > 0 {
			node.Attrs = document.Attrs{}
		}
		for k, v := range o.Patch.Set {
			node.Attrs[k] = v
		}
		for _, k := range o.Patch.Remove {
			delete(node.Attrs, k)
		}
		return nil

	case OpSetTextMarks:
		text := textNodeAt(doc, o.Path)
		if text == nil {
			return applyErr(o.Path, "set_text_marks target is not a text node")
		}
		text.Marks = o.Marks
		return nil

	default:
		return applyErr(o.Path, "unknown op type %d", o.Type)
	}
}

// ApplyAll runs every op in order against doc. The first failure aborts and
// may leave doc partially mutated; run against a working copy.
func ApplyAll(doc *document.Document, sel *document.Selection, ops []Op) error {
	for _, o := range ops {
		if err := Apply(doc, sel, o); err != nil {
			return err
		}
	}
	return nil
}

func textNodeAt(doc *document.Document, path document.Path) *document.Node {
	node := document.NodeAt(doc, path)
	if node == nil || node.Type != document.TextNode {
		return nil
	}
	return node
}

// setChildren writes a new child slice at the container addressed by parent.
func setChildren(doc *document.Document, parent document.Path, children []document.Node) bool {
	if len(parent) == 0 {
		doc.Children = children
		return true
	}
	node := document.NodeAt(doc, parent)
	if node == nil || node.Type != document.ElementNode {
		return false
	}
	node.Children = children
	return true
}

func shiftInsertText(sel *document.Selection, path document.Path, offset, n int) {
	for _, point := range []*document.Point{&sel.Anchor, &sel.Focus} {
		if point.Path.Equal(path) && point.Offset >= offset {
			point.Offset += n
		}
	}
}

func shiftRemoveText(sel *document.Selection, path document.Path, start, end int) {
	for _, point := range []*document.Point{&sel.Anchor, &sel.Focus} {
		if !point.Path.Equal(path) || point.Offset <= start {
			continue
		}
		if point.Offset >= end {
			point.Offset -= end - start
		} else {
			point.Offset = start
		}
	}
}

func shiftInsertNode(sel *document.Selection, path document.Path) {
	parent, ix := path.Parent()
	depth := len(parent)
	for _, point := range []*document.Point{&sel.Anchor, &sel.Focus} {
		if len(point.Path) <= depth || !point.Path.HasPrefix(parent) {
			continue
		}
		if point.Path[depth] >= ix {
			point.Path[depth]++
		}
	}
}

// shiftRemoveNode re-anchors selection points after a node removal. A point
// inside the removed subtree maps onto the left text sibling when the removal
// was a text merge (the left sibling absorbed the removed text), otherwise
// onto the start of the previous sibling.
func shiftRemoveNode(sel *document.Selection, path document.Path, removed *document.Node, doc *document.Document) {
	parent, ix := path.Parent()
	depth := len(parent)

	mergePrefix := -1
	if removed.Type == document.TextNode && ix > 0 {
		left := document.NodeAt(doc, parent.Child(ix-1))
		if left != nil && left.Type == document.TextNode &&
			left.Marks == removed.Marks &&
			len(left.Text) >= len(removed.Text) &&
			left.Text[len(left.Text)-len(removed.Text):] == removed.Text {
			mergePrefix = len(left.Text) - len(removed.Text)
		}
	}

	for _, point := range []*document.Point{&sel.Anchor, &sel.Focus} {
		if len(point.Path) <= depth || !point.Path.HasPrefix(parent) {
			continue
		}
		at := point.Path[depth]
		if at > ix {
			point.Path[depth] = at - 1
			continue
		}
		if at < ix {
			continue
		}

		// Point was inside the removed subtree.
		if mergePrefix >= 0 {
			point.Path = point.Path[:depth+1]
			point.Path[depth] = ix - 1
			if point.Offset > len(removed.Text) {
				point.Offset = len(removed.Text)
			}
			point.Offset += mergePrefix
		} else {
			point.Path = point.Path[:depth+1]
			if ix > 0 {
				point.Path[depth] = ix - 1
			} else {
				point.Path[depth] = 0
			}
			point.Offset = 0
		}
	}
}
