package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

// blockRange is one text block's slice of a selection, expressed as global
// text offsets inside that block. Void children count for their inline
// length.
type blockRange struct {
	path     document.Path
	from, to int
}

// markRangeTargets resolves a selection into the per-block offset ranges the
// mark commands operate on. Inner blocks are covered whole; the first and
// last are clipped to the selection endpoints.
func markRangeTargets(doc *document.Document, reg *engine.Registry, sel document.Selection) ([]blockRange, error) {
	start, end := sel.Ordered()
	blocks := reg.TextBlockPaths(doc)

	startIx, endIx := -1, -1
	for i, b := range blocks {
		if start.Path.HasPrefix(b) {
			startIx = i
		}
		if end.Path.HasPrefix(b) {
			endIx = i
		}
	}
	if startIx < 0 {
		return nil, fmt.Errorf("selection start is not in a text block")
	}
	if endIx < 0 {
		return nil, fmt.Errorf("selection end is not in a text block")
	}
	if endIx < startIx {
		startIx, endIx = endIx, startIx
	}

	var targets []blockRange
	for i := startIx; i <= endIx; i++ {
		block := document.NodeAt(doc, blocks[i])
		if block == nil {
			continue
		}
		from, to := 0, blockTextLen(block)
		if i == startIx {
			from = pointGlobalOffset(block, blocks[i], start)
		}
		if i == endIx {
			to = pointGlobalOffset(block, blocks[i], end)
		}
		if from >= to {
			continue
		}
		targets = append(targets, blockRange{path: blocks[i].Clone(), from: from, to: to})
	}
	return targets, nil
}

// blockTextLen is the total inline length of a block's children.
func blockTextLen(block *document.Node) int {
	total := 0
	for _, c := range block.Children {
		switch c.Type {
		case document.TextNode:
			total += len(c.Text)
		case document.VoidNode:
			total += c.InlineLen()
		}
	}
	return total
}

// pointGlobalOffset converts a point inside a block into a global offset.
func pointGlobalOffset(block *document.Node, blockPath document.Path, p document.Point) int {
	if len(p.Path) <= len(blockPath) {
		return 0
	}
	childIx := p.Path[len(blockPath)]
	if childIx > len(block.Children) {
		childIx = len(block.Children)
	}
	off := 0
	for i := 0; i < childIx && i < len(block.Children); i++ {
		switch block.Children[i].Type {
		case document.TextNode:
			off += len(block.Children[i].Text)
		case document.VoidNode:
			off += block.Children[i].InlineLen()
		}
	}
	if childIx < len(block.Children) && block.Children[childIx].Type == document.TextNode {
		o := p.Offset
		if l := len(block.Children[childIx].Text); o > l {
			o = l
		}
		off += o
	}
	return off
}

// pointForGlobalOffset re-anchors a global offset onto the rewritten child
// list, preferring the start of a following text node when the offset sits
// exactly on a boundary.
func pointForGlobalOffset(children []document.Node, blockPath document.Path, off int) document.Point {
	var candidate *document.Point
	acc := 0
	for i, c := range children {
		switch c.Type {
		case document.TextNode:
			l := len(c.Text)
			if off >= acc && off < acc+l {
				return document.Point{Path: blockPath.Child(i), Offset: off - acc}
			}
			if off == acc+l {
				candidate = &document.Point{Path: blockPath.Child(i), Offset: l}
			}
			acc += l
		case document.VoidNode:
			acc += c.InlineLen()
		}
	}
	if candidate != nil {
		return *candidate
	}
	return document.Point{Path: blockPath.Child(0), Offset: 0}
}

// rewriteBlockChildren rebuilds one block's children with the transform
// applied to the text covered by [from, to). Split boundaries are clamped
// onto rune boundaries.
func rewriteBlockChildren(block *document.Node, from, to int, transform func(document.Marks) document.Marks) []document.Node {
	out := make([]document.Node, 0, len(block.Children)+2)
	acc := 0
	for _, c := range block.Children {
		switch c.Type {
		case document.VoidNode:
			out = append(out, c.Clone())
			acc += c.InlineLen()
		case document.TextNode:
			l := len(c.Text)
			s, e := from-acc, to-acc
			if s < 0 {
				s = 0
			}
			if e > l {
				e = l
			}
			if s >= e {
				out = append(out, c.Clone())
				acc += l
				continue
			}
			s = document.ClampToCharBoundary(c.Text, s)
			e = document.ClampToCharBoundary(c.Text, e)
			if s > 0 {
				out = append(out, document.StyledText(c.Text[:s], c.Marks))
			}
			out = append(out, document.StyledText(c.Text[s:e], transform(c.Marks)))
			if e < l {
				out = append(out, document.StyledText(c.Text[e:], c.Marks))
			}
			acc += l
		default:
			out = append(out, c.Clone())
		}
	}
	return out
}

// applyMarkTransform rewrites every targeted block and applies the
// transaction, re-anchoring the selection endpoints by global offset.
func applyMarkTransform(e *engine.Editor, targets []blockRange, transform func(document.Marks) document.Marks, source string) error {
	doc := e.Doc()
	sel := e.Selection()
	anchor, focus := sel.Anchor, sel.Focus

	var ops []op.Op
	for _, t := range targets {
		block := document.NodeAt(doc, t.path)
		if block == nil {
			continue
		}
		rewritten := rewriteBlockChildren(block, t.from, t.to, transform)

		if anchor.Path.HasPrefix(t.path) {
			anchor = pointForGlobalOffset(rewritten, t.path, pointGlobalOffset(block, t.path, anchor))
		}
		if focus.Path.HasPrefix(t.path) {
			focus = pointForGlobalOffset(rewritten, t.path, pointGlobalOffset(block, t.path, focus))
		}

		for i := len(block.Children) - 1; i >= 0; i-- {
			ops = append(ops, op.RemoveNode(t.path.Child(i)))
		}
		for i, n := range rewritten {
			ops = append(ops, op.InsertNode(t.path.Child(i), n))
		}
	}
	if len(ops) == 0 {
		return e.Apply(op.NewTransaction().WithSource(source))
	}
	after := document.Selection{Anchor: anchor, Focus: focus}
	return e.Apply(op.NewTransaction(ops...).WithSelection(after).WithSource(source))
}

// rangeHasMark reports whether every text portion the targets cover
// satisfies the predicate. A selection covering no text reports false.
func rangeHasMark(doc *document.Document, targets []blockRange, pred func(document.Marks) bool) bool {
	sawText := false
	for _, t := range targets {
		block := document.NodeAt(doc, t.path)
		if block == nil {
			continue
		}
		acc := 0
		for _, c := range block.Children {
			switch c.Type {
			case document.VoidNode:
				acc += c.InlineLen()
			case document.TextNode:
				l := len(c.Text)
				s, e := t.from-acc, t.to-acc
				if s < 0 {
					s = 0
				}
				if e > l {
					e = l
				}
				if s < e {
					sawText = true
					if !pred(c.Marks) {
						return false
					}
				}
				acc += l
			}
		}
	}
	return sawText
}
