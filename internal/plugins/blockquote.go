package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

func blockquotePlugin() engine.Plugin {
	return engine.Plugin{
		ID: "blockquote",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "blockquote", Role: engine.RoleBlock, Children: engine.BlockOnly},
		},
		Commands: []engine.CommandSpec{
			{ID: "blockquote.wrap_selection", Label: "Quote", Handler: wrapBlockquote},
			{ID: "blockquote.unwrap", Label: "Unquote", Handler: unwrapBlockquote},
		},
		Queries: []engine.QuerySpec{
			{ID: "blockquote.is_active", Handler: func(e *engine.Editor, _ map[string]any) (any, error) {
				q := document.AncestorOfKind(e.Doc(), e.Selection().Focus.Path, "blockquote")
				return q != nil, nil
			}},
		},
	}
}

// wrapBlockquote moves the contiguous run of top-level blocks the selection
// touches into a single blockquote, remapping both selection endpoints one
// level deeper.
func wrapBlockquote(e *engine.Editor, _ map[string]any) error {
	doc := e.Doc()
	sel := e.Selection()
	start, end := sel.Ordered()
	if len(start.Path) == 0 || len(end.Path) == 0 {
		return fmt.Errorf("no active block")
	}

	first, last := start.Path[0], end.Path[0]
	if last >= len(doc.Children) {
		last = len(doc.Children) - 1
	}
	if first > last {
		return fmt.Errorf("no active block")
	}

	wrapped := make([]document.Node, 0, last-first+1)
	for i := first; i <= last; i++ {
		wrapped = append(wrapped, doc.Children[i].Clone())
	}
	quote := document.Element("blockquote", nil)
	quote.Children = wrapped

	ops := make([]op.Op, 0, last-first+2)
	for i := last; i >= first; i-- {
		ops = append(ops, op.RemoveNode(document.Path{i}))
	}
	ops = append(ops, op.InsertNode(document.Path{first}, quote))

	after := document.Selection{
		Anchor: intoQuote(sel.Anchor, first, last),
		Focus:  intoQuote(sel.Focus, first, last),
	}
	tx := op.NewTransaction(ops...).WithSelection(after).WithSource("command:blockquote.wrap_selection")
	return e.Apply(tx)
}

// intoQuote remaps a point whose top-level block moved into the quote at
// index first.
func intoQuote(p document.Point, first, last int) document.Point {
	if len(p.Path) == 0 || p.Path[0] < first || p.Path[0] > last {
		return p
	}
	path := make(document.Path, 0, len(p.Path)+1)
	path = append(path, first, p.Path[0]-first)
	path = append(path, p.Path[1:]...)
	return document.Point{Path: path, Offset: p.Offset}
}

// unwrapBlockquote splices the children of the blockquote containing the
// focus back into its parent, remapping the selection one level up.
func unwrapBlockquote(e *engine.Editor, _ map[string]any) error {
	doc := e.Doc()
	sel := e.Selection()

	quotePath := document.AncestorOfKind(doc, sel.Focus.Path, "blockquote")
	if quotePath == nil {
		return fmt.Errorf("not in a blockquote")
	}
	quote := document.NodeAt(doc, quotePath)
	if quote == nil {
		return fmt.Errorf("not in a blockquote")
	}

	parent, ix := quotePath.Parent()
	ops := []op.Op{op.RemoveNode(quotePath)}
	for i, child := range quote.Children {
		ops = append(ops, op.InsertNode(parent.Child(ix+i), child.Clone()))
	}

	after := document.Selection{
		Anchor: outOfQuote(sel.Anchor, quotePath),
		Focus:  outOfQuote(sel.Focus, quotePath),
	}
	tx := op.NewTransaction(ops...).WithSelection(after).WithSource("command:blockquote.unwrap")
	return e.Apply(tx)
}

// outOfQuote remaps a point inside the spliced blockquote by folding the
// quote's child index into its former slot.
func outOfQuote(p document.Point, quotePath document.Path) document.Point {
	if !p.Path.HasPrefix(quotePath) || len(p.Path) <= len(quotePath) {
		return p
	}
	parent, ix := quotePath.Parent()
	path := make(document.Path, 0, len(p.Path)-1)
	path = append(path, parent...)
	path = append(path, ix+p.Path[len(quotePath)])
	path = append(path, p.Path[len(quotePath)+1:]...)
	return document.Point{Path: path, Offset: p.Offset}
}
