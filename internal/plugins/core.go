package plugins

import (
	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

func paragraphPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "core.paragraph",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "paragraph", Role: engine.RoleBlock, Children: engine.InlineOnly},
		},
	}
}

func dividerPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "core.divider",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "divider", Role: engine.RoleBlock, Children: engine.ChildrenNone, IsVoid: true},
		},
	}
}

func normalizePlugin() engine.Plugin {
	return engine.Plugin{
		ID: "core.normalize",
		NormalizePasses: []engine.NormalizePass{
			{ID: "core.non_empty_document", Run: ensureNonEmptyDocument},
			{ID: "core.text_leaf", Run: ensureBlockHasTextLeaf},
			{ID: "core.merge_text", Run: mergeAdjacentTextLeaves},
		},
	}
}

func coreCommandsPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "core.commands",
		Commands: []engine.CommandSpec{
			{ID: "core.insert_divider", Label: "Insert divider", Handler: insertDivider},
		},
	}
}

// ensureNonEmptyDocument inserts an empty paragraph into a document with no
// top-level children.
func ensureNonEmptyDocument(doc *document.Document, _ *engine.Registry) []op.Op {
	if len(doc.Children) > 0 {
		return nil
	}
	return []op.Op{op.InsertNode(document.Path{0}, document.Paragraph(""))}
}

// ensureBlockHasTextLeaf inserts an empty text leaf into any inline
// container that has none, so every text block stays addressable by a Point.
func ensureBlockHasTextLeaf(doc *document.Document, reg *engine.Registry) []op.Op {
	var ops []op.Op
	var walk func(nodes []document.Node, base document.Path)
	walk = func(nodes []document.Node, base document.Path) {
		for i, n := range nodes {
			if n.Type != document.ElementNode {
				continue
			}
			p := base.Child(i)
			if spec, ok := reg.NodeSpec(n.Kind); ok && spec.Children == engine.InlineOnly {
				if !hasTextChild(n) {
					ops = append(ops, op.InsertNode(p.Child(0), document.Text("")))
				}
				continue
			}
			walk(n.Children, p)
		}
	}
	walk(doc.Children, nil)
	return ops
}

func hasTextChild(n document.Node) bool {
	for _, c := range n.Children {
		if c.Type == document.TextNode {
			return true
		}
	}
	return false
}

// mergeAdjacentTextLeaves consolidates maximal runs of adjacent text leaves
// with identical marks. Runs are emitted right to left so every path stays
// valid while the earlier ops in the batch are applied.
func mergeAdjacentTextLeaves(doc *document.Document, reg *engine.Registry) []op.Op {
	var ops []op.Op
	for _, blockPath := range reg.TextBlockPaths(doc) {
		block := document.NodeAt(doc, blockPath)
		if block == nil {
			continue
		}
		children := block.Children
		i := len(children) - 1
		for i > 0 {
			if children[i].Type != document.TextNode {
				i--
				continue
			}
			// Scan backward for the start of the run.
			first := i
			for first > 0 &&
				children[first-1].Type == document.TextNode &&
				children[first-1].Marks == children[i].Marks {
				first--
			}
			if first == i {
				i--
				continue
			}
			tail := ""
			for j := first + 1; j <= i; j++ {
				tail += children[j].Text
			}
			ops = append(ops, op.InsertText(blockPath.Child(first), len(children[first].Text), tail))
			for j := i; j > first; j-- {
				ops = append(ops, op.RemoveNode(blockPath.Child(j)))
			}
			i = first - 1
		}
	}
	return ops
}

// insertDivider inserts a divider block after the block containing the
// focus, followed by a fresh paragraph that receives the caret.
func insertDivider(e *engine.Editor, _ map[string]any) error {
	return insertBlockAfterFocus(e, document.Divider(), "command:core.insert_divider")
}

// insertBlockAfterFocus inserts a void block after the top-level block
// containing the focus and a paragraph after it, placing a collapsed
// selection inside the paragraph.
func insertBlockAfterFocus(e *engine.Editor, block document.Node, source string) error {
	doc := e.Doc()
	at := e.Selection().Focus.Path
	insertAt := 0
	if len(at) > 0 {
		insertAt = at[0] + 1
	}
	if insertAt > len(doc.Children) {
		insertAt = len(doc.Children)
	}
	caret := document.Point{Path: document.Path{insertAt + 1, 0}, Offset: 0}
	tx := op.NewTransaction(
		op.InsertNode(document.Path{insertAt}, block),
		op.InsertNode(document.Path{insertAt + 1}, document.Paragraph("")),
	).WithSelection(document.Collapsed(caret)).WithSource(source)
	return e.Apply(tx)
}
