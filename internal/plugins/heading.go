package plugins

import (
	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

const (
	minHeadingLevel = 1
	maxHeadingLevel = 6
)

func headingPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "heading",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "heading", Role: engine.RoleBlock, Children: engine.InlineOnly},
		},
		NormalizePasses: []engine.NormalizePass{
			{ID: "heading.clamp_level", Run: clampHeadingLevels},
		},
		Commands: []engine.CommandSpec{
			{ID: "block.set_heading", Label: "Heading", Handler: setHeading},
			{ID: "block.unset_heading", Label: "Paragraph", Handler: unsetHeading},
		},
		Queries: []engine.QuerySpec{
			{ID: "block.heading_level", Handler: headingLevel},
		},
	}
}

func clampLevel(level int) int {
	if level < minHeadingLevel {
		return minHeadingLevel
	}
	if level > maxHeadingLevel {
		return maxHeadingLevel
	}
	return level
}

// clampHeadingLevels forces every heading's level attribute into the
// supported range, defaulting a missing level to 1.
func clampHeadingLevels(doc *document.Document, _ *engine.Registry) []op.Op {
	var ops []op.Op
	walkElements(doc.Children, nil, func(n document.Node, p document.Path) {
		if n.Kind != "heading" {
			return
		}
		level, ok := n.Attrs.Int("level")
		if ok && level == clampLevel(level) {
			return
		}
		if !ok {
			level = minHeadingLevel
		}
		ops = append(ops, op.SetNodeAttrs(p, op.AttrPatch{
			Set: document.Attrs{"level": clampLevel(level)},
		}))
	})
	return ops
}

// walkElements visits every element node in document order.
func walkElements(nodes []document.Node, base document.Path, visit func(document.Node, document.Path)) {
	for i, n := range nodes {
		if n.Type != document.ElementNode {
			continue
		}
		p := base.Child(i)
		visit(n, p)
		walkElements(n.Children, p, visit)
	}
}

func setHeading(e *engine.Editor, args map[string]any) error {
	level := clampLevel(optInt(args, "level", 1))
	blocks, err := selectedTextBlocks(e)
	if err != nil {
		return err
	}
	doc := e.Doc()

	var ops []op.Op
	for _, p := range blocks {
		n := document.NodeAt(doc, p)
		if n == nil {
			continue
		}
		if n.Kind == "heading" {
			ops = append(ops, op.SetNodeAttrs(p, op.AttrPatch{
				Set: document.Attrs{"level": level},
			}))
			continue
		}
		ops = append(ops, retagOps(n, p, "heading", document.Attrs{"level": level})...)
	}
	tx := op.NewTransaction(ops...).WithSelection(e.Selection()).WithSource("command:block.set_heading")
	return e.Apply(tx)
}

func unsetHeading(e *engine.Editor, _ map[string]any) error {
	return retagSelectedBlocks(e, "paragraph", nil, "command:block.unset_heading")
}

// headingLevel reports the level of the heading containing the focus, or
// nil when the focus block is not a heading.
func headingLevel(e *engine.Editor, _ map[string]any) (any, error) {
	blockPath, err := focusBlockPath(e)
	if err != nil {
		return nil, err
	}
	block := document.NodeAt(e.Doc(), blockPath)
	if block == nil || block.Kind != "heading" {
		return nil, nil
	}
	level, ok := block.Attrs.Int("level")
	if !ok {
		return nil, nil
	}
	return level, nil
}

// retagSelectedBlocks replaces each selected text block with a copy of a
// new kind and attrs, keeping its children at the same index. Sibling
// indices do not change, so the selection carries over unchanged.
func retagSelectedBlocks(e *engine.Editor, kind string, attrs document.Attrs, source string) error {
	blocks, err := selectedTextBlocks(e)
	if err != nil {
		return err
	}
	doc := e.Doc()

	var ops []op.Op
	for _, p := range blocks {
		n := document.NodeAt(doc, p)
		if n == nil || n.Kind == kind {
			continue
		}
		ops = append(ops, retagOps(n, p, kind, attrs)...)
	}
	tx := op.NewTransaction(ops...).WithSelection(e.Selection()).WithSource(source)
	return e.Apply(tx)
}

// retagOps replaces one block with a copy of a new kind and attrs at the
// same index, carrying the alignment attribute over.
func retagOps(n *document.Node, p document.Path, kind string, attrs document.Attrs) []op.Op {
	replacement := document.Element(kind, attrs.Clone())
	replacement.Children = cloneNodes(n.Children)
	if align, ok := n.Attrs["align"]; ok {
		if replacement.Attrs == nil {
			replacement.Attrs = document.Attrs{}
		}
		replacement.Attrs["align"] = align
	}
	return []op.Op{op.RemoveNode(p), op.InsertNode(p, replacement)}
}

func cloneNodes(nodes []document.Node) []document.Node {
	out := make([]document.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
