package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

func mentionPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "mention",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "mention", Role: engine.RoleInline, Children: engine.ChildrenNone, IsVoid: true},
		},
		Commands: []engine.CommandSpec{
			{ID: "mention.insert", Label: "Mention", Handler: insertMention},
		},
	}
}

// insertMention splits the focus leaf at the caret and places a mention
// void between the halves, leaving the caret just after it.
func insertMention(e *engine.Editor, args map[string]any) error {
	label, err := argString(args, "label")
	if err != nil {
		return err
	}
	sel := e.Selection()
	if !sel.IsCollapsed() {
		return fmt.Errorf("mention.insert requires a collapsed selection")
	}

	void := document.Void("mention", document.Attrs{"label": label})
	return insertInlineVoid(e, void, "command:mention.insert")
}

// insertInlineVoid splits the focus text leaf around an inline void. The
// caret lands at the start of the trailing half.
func insertInlineVoid(e *engine.Editor, void document.Node, source string) error {
	focus := e.Selection().Focus
	leaf := document.NodeAt(e.Doc(), focus.Path)
	if leaf == nil || leaf.Type != document.TextNode {
		return fmt.Errorf("no active block")
	}

	off := document.ClampToCharBoundary(leaf.Text, focus.Offset)
	prefix := document.StyledText(leaf.Text[:off], leaf.Marks)
	suffix := document.StyledText(leaf.Text[off:], leaf.Marks)

	base := focus.Path
	caret := document.Point{Path: sibling(base, 2), Offset: 0}
	tx := op.NewTransaction(
		op.RemoveNode(base),
		op.InsertNode(base, prefix),
		op.InsertNode(sibling(base, 1), void),
		op.InsertNode(sibling(base, 2), suffix),
	).WithSelection(document.Collapsed(caret)).WithSource(source)
	return e.Apply(tx)
}
