package plugins

import (
	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

const (
	listTypeBulleted = "bulleted"
	listTypeOrdered  = "ordered"
)

func listPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "list",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "list_item", Role: engine.RoleBlock, Children: engine.InlineOnly},
		},
		NormalizePasses: []engine.NormalizePass{
			{ID: "list.ordered_indices", Run: renumberOrderedLists},
		},
		Commands: []engine.CommandSpec{
			{ID: "list.toggle_bulleted", Label: "Bulleted list", Handler: toggleList(listTypeBulleted)},
			{ID: "list.toggle_ordered", Label: "Numbered list", Handler: toggleList(listTypeOrdered)},
		},
		Queries: []engine.QuerySpec{
			{ID: "list.active_type", Handler: activeListType},
			{ID: "list.is_active", Handler: isListActive},
		},
	}
}

// toggleList retags the selected blocks to list items of the given type, or
// back to paragraphs when every selected block already is one.
func toggleList(listType string) engine.CommandHandler {
	return func(e *engine.Editor, _ map[string]any) error {
		blocks, err := selectedTextBlocks(e)
		if err != nil {
			return err
		}
		doc := e.Doc()

		allActive := true
		for _, p := range blocks {
			n := document.NodeAt(doc, p)
			if n == nil || n.Kind != "list_item" {
				allActive = false
				break
			}
			if lt, _ := n.Attrs.String("list_type"); lt != listType {
				allActive = false
				break
			}
		}

		source := "command:list.toggle_" + listType
		if allActive {
			return retagSelectedBlocks(e, "paragraph", nil, source)
		}

		// Indices are filled in by the renumber pass.
		var ops []op.Op
		for _, p := range blocks {
			n := document.NodeAt(doc, p)
			if n == nil {
				continue
			}
			if n.Kind == "list_item" {
				ops = append(ops, op.SetNodeAttrs(p, op.AttrPatch{
					Set:    document.Attrs{"list_type": listType},
					Remove: []string{"list_index"},
				}))
				continue
			}
			ops = append(ops, retagOps(n, p, "list_item", document.Attrs{"list_type": listType})...)
		}
		tx := op.NewTransaction(ops...).WithSelection(e.Selection()).WithSource(source)
		return e.Apply(tx)
	}
}

// activeListType reports the list type of the focus block, or nil when it
// is not a list item.
func activeListType(e *engine.Editor, _ map[string]any) (any, error) {
	blockPath, err := focusBlockPath(e)
	if err != nil {
		return nil, err
	}
	n := document.NodeAt(e.Doc(), blockPath)
	if n == nil || n.Kind != "list_item" {
		return nil, nil
	}
	lt, ok := n.Attrs.String("list_type")
	if !ok {
		return nil, nil
	}
	return lt, nil
}

func isListActive(e *engine.Editor, args map[string]any) (any, error) {
	want, err := argString(args, "list_type")
	if err != nil {
		return nil, err
	}
	got, err := activeListType(e, nil)
	if err != nil {
		return nil, err
	}
	return got == want, nil
}

// renumberOrderedLists keeps list_index consecutive within each run of
// ordered list items among siblings. The counter resets at any sibling
// that is not an ordered list item, and stale indices on non-ordered items
// are stripped.
func renumberOrderedLists(doc *document.Document, _ *engine.Registry) []op.Op {
	var ops []op.Op
	var walk func(nodes []document.Node, base document.Path)
	walk = func(nodes []document.Node, base document.Path) {
		counter := 0
		for i, n := range nodes {
			if n.Type != document.ElementNode {
				counter = 0
				continue
			}
			p := base.Child(i)
			lt, _ := n.Attrs.String("list_type")
			if n.Kind == "list_item" && lt == listTypeOrdered {
				counter++
				if ix, ok := n.Attrs.Int("list_index"); !ok || ix != counter {
					ops = append(ops, op.SetNodeAttrs(p, op.AttrPatch{
						Set: document.Attrs{"list_index": counter},
					}))
				}
			} else {
				counter = 0
				if _, stale := n.Attrs["list_index"]; stale {
					ops = append(ops, op.SetNodeAttrs(p, op.AttrPatch{
						Remove: []string{"list_index"},
					}))
				}
				walk(n.Children, p)
			}
		}
	}
	walk(doc.Children, nil)
	return ops
}
