package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

func todoPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "todo",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "todo_item", Role: engine.RoleBlock, Children: engine.InlineOnly},
		},
		NormalizePasses: []engine.NormalizePass{
			{ID: "todo.checked_attr", Run: ensureTodoChecked},
		},
		Commands: []engine.CommandSpec{
			{ID: "todo.toggle", Label: "To-do list", Handler: toggleTodo},
			{ID: "todo.set_checked", Label: "Check item", Handler: setTodoChecked},
		},
		Queries: []engine.QuerySpec{
			{ID: "todo.is_active", Handler: isTodoActive},
		},
	}
}

// toggleTodo retags the selected blocks to todo items, or back to
// paragraphs when every selected block already is one.
func toggleTodo(e *engine.Editor, _ map[string]any) error {
	blocks, err := selectedTextBlocks(e)
	if err != nil {
		return err
	}
	doc := e.Doc()

	allActive := true
	for _, p := range blocks {
		n := document.NodeAt(doc, p)
		if n == nil || n.Kind != "todo_item" {
			allActive = false
			break
		}
	}
	if allActive {
		return retagSelectedBlocks(e, "paragraph", nil, "command:todo.toggle")
	}
	return retagSelectedBlocks(e, "todo_item", document.Attrs{"checked": false}, "command:todo.toggle")
}

// setTodoChecked flips the checked attribute of the focus todo item.
func setTodoChecked(e *engine.Editor, args map[string]any) error {
	checked, ok := false, false
	if args != nil {
		checked, ok = args["checked"].(bool)
	}
	if !ok {
		return fmt.Errorf("missing args.checked")
	}
	blockPath, err := focusBlockPath(e)
	if err != nil {
		return err
	}
	n := document.NodeAt(e.Doc(), blockPath)
	if n == nil || n.Kind != "todo_item" {
		return fmt.Errorf("focus block is not a todo item")
	}
	tx := op.NewTransaction(op.SetNodeAttrs(blockPath, op.AttrPatch{
		Set: document.Attrs{"checked": checked},
	})).WithSource("command:todo.set_checked")
	return e.Apply(tx)
}

func isTodoActive(e *engine.Editor, _ map[string]any) (any, error) {
	blockPath, err := focusBlockPath(e)
	if err != nil {
		return nil, err
	}
	n := document.NodeAt(e.Doc(), blockPath)
	return n != nil && n.Kind == "todo_item", nil
}

// ensureTodoChecked fills a missing or mistyped checked attribute with
// false so every todo item round-trips a boolean.
func ensureTodoChecked(doc *document.Document, _ *engine.Registry) []op.Op {
	var ops []op.Op
	walkElements(doc.Children, nil, func(n document.Node, p document.Path) {
		if n.Kind != "todo_item" {
			return
		}
		if _, ok := n.Attrs.Bool("checked"); ok {
			return
		}
		ops = append(ops, op.SetNodeAttrs(p, op.AttrPatch{
			Set: document.Attrs{"checked": false},
		}))
	})
	return ops
}
