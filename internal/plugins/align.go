package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

var validAligns = map[string]bool{
	"left":    true,
	"center":  true,
	"right":   true,
	"justify": true,
}

func alignPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "align",
		Commands: []engine.CommandSpec{
			{ID: "block.set_align", Label: "Align", Handler: setAlign},
			{ID: "block.unset_align", Label: "Reset alignment", Handler: unsetAlign},
		},
		Queries: []engine.QuerySpec{
			{ID: "block.align", Handler: blockAlign},
		},
	}
}

// setAlign sets the align attribute on every selected block. Left is the
// default and is stored as an attribute removal.
func setAlign(e *engine.Editor, args map[string]any) error {
	align, err := argString(args, "align")
	if err != nil {
		return err
	}
	if !validAligns[align] {
		return fmt.Errorf("invalid align: %s", align)
	}
	if align == "left" {
		return unsetAlign(e, nil)
	}
	return patchSelectedBlocks(e, op.AttrPatch{
		Set: document.Attrs{"align": align},
	}, "command:block.set_align")
}

func unsetAlign(e *engine.Editor, _ map[string]any) error {
	return patchSelectedBlocks(e, op.AttrPatch{
		Remove: []string{"align"},
	}, "command:block.unset_align")
}

// blockAlign reports the focus block's alignment, defaulting to left.
func blockAlign(e *engine.Editor, _ map[string]any) (any, error) {
	blockPath, err := focusBlockPath(e)
	if err != nil {
		return nil, err
	}
	n := document.NodeAt(e.Doc(), blockPath)
	if n == nil {
		return nil, fmt.Errorf("no active block")
	}
	if align, ok := n.Attrs.String("align"); ok {
		return align, nil
	}
	return "left", nil
}

// patchSelectedBlocks applies one attribute patch to every selected block.
func patchSelectedBlocks(e *engine.Editor, patch op.AttrPatch, source string) error {
	blocks, err := selectedTextBlocks(e)
	if err != nil {
		return err
	}
	ops := make([]op.Op, 0, len(blocks))
	for _, p := range blocks {
		ops = append(ops, op.SetNodeAttrs(p, patch))
	}
	tx := op.NewTransaction(ops...).WithSource(source)
	return e.Apply(tx)
}
