package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
)

func mediaPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "media",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "image", Role: engine.RoleBlock, Children: engine.ChildrenNone, IsVoid: true},
			{Kind: "emoji", Role: engine.RoleInline, Children: engine.ChildrenNone, IsVoid: true},
		},
		Commands: []engine.CommandSpec{
			{ID: "image.insert", Label: "Image", Handler: insertImage},
			{ID: "emoji.insert", Label: "Emoji", Handler: insertEmoji},
		},
	}
}

// insertImage inserts an image block after the block containing the focus,
// followed by a fresh paragraph that receives the caret.
func insertImage(e *engine.Editor, args map[string]any) error {
	src, err := argString(args, "src")
	if err != nil {
		return err
	}
	attrs := document.Attrs{"src": src}
	if alt := optString(args, "alt", ""); alt != "" {
		attrs["alt"] = alt
	}
	return insertBlockAfterFocus(e, document.Void("image", attrs), "command:image.insert")
}

// insertEmoji places an inline emoji void at the caret.
func insertEmoji(e *engine.Editor, args map[string]any) error {
	if !e.Selection().IsCollapsed() {
		return fmt.Errorf("emoji.insert requires a collapsed selection")
	}
	emoji := optString(args, "emoji", "😀")
	void := document.Void("emoji", document.Attrs{"emoji": emoji})
	return insertInlineVoid(e, void, "command:emoji.insert")
}
