// Package plugins holds the built-in editor plugins and the registry
// compositions used by hosts: Core for the minimal paragraph editor and
// RichText for the full formatting surface.
package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
)

// Core composes the minimal plugin set: paragraph, divider, the structural
// normalization passes, and the core commands.
func Core() *engine.Registry {
	reg, err := engine.NewRegistry(
		paragraphPlugin(),
		dividerPlugin(),
		normalizePlugin(),
		coreCommandsPlugin(),
	)
	if err != nil {
		panic(fmt.Sprintf("plugins: core registry must be valid: %v", err))
	}
	return reg
}

// RichText composes every built-in plugin.
func RichText() *engine.Registry {
	reg, err := engine.NewRegistry(
		paragraphPlugin(),
		dividerPlugin(),
		normalizePlugin(),
		coreCommandsPlugin(),
		marksPlugin(),
		headingPlugin(),
		listPlugin(),
		tablePlugin(),
		mentionPlugin(),
		todoPlugin(),
		blockquotePlugin(),
		alignPlugin(),
		mediaPlugin(),
	)
	if err != nil {
		panic(fmt.Sprintf("plugins: richtext registry must be valid: %v", err))
	}
	return reg
}

// argString returns a required string argument.
func argString(args map[string]any, key string) (string, error) {
	if args != nil {
		if s, ok := args[key].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("missing args.%s", key)
}

// optString returns an optional string argument.
func optString(args map[string]any, key, fallback string) string {
	if args != nil {
		if s, ok := args[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// argInt returns a required integer argument, accepting the numeric types
// JSON decoding produces.
func argInt(args map[string]any, key string) (int, error) {
	if args != nil {
		if n, ok := numToInt(args[key]); ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("missing args.%s", key)
}

// optInt returns an optional integer argument.
func optInt(args map[string]any, key string, fallback int) int {
	if args != nil {
		if n, ok := numToInt(args[key]); ok {
			return n
		}
	}
	return fallback
}

func numToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// focusBlockPath returns the text block containing the focus point.
func focusBlockPath(e *engine.Editor) (document.Path, error) {
	blocks := e.Registry().TextBlockPaths(e.Doc())
	focus := e.Selection().Focus
	for _, b := range blocks {
		if focus.Path.HasPrefix(b) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no active block")
}

// selectedTextBlocks returns the text blocks the selection touches, in
// document order, from the block containing its start to the block
// containing its end.
func selectedTextBlocks(e *engine.Editor) ([]document.Path, error) {
	blocks := e.Registry().TextBlockPaths(e.Doc())
	start, end := e.Selection().Ordered()

	startIx, endIx := -1, -1
	for i, b := range blocks {
		if startIx < 0 && start.Path.HasPrefix(b) {
			startIx = i
		}
		if end.Path.HasPrefix(b) {
			endIx = i
		}
	}
	if startIx < 0 || endIx < 0 {
		return nil, fmt.Errorf("no active block")
	}
	if endIx < startIx {
		startIx, endIx = endIx, startIx
	}
	return blocks[startIx : endIx+1], nil
}
