package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

func marksPlugin() engine.Plugin {
	return engine.Plugin{
		ID: "marks",
		Commands: []engine.CommandSpec{
			{ID: "marks.toggle_bold", Label: "Bold", Handler: toggleMark(
				func(m document.Marks) bool { return m.Bold },
				func(m *document.Marks, on bool) { m.Bold = on },
			)},
			{ID: "marks.toggle_italic", Label: "Italic", Handler: toggleMark(
				func(m document.Marks) bool { return m.Italic },
				func(m *document.Marks, on bool) { m.Italic = on },
			)},
			{ID: "marks.toggle_underline", Label: "Underline", Handler: toggleMark(
				func(m document.Marks) bool { return m.Underline },
				func(m *document.Marks, on bool) { m.Underline = on },
			)},
			{ID: "marks.toggle_strikethrough", Label: "Strikethrough", Handler: toggleMark(
				func(m document.Marks) bool { return m.Strikethrough },
				func(m *document.Marks, on bool) { m.Strikethrough = on },
			)},
			{ID: "marks.toggle_code", Label: "Inline code", Handler: toggleMark(
				func(m document.Marks) bool { return m.Code },
				func(m *document.Marks, on bool) { m.Code = on },
			)},
			{ID: "marks.set_link", Label: "Set link", Handler: setLink},
			{ID: "marks.unset_link", Label: "Remove link", Handler: setStringMark(
				func(m *document.Marks, v string) { m.Link = v }, "", "command:marks.unset_link",
			)},
			{ID: "marks.set_text_color", Label: "Text color", Handler: setColor(
				func(m *document.Marks, v string) { m.TextColor = v }, "command:marks.set_text_color",
			)},
			{ID: "marks.unset_text_color", Label: "Clear text color", Handler: setStringMark(
				func(m *document.Marks, v string) { m.TextColor = v }, "", "command:marks.unset_text_color",
			)},
			{ID: "marks.set_highlight_color", Label: "Highlight", Handler: setColor(
				func(m *document.Marks, v string) { m.HighlightColor = v }, "command:marks.set_highlight_color",
			)},
			{ID: "marks.unset_highlight_color", Label: "Clear highlight", Handler: setStringMark(
				func(m *document.Marks, v string) { m.HighlightColor = v }, "", "command:marks.unset_highlight_color",
			)},
		},
		Queries: []engine.QuerySpec{
			{ID: "marks.get_active", Handler: func(e *engine.Editor, _ map[string]any) (any, error) {
				return marksAtFocus(e), nil
			}},
			{ID: "marks.is_bold_active", Handler: isMarkActive(func(m document.Marks) bool { return m.Bold })},
			{ID: "marks.is_italic_active", Handler: isMarkActive(func(m document.Marks) bool { return m.Italic })},
			{ID: "marks.is_underline_active", Handler: isMarkActive(func(m document.Marks) bool { return m.Underline })},
			{ID: "marks.is_strikethrough_active", Handler: isMarkActive(func(m document.Marks) bool { return m.Strikethrough })},
			{ID: "marks.is_code_active", Handler: isMarkActive(func(m document.Marks) bool { return m.Code })},
		},
	}
}

// marksAtFocus returns the marks of the text leaf under the focus point.
func marksAtFocus(e *engine.Editor) document.Marks {
	n := document.NodeAt(e.Doc(), e.Selection().Focus.Path)
	if n == nil || n.Type != document.TextNode {
		return document.Marks{}
	}
	return n.Marks
}

func isMarkActive(get func(document.Marks) bool) engine.QueryHandler {
	return func(e *engine.Editor, _ map[string]any) (any, error) {
		return get(marksAtFocus(e)), nil
	}
}

// toggleMark builds a toggle command handler. Over a range the target state
// is the inverse of "every covered leaf already has the mark"; on a
// collapsed selection the toggle becomes pending style for the next
// insertion.
func toggleMark(get func(document.Marks) bool, set func(*document.Marks, bool)) engine.CommandHandler {
	return func(e *engine.Editor, _ map[string]any) error {
		sel := e.Selection()
		if sel.IsCollapsed() {
			cur := marksAtFocus(e)
			next := cur
			set(&next, !get(cur))
			return applyPendingStyle(e, next)
		}
		targets, err := markRangeTargets(e.Doc(), e.Registry(), sel)
		if err != nil {
			return err
		}
		on := !rangeHasMark(e.Doc(), targets, get)
		return applyMarkTransform(e, targets, func(m document.Marks) document.Marks {
			set(&m, on)
			return m
		}, "command:marks.toggle")
	}
}

// setStringMark builds a handler that assigns a fixed value to one string
// mark across the selection.
func setStringMark(set func(*document.Marks, string), value, source string) engine.CommandHandler {
	return func(e *engine.Editor, _ map[string]any) error {
		return assignStringMark(e, set, value, source)
	}
}

// setColor builds a handler that reads args.color and assigns it.
func setColor(set func(*document.Marks, string), source string) engine.CommandHandler {
	return func(e *engine.Editor, args map[string]any) error {
		color, err := argString(args, "color")
		if err != nil {
			return err
		}
		return assignStringMark(e, set, color, source)
	}
}

func setLink(e *engine.Editor, args map[string]any) error {
	url, err := argString(args, "url")
	if err != nil {
		return err
	}
	return assignStringMark(e, func(m *document.Marks, v string) { m.Link = v }, url, "command:marks.set_link")
}

func assignStringMark(e *engine.Editor, set func(*document.Marks, string), value, source string) error {
	sel := e.Selection()
	if sel.IsCollapsed() {
		next := marksAtFocus(e)
		set(&next, value)
		return applyPendingStyle(e, next)
	}
	targets, err := markRangeTargets(e.Doc(), e.Registry(), sel)
	if err != nil {
		return err
	}
	return applyMarkTransform(e, targets, func(m document.Marks) document.Marks {
		set(&m, value)
		return m
	}, source)
}

// applyPendingStyle records toggled marks at a collapsed caret by splitting
// the focus leaf around an empty carrier leaf holding the new marks. Text
// typed at the caret inherits the carrier's marks; the merge pass removes
// the carrier again once its style matches its neighbours.
func applyPendingStyle(e *engine.Editor, next document.Marks) error {
	focus := e.Selection().Focus
	leaf := document.NodeAt(e.Doc(), focus.Path)
	if leaf == nil || leaf.Type != document.TextNode {
		return fmt.Errorf("no active block")
	}

	if leaf.Text == "" {
		tx := op.NewTransaction(op.SetTextMarks(focus.Path, next)).
			WithSource("command:marks.pending")
		return e.Apply(tx)
	}

	off := document.ClampToCharBoundary(leaf.Text, focus.Offset)
	prefix := document.StyledText(leaf.Text[:off], leaf.Marks)
	carrier := document.StyledText("", next)
	suffix := document.StyledText(leaf.Text[off:], leaf.Marks)

	base := focus.Path
	tx := op.NewTransaction(
		op.RemoveNode(base),
		op.InsertNode(base, prefix),
		op.InsertNode(sibling(base, 1), carrier),
		op.InsertNode(sibling(base, 2), suffix),
	).WithSelection(document.Collapsed(document.Point{Path: sibling(base, 1), Offset: 0})).
		WithSource("command:marks.pending")
	return e.Apply(tx)
}

// sibling returns the path at the same depth with the final index shifted.
func sibling(p document.Path, delta int) document.Path {
	out := p.Clone()
	out[len(out)-1] += delta
	return out
}
