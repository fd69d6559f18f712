package plugins

import (
	"testing"

	"github.com/starford/plate/internal/document"
)

func TestSetHeading(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("title"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 2)

	mustRun(t, e, "block.set_heading", map[string]any{"level": 2})

	block := e.Doc().Children[0]
	if block.Kind != "heading" {
		t.Fatalf("kind = %q", block.Kind)
	}
	if level, _ := block.Attrs.Int("level"); level != 2 {
		t.Errorf("level = %d", level)
	}
	if block.Children[0].Text != "title" {
		t.Errorf("children lost: %+v", block.Children)
	}
	// Retagging keeps sibling indices, so the caret stays in place.
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{0, 0}) || sel.Focus.Offset != 2 {
		t.Errorf("caret = %v:%d", sel.Focus.Path, sel.Focus.Offset)
	}

	if got := mustQuery(t, e, "block.heading_level", nil); got != 2 {
		t.Errorf("heading_level = %v", got)
	}
}

func TestUnsetHeading(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Element("heading", document.Attrs{"level": 3}, document.Text("x")),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)

	mustRun(t, e, "block.unset_heading", nil)

	if got := e.Doc().Children[0].Kind; got != "paragraph" {
		t.Errorf("kind = %q", got)
	}
	if got := mustQuery(t, e, "block.heading_level", nil); got != nil {
		t.Errorf("heading_level = %v", got)
	}
}

func TestHeadingLevelClampRequested(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("x"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)

	mustRun(t, e, "block.set_heading", map[string]any{"level": 42})
	if level, _ := e.Doc().Children[0].Attrs.Int("level"); level != 6 {
		t.Errorf("level = %d, want 6", level)
	}

	mustRun(t, e, "block.set_heading", map[string]any{"level": -1})
	if level, _ := e.Doc().Children[0].Attrs.Int("level"); level != 1 {
		t.Errorf("level = %d, want 1", level)
	}
}

func TestHeadingLevelClampNormalize(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Element("heading", document.Attrs{"level": 42}, document.Text("big")),
		document.Element("heading", nil, document.Text("none")),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)

	if level, _ := e.Doc().Children[0].Attrs.Int("level"); level != 6 {
		t.Errorf("oversized level = %d, want 6", level)
	}
	if level, _ := e.Doc().Children[1].Attrs.Int("level"); level != 1 {
		t.Errorf("missing level = %d, want 1", level)
	}
}
