package plugins

import (
	"testing"

	"github.com/starford/plate/internal/document"
)

func TestToggleBoldSplitsLeaf(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("hello world"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	selectRange(e, document.Path{0, 0}, 6, document.Path{0, 0}, 11)

	mustRun(t, e, "marks.toggle_bold", nil)

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 2 {
		t.Fatalf("leaves = %+v", leaves)
	}
	if leaves[0].Text != "hello " || leaves[0].Marks.Bold {
		t.Errorf("leaf 0 = %+v", leaves[0])
	}
	if leaves[1].Text != "world" || !leaves[1].Marks.Bold {
		t.Errorf("leaf 1 = %+v", leaves[1])
	}

	sel := e.Selection()
	if !sel.Anchor.Path.Equal(document.Path{0, 1}) || sel.Anchor.Offset != 0 {
		t.Errorf("anchor = %v:%d", sel.Anchor.Path, sel.Anchor.Offset)
	}
	if !sel.Focus.Path.Equal(document.Path{0, 1}) || sel.Focus.Offset != 5 {
		t.Errorf("focus = %v:%d", sel.Focus.Path, sel.Focus.Offset)
	}
}

func TestToggleBoldOffMergesBack(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("hello world"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	selectRange(e, document.Path{0, 0}, 6, document.Path{0, 0}, 11)

	mustRun(t, e, "marks.toggle_bold", nil)
	mustRun(t, e, "marks.toggle_bold", nil)

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 1 || leaves[0].Text != "hello world" || !leaves[0].Marks.IsZero() {
		t.Fatalf("leaves = %+v", leaves)
	}
	sel := e.Selection()
	if sel.Anchor.Offset != 6 || sel.Focus.Offset != 11 {
		t.Errorf("selection = %d..%d, want 6..11", sel.Anchor.Offset, sel.Focus.Offset)
	}
}

func TestToggleTargetFromMixedRange(t *testing.T) {
	// When part of the range is already bold, toggling bolds the rest.
	doc := &document.Document{Children: []document.Node{
		document.Element("paragraph", nil,
			document.Text("plain"),
			document.StyledText("bold", document.Marks{Bold: true}),
		),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	selectRange(e, document.Path{0, 0}, 0, document.Path{0, 1}, 4)

	mustRun(t, e, "marks.toggle_bold", nil)

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 1 || leaves[0].Text != "plainbold" || !leaves[0].Marks.Bold {
		t.Fatalf("leaves = %+v", leaves)
	}
}

func TestToggleAcrossBlocks(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("first"),
		document.Paragraph("second"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	selectRange(e, document.Path{0, 0}, 3, document.Path{1, 0}, 3)

	mustRun(t, e, "marks.toggle_italic", nil)

	first := leafTexts(t, e.Doc(), document.Path{0})
	if len(first) != 2 || first[0].Text != "fir" || first[0].Marks.Italic {
		t.Errorf("first block = %+v", first)
	}
	if first[1].Text != "st" || !first[1].Marks.Italic {
		t.Errorf("first block tail = %+v", first[1])
	}
	second := leafTexts(t, e.Doc(), document.Path{1})
	if len(second) != 2 || second[0].Text != "sec" || !second[0].Marks.Italic {
		t.Errorf("second block = %+v", second)
	}
	if second[1].Text != "ond" || second[1].Marks.Italic {
		t.Errorf("second block tail = %+v", second[1])
	}
}

func TestRangeSkipsVoids(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Element("paragraph", nil,
			document.Text("ab"),
			document.Void("emoji", document.Attrs{"emoji": "🌊"}),
			document.Text("cd"),
		),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	selectRange(e, document.Path{0, 0}, 0, document.Path{0, 2}, 2)

	mustRun(t, e, "marks.toggle_bold", nil)

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 3 {
		t.Fatalf("leaves = %+v", leaves)
	}
	if !leaves[0].Marks.Bold || leaves[0].Text != "ab" {
		t.Errorf("leaf 0 = %+v", leaves[0])
	}
	if leaves[1].Type != document.VoidNode {
		t.Errorf("void consumed: %+v", leaves[1])
	}
	if !leaves[2].Marks.Bold || leaves[2].Text != "cd" {
		t.Errorf("leaf 2 = %+v", leaves[2])
	}
}

func TestCollapsedToggleCarriesPendingStyle(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("ab"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 1)

	mustRun(t, e, "marks.toggle_bold", nil)

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 3 {
		t.Fatalf("leaves = %+v", leaves)
	}
	if leaves[1].Text != "" || !leaves[1].Marks.Bold {
		t.Errorf("carrier = %+v", leaves[1])
	}
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{0, 1}) || sel.Focus.Offset != 0 {
		t.Errorf("caret = %v:%d, want [0 1]:0", sel.Focus.Path, sel.Focus.Offset)
	}
	if got := mustQuery(t, e, "marks.is_bold_active", nil); got != true {
		t.Errorf("is_bold_active = %v", got)
	}
	active := mustQuery(t, e, "marks.get_active", nil).(document.Marks)
	if !active.Bold {
		t.Errorf("get_active = %+v", active)
	}
}

func TestCollapsedToggleTwiceRestoresLeaf(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("ab"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 1)

	mustRun(t, e, "marks.toggle_bold", nil)
	mustRun(t, e, "marks.toggle_bold", nil)

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 1 || leaves[0].Text != "ab" || !leaves[0].Marks.IsZero() {
		t.Fatalf("leaves = %+v", leaves)
	}
}

func TestSetAndUnsetLink(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("click here"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	selectRange(e, document.Path{0, 0}, 6, document.Path{0, 0}, 10)

	if err := e.RunCommand("marks.set_link", nil); err == nil {
		t.Error("set_link without url accepted")
	}
	mustRun(t, e, "marks.set_link", map[string]any{"url": "https://example.com"})

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 2 || leaves[1].Marks.Link != "https://example.com" {
		t.Fatalf("leaves = %+v", leaves)
	}

	mustRun(t, e, "marks.unset_link", nil)
	leaves = leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 1 || leaves[0].Marks.Link != "" {
		t.Fatalf("after unset: %+v", leaves)
	}
}

func TestColors(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("tinted"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	selectRange(e, document.Path{0, 0}, 0, document.Path{0, 0}, 6)

	mustRun(t, e, "marks.set_text_color", map[string]any{"color": "#c00"})
	mustRun(t, e, "marks.set_highlight_color", map[string]any{"color": "#ff0"})

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if leaves[0].Marks.TextColor != "#c00" || leaves[0].Marks.HighlightColor != "#ff0" {
		t.Fatalf("marks = %+v", leaves[0].Marks)
	}

	mustRun(t, e, "marks.unset_text_color", nil)
	mustRun(t, e, "marks.unset_highlight_color", nil)
	leaves = leafTexts(t, e.Doc(), document.Path{0})
	if !leaves[0].Marks.IsZero() {
		t.Fatalf("marks after unset = %+v", leaves[0].Marks)
	}
}
