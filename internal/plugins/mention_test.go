package plugins

import (
	"testing"

	"github.com/starford/plate/internal/document"
)

func TestInsertMention(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("hi  there"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 3)

	mustRun(t, e, "mention.insert", map[string]any{"label": "ada"})

	leaves := leafTexts(t, e.Doc(), document.Path{0})
	if len(leaves) != 3 {
		t.Fatalf("leaves = %+v", leaves)
	}
	if leaves[0].Text != "hi " {
		t.Errorf("prefix = %q", leaves[0].Text)
	}
	m := leaves[1]
	if m.Type != document.VoidNode || m.Kind != "mention" {
		t.Fatalf("mention = %+v", m)
	}
	if label, _ := m.Attrs.String("label"); label != "ada" {
		t.Errorf("label = %q", label)
	}
	if leaves[2].Text != " there" {
		t.Errorf("suffix = %q", leaves[2].Text)
	}
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{0, 2}) || sel.Focus.Offset != 0 {
		t.Errorf("caret = %v:%d, want [0 2]:0", sel.Focus.Path, sel.Focus.Offset)
	}
}

func TestInsertMentionRequiresCollapsed(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("select me"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	selectRange(e, document.Path{0, 0}, 0, document.Path{0, 0}, 6)

	if err := e.RunCommand("mention.insert", map[string]any{"label": "x"}); err == nil {
		t.Error("ranged mention.insert accepted")
	}
}

func TestInsertMentionRequiresLabel(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("x"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	if err := e.RunCommand("mention.insert", nil); err == nil {
		t.Error("mention.insert without label accepted")
	}
}

func TestMentionInlineText(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Element("paragraph", nil,
			document.Text("ping "),
			document.Void("mention", document.Attrs{"label": "ada"}),
		),
	}}
	if got := document.PlainText(doc); got != "ping @ada" {
		t.Errorf("PlainText = %q", got)
	}
}
