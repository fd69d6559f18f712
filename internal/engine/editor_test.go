package engine

import (
	"errors"
	"testing"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/op"
)

// testRegistry registers a paragraph spec plus a pass that inserts an empty
// paragraph into an empty document, enough to exercise the editor loop.
func testRegistry(t *testing.T, extra ...Plugin) *Registry {
	t.Helper()
	base := Plugin{
		ID: "test.base",
		NodeSpecs: []NodeSpec{
			{Kind: "paragraph", Role: RoleBlock, Children: InlineOnly},
		},
		NormalizePasses: []NormalizePass{
			{ID: "test.non_empty", Run: func(doc *document.Document, _ *Registry) []op.Op {
				if len(doc.Children) > 0 {
					return nil
				}
				return []op.Op{op.InsertNode(document.Path{0}, document.Paragraph(""))}
			}},
		},
	}
	reg, err := NewRegistry(append([]Plugin{base}, extra...)...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func newTestEditor(t *testing.T, doc *document.Document, extra ...Plugin) *Editor {
	t.Helper()
	sel := document.Collapsed(document.NewPoint(document.Path{0, 0}, 0))
	return New(doc, sel, testRegistry(t, extra...))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	spec := Plugin{ID: "a", NodeSpecs: []NodeSpec{{Kind: "paragraph"}}}
	cmd := Plugin{ID: "b", Commands: []CommandSpec{{ID: "x.run", Handler: func(*Editor, map[string]any) error { return nil }}}}
	query := Plugin{ID: "c", Queries: []QuerySpec{{ID: "x.get", Handler: func(*Editor, map[string]any) (any, error) { return nil, nil }}}}

	tests := []struct {
		name    string
		plugins []Plugin
	}{
		{"node kind", []Plugin{spec, spec}},
		{"command id", []Plugin{cmd, cmd}},
		{"query id", []Plugin{query, query}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.plugins...); err == nil {
				t.Error("duplicate registration accepted")
			}
		})
	}
}

func TestApplyCommits(t *testing.T) {
	doc := &document.Document{Children: []document.Node{document.Paragraph("helo")}}
	e := newTestEditor(t, doc)

	tx := op.NewTransaction(op.InsertText(document.Path{0, 0}, 2, "l"))
	if err := e.Apply(tx); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := e.Doc().Children[0].Children[0].Text; got != "hello" {
		t.Errorf("text = %q", got)
	}
	if !e.CanUndo() {
		t.Error("apply did not push an undo step")
	}
}

func TestApplyIsAtomic(t *testing.T) {
	doc := &document.Document{Children: []document.Node{document.Paragraph("ab")}}
	e := newTestEditor(t, doc)

	tx := op.NewTransaction(
		op.InsertText(document.Path{0, 0}, 2, "c"),
		op.RemoveNode(document.Path{9}),
	)
	err := e.Apply(tx)
	var ae *op.ApplyError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want ApplyError", err)
	}
	// The first op's edit must not leak into the committed document.
	if got := e.Doc().Children[0].Children[0].Text; got != "ab" {
		t.Errorf("text after failed transaction = %q", got)
	}
	if e.CanUndo() {
		t.Error("failed transaction pushed an undo step")
	}
}

func TestEmptyTransactionPushesUndo(t *testing.T) {
	doc := &document.Document{Children: []document.Node{document.Paragraph("x")}}
	e := newTestEditor(t, doc)

	if err := e.Apply(op.NewTransaction()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !e.CanUndo() {
		t.Error("empty transaction did not push an undo step")
	}
}

func TestSelectionRepairAfterBlockRemoval(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("first"),
		document.Paragraph("second"),
	}}
	e := newTestEditor(t, doc)
	e.SetSelection(document.Collapsed(document.NewPoint(document.Path{1, 0}, 3)))

	if err := e.Apply(op.NewTransaction(op.RemoveNode(document.Path{1}))); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{0, 0}) {
		t.Errorf("focus path = %v, want [0 0]", sel.Focus.Path)
	}
	if sel.Focus.Offset != 0 {
		t.Errorf("focus offset = %d", sel.Focus.Offset)
	}
}

func TestNormalizeRunsToFixpoint(t *testing.T) {
	// Removing the only block leaves an empty document, which the base
	// pass repairs back to one empty paragraph.
	doc := &document.Document{Children: []document.Node{document.Paragraph("x")}}
	e := newTestEditor(t, doc)

	if err := e.Apply(op.NewTransaction(op.RemoveNode(document.Path{0}))); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(e.Doc().Children) != 1 || e.Doc().Children[0].Kind != "paragraph" {
		t.Errorf("doc = %+v", e.Doc().Children)
	}
}

func TestNormalizeDivergenceFails(t *testing.T) {
	hostile := Plugin{
		ID: "test.hostile",
		NormalizePasses: []NormalizePass{
			{ID: "test.always_dirty", Run: func(doc *document.Document, _ *Registry) []op.Op {
				return []op.Op{op.InsertNode(document.Path{0}, document.Paragraph("again"))}
			}},
		},
	}
	doc := &document.Document{Children: []document.Node{document.Paragraph("x")}}
	sel := document.Collapsed(document.NewPoint(document.Path{0, 0}, 0))
	e := NewWithConfig(doc, sel, testRegistry(t, hostile), Config{MaxNormalizeRounds: 5})

	err := e.Apply(op.NewTransaction(op.InsertText(document.Path{0, 0}, 0, "y")))
	if !errors.Is(err, ErrNormalizeDidNotConverge) {
		t.Fatalf("err = %v, want ErrNormalizeDidNotConverge", err)
	}
}

func TestUndoRedo(t *testing.T) {
	doc := &document.Document{Children: []document.Node{document.Paragraph("a")}}
	e := newTestEditor(t, doc)

	if e.Undo() {
		t.Error("Undo on empty stack reported success")
	}

	_ = e.Apply(op.NewTransaction(op.InsertText(document.Path{0, 0}, 1, "b")))
	_ = e.Apply(op.NewTransaction(op.InsertText(document.Path{0, 0}, 2, "c")))

	text := func() string { return e.Doc().Children[0].Children[0].Text }
	if text() != "abc" {
		t.Fatalf("text = %q", text())
	}

	if !e.Undo() || text() != "ab" {
		t.Errorf("after first undo: %q", text())
	}
	if !e.Undo() || text() != "a" {
		t.Errorf("after second undo: %q", text())
	}
	if !e.Redo() || text() != "ab" {
		t.Errorf("after redo: %q", text())
	}

	// A fresh apply clears the redo stack.
	_ = e.Apply(op.NewTransaction(op.InsertText(document.Path{0, 0}, 2, "z")))
	if e.CanRedo() {
		t.Error("redo stack survived a new apply")
	}
}

func TestUndoDepthIsBounded(t *testing.T) {
	doc := &document.Document{Children: []document.Node{document.Paragraph("")}}
	sel := document.Collapsed(document.NewPoint(document.Path{0, 0}, 0))
	e := NewWithConfig(doc, sel, testRegistry(t), Config{MaxUndo: 3})

	for i := 0; i < 10; i++ {
		_ = e.Apply(op.NewTransaction(op.InsertText(document.Path{0, 0}, 0, "x")))
	}
	undos := 0
	for e.Undo() {
		undos++
	}
	if undos != 3 {
		t.Errorf("undo depth = %d, want 3", undos)
	}
}

func TestUnknownCommandAndQuery(t *testing.T) {
	doc := &document.Document{Children: []document.Node{document.Paragraph("")}}
	e := newTestEditor(t, doc)

	if err := e.RunCommand("nope", nil); err == nil {
		t.Error("unknown command accepted")
	}
	if _, err := e.RunQuery("nope", nil); err == nil {
		t.Error("unknown query accepted")
	}
}

func TestTextBlockPaths(t *testing.T) {
	reg := testRegistry(t)
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("a"),
		document.Element("wrapper", nil,
			document.Paragraph("b"),
			document.Element("leafish", nil, document.Text("c")),
		),
	}}
	got := reg.TextBlockPaths(doc)
	want := []document.Path{{0}, {1, 0}, {1, 1}}
	if len(got) != len(want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("path[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
