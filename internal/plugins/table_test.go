package plugins

import (
	"testing"

	"github.com/starford/plate/internal/document"
)

func tableAt(t *testing.T, doc *document.Document, path document.Path) *document.Node {
	t.Helper()
	n := document.NodeAt(doc, path)
	if n == nil || n.Kind != "table" {
		t.Fatalf("no table at %v", path)
	}
	return n
}

func TestInsertTable(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("intro"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 5)

	mustRun(t, e, "table.insert", map[string]any{"rows": 2, "cols": 3})

	children := e.Doc().Children
	if len(children) != 3 {
		t.Fatalf("children = %d, want 3 (intro, table, trailing paragraph)", len(children))
	}
	table := tableAt(t, e.Doc(), document.Path{1})
	if len(table.Children) != 2 {
		t.Fatalf("rows = %d", len(table.Children))
	}
	for r, row := range table.Children {
		if row.Kind != "table_row" || len(row.Children) != 3 {
			t.Fatalf("row %d = %+v", r, row)
		}
		for c, cell := range row.Children {
			if cell.Kind != "table_cell" || len(cell.Children) != 1 || cell.Children[0].Kind != "paragraph" {
				t.Errorf("cell %d/%d = %+v", r, c, cell)
			}
		}
	}
	if children[2].Kind != "paragraph" {
		t.Errorf("trailing block = %+v", children[2])
	}
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{1, 0, 0, 0, 0}) {
		t.Errorf("caret = %v, want first cell", sel.Focus.Path)
	}
}

func insertedTable(t *testing.T) (*document.Document, document.Path) {
	t.Helper()
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("intro"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)
	mustRun(t, e, "table.insert", map[string]any{"rows": 2, "cols": 2})
	return e.Doc(), document.Path{1}
}

func TestInsertRowBelow(t *testing.T) {
	doc, tablePath := insertedTable(t)
	e := richEditor(t, doc.Clone(), append(tablePath.Clone(), 0, 0, 0, 0), 0)

	mustRun(t, e, "table.insert_row_below", nil)

	table := tableAt(t, e.Doc(), tablePath)
	if len(table.Children) != 3 {
		t.Fatalf("rows = %d", len(table.Children))
	}
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{1, 1, 0, 0, 0}) {
		t.Errorf("caret = %v, want [1 1 0 0 0]", sel.Focus.Path)
	}
}

func TestInsertRowAbove(t *testing.T) {
	doc, tablePath := insertedTable(t)
	e := richEditor(t, doc.Clone(), append(tablePath.Clone(), 1, 0, 0, 0), 0)

	mustRun(t, e, "table.insert_row_above", nil)

	table := tableAt(t, e.Doc(), tablePath)
	if len(table.Children) != 3 {
		t.Fatalf("rows = %d", len(table.Children))
	}
	// The caret follows its row down.
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{1, 2, 0, 0, 0}) {
		t.Errorf("caret = %v, want [1 2 0 0 0]", sel.Focus.Path)
	}
}

func TestInsertColRight(t *testing.T) {
	doc, tablePath := insertedTable(t)
	e := richEditor(t, doc.Clone(), append(tablePath.Clone(), 0, 0, 0, 0), 0)

	mustRun(t, e, "table.insert_col_right", nil)

	table := tableAt(t, e.Doc(), tablePath)
	for r, row := range table.Children {
		if len(row.Children) != 3 {
			t.Fatalf("row %d cols = %d", r, len(row.Children))
		}
	}
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{1, 0, 1, 0, 0}) {
		t.Errorf("caret = %v, want [1 0 1 0 0]", sel.Focus.Path)
	}
}

func TestDeleteRow(t *testing.T) {
	doc, tablePath := insertedTable(t)
	e := richEditor(t, doc.Clone(), append(tablePath.Clone(), 0, 1, 0, 0), 0)

	mustRun(t, e, "table.delete_row", nil)

	table := tableAt(t, e.Doc(), tablePath)
	if len(table.Children) != 1 {
		t.Fatalf("rows = %d", len(table.Children))
	}
	// Row 0 was deleted; the caret re-anchors in the surviving row, same
	// column.
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{1, 0, 1, 0, 0}) {
		t.Errorf("caret = %v, want [1 0 1 0 0]", sel.Focus.Path)
	}
}

func TestDeleteLastRowRemovesTable(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("intro"),
		document.Element("table", nil,
			document.Element("table_row", nil,
				document.Element("table_cell", nil, document.Paragraph("only")),
			),
		),
	}}
	e := richEditor(t, doc, document.Path{1, 0, 0, 0, 0}, 0)

	mustRun(t, e, "table.delete_row", nil)

	if got := e.Doc().Children[1].Kind; got != "paragraph" {
		t.Errorf("table slot = %q, want paragraph", got)
	}
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{1, 0}) || sel.Focus.Offset != 0 {
		t.Errorf("caret = %v:%d, want [1 0]:0", sel.Focus.Path, sel.Focus.Offset)
	}
}

func TestDeleteCol(t *testing.T) {
	doc, tablePath := insertedTable(t)
	e := richEditor(t, doc.Clone(), append(tablePath.Clone(), 0, 1, 0, 0), 0)

	mustRun(t, e, "table.delete_col", nil)

	table := tableAt(t, e.Doc(), tablePath)
	for r, row := range table.Children {
		if len(row.Children) != 1 {
			t.Fatalf("row %d cols = %d", r, len(row.Children))
		}
	}
	// Column 1 was the last; the caret clamps onto the new last column.
	sel := e.Selection()
	if !sel.Focus.Path.Equal(document.Path{1, 0, 0, 0, 0}) {
		t.Errorf("caret = %v, want [1 0 0 0 0]", sel.Focus.Path)
	}
}

func TestDeleteTable(t *testing.T) {
	doc, tablePath := insertedTable(t)
	e := richEditor(t, doc.Clone(), append(tablePath.Clone(), 1, 1, 0, 0), 0)

	mustRun(t, e, "table.delete_table", nil)

	children := e.Doc().Children
	if len(children) != 3 || children[1].Kind != "paragraph" {
		t.Errorf("children = %+v", children)
	}
}

func TestTableCommandsOutsideTable(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("plain"),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)

	for _, cmd := range []string{
		"table.insert_row_below", "table.insert_col_right",
		"table.delete_row", "table.delete_col", "table.delete_table",
	} {
		if err := e.RunCommand(cmd, nil); err == nil {
			t.Errorf("%s outside a table accepted", cmd)
		}
	}
	if got := mustQuery(t, e, "table.is_in_table", nil); got != false {
		t.Errorf("is_in_table = %v", got)
	}
}

func TestTableNormalizeFillsStructure(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Element("table", nil,
			document.Element("table_row", nil,
				document.Element("table_cell", nil), // no paragraph
				document.Element("table_cell", nil, document.Paragraph("x")),
			),
			document.Element("table_row", nil,
				document.Element("table_cell", nil, document.Paragraph("y")),
			), // short row
		),
	}}
	e := richEditor(t, doc, document.Path{0, 0, 1, 0, 0}, 0)

	table := tableAt(t, e.Doc(), document.Path{0})
	for r, row := range table.Children {
		if len(row.Children) != 2 {
			t.Fatalf("row %d cols = %d, want 2", r, len(row.Children))
		}
		for c, cell := range row.Children {
			if len(cell.Children) == 0 || cell.Children[0].Kind != "paragraph" {
				t.Errorf("cell %d/%d = %+v", r, c, cell)
			}
		}
	}
}

func TestTableNormalizeCellWithoutParagraph(t *testing.T) {
	// A cell holding only non-paragraph elements still gets a paragraph.
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("x"),
		document.Element("table", nil,
			document.Element("table_row", nil,
				document.Element("table_cell", nil,
					document.Element("blockquote", nil, document.Paragraph("quoted")),
				),
			),
		),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)

	table := tableAt(t, e.Doc(), document.Path{1})
	cell := table.Children[0].Children[0]
	var hasParagraph bool
	for _, c := range cell.Children {
		if c.Kind == "paragraph" {
			hasParagraph = true
		}
	}
	if !hasParagraph {
		t.Errorf("cell = %+v, want a paragraph child", cell)
	}
}

func TestEmptyTableGetsRow(t *testing.T) {
	doc := &document.Document{Children: []document.Node{
		document.Paragraph("x"),
		document.Element("table", nil),
	}}
	e := richEditor(t, doc, document.Path{0, 0}, 0)

	table := tableAt(t, e.Doc(), document.Path{1})
	if len(table.Children) != 1 {
		t.Fatalf("rows = %d", len(table.Children))
	}
	row := table.Children[0]
	if row.Kind != "table_row" || len(row.Children) != 1 || row.Children[0].Kind != "table_cell" {
		t.Errorf("row = %+v", row)
	}
}
