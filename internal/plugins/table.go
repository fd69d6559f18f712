package plugins

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/op"
)

func tablePlugin() engine.Plugin {
	return engine.Plugin{
		ID: "table",
		NodeSpecs: []engine.NodeSpec{
			{Kind: "table", Role: engine.RoleBlock, Children: engine.BlockOnly},
			{Kind: "table_row", Role: engine.RoleBlock, Children: engine.BlockOnly},
			{Kind: "table_cell", Role: engine.RoleBlock, Children: engine.BlockOnly},
		},
		NormalizePasses: []engine.NormalizePass{
			{ID: "table.structure", Run: normalizeTableStructure},
		},
		Commands: []engine.CommandSpec{
			{ID: "table.insert", Label: "Insert table", Handler: insertTable},
			{ID: "table.insert_row_below", Label: "Insert row below", Handler: insertRow(1)},
			{ID: "table.insert_row_above", Label: "Insert row above", Handler: insertRow(0)},
			{ID: "table.insert_col_right", Label: "Insert column right", Handler: insertCol(1)},
			{ID: "table.insert_col_left", Label: "Insert column left", Handler: insertCol(0)},
			{ID: "table.delete_row", Label: "Delete row", Handler: deleteRow},
			{ID: "table.delete_col", Label: "Delete column", Handler: deleteCol},
			{ID: "table.delete_table", Label: "Delete table", Handler: deleteTable},
		},
		Queries: []engine.QuerySpec{
			{ID: "table.is_in_table", Handler: func(e *engine.Editor, _ map[string]any) (any, error) {
				_, err := tableContext(e)
				return err == nil, nil
			}},
		},
	}
}

func newCell() document.Node {
	return document.Element("table_cell", nil, document.Paragraph(""))
}

func newRow(cols int) document.Node {
	cells := make([]document.Node, cols)
	for i := range cells {
		cells[i] = newCell()
	}
	return document.Element("table_row", nil, cells...)
}

func newTable(rows, cols int) document.Node {
	rr := make([]document.Node, rows)
	for i := range rr {
		rr[i] = newRow(cols)
	}
	return document.Element("table", nil, rr...)
}

// insertTable inserts a rows x cols table after the block containing the
// focus, followed by a trailing paragraph, and moves the caret into the
// first cell.
func insertTable(e *engine.Editor, args map[string]any) error {
	rows := optInt(args, "rows", 2)
	cols := optInt(args, "cols", 2)
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	doc := e.Doc()
	at := e.Selection().Focus.Path
	insertAt := 0
	if len(at) > 0 {
		insertAt = at[0] + 1
	}
	if insertAt > len(doc.Children) {
		insertAt = len(doc.Children)
	}

	caret := document.Point{Path: document.Path{insertAt, 0, 0, 0, 0}, Offset: 0}
	tx := op.NewTransaction(
		op.InsertNode(document.Path{insertAt}, newTable(rows, cols)),
		op.InsertNode(document.Path{insertAt + 1}, document.Paragraph("")),
	).WithSelection(document.Collapsed(caret)).WithSource("command:table.insert")
	return e.Apply(tx)
}

// tableCtx locates the table, row, and cell enclosing the focus point.
type tableCtx struct {
	tablePath document.Path
	rowIx     int
	colIx     int
	rows      int
	cols      int
}

func tableContext(e *engine.Editor) (tableCtx, error) {
	doc := e.Doc()
	focus := e.Selection().Focus.Path

	tablePath := document.AncestorOfKind(doc, focus, "table")
	if tablePath == nil {
		return tableCtx{}, fmt.Errorf("not in a table")
	}
	rowPath := document.AncestorOfKind(doc, focus, "table_row")
	if rowPath == nil || !rowPath.HasPrefix(tablePath) {
		return tableCtx{}, fmt.Errorf("not in a table")
	}
	cellPath := document.AncestorOfKind(doc, focus, "table_cell")
	if cellPath == nil || !cellPath.HasPrefix(rowPath) {
		return tableCtx{}, fmt.Errorf("not in a table")
	}

	table := document.NodeAt(doc, tablePath)
	row := document.NodeAt(doc, rowPath)
	if table == nil || row == nil {
		return tableCtx{}, fmt.Errorf("not in a table")
	}
	return tableCtx{
		tablePath: tablePath.Clone(),
		rowIx:     rowPath[len(rowPath)-1],
		colIx:     cellPath[len(cellPath)-1],
		rows:      len(table.Children),
		cols:      len(row.Children),
	}, nil
}

// cellCaret is the collapsed selection at the start of a cell's first
// paragraph.
func cellCaret(tablePath document.Path, rowIx, colIx int) document.Selection {
	p := append(tablePath.Clone(), rowIx, colIx, 0, 0)
	return document.Collapsed(document.Point{Path: p, Offset: 0})
}

// insertRow inserts a row adjacent to the focus row. With offset 1 the new
// row lands below and receives the caret; with offset 0 it lands above and
// the selection shifts down with its row.
func insertRow(offset int) engine.CommandHandler {
	return func(e *engine.Editor, _ map[string]any) error {
		ctx, err := tableContext(e)
		if err != nil {
			return err
		}
		at := append(ctx.tablePath.Clone(), ctx.rowIx+offset)
		tx := op.NewTransaction(op.InsertNode(at, newRow(ctx.cols)))
		if offset == 1 {
			tx = tx.WithSelection(cellCaret(ctx.tablePath, ctx.rowIx+1, 0))
			tx = tx.WithSource("command:table.insert_row_below")
		} else {
			tx = tx.WithSource("command:table.insert_row_above")
		}
		return e.Apply(tx)
	}
}

// insertCol inserts a cell adjacent to the focus column in every row. With
// offset 1 the new column lands to the right and receives the caret.
func insertCol(offset int) engine.CommandHandler {
	return func(e *engine.Editor, _ map[string]any) error {
		ctx, err := tableContext(e)
		if err != nil {
			return err
		}
		ops := make([]op.Op, 0, ctx.rows)
		for r := 0; r < ctx.rows; r++ {
			at := append(ctx.tablePath.Clone(), r, ctx.colIx+offset)
			ops = append(ops, op.InsertNode(at, newCell()))
		}
		tx := op.NewTransaction(ops...)
		if offset == 1 {
			tx = tx.WithSelection(cellCaret(ctx.tablePath, ctx.rowIx, ctx.colIx+1))
			tx = tx.WithSource("command:table.insert_col_right")
		} else {
			tx = tx.WithSource("command:table.insert_col_left")
		}
		return e.Apply(tx)
	}
}

// deleteRow removes the focus row and re-anchors the caret onto the row
// that shifted into its slot, clamped to the new last row. Deleting the
// only row deletes the table.
func deleteRow(e *engine.Editor, _ map[string]any) error {
	ctx, err := tableContext(e)
	if err != nil {
		return err
	}
	if ctx.rows <= 1 {
		return replaceTableWithParagraph(e, ctx, "command:table.delete_row")
	}
	newRowIx := ctx.rowIx
	if newRowIx > ctx.rows-2 {
		newRowIx = ctx.rows - 2
	}
	newColIx := ctx.colIx
	if newColIx > ctx.cols-1 {
		newColIx = ctx.cols - 1
	}
	tx := op.NewTransaction(op.RemoveNode(append(ctx.tablePath.Clone(), ctx.rowIx))).
		WithSelection(cellCaret(ctx.tablePath, newRowIx, newColIx)).
		WithSource("command:table.delete_row")
	return e.Apply(tx)
}

// deleteCol removes the focus column from every row. Deleting the only
// column deletes the table.
func deleteCol(e *engine.Editor, _ map[string]any) error {
	ctx, err := tableContext(e)
	if err != nil {
		return err
	}
	if ctx.cols <= 1 {
		return replaceTableWithParagraph(e, ctx, "command:table.delete_col")
	}
	ops := make([]op.Op, 0, ctx.rows)
	for r := ctx.rows - 1; r >= 0; r-- {
		ops = append(ops, op.RemoveNode(append(ctx.tablePath.Clone(), r, ctx.colIx)))
	}
	newColIx := ctx.colIx
	if newColIx > ctx.cols-2 {
		newColIx = ctx.cols - 2
	}
	tx := op.NewTransaction(ops...).
		WithSelection(cellCaret(ctx.tablePath, ctx.rowIx, newColIx)).
		WithSource("command:table.delete_col")
	return e.Apply(tx)
}

func deleteTable(e *engine.Editor, _ map[string]any) error {
	ctx, err := tableContext(e)
	if err != nil {
		return err
	}
	return replaceTableWithParagraph(e, ctx, "command:table.delete_table")
}

// replaceTableWithParagraph swaps the whole table for an empty paragraph
// and parks the caret inside it.
func replaceTableWithParagraph(e *engine.Editor, ctx tableCtx, source string) error {
	caret := document.Point{Path: ctx.tablePath.Child(0), Offset: 0}
	tx := op.NewTransaction(
		op.RemoveNode(ctx.tablePath),
		op.InsertNode(ctx.tablePath, document.Paragraph("")),
	).WithSelection(document.Collapsed(caret)).WithSource(source)
	return e.Apply(tx)
}

// normalizeTableStructure repairs table shape: an empty table gets one row
// holding a single cell, short rows are padded with empty cells up to the
// widest row, and every cell gets at least one paragraph child.
func normalizeTableStructure(doc *document.Document, _ *engine.Registry) []op.Op {
	var ops []op.Op
	walkElements(doc.Children, nil, func(n document.Node, p document.Path) {
		if n.Kind != "table" {
			return
		}
		if len(n.Children) == 0 {
			ops = append(ops, op.InsertNode(p.Child(0), newRow(1)))
			return
		}
		maxCols := 1
		for _, row := range n.Children {
			if len(row.Children) > maxCols {
				maxCols = len(row.Children)
			}
		}
		for r, row := range n.Children {
			if row.Kind != "table_row" {
				continue
			}
			for c := len(row.Children); c < maxCols; c++ {
				ops = append(ops, op.InsertNode(p.Child(r).Child(c), newCell()))
			}
			for c, cell := range row.Children {
				if cell.Kind != "table_cell" {
					continue
				}
				if !hasParagraphChild(cell) {
					ops = append(ops, op.InsertNode(p.Child(r).Child(c).Child(0), document.Paragraph("")))
				}
			}
		}
	})
	return ops
}

func hasParagraphChild(n document.Node) bool {
	for _, c := range n.Children {
		if c.Type == document.ElementNode && c.Kind == "paragraph" {
			return true
		}
	}
	return false
}
