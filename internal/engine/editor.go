package engine

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/op"
)

// Defaults for the editor's bounded resources.
const (
	DefaultMaxUndo            = 200
	DefaultMaxNormalizeRounds = 100
)

// ErrNormalizeDidNotConverge is returned when the normalization fixpoint loop
// hits its iteration cap, which indicates a misbehaving pass.
var ErrNormalizeDidNotConverge = fmt.Errorf("engine: normalization did not converge")

// snapshot captures the committed state restored by undo/redo. Documents are
// replaced wholesale on commit, so a snapshot can hold the old tree without
// copying it.
type snapshot struct {
	doc *document.Document
	sel document.Selection
}

// Config bounds the editor's stacks and loops. Zero values take defaults.
type Config struct {
	MaxUndo            int
	MaxNormalizeRounds int
}

func (c Config) withDefaults() Config {
	if c.MaxUndo <= 0 {
		c.MaxUndo = DefaultMaxUndo
	}
	if c.MaxNormalizeRounds <= 0 {
		c.MaxNormalizeRounds = DefaultMaxNormalizeRounds
	}
	return c
}

// Editor owns a document, its selection, and the undo/redo stacks, and
// applies transactions through the registry's normalization passes. One
// editor assumes a single owner at a time.
type Editor struct {
	doc    *document.Document
	sel    document.Selection
	reg    *Registry
	config Config

	undo []snapshot
	redo []snapshot
}

// New builds an editor over an existing document and normalizes it.
func New(doc *document.Document, sel document.Selection, reg *Registry) *Editor {
	return NewWithConfig(doc, sel, reg, Config{})
}

// NewWithConfig builds an editor with explicit bounds.
func NewWithConfig(doc *document.Document, sel document.Selection, reg *Registry, cfg Config) *Editor {
	e := &Editor{doc: doc, sel: sel, reg: reg, config: cfg.withDefaults()}
	// Repair whatever the caller loaded; construction failures are not
	// actionable, so a non-converging registry is simply left as-is.
	if next, nextSel, err := e.normalized(e.doc, e.sel); err == nil {
		e.doc, e.sel = next, nextSel
	}
	e.sel = e.reg.NormalizeSelection(e.doc, e.sel)
	return e
}

// Doc returns the current document. Callers must not mutate it.
func (e *Editor) Doc() *document.Document {
	return e.doc
}

// Selection returns the current selection.
func (e *Editor) Selection() document.Selection {
	return e.sel
}

// SetSelection moves the selection, repairing it onto live text.
func (e *Editor) SetSelection(sel document.Selection) {
	e.sel = e.reg.NormalizeSelection(e.doc, sel)
}

// Registry returns the read-only plugin registry.
func (e *Editor) Registry() *Registry {
	return e.reg
}

// Apply stages the transaction on a working copy, runs normalization to a
// fixpoint, and commits atomically. On any op failure the editor is left
// untouched. A successful apply pushes one undo step, even for an empty
// transaction.
func (e *Editor) Apply(tx op.Transaction) error {
	work := e.doc.Clone()
	sel := e.sel.Clone()

	if err := op.ApplyAll(work, &sel, tx.Ops); err != nil {
		return err
	}
	if tx.SelectionAfter != nil {
		sel = tx.SelectionAfter.Clone()
	}

	work, sel, err := e.normalized(work, sel)
	if err != nil {
		return err
	}
	sel = e.reg.NormalizeSelection(work, sel)

	e.pushUndo(snapshot{doc: e.doc, sel: e.sel})
	e.redo = nil
	e.doc = work
	e.sel = sel
	return nil
}

// RunCommand dispatches a named editing command.
func (e *Editor) RunCommand(id string, args map[string]any) error {
	cmd, ok := e.reg.Command(id)
	if !ok {
		return fmt.Errorf("unknown command: %s", id)
	}
	return cmd.Handler(e, args)
}

// RunQuery dispatches a named read-only query.
func (e *Editor) RunQuery(id string, args map[string]any) (any, error) {
	q, ok := e.reg.Query(id)
	if !ok {
		return nil, fmt.Errorf("unknown query: %s", id)
	}
	return q.Handler(e, args)
}

// CanUndo reports whether an undo step exists.
func (e *Editor) CanUndo() bool { return len(e.undo) > 0 }

// CanRedo reports whether a redo step exists.
func (e *Editor) CanRedo() bool { return len(e.redo) > 0 }

// Undo restores the previous committed state.
func (e *Editor) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	prev := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, snapshot{doc: e.doc, sel: e.sel})
	e.doc = prev.doc
	e.sel = e.reg.NormalizeSelection(e.doc, prev.sel)
	return true
}

// Redo reapplies the most recently undone state.
func (e *Editor) Redo() bool {
	if len(e.redo) == 0 {
		return false
	}
	next := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.pushUndo(snapshot{doc: e.doc, sel: e.sel})
	e.doc = next.doc
	e.sel = e.reg.NormalizeSelection(e.doc, next.sel)
	return true
}

func (e *Editor) pushUndo(s snapshot) {
	e.undo = append(e.undo, s)
	if len(e.undo) > e.config.MaxUndo {
		e.undo = e.undo[len(e.undo)-e.config.MaxUndo:]
	}
}

// normalized applies the registry's passes to doc until no pass produces ops
// or the round cap is hit.
func (e *Editor) normalized(doc *document.Document, sel document.Selection) (*document.Document, document.Selection, error) {
	for round := 0; round < e.config.MaxNormalizeRounds; round++ {
		ops := e.reg.Normalize(doc)
		if len(ops) == 0 {
			return doc, sel, nil
		}
		if err := op.ApplyAll(doc, &sel, ops); err != nil {
			return nil, sel, err
		}
	}
	return nil, sel, ErrNormalizeDidNotConverge
}
