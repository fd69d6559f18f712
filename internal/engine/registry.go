// Package engine hosts the editor core: the plugin registry that declares
// node schemas, normalization passes, and string-keyed commands/queries, and
// the editor that applies transactions against a document.
package engine

import (
	"fmt"

	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/op"
)

// NodeRole says whether a node kind renders as its own line or flows inline.
type NodeRole uint8

const (
	// RoleBlock is a structural node meant to render as its own line.
	RoleBlock NodeRole = iota
	// RoleInline is a node meant to flow within a block's line.
	RoleInline
)

// ChildConstraint declares what children a node kind permits.
type ChildConstraint uint8

const (
	// ChildrenNone forbids children (voids).
	ChildrenNone ChildConstraint = iota
	// BlockOnly permits block children only.
	BlockOnly
	// InlineOnly permits text and inline children only.
	InlineOnly
	// AnyChildren permits anything.
	AnyChildren
)

// NodeSpec is the schema declaration for one node kind.
type NodeSpec struct {
	Kind     string
	Role     NodeRole
	IsVoid   bool
	Children ChildConstraint
}

// NormalizePass is a pure repair function from document to ops. Passes never
// mutate the document and never fail; they run after every apply, including
// ones triggered by third-party plugins, so they must tolerate transiently
// invalid trees.
type NormalizePass struct {
	ID  string
	Run func(doc *document.Document, reg *Registry) []op.Op
}

// CommandHandler mutates the editor by building and applying one transaction.
type CommandHandler func(e *Editor, args map[string]any) error

// QueryHandler reads editor state and returns a JSON-like value.
type QueryHandler func(e *Editor, args map[string]any) (any, error)

// CommandSpec binds a command id to its handler.
type CommandSpec struct {
	ID      string
	Label   string
	Handler CommandHandler
}

// QuerySpec binds a query id to its handler.
type QuerySpec struct {
	ID      string
	Handler QueryHandler
}

// Plugin is one unit of registration: node specs, normalization passes, and
// commands/queries contributed together.
type Plugin struct {
	ID              string
	NodeSpecs       []NodeSpec
	NormalizePasses []NormalizePass
	Commands        []CommandSpec
	Queries         []QuerySpec
}

// Registry holds everything plugins registered. Once built it is read-only
// and safe to share across editors and goroutines.
type Registry struct {
	nodeSpecs       map[string]NodeSpec
	normalizePasses []NormalizePass
	commands        map[string]CommandSpec
	queries         map[string]QuerySpec
}

// NewRegistry builds a registry from plugins in order. Duplicate node kinds
// or command/query ids abort registration.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{
		nodeSpecs: make(map[string]NodeSpec),
		commands:  make(map[string]CommandSpec),
		queries:   make(map[string]QuerySpec),
	}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register merges one plugin into the registry.
func (r *Registry) Register(p Plugin) error {
	for _, spec := range p.NodeSpecs {
		if _, ok := r.nodeSpecs[spec.Kind]; ok {
			return fmt.Errorf("engine: duplicate node spec kind: %s", spec.Kind)
		}
		r.nodeSpecs[spec.Kind] = spec
	}
	r.normalizePasses = append(r.normalizePasses, p.NormalizePasses...)
	for _, cmd := range p.Commands {
		if _, ok := r.commands[cmd.ID]; ok {
			return fmt.Errorf("engine: duplicate command id: %s", cmd.ID)
		}
		r.commands[cmd.ID] = cmd
	}
	for _, q := range p.Queries {
		if _, ok := r.queries[q.ID]; ok {
			return fmt.Errorf("engine: duplicate query id: %s", q.ID)
		}
		r.queries[q.ID] = q
	}
	return nil
}

// NodeSpec returns the schema for a kind.
func (r *Registry) NodeSpec(kind string) (NodeSpec, bool) {
	spec, ok := r.nodeSpecs[kind]
	return spec, ok
}

// IsKnownKind reports whether a kind has a registered spec.
func (r *Registry) IsKnownKind(kind string) bool {
	_, ok := r.nodeSpecs[kind]
	return ok
}

// Command looks up a command by id.
func (r *Registry) Command(id string) (CommandSpec, bool) {
	cmd, ok := r.commands[id]
	return cmd, ok
}

// Query looks up a query by id.
func (r *Registry) Query(id string) (QuerySpec, bool) {
	q, ok := r.queries[id]
	return q, ok
}

// Commands returns every registered command id, unordered.
func (r *Registry) Commands() []string {
	out := make([]string, 0, len(r.commands))
	for id := range r.commands {
		out = append(out, id)
	}
	return out
}

// Queries returns every registered query id, unordered.
func (r *Registry) Queries() []string {
	out := make([]string, 0, len(r.queries))
	for id := range r.queries {
		out = append(out, id)
	}
	return out
}

// Normalize runs every pass once over doc and concatenates their repair ops.
// Passes do not see each other's output within one call; the editor applies
// the ops and calls Normalize again until it returns nothing.
func (r *Registry) Normalize(doc *document.Document) []op.Op {
	var ops []op.Op
	for _, pass := range r.normalizePasses {
		ops = append(ops, pass.Run(doc, r)...)
	}
	return ops
}

// NormalizeSelection repairs both selection ends independently so the result
// always references live text.
func (r *Registry) NormalizeSelection(doc *document.Document, sel document.Selection) document.Selection {
	fallback, ok := document.FirstTextPoint(doc)
	if !ok {
		fallback = document.NewPoint(document.Path{0, 0}, 0)
	}

	anchor, ok := document.NormalizePointToText(doc, sel.Anchor)
	if !ok {
		if anchor, ok = document.NormalizePointToText(doc, sel.Focus); !ok {
			anchor = fallback.Clone()
		}
	}
	focus, ok := document.NormalizePointToText(doc, sel.Focus)
	if !ok {
		focus = anchor.Clone()
	}
	return document.Selection{Anchor: anchor, Focus: focus}
}

// IsTextBlock reports whether a node counts as a text-block container: its
// node spec declares inline-only children, or, for unregistered kinds, it
// directly holds at least one text or void child.
func (r *Registry) IsTextBlock(n *document.Node) bool {
	if n.Type != document.ElementNode {
		return false
	}
	if spec, ok := r.nodeSpecs[n.Kind]; ok {
		return spec.Children == InlineOnly
	}
	for i := range n.Children {
		if n.Children[i].Type != document.ElementNode {
			return true
		}
	}
	return false
}

// TextBlockPaths enumerates the paths of every text-block container in
// document order. Text blocks are the traversal's leaves.
func (r *Registry) TextBlockPaths(doc *document.Document) []document.Path {
	var out []document.Path
	var walk func(children []document.Node, prefix document.Path)
	walk = func(children []document.Node, prefix document.Path) {
		for ix := range children {
			child := &children[ix]
			if child.Type != document.ElementNode {
				continue
			}
			path := prefix.Child(ix)
			if r.IsTextBlock(child) {
				out = append(out, path)
				continue
			}
			walk(child.Children, path)
		}
	}
	walk(doc.Children, nil)
	return out
}
