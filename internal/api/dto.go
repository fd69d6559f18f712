package api

import (
	"encoding/json"
	"fmt"

	"github.com/starford/plate/internal/docservice"
	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/op"
)

// CreateDocumentRequest is the request body for creating a document.
// Exactly one of Value and Slate may be set; both empty creates an empty
// document.
type CreateDocumentRequest struct {
	Path  string          `json:"path" example:"notes/hello.plate.json" validate:"required"`
	Value *document.Value `json:"value,omitempty"`
	Slate json.RawMessage `json:"slate,omitempty"`
}

// ReplaceDocumentRequest is the request body for a wholesale overwrite.
type ReplaceDocumentRequest struct {
	Value document.Value `json:"value" validate:"required"`
}

// CommandRequest is the request body for running a registered command.
type CommandRequest struct {
	ID   string         `json:"id" example:"marks.toggle_bold" validate:"required"`
	Args map[string]any `json:"args,omitempty"`
}

// QueryRequest is the request body for running a registered query.
type QueryRequest struct {
	ID   string         `json:"id" example:"marks.get_active" validate:"required"`
	Args map[string]any `json:"args,omitempty"`
}

// QueryResponse wraps a query result.
type QueryResponse struct {
	Result any `json:"result"`
}

// SelectionRequest is the request body for moving the caret.
type SelectionRequest struct {
	Selection document.Selection `json:"selection" validate:"required"`
}

// OpDTO is the wire form of a single operation in a transaction request.
type OpDTO struct {
	Type   string          `json:"type" example:"insert_text" validate:"required"`
	Path   document.Path   `json:"path" validate:"required"`
	Node   *document.Node  `json:"node,omitempty"`
	Offset int             `json:"offset,omitempty"`
	Text   string          `json:"text,omitempty"`
	Start  int             `json:"start,omitempty"`
	End    int             `json:"end,omitempty"`
	Set    document.Attrs  `json:"set,omitempty"`
	Remove []string        `json:"remove,omitempty"`
	Marks  *document.Marks `json:"marks,omitempty"`
}

// TransactionRequest is the request body for applying raw operations.
type TransactionRequest struct {
	Ops       []OpDTO             `json:"ops" validate:"required"`
	Selection *document.Selection `json:"selection,omitempty"`
	Source    string              `json:"source,omitempty"`
}

// toTransaction converts the wire form into an engine transaction.
func (req TransactionRequest) toTransaction() (op.Transaction, error) {
	ops := make([]op.Op, 0, len(req.Ops))
	for i, d := range req.Ops {
		o, err := d.toOp()
		if err != nil {
			return op.Transaction{}, fmt.Errorf("op %d: %w", i, err)
		}
		ops = append(ops, o)
	}
	tx := op.NewTransaction(ops...)
	if req.Selection != nil {
		tx = tx.WithSelection(*req.Selection)
	}
	if req.Source != "" {
		tx = tx.WithSource(req.Source)
	}
	return tx, nil
}

func (d OpDTO) toOp() (op.Op, error) {
	switch d.Type {
	case "insert_node":
		if d.Node == nil {
			return op.Op{}, fmt.Errorf("insert_node requires node")
		}
		return op.InsertNode(d.Path, *d.Node), nil
	case "remove_node":
		return op.RemoveNode(d.Path), nil
	case "insert_text":
		return op.InsertText(d.Path, d.Offset, d.Text), nil
	case "remove_text":
		return op.RemoveText(d.Path, d.Start, d.End), nil
	case "set_node_attrs":
		return op.SetNodeAttrs(d.Path, op.AttrPatch{Set: d.Set, Remove: d.Remove}), nil
	case "set_text_marks":
		if d.Marks == nil {
			return op.Op{}, fmt.Errorf("set_text_marks requires marks")
		}
		return op.SetTextMarks(d.Path, *d.Marks), nil
	default:
		return op.Op{}, fmt.Errorf("unknown op type: %s", d.Type)
	}
}

// DocumentDetail is the full document response type (aliased from the domain
// layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the
// domain layer).
type DocumentListItem = docservice.DocumentListItem

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"notes/hello.plate.json" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// BacklinksResponse wraps the documents mentioning a label.
type BacklinksResponse struct {
	Label     string   `json:"label" example:"ada" validate:"required"`
	Documents []string `json:"documents" validate:"required"`
}
