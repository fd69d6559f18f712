// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Plate tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/plate/internal/docservice"
	"github.com/starford/plate/internal/document"
)

// Server wraps the MCP server with Plate tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all Plate tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Plate",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a document including its plain-text rendering and JSON value."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/doc.plate.json)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document at the specified path. "+
			"The value MUST follow the canonical document format (plate JSON envelope "+
			"with a tree of element, text, and void nodes). Read the contract first via "+
			"the get_document_contract tool or the plate://document-format resource. "+
			"Omit value to create an empty document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new document (must end with .plate.json)")),
		mcp.WithString("value", mcp.Description("JSON value following the Plate document format contract")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("run_command",
		mcp.WithDescription("Run a registered editor command against a document "+
			"(e.g. marks.toggle_bold, core.insert_divider, mention.insert). "+
			"Commands apply at the document's current selection; move it first "+
			"with the set_selection tool if needed."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to edit")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Command identifier, plugin-qualified")),
		mcp.WithString("args", mcp.Description("Optional JSON object of command arguments")),
	), s.runCommand)

	s.mcp.AddTool(mcp.NewTool("run_query",
		mcp.WithDescription("Run a registered read-only query against a document "+
			"(e.g. marks.get_active, list.is_active)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to query")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Query identifier, plugin-qualified")),
		mcp.WithString("args", mcp.Description("Optional JSON object of query arguments")),
	), s.runQuery)

	s.mcp.AddTool(mcp.NewTool("set_selection",
		mcp.WithDescription("Move a document's caret or selection range before running commands."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document")),
		mcp.WithString("selection", mcp.Required(), mcp.Description(`Selection JSON, e.g. {"anchor":{"path":[0,0],"offset":3},"focus":{"path":[0,0],"offset":3}}`)),
	), s.setSelection)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the canonical Plate document format contract. "+
			"Call this before creating or replacing documents to ensure correct structure."),
	), s.getDocumentContract)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all document paths in the workspace."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that mention the specified label."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Mention label to find backlinks for")),
	), s.getBacklinks)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("plate://document-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical plate JSON document format that all documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GetDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(d, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var doc *document.Document
	if raw, rawErr := req.RequireString("value"); rawErr == nil && raw != "" {
		doc, err = document.DecodeValue([]byte(raw))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	d, err := s.svc.CreateDocument(ctx, path, doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (checksum %s)", path, d.Checksum)), nil
}

func (s *Server) runCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args, err := decodeArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.svc.RunCommand(ctx, path, id, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(d, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) runQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args, err := decodeArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.RunQuery(ctx, path, id, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("selection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var sel document.Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid selection JSON: %v", err)), nil
	}

	d, err := s.svc.SetSelection(ctx, path, sel)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(d.Selection, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.svc.ListDocuments(ctx, 500, 0, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "plate://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, label)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

// decodeArgs parses the optional "args" JSON object of a tool request.
func decodeArgs(req mcp.CallToolRequest) (map[string]any, error) {
	raw, err := req.RequireString("args")
	if err != nil || raw == "" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid args JSON: %w", err)
	}
	return args, nil
}
