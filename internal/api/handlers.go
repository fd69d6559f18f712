package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/plate/internal/apperr"
	"github.com/starford/plate/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. notes%2Fdoc.plate.json).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeServiceError maps service-layer errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, path string, verb string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("document already exists"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	default:
		slog.Error(verb+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents with optional pagination
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, title, path)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	sort := q.Get("sort")

	items, total, err := h.svc.ListDocuments(r.Context(), limit, offset, sort)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": items,
		"total":     total,
	})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a document with its live editing state
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	d, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		writeServiceError(w, path, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a new document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	var (
		d   *docservice.DocumentDetail
		err error
	)
	switch {
	case len(req.Slate) > 0:
		d, err = h.svc.ImportSlate(r.Context(), req.Path, req.Slate)
	case req.Value != nil:
		doc := req.Value.Document
		d, err = h.svc.CreateDocument(r.Context(), req.Path, &doc)
	default:
		d, err = h.svc.CreateDocument(r.Context(), req.Path, nil)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("document already exists"))
			return
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("invalid document payload"))
			return
		}
		writeServiceError(w, req.Path, "create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ReplaceDocument handles PUT /api/documents/* with optimistic concurrency.
//
//	@Summary		Replace a document wholesale
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string					true	"Document path"
//	@Param			If-Match	header	string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	ReplaceDocumentRequest	true	"Replacement value"
//	@Success		200			{object}	DocumentDetail
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [put]
func (h *Handler) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req ReplaceDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	doc := req.Value.Document
	d, err := h.svc.ReplaceDocument(r.Context(), path, &doc, ifMatch)
	if err != nil {
		writeServiceError(w, path, "replace document", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDocument handles DELETE /api/documents/*.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			path	path	string	true	"Document path"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), path); err != nil {
		writeServiceError(w, path, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunCommand handles POST /api/commands/*.
//
//	@Summary		Run a registered editor command against a document
//	@Tags			editing
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Document path"
//	@Param			body	body		CommandRequest	true	"Command id and args"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/commands/{path} [post]
func (h *Handler) RunCommand(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("command id is required"))
		return
	}

	d, err := h.svc.RunCommand(r.Context(), path, req.ID, req.Args)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		// Command failures (unknown id, bad args, invalid selection) are
		// client errors, not server faults.
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// RunQuery handles POST /api/queries/*.
//
//	@Summary		Run a registered read-only query against a document
//	@Tags			editing
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"Document path"
//	@Param			body	body		QueryRequest	true	"Query id and args"
//	@Success		200		{object}	QueryResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/queries/{path} [post]
func (h *Handler) RunQuery(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query id is required"))
		return
	}

	result, err := h.svc.RunQuery(r.Context(), path, req.ID, req.Args)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Result: result})
}

// ApplyTransaction handles POST /api/transactions/*.
//
//	@Summary		Apply raw operations to a document
//	@Tags			editing
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Document path"
//	@Param			body	body		TransactionRequest	true	"Operations to apply"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/transactions/{path} [post]
func (h *Handler) ApplyTransaction(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	d, err := h.svc.Apply(r.Context(), path, tx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Undo handles POST /api/undo/*.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, h.svc.Undo)
}

// Redo handles POST /api/redo/*.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, h.svc.Redo)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, path string) (*docservice.DocumentDetail, error)) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	d, err := step(r.Context(), path)
	if err != nil {
		writeServiceError(w, path, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// SetSelection handles PUT /api/selection/*.
//
//	@Summary		Move a document's caret
//	@Tags			editing
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Document path"
//	@Param			body	body		SelectionRequest	true	"New selection"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/selection/{path} [put]
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	d, err := h.svc.SetSelection(r.Context(), path, req.Selection)
	if err != nil {
		writeServiceError(w, path, "set selection", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Backlinks handles GET /api/backlinks.
//
//	@Summary		List documents that mention a label
//	@Tags			search
//	@Produce		json
//	@Param			label	query		string	true	"Mention label"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	if label == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'label' is required"))
		return
	}
	docs, err := h.svc.Backlinks(r.Context(), label)
	if err != nil {
		slog.Error("backlinks failed", slog.String("label", label), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if docs == nil {
		docs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"label":     label,
		"documents": docs,
	})
}
