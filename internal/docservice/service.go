// Package docservice hosts live editor sessions over workspace documents.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/starford/plate/internal/apperr"
	"github.com/starford/plate/internal/checksum"
	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/engine"
	"github.com/starford/plate/internal/index"
	"github.com/starford/plate/internal/op"
	"github.com/starford/plate/internal/storage"
)

// DocumentDetail is the full representation of a document and its live
// editing state.
type DocumentDetail struct {
	Path      string             `json:"path"`
	Title     string             `json:"title"`
	Value     document.Value     `json:"value"`
	Selection document.Selection `json:"selection"`
	Checksum  string             `json:"checksum"`
	Backlinks []string           `json:"backlinks"`
	CanUndo   bool               `json:"can_undo"`
	CanRedo   bool               `json:"can_redo"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventFunc is notified after each successful mutation.
// kind is one of "created", "updated", "deleted".
type EventFunc func(kind, path string)

// session is the live editing state of one open document. The mutex
// serializes access: the engine assumes a single owner per editor.
type session struct {
	mu       sync.Mutex
	ed       *engine.Editor
	checksum string
}

// Service coordinates storage, the search index, and live editor sessions.
type Service struct {
	store  storage.Provider
	db     *index.DB
	reg    *engine.Registry
	notify EventFunc

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService creates a document service. All sessions share reg.
func NewService(store storage.Provider, db *index.DB, reg *engine.Registry) *Service {
	return &Service{
		store:    store,
		db:       db,
		reg:      reg,
		sessions: make(map[string]*session),
	}
}

// SetNotify installs the mutation event callback.
func (s *Service) SetNotify(fn EventFunc) {
	s.notify = fn
}

func (s *Service) emit(kind, path string) {
	if s.notify != nil {
		s.notify(kind, path)
	}
}

// session returns the live session for path, loading the document from
// storage on first access.
func (s *Service) session(path string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[path]; ok {
		return sess, nil
	}

	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc, err := document.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("docservice: load %s: %w", path, err)
	}

	sess := &session{
		ed:       engine.New(doc, document.Selection{}, s.reg),
		checksum: checksum.Sum(data),
	}
	s.sessions[path] = sess
	return sess, nil
}

// dropSession discards any live session for path.
func (s *Service) dropSession(path string) {
	s.mu.Lock()
	delete(s.sessions, path)
	s.mu.Unlock()
}

// CreateDocument writes a new document and opens a session for it. A nil doc
// creates an empty document (normalization gives it one empty paragraph).
func (s *Service) CreateDocument(_ context.Context, path string, doc *document.Document) (*DocumentDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if doc == nil {
		doc = &document.Document{}
	}

	ed := engine.New(doc, document.Selection{}, s.reg)
	data, err := document.EncodeValue(ed.Doc())
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}

	sess := &session{ed: ed, checksum: checksum.Sum(data)}
	s.mu.Lock()
	s.sessions[path] = sess
	s.mu.Unlock()

	if err := s.indexDocument(path, ed.Doc(), sess.checksum); err != nil {
		return nil, err
	}
	s.emit("created", path)
	return s.detail(path, sess)
}

// ImportSlate creates a document from Slate.js JSON.
func (s *Service) ImportSlate(ctx context.Context, path string, data []byte) (*DocumentDetail, error) {
	doc, err := document.ImportSlate(data)
	if err != nil {
		return nil, err
	}
	return s.CreateDocument(ctx, path, doc)
}

// GetDocument returns the live editing state of a document.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	sess, err := s.session(path)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.detail(path, sess)
}

// ListDocuments returns paginated documents from the index.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, sort string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// DeleteDocument removes a document from storage, index, and sessions.
func (s *Service) DeleteDocument(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	s.dropSession(path)
	if err := s.db.DeleteDocument(path); err != nil {
		return err
	}
	s.emit("deleted", path)
	return nil
}

// ReplaceDocument overwrites a document wholesale with optimistic
// concurrency: a non-empty ifMatch must equal the stored checksum. Any live
// session is reset, dropping its undo history.
func (s *Service) ReplaceDocument(_ context.Context, path string, doc *document.Document, ifMatch string) (*DocumentDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}

	ed := engine.New(doc, document.Selection{}, s.reg)
	data, err := document.EncodeValue(ed.Doc())
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}

	sess := &session{ed: ed, checksum: checksum.Sum(data)}
	s.mu.Lock()
	s.sessions[path] = sess
	s.mu.Unlock()

	if err := s.indexDocument(path, ed.Doc(), sess.checksum); err != nil {
		return nil, err
	}
	s.emit("updated", path)
	return s.detail(path, sess)
}

// RunCommand executes a registered command against a document's editor and
// persists the result.
func (s *Service) RunCommand(_ context.Context, path, id string, args map[string]any) (*DocumentDetail, error) {
	sess, err := s.session(path)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.ed.RunCommand(id, args); err != nil {
		return nil, err
	}
	if err := s.persist(path, sess); err != nil {
		return nil, err
	}
	return s.detail(path, sess)
}

// RunQuery executes a registered query. Queries never mutate, so nothing is
// persisted.
func (s *Service) RunQuery(_ context.Context, path, id string, args map[string]any) (any, error) {
	sess, err := s.session(path)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.ed.RunQuery(id, args)
}

// Apply applies a raw transaction against a document's editor and persists
// the result.
func (s *Service) Apply(_ context.Context, path string, tx op.Transaction) (*DocumentDetail, error) {
	sess, err := s.session(path)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.ed.Apply(tx); err != nil {
		return nil, err
	}
	if err := s.persist(path, sess); err != nil {
		return nil, err
	}
	return s.detail(path, sess)
}

// Undo reverts the latest transaction. Undoing with an empty history is a
// no-op that still reports the current state.
func (s *Service) Undo(_ context.Context, path string) (*DocumentDetail, error) {
	sess, err := s.session(path)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ed.Undo() {
		if err := s.persist(path, sess); err != nil {
			return nil, err
		}
	}
	return s.detail(path, sess)
}

// Redo re-applies the latest undone transaction.
func (s *Service) Redo(_ context.Context, path string) (*DocumentDetail, error) {
	sess, err := s.session(path)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ed.Redo() {
		if err := s.persist(path, sess); err != nil {
			return nil, err
		}
	}
	return s.detail(path, sess)
}

// SetSelection moves a document's caret without touching content. The
// selection is repaired against the live document; nothing is persisted.
func (s *Service) SetSelection(_ context.Context, path string, sel document.Selection) (*DocumentDetail, error) {
	sess, err := s.session(path)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.ed.SetSelection(s.reg.NormalizeSelection(sess.ed.Doc(), sel))
	return s.detail(path, sess)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Backlinks returns all document paths that mention the given label.
func (s *Service) Backlinks(_ context.Context, label string) ([]string, error) {
	return s.db.Backlinks(label)
}

// persist writes the session's document to storage and the index.
// Callers hold sess.mu.
func (s *Service) persist(path string, sess *session) error {
	data, err := document.EncodeValue(sess.ed.Doc())
	if err != nil {
		return err
	}
	if err := s.store.Write(path, data); err != nil {
		return err
	}
	sess.checksum = checksum.Sum(data)
	if err := s.indexDocument(path, sess.ed.Doc(), sess.checksum); err != nil {
		return err
	}
	s.emit("updated", path)
	return nil
}

// indexDocument upserts the derived title, body, and mention edges.
func (s *Service) indexDocument(path string, doc *document.Document, cs string) error {
	return s.db.UpsertDocument(index.DocumentRow{
		Path:      path,
		Title:     document.Title(doc),
		Checksum:  cs,
		UpdatedAt: time.Now().UTC(),
	}, document.PlainText(doc), document.MentionLabels(doc))
}

// docLabel is the mention label a document answers to: its file name
// without directory or extension. "people/ada.plate.json" is mentioned
// as @ada.
func docLabel(p string) string {
	return strings.TrimSuffix(path.Base(p), storage.DocumentExt)
}

// detail snapshots a session into a response payload.
func (s *Service) detail(docPath string, sess *session) (*DocumentDetail, error) {
	bl, err := s.db.Backlinks(docLabel(docPath))
	if err != nil {
		return nil, err
	}
	doc := sess.ed.Doc()
	return &DocumentDetail{
		Path:      docPath,
		Title:     document.Title(doc),
		Value:     document.NewValue(doc),
		Selection: sess.ed.Selection(),
		Checksum:  sess.checksum,
		Backlinks: nonNilSlice(bl),
		CanUndo:   sess.ed.CanUndo(),
		CanRedo:   sess.ed.CanRedo(),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
