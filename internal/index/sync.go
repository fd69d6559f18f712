package index

import (
	"log/slog"
	"time"

	"github.com/starford/plate/internal/checksum"
	"github.com/starford/plate/internal/document"
	"github.com/starford/plate/internal/storage"
)

// Sync walks the workspace and brings the index up to date:
//   - new/changed documents are decoded and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile decodes a serialized document and upserts it into the DB.
func indexFile(db *DB, path string, data []byte) error {
	doc, err := document.DecodeValue(data)
	if err != nil {
		return err
	}

	row := DocumentRow{
		Path:      path,
		Title:     document.Title(doc),
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now().UTC(),
	}
	return db.UpsertDocument(row, document.PlainText(doc), document.MentionLabels(doc))
}
