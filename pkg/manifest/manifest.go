// Package manifest records extraction runs in SQLite so a later step can
// scatter translated batches back into the documents they came from.
//
// Layout:
//
//	runs       one row per CLI or HTTP invocation
//	documents  one row per extracted file, with the source digest
//	segments   the flattened strings of a document, by index and role
//	batches    index ranges over a document's segments
package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nodewee/doc-translate-prep/pkg/logger"
	"github.com/nodewee/doc-translate-prep/pkg/types"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    target_language TEXT NOT NULL,
    created_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    source        TEXT NOT NULL,
    resolved_path TEXT NOT NULL,
    format        TEXT NOT NULL,
    digest        TEXT NOT NULL,
    skipped       INTEGER NOT NULL DEFAULT 0 CHECK(skipped IN (0, 1))
);

CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id);

CREATE TABLE IF NOT EXISTS segments (
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    idx         INTEGER NOT NULL,
    role        TEXT NOT NULL,
    text        TEXT NOT NULL,
    PRIMARY KEY (document_id, idx)
);

CREATE TABLE IF NOT EXISTS batches (
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    idx         INTEGER NOT NULL,
    start_idx   INTEGER NOT NULL,
    end_idx     INTEGER NOT NULL,
    size        INTEGER NOT NULL,
    PRIMARY KEY (document_id, idx),
    CHECK(start_idx < end_idx)
);
`

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Store is a manifest database. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	path   string
	logger *logger.Logger
}

// Document is one stored document row
type Document struct {
	ID           int64
	RunID        string
	Source       string
	ResolvedPath string
	Format       types.FormatKind
	Digest       string
	Skipped      bool
}

// Segment is one stored string with its position in the flattened document
type Segment struct {
	Index int
	Role  types.SectionRole
	Text  string
}

// Open opens or creates the manifest at path. "~" and environment variables
// in path are expanded and missing parent directories are created.
func Open(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}
	if path != ":memory:" {
		expanded, err := utils.ExpandPath(path)
		if err != nil {
			return nil, utils.WrapError(err, utils.ErrorTypeValidation, "invalid manifest path")
		}
		path = expanded
		if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, utils.WrapError(err, "", "failed to create manifest directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, utils.NewIOError(fmt.Sprintf("failed to open manifest %s", path), err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, utils.NewIOError(fmt.Sprintf("manifest %s", p), err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, utils.NewIOError("failed to create manifest schema", err)
	}

	log.Debug("Opened manifest %s", path)
	return &Store{db: db, path: path, logger: log}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun creates a run and returns its id
func (s *Store) StartRun(ctx context.Context, targetLanguage string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, target_language, created_at) VALUES (?, ?, ?)`,
		id, targetLanguage, time.Now().Unix())
	if err != nil {
		return "", utils.NewIOError("failed to record run", err)
	}
	return id, nil
}

// RecordDocument stores one extraction result with its batches in a single
// transaction and returns the document id. The digest is taken from the
// untouched source file.
func (s *Store) RecordDocument(ctx context.Context, runID string, result *types.ExtractionResult, batches []types.Batch) (int64, error) {
	digest, err := utils.FileDigest(result.Source)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, utils.NewIOError("failed to begin manifest transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (run_id, source, resolved_path, format, digest, skipped) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, result.Source, result.ResolvedPath, string(result.Format), digest, result.Skipped)
	if err != nil {
		return 0, utils.NewIOError(fmt.Sprintf("failed to record %s", result.Source), err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return 0, utils.NewIOError("failed to read document id", err)
	}

	segStmt, err := tx.PrepareContext(ctx, `INSERT INTO segments (document_id, idx, role, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, utils.NewIOError("failed to prepare segment insert", err)
	}
	defer segStmt.Close()

	idx := 0
	if result.Document != nil {
		for _, section := range result.Document.Sections {
			for _, text := range section.Texts {
				if _, err := segStmt.ExecContext(ctx, docID, idx, string(section.Role), text); err != nil {
					return 0, utils.NewIOError("failed to record segment", err)
				}
				idx++
			}
		}
	}

	for i, b := range batches {
		if b.Start < 0 || b.End > idx || b.Start >= b.End {
			return 0, utils.NewValidationError(fmt.Sprintf("batch %d range [%d,%d) outside %d segments", i, b.Start, b.End, idx), nil)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO batches (document_id, idx, start_idx, end_idx, size) VALUES (?, ?, ?, ?, ?)`,
			docID, i, b.Start, b.End, b.Size)
		if err != nil {
			return 0, utils.NewIOError("failed to record batch", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, utils.NewIOError("failed to commit manifest transaction", err)
	}
	s.logger.Debug("Recorded %s: %d segments, %d batches", result.Source, idx, len(batches))
	return docID, nil
}

// Documents lists the documents of a run in insertion order
func (s *Store) Documents(ctx context.Context, runID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, source, resolved_path, format, digest, skipped FROM documents WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, utils.NewIOError("failed to query documents", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var format string
		if err := rows.Scan(&d.ID, &d.RunID, &d.Source, &d.ResolvedPath, &format, &d.Digest, &d.Skipped); err != nil {
			return nil, utils.NewIOError("failed to read document row", err)
		}
		d.Format = types.FormatKind(format)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewIOError("failed to read documents", err)
	}
	return docs, nil
}

// Segments returns the stored strings of a document in flattened order
func (s *Store) Segments(ctx context.Context, documentID int64) ([]Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, role, text FROM segments WHERE document_id = ? ORDER BY idx`, documentID)
	if err != nil {
		return nil, utils.NewIOError("failed to query segments", err)
	}
	defer rows.Close()

	var segs []Segment
	for rows.Next() {
		var seg Segment
		var role string
		if err := rows.Scan(&seg.Index, &role, &seg.Text); err != nil {
			return nil, utils.NewIOError("failed to read segment row", err)
		}
		seg.Role = types.SectionRole(role)
		segs = append(segs, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewIOError("failed to read segments", err)
	}
	return segs, nil
}

// Batches rebuilds the stored batches of a document, items included
func (s *Store) Batches(ctx context.Context, documentID int64) ([]types.Batch, error) {
	segs, err := s.Segments(ctx, documentID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT start_idx, end_idx, size FROM batches WHERE document_id = ? ORDER BY idx`, documentID)
	if err != nil {
		return nil, utils.NewIOError("failed to query batches", err)
	}
	defer rows.Close()

	var batches []types.Batch
	for rows.Next() {
		var b types.Batch
		if err := rows.Scan(&b.Start, &b.End, &b.Size); err != nil {
			return nil, utils.NewIOError("failed to read batch row", err)
		}
		if b.End > len(segs) {
			return nil, utils.NewParseError(fmt.Sprintf("batch [%d,%d) exceeds %d stored segments", b.Start, b.End, len(segs)), nil)
		}
		b.Items = make([]string, 0, b.End-b.Start)
		for _, seg := range segs[b.Start:b.End] {
			b.Items = append(b.Items, seg.Text)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewIOError("failed to read batches", err)
	}
	return batches, nil
}

// LatestRun returns the id of the most recent run
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", utils.NewNotFoundError("manifest has no runs", nil)
	}
	if err != nil {
		return "", utils.NewIOError("failed to query runs", err)
	}
	return id, nil
}
