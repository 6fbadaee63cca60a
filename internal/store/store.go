package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/typeid"
)

var ErrNotFound = errors.New("document not found")

// Store persists documents as versioned JSON snapshots in Postgres. Each
// save appends a snapshot row; loads read the latest version.
type Store struct {
	pool *pgxpool.Pool
}

// NewPool connects a pgx pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New creates a store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS document_snapshots (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	version     INTEGER NOT NULL,
	document    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (document_id, version)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_latest
	ON document_snapshots (document_id, version DESC);
`

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// DocumentInfo is the listing row for a stored document.
type DocumentInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int32  `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// CreateDocument inserts a new document with an initial snapshot and
// returns it.
func (s *Store) CreateDocument(ctx context.Context, name string) (*document.Document, error) {
	docID := typeid.NewDocumentID()
	doc := document.NewEmptyDocument(docID)
	if name != "" {
		doc.Name = name
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO documents (id, name) VALUES ($1, $2)`,
		docID, doc.Name)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO document_snapshots (id, document_id, version, document)
		 VALUES ($1, $2, 1, $3)`,
		typeid.NewSnapshotID(), docID, docJSON)
	if err != nil {
		return nil, fmt.Errorf("insert initial snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

// LoadDocument returns the latest snapshot of a document.
func (s *Store) LoadDocument(ctx context.Context, documentID string) (*document.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM document_snapshots
		 WHERE document_id = $1
		 ORDER BY version DESC LIMIT 1`,
		documentID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var doc document.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Elements == nil {
		doc.Elements = map[string]document.Element{}
	}
	return &doc, nil
}

// SaveDocument appends a snapshot at the next version and bumps the
// document's updated time.
func (s *Store) SaveDocument(ctx context.Context, doc *document.Document) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var nextVersion int32 = 1
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM document_snapshots
		 WHERE document_id = $1`,
		doc.ID).Scan(&nextVersion)
	if err != nil {
		return fmt.Errorf("next version: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO document_snapshots (id, document_id, version, document)
		 VALUES ($1, $2, $3, $4)`,
		typeid.NewSnapshotID(), doc.ID, nextVersion, docJSON)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE documents SET name = $2, updated_at = now() WHERE id = $1`,
		doc.ID, doc.Name)
	if err != nil {
		return fmt.Errorf("touch document: %w", err)
	}

	return tx.Commit(ctx)
}

// ListDocuments returns every document with its latest version.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.name,
		        COALESCE(MAX(s.version), 0),
		        d.created_at, d.updated_at
		 FROM documents d
		 LEFT JOIN document_snapshots s ON s.document_id = d.id
		 GROUP BY d.id
		 ORDER BY d.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&info.ID, &info.Name, &info.Version, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		info.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		info.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document and its snapshots.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
