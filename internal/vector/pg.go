package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

// PGIndex implements Index using PostgreSQL with the pgvector extension
type PGIndex struct {
	db        *sql.DB
	table     string
	dimension int
}

// NewPGIndex connects to dsn and creates the extension and table if needed
func NewPGIndex(ctx context.Context, dsn, table string, dimension int) (*PGIndex, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	idx, err := NewPGIndexWithDB(db, table, dimension)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := idx.Setup(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup pgvector: %w", err)
	}
	return idx, nil
}

// NewPGIndexWithDB wraps an open database handle
func NewPGIndexWithDB(db *sql.DB, table string, dimension int) (*PGIndex, error) {
	if table == "" {
		table = "kb_chunks"
	}
	if !validIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	return &PGIndex{db: db, table: table, dimension: dimension}, nil
}

// Setup enables pgvector and creates the chunk table
func (s *PGIndex) Setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		doc_id VARCHAR(255) NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.table, s.dimension)
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	indexSQL := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_doc_id_idx ON %s (doc_id)", s.table, s.table)
	if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("failed to create doc_id index: %w", err)
	}
	return nil
}

// Upsert inserts or replaces chunks in one transaction
func (s *PGIndex) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (id, doc_id, chunk_index, text, metadata, embedding)
	VALUES ($1, $2, $3, $4, $5::jsonb, $6::vector)
	ON CONFLICT (id) DO UPDATE SET
		doc_id = EXCLUDED.doc_id,
		chunk_index = EXCLUDED.chunk_index,
		text = EXCLUDED.text,
		metadata = EXCLUDED.metadata,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP`, s.table)

	for _, c := range chunks {
		if len(c.Vector) != s.dimension {
			return fmt.Errorf("chunk %s: embedding dimension mismatch: expected %d, got %d", c.ID, s.dimension, len(c.Vector))
		}
		meta, err := encodeMetadata(c.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, c.ID, c.DocID, c.Index, c.Text, meta, vectorToString(c.Vector)); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query returns up to topK chunks by cosine distance
func (s *PGIndex) Query(ctx context.Context, vec []float32, topK int) ([]Match, error) {
	if len(vec) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d", s.dimension, len(vec))
	}
	if topK <= 0 {
		topK = 10
	}

	query := fmt.Sprintf(`SELECT id, doc_id, chunk_index, text, metadata, 1 - (embedding <=> $1::vector) AS similarity
	FROM %s
	ORDER BY embedding <=> $1::vector
	LIMIT $2`, s.table)

	rows, err := s.db.QueryContext(ctx, query, vectorToString(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matches := make([]Match, 0, topK)
	for rows.Next() {
		var m Match
		var meta []byte
		if err := rows.Scan(&m.ID, &m.DocID, &m.Index, &m.Text, &meta, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if m.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	return matches, nil
}

// Chunks returns a document's chunks ordered by chunk index, without vectors
func (s *PGIndex) Chunks(ctx context.Context, docID string) ([]Chunk, error) {
	query := fmt.Sprintf(`SELECT id, doc_id, chunk_index, text, metadata
	FROM %s
	WHERE doc_id = $1
	ORDER BY chunk_index`, s.table)

	rows, err := s.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var meta []byte
		if err := rows.Scan(&c.ID, &c.DocID, &c.Index, &c.Text, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if c.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", docID, ErrDocumentNotFound)
	}
	return chunks, nil
}

// DeleteDocument removes every chunk of docID
func (s *PGIndex) DeleteDocument(ctx context.Context, docID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE doc_id = $1", s.table)
	result, err := s.db.ExecContext(ctx, query, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", docID, ErrDocumentNotFound)
	}
	return nil
}

// Documents lists ingested documents ordered by id
func (s *PGIndex) Documents(ctx context.Context) ([]DocumentInfo, error) {
	query := fmt.Sprintf(`SELECT doc_id, COALESCE(MAX(metadata->>'title'), ''), COUNT(*)
	FROM %s
	GROUP BY doc_id
	ORDER BY doc_id`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.ID, &d.Title, &d.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Close closes the database connection
func (s *PGIndex) Close() error {
	return s.db.Close()
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func encodeMetadata(meta map[string]string) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var meta map[string]string
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}
