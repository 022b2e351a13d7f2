package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/model"
)

// Document is a curated text added to the knowledge base
type Document struct {
	ID    string // Generated when empty
	Title string
	URL   string
	Tags  []string
	Trust *float64 // Overrides the knowledge base base trust for this document
	Text  string
}

// KnowledgeBase chunks, embeds and indexes documents. Ingestion and query
// share one embedder so vectors stay comparable.
type KnowledgeBase struct {
	index    Index
	embedder llm.Embedder
	size     int
	overlap  int
}

// NewKnowledgeBase creates a knowledge base over index
func NewKnowledgeBase(index Index, embedder llm.Embedder, chunkSize, chunkOverlap int) *KnowledgeBase {
	return &KnowledgeBase{
		index:    index,
		embedder: embedder,
		size:     chunkSize,
		overlap:  chunkOverlap,
	}
}

// Open builds the index named by cfg
func Open(ctx context.Context, cfg model.KnowledgeConfig, dimension int) (Index, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory", "":
		return NewMemoryIndex(cfg.SnapshotPath)
	case "pgvector", "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("pgvector backend requires a DSN (TRUTHGUARD_PG_DSN)")
		}
		return NewPGIndex(ctx, cfg.DSN, cfg.Table, dimension)
	default:
		return nil, fmt.Errorf("unknown knowledge backend: %s (supported: memory, pgvector)", cfg.Backend)
	}
}

// Ingest chunks, embeds and stores doc, returning its id
func (kb *KnowledgeBase) Ingest(ctx context.Context, doc Document) (string, error) {
	if kb.embedder == nil {
		return "", fmt.Errorf("knowledge base has no embedder configured")
	}

	texts := Split(doc.Text, kb.size, kb.overlap)
	if len(texts) == 0 {
		return "", fmt.Errorf("document has no text")
	}

	docID := doc.ID
	if docID == "" {
		docID = "doc_" + uuid.NewString()[:8]
	}

	vecs, err := kb.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embed document %s: %w", docID, err)
	}
	if len(vecs) != len(texts) {
		return "", fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(texts))
	}

	meta := map[string]string{}
	if doc.Title != "" {
		meta[MetaTitle] = doc.Title
	}
	if doc.URL != "" {
		meta[MetaURL] = doc.URL
	}
	if len(doc.Tags) > 0 {
		meta[MetaTags] = strings.Join(doc.Tags, ",")
	}
	if doc.Trust != nil {
		meta[MetaTrust] = strconv.FormatFloat(*doc.Trust, 'f', -1, 64)
	}

	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{
			ID:       ChunkID(docID, i),
			DocID:    docID,
			Index:    i,
			Text:     t,
			Metadata: meta,
			Vector:   vecs[i],
		}
	}

	if err := kb.index.Upsert(ctx, chunks); err != nil {
		return "", fmt.Errorf("index document %s: %w", docID, err)
	}

	logging.WithComponent("kb").Info("document ingested", "doc_id", docID, "chunks", len(chunks))
	return docID, nil
}

// Search embeds query and returns the topK closest chunks
func (kb *KnowledgeBase) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if kb.embedder == nil {
		return nil, fmt.Errorf("knowledge base has no embedder configured")
	}

	vec, err := kb.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return kb.index.Query(ctx, vec, topK)
}

// DocumentText rejoins a document's chunks in order. Overlapping text
// shared by neighbouring chunks is removed.
func (kb *KnowledgeBase) DocumentText(ctx context.Context, docID string) (string, error) {
	chunks, err := kb.index.Chunks(ctx, docID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	prev := ""
	for _, c := range chunks {
		text := c.Text
		if prev != "" {
			text = trimOverlap(prev, text)
			if text != "" {
				b.WriteString(" ")
			}
		}
		b.WriteString(text)
		prev = c.Text
	}
	return b.String(), nil
}

// DocumentTitle returns the stored title of docID, or docID itself
func (kb *KnowledgeBase) DocumentTitle(ctx context.Context, docID string) string {
	chunks, err := kb.index.Chunks(ctx, docID)
	if err != nil || len(chunks) == 0 || chunks[0].Metadata[MetaTitle] == "" {
		return docID
	}
	return chunks[0].Metadata[MetaTitle]
}

// Delete removes a document
func (kb *KnowledgeBase) Delete(ctx context.Context, docID string) error {
	return kb.index.DeleteDocument(ctx, docID)
}

// List returns all documents
func (kb *KnowledgeBase) List(ctx context.Context) ([]DocumentInfo, error) {
	return kb.index.Documents(ctx)
}

// Close releases the index
func (kb *KnowledgeBase) Close() error {
	return kb.index.Close()
}

// minOverlap keeps short coincidental matches (a shared letter) intact
const minOverlap = 10

// trimOverlap drops the longest prefix of next that is a suffix of prev
func trimOverlap(prev, next string) string {
	max := len(next)
	if len(prev) < max {
		max = len(prev)
	}
	for n := max; n >= minOverlap; n-- {
		if strings.HasSuffix(prev, next[:n]) {
			return strings.TrimSpace(next[n:])
		}
	}
	return next
}
