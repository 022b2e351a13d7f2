package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrDocumentNotFound is returned when a document id has no chunks
var ErrDocumentNotFound = errors.New("document not found")

// Metadata keys understood by the retriever
const (
	MetaTitle = "title"
	MetaURL   = "url"
	MetaTrust = "trust"
	MetaTags  = "tags"
)

// Chunk is one embedded slice of a knowledge base document
type Chunk struct {
	ID       string            `json:"id"` // <docID>_chunk_<n>
	DocID    string            `json:"doc_id"`
	Index    int               `json:"chunk_index"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Vector   []float32         `json:"vector"`
}

// Match is a chunk returned by a similarity query
type Match struct {
	Chunk
	Similarity float64 `json:"similarity"` // Cosine similarity, higher is closer
}

// Trust returns the per-document trust override, if the metadata has one
func (c Chunk) Trust() *float64 {
	raw, ok := c.Metadata[MetaTrust]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// DocumentInfo summarizes one ingested document
type DocumentInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	ChunkCount int    `json:"chunk_count"`
}

// Index stores chunk embeddings and answers nearest-neighbour queries
type Index interface {
	// Upsert inserts or replaces chunks by id
	Upsert(ctx context.Context, chunks []Chunk) error

	// Query returns up to topK chunks ordered by descending similarity
	Query(ctx context.Context, vec []float32, topK int) ([]Match, error)

	// Chunks returns a document's chunks ordered by chunk index
	Chunks(ctx context.Context, docID string) ([]Chunk, error)

	// DeleteDocument removes every chunk of docID
	DeleteDocument(ctx context.Context, docID string) error

	// Documents lists ingested documents ordered by id
	Documents(ctx context.Context) ([]DocumentInfo, error)

	Close() error
}

// ChunkID builds the id of chunk n of a document
func ChunkID(docID string, n int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, n)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}
