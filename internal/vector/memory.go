package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryIndex implements Index with brute-force cosine search. When a
// snapshot path is set the index is loaded from and saved to that file.
type MemoryIndex struct {
	chunks   map[string]Chunk
	snapshot string
	mu       sync.RWMutex
}

// NewMemoryIndex creates an in-memory index, loading snapshotPath if it exists
func NewMemoryIndex(snapshotPath string) (*MemoryIndex, error) {
	idx := &MemoryIndex{
		chunks:   make(map[string]Chunk),
		snapshot: snapshotPath,
	}
	if snapshotPath == "" {
		return idx, nil
	}

	data, err := os.ReadFile(snapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snapshotPath, err)
	}
	for _, c := range chunks {
		idx.chunks[c.ID] = c
	}
	return idx, nil
}

// Upsert inserts or replaces chunks by id
func (m *MemoryIndex) Upsert(ctx context.Context, chunks []Chunk) error {
	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("chunk ID cannot be empty")
		}
		if len(c.Vector) == 0 {
			return fmt.Errorf("chunk %s: vector cannot be empty", c.ID)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return m.saveLocked()
}

// Query returns up to topK chunks ordered by descending similarity
func (m *MemoryIndex) Query(ctx context.Context, vec []float32, topK int) ([]Match, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.chunks))
	for _, c := range m.chunks {
		if len(c.Vector) != len(vec) {
			continue
		}
		matches = append(matches, Match{Chunk: c, Similarity: CosineSimilarity(vec, c.Vector)})
	}

	// Ties broken by id so results are deterministic
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Chunks returns a document's chunks ordered by chunk index
func (m *MemoryIndex) Chunks(ctx context.Context, docID string) ([]Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Chunk
	for _, c := range m.chunks {
		if c.DocID == docID {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", docID, ErrDocumentNotFound)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// DeleteDocument removes every chunk of docID
func (m *MemoryIndex) DeleteDocument(ctx context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, c := range m.chunks {
		if c.DocID == docID {
			delete(m.chunks, id)
			removed++
		}
	}
	if removed == 0 {
		return fmt.Errorf("%s: %w", docID, ErrDocumentNotFound)
	}
	return m.saveLocked()
}

// Documents lists ingested documents ordered by id
func (m *MemoryIndex) Documents(ctx context.Context) ([]DocumentInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make(map[string]*DocumentInfo)
	for _, c := range m.chunks {
		d, ok := docs[c.DocID]
		if !ok {
			d = &DocumentInfo{ID: c.DocID, Title: c.Metadata[MetaTitle]}
			docs[c.DocID] = d
		}
		d.ChunkCount++
	}

	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len returns the number of stored chunks
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Close is a no-op; snapshots are written on every mutation
func (m *MemoryIndex) Close() error {
	return nil
}

// saveLocked writes the snapshot atomically. Caller holds m.mu.
func (m *MemoryIndex) saveLocked() error {
	if m.snapshot == "" {
		return nil
	}

	chunks := make([]Chunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })

	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.snapshot), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp := m.snapshot + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.snapshot); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
