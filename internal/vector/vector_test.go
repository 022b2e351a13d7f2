package vector

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		desc     string
		a, b     []float32
		expected float64
	}{
		{desc: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, expected: 1},
		{desc: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, expected: 0},
		{desc: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, expected: -1},
		{desc: "length mismatch", a: []float32{1}, b: []float32{1, 0}, expected: 0},
		{desc: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	if got := Split("   ", 500, 50); got != nil {
		t.Errorf("Expected nil for blank text, got %v", got)
	}

	short := "A short document."
	if got := Split(short, 500, 50); len(got) != 1 || got[0] != short {
		t.Errorf("Expected single chunk, got %v", got)
	}

	long := strings.Repeat("word ", 300) // 1500 chars
	chunks := Split(long, 500, 50)
	if len(chunks) < 3 {
		t.Fatalf("Expected at least 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 500 {
			t.Errorf("Chunk %d exceeds size: %d", i, len([]rune(c)))
		}
		if strings.HasPrefix(c, "ord") || strings.HasSuffix(c, "wor") {
			t.Errorf("Chunk %d split a word: %q...", i, c[:10])
		}
	}
}

func TestSplit_NoWhitespaceStillProgresses(t *testing.T) {
	chunks := Split(strings.Repeat("x", 1200), 500, 50)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 500 {
		t.Errorf("Expected hard cut at 500, got %d", len(chunks[0]))
	}
}

func TestMemoryIndex_QueryOrder(t *testing.T) {
	ctx := context.Background()
	idx, err := NewMemoryIndex("")
	if err != nil {
		t.Fatalf("NewMemoryIndex failed: %v", err)
	}

	err = idx.Upsert(ctx, []Chunk{
		{ID: "a_chunk_0", DocID: "a", Text: "near", Vector: []float32{1, 0.1}},
		{ID: "b_chunk_0", DocID: "b", Text: "far", Vector: []float32{0, 1}},
		{ID: "c_chunk_0", DocID: "c", Text: "exact", Vector: []float32{1, 0}},
		{ID: "d_chunk_0", DocID: "d", Text: "wrong dim", Vector: []float32{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	matches, err := idx.Query(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].DocID != "c" || matches[1].DocID != "a" {
		t.Errorf("Expected order c, a; got %s, %s", matches[0].DocID, matches[1].DocID)
	}
	if matches[0].Similarity < matches[1].Similarity {
		t.Error("Expected descending similarity")
	}
}

func TestMemoryIndex_RejectsEmptyVector(t *testing.T) {
	idx, _ := NewMemoryIndex("")
	if err := idx.Upsert(context.Background(), []Chunk{{ID: "x"}}); err == nil {
		t.Error("Expected error for empty vector, got nil")
	}
}

func TestMemoryIndex_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kb", "snapshot.json")

	idx, err := NewMemoryIndex(path)
	if err != nil {
		t.Fatalf("NewMemoryIndex failed: %v", err)
	}
	_ = idx.Upsert(ctx, []Chunk{
		{ID: "doc_chunk_1", DocID: "doc", Index: 1, Text: "second", Vector: []float32{0, 1}},
		{ID: "doc_chunk_0", DocID: "doc", Index: 0, Text: "first", Vector: []float32{1, 0},
			Metadata: map[string]string{MetaTitle: "Doc"}},
	})

	reloaded, err := NewMemoryIndex(path)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("Expected 2 chunks after reload, got %d", reloaded.Len())
	}

	chunks, err := reloaded.Chunks(ctx, "doc")
	if err != nil {
		t.Fatalf("Chunks failed: %v", err)
	}
	if chunks[0].Text != "first" || chunks[1].Text != "second" {
		t.Errorf("Expected chunks ordered by index, got %q, %q", chunks[0].Text, chunks[1].Text)
	}

	docs, _ := reloaded.Documents(ctx)
	if len(docs) != 1 || docs[0].ChunkCount != 2 {
		t.Errorf("Expected 1 document with 2 chunks, got %+v", docs)
	}

	if err := reloaded.DeleteDocument(ctx, "doc"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	if _, err := reloaded.Chunks(ctx, "doc"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound after delete, got %v", err)
	}
	if err := reloaded.DeleteDocument(ctx, "doc"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound on second delete, got %v", err)
	}
}

func TestChunk_Trust(t *testing.T) {
	tests := []struct {
		desc string
		meta map[string]string
		want *float64
	}{
		{desc: "absent", meta: nil, want: nil},
		{desc: "valid", meta: map[string]string{MetaTrust: "0.95"}, want: ptr(0.95)},
		{desc: "garbage", meta: map[string]string{MetaTrust: "high"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := Chunk{Metadata: tt.meta}.Trust()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("Expected %v, got %v", *tt.want, *got)
			}
		})
	}
}

func ptr(f float64) *float64 { return &f }
