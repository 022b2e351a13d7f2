package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/truthguard/internal/model"
)

// Verifier runs one verification request
type Verifier interface {
	Run(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error)
}

// VerifyJob verifies one line of a batch input
type VerifyJob struct {
	Line     int
	Request  model.VerifyRequest
	Verifier Verifier
	Limiter  *Limiter
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	if err := j.Limiter.Wait(ctx, "batch"); err != nil {
		return &BatchResult{Line: j.Line, Text: j.Request.Text, Error: err}
	}

	run, err := j.Verifier.Run(ctx, j.Request)
	return &BatchResult{
		Line:  j.Line,
		Text:  j.Request.Text,
		Run:   run,
		Error: err,
	}
}

// BatchResult represents the result of one batch line
type BatchResult struct {
	Line  int                    `json:"line"`
	Text  string                 `json:"text"`
	Run   *model.VerificationRun `json:"run,omitempty"`
	Error error                  `json:"-"`
}

// GetError returns the error from the batch result
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many texts concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// ProcessTexts verifies each text and returns results in input order
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string, mode model.Mode, topK int) []*BatchResult {
	if len(texts) == 0 {
		return []*BatchResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, text := range texts {
		pool.Submit(&VerifyJob{
			Line:     i + 1,
			Request:  model.VerifyRequest{Text: text, Mode: mode, TopK: topK},
			Verifier: b.verifier,
			Limiter:  b.limiter,
		})
	}

	results := pool.Wait()

	batchResults := make([]*BatchResult, 0, len(results))
	for _, result := range results {
		batchResults = append(batchResults, result.(*BatchResult))
	}
	sort.Slice(batchResults, func(i, j int) bool {
		return batchResults[i].Line < batchResults[j].Line
	})

	return batchResults
}

// ProcessFile reads texts from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, mode model.Mode, topK int) ([]*BatchResult, error) {
	texts, err := ReadLinesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read texts: %w", err)
	}

	return b.ProcessTexts(ctx, texts, mode, topK), nil
}

// ReadLinesFromFile reads one text per line, skipping blanks, comments and duplicates
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
