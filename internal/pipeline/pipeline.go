// Package pipeline sequences claim extraction, evidence retrieval,
// credibility scoring and verdict synthesis into verification runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/retrieve"
	"github.com/ppiankov/truthguard/internal/score"
	"github.com/ppiankov/truthguard/internal/validate"
	"github.com/ppiankov/truthguard/internal/worker"
)

// ClaimExtractor turns text into claims. *extract.Extractor implements it.
type ClaimExtractor interface {
	Extract(ctx context.Context, text string) ([]model.Claim, error)
}

// EvidenceRetriever gathers evidence for one claim. *retrieve.Retriever implements it.
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, claim model.Claim, topK int) (*retrieve.Result, error)
}

// CredibilityScorer weights evidence by source. *credibility.Scorer implements it.
type CredibilityScorer interface {
	ScoreAll(items []model.EvidenceItem) []model.ScoredEvidence
}

// VerdictSynthesizer judges one claim. *verdict.Synthesizer implements it.
type VerdictSynthesizer interface {
	Synthesize(ctx context.Context, claim model.Claim, evidence []model.ScoredEvidence, mode model.Mode) model.VerdictResult
}

// DocumentStore loads ingested documents. *vector.KnowledgeBase implements it.
type DocumentStore interface {
	DocumentText(ctx context.Context, docID string) (string, error)
	DocumentTitle(ctx context.Context, docID string) string
}

// RunRecorder persists finished runs. *history.Recorder implements it.
type RunRecorder interface {
	Record(ctx context.Context, run *model.VerificationRun) error
}

// ErrNoDocumentStore is returned by AnalyzeDocument without a knowledge base
var ErrNoDocumentStore = errors.New("no knowledge base configured")

// Pipeline orchestrates verification runs
type Pipeline struct {
	extractor   ClaimExtractor
	retriever   EvidenceRetriever
	scorer      CredibilityScorer
	synthesizer VerdictSynthesizer
	analyzer    *score.Analyzer
	validator   *validate.Validator
	documents   DocumentStore
	summarizer  llm.Provider // nil uses the template summary
	recorder    RunRecorder
	observer    Observer
	concurrency int
	topK        int
	closers     []io.Closer
	log         *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithAnalyzer sets the document analyzer
func WithAnalyzer(a *score.Analyzer) Option {
	return func(p *Pipeline) { p.analyzer = a }
}

// WithDocuments enables AnalyzeDocument
func WithDocuments(d DocumentStore) Option {
	return func(p *Pipeline) { p.documents = d }
}

// WithSummarizer writes document summaries with an LLM
func WithSummarizer(provider llm.Provider) Option {
	return func(p *Pipeline) { p.summarizer = provider }
}

// WithRecorder persists every successful run
func WithRecorder(r RunRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithObserver reports pipeline events
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithConcurrency bounds how many claims of a run are verified at once
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithTopK sets the evidence count per source used when a request has none
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithCloser registers a resource released by Close
func WithCloser(c io.Closer) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.closers = append(p.closers, c)
		}
	}
}

// New creates a pipeline over its four stages
func New(extractor ClaimExtractor, retriever EvidenceRetriever, scorer CredibilityScorer, synthesizer VerdictSynthesizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   extractor,
		retriever:   retriever,
		scorer:      scorer,
		synthesizer: synthesizer,
		analyzer:    score.NewAnalyzer(model.AnalysisConfig{}),
		validator:   validate.New(),
		observer:    nopObserver{},
		concurrency: 4,
		topK:        retrieve.DefaultTopK,
		log:         logging.WithComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run verifies every claim in req.Text. Per-claim failures resolve that
// claim unverified; only invalid requests, empty input and cancellation
// fail the run. Text without factual statements yields an empty run.
func (p *Pipeline) Run(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error) {
	start := time.Now()
	if req.Mode == "" {
		req.Mode = model.ModeSingle
	}

	run, err := p.run(ctx, req)

	claims := 0
	if run != nil {
		claims = len(run.Claims)
	}
	p.observer.RunCompleted(req.Mode, claims, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, run); err != nil {
			p.log.Warn("failed to record run", "run_id", run.ID, "error", err)
			p.observer.PersistFailed()
		}
	}
	return run, nil
}

func (p *Pipeline) run(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error) {
	start := time.Now()

	if err := p.validator.Request(req); err != nil {
		return nil, err
	}
	if req.TopK == 0 {
		req.TopK = p.topK
	}
	topK, err := retrieve.ValidateTopK(req.TopK)
	if err != nil {
		return nil, err
	}

	claims, err := p.extractor.Extract(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &model.VerificationRun{
		ID:        uuid.NewString(),
		Mode:      req.Mode,
		Category:  DetectCategory(req.Text),
		Claims:    claims,
		CreatedAt: start.UTC(),
	}
	p.log.Info("verification started", "run_id", run.ID, "mode", run.Mode, "claims", len(claims), "top_k", topK)

	if req.Mode == model.ModeCompare {
		sets, err := p.verifyClaims(ctx, claims, []model.Mode{model.ModeSingle, model.ModeDebate}, topK)
		if err != nil {
			return nil, err
		}
		run.Results = sets[model.ModeSingle]
		run.SubResults = sets
	} else {
		sets, err := p.verifyClaims(ctx, claims, []model.Mode{req.Mode}, topK)
		if err != nil {
			return nil, err
		}
		run.Results = sets[req.Mode]
	}

	run.ProcessingTime = time.Since(start)
	run.ProcessingMs = run.ProcessingTime.Milliseconds()
	p.log.Info("verification finished", "run_id", run.ID, "duration_ms", run.ProcessingMs)
	return run, nil
}

type claimJob struct {
	pipeline *Pipeline
	index    int
	claim    model.Claim
	mode     model.Mode
	topK     int
}

func (j *claimJob) Execute(ctx context.Context) worker.Result {
	return &claimOutcome{
		index:  j.index,
		mode:   j.mode,
		result: j.pipeline.verifyClaim(ctx, j.claim, j.mode, j.topK),
	}
}

type claimOutcome struct {
	index  int
	mode   model.Mode
	result model.VerdictResult
}

func (o *claimOutcome) GetError() error {
	return nil
}

// verifyClaims verifies every claim once per mode on one pool bounded by
// the pipeline concurrency. Each mode does its own retrieval and gets a
// result set aligned with claims by index. A cancelled context discards
// everything.
func (p *Pipeline) verifyClaims(ctx context.Context, claims []model.Claim, modes []model.Mode, topK int) (map[model.Mode][]model.VerdictResult, error) {
	sets := make(map[model.Mode][]model.VerdictResult, len(modes))
	for _, mode := range modes {
		sets[mode] = make([]model.VerdictResult, len(claims))
	}
	if len(claims) == 0 {
		return sets, nil
	}

	pool := worker.NewPool(ctx, p.concurrency)
	pool.Start()
	submitted := 0
submit:
	for _, mode := range modes {
		for i, claim := range claims {
			if !pool.Submit(&claimJob{pipeline: p, index: i, claim: claim, mode: mode, topK: topK}) {
				break submit
			}
			submitted++
		}
	}
	outcomes := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := len(claims) * len(modes)
	if submitted != want || len(outcomes) != want {
		return nil, fmt.Errorf("verified %d of %d claims", len(outcomes), want)
	}
	for _, o := range outcomes {
		outcome := o.(*claimOutcome)
		sets[outcome.mode][outcome.index] = outcome.result
	}
	return sets, nil
}

// Close releases the knowledge base and history store
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
