package retrieve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/search"
	"github.com/ppiankov/truthguard/internal/util"
	"github.com/ppiankov/truthguard/internal/vector"
)

const (
	DefaultTopK = 5
	MaxTopK     = 20

	defaultWebTimeout = 10 * time.Second
	defaultKBTimeout  = 5 * time.Second
	maxQueryLength    = 300
)

// KnowledgeSearcher is the knowledge base side of retrieval.
// *vector.KnowledgeBase satisfies it.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]vector.Match, error)
}

// Result is the merged evidence for one claim plus the sources that failed
type Result struct {
	Items    []model.EvidenceItem
	Failures []model.SourceFailure
}

// Retriever gathers evidence for a claim from web search and the
// knowledge base concurrently. Either source may be nil.
type Retriever struct {
	web        search.Provider
	kb         KnowledgeSearcher
	enricher   *Enricher
	webTimeout time.Duration
	kbTimeout  time.Duration
}

// Option configures a Retriever
type Option func(*Retriever)

// WithEnricher extends short web snippets with page text
func WithEnricher(e *Enricher) Option {
	return func(r *Retriever) { r.enricher = e }
}

// New creates a retriever
func New(web search.Provider, kb KnowledgeSearcher, cfg model.RetrievalConfig, opts ...Option) *Retriever {
	r := &Retriever{
		web:        web,
		kb:         kb,
		webTimeout: cfg.WebTimeout,
		kbTimeout:  cfg.KBTimeout,
	}
	if r.webTimeout <= 0 {
		r.webTimeout = defaultWebTimeout
	}
	if r.kbTimeout <= 0 {
		r.kbTimeout = defaultKBTimeout
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidateTopK applies the default for zero and rejects values outside 1..20
func ValidateTopK(topK int) (int, error) {
	if topK == 0 {
		return DefaultTopK, nil
	}
	if topK < 1 || topK > MaxTopK {
		return 0, fmt.Errorf("%w: top_k must be between 1 and %d, got %d", model.ErrInvalidRequest, MaxTopK, topK)
	}
	return topK, nil
}

// Retrieve runs both sub-retrievers concurrently, each under its own
// timeout, and merges web items before knowledge base items. A failing
// source contributes no items and is reported in Result.Failures. The
// only errors are an invalid topK and cancellation of ctx itself.
func (r *Retriever) Retrieve(ctx context.Context, claim model.Claim, topK int) (*Result, error) {
	topK, err := ValidateTopK(topK)
	if err != nil {
		return nil, err
	}

	query := searchQuery(claim.Text)
	var (
		webItems, kbItems []model.EvidenceItem
		webErr, kbErr     error
	)

	var g errgroup.Group
	if r.web != nil {
		g.Go(func() error {
			webItems, webErr = r.searchWeb(ctx, query, topK)
			return nil
		})
	}
	if r.kb != nil {
		g.Go(func() error {
			kbItems, kbErr = r.searchKnowledge(ctx, claim.Text, topK)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{}
	log := logging.WithComponent("retrieve")
	for _, failed := range []error{webErr, kbErr} {
		var re *model.RetrievalError
		if errors.As(failed, &re) {
			log.Warn("evidence source degraded", "claim_id", claim.ID, "source", re.Source, "timeout", re.Timeout, "error", re.Err)
			result.Failures = append(result.Failures, model.SourceFailure{Source: re.Source, Reason: re.Error()})
		}
	}

	result.Items = make([]model.EvidenceItem, 0, len(webItems)+len(kbItems))
	result.Items = append(result.Items, webItems...)
	result.Items = append(result.Items, kbItems...)
	return result, nil
}

func (r *Retriever) searchWeb(ctx context.Context, query string, topK int) ([]model.EvidenceItem, error) {
	sctx, cancel := context.WithTimeout(ctx, r.webTimeout)
	defer cancel()

	results, err := r.web.Search(sctx, query, topK)
	if err != nil {
		return nil, sourceError(model.OriginWeb, sctx, err)
	}
	if len(results) > topK {
		results = results[:topK]
	}

	items := make([]model.EvidenceItem, 0, len(results))
	for _, res := range results {
		items = append(items, model.EvidenceItem{
			Title:    res.Title,
			URL:      res.URL,
			Snippet:  res.Snippet,
			Origin:   model.OriginWeb,
			SourceID: search.Domain(res.URL),
		})
	}

	if r.enricher != nil {
		items = r.enricher.Enrich(sctx, query, items)
	}
	return items, nil
}

func (r *Retriever) searchKnowledge(ctx context.Context, text string, topK int) ([]model.EvidenceItem, error) {
	kctx, cancel := context.WithTimeout(ctx, r.kbTimeout)
	defer cancel()

	matches, err := r.kb.Search(kctx, text, topK)
	if err != nil {
		return nil, sourceError(model.OriginKnowledgeBase, kctx, err)
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}

	items := make([]model.EvidenceItem, 0, len(matches))
	for _, m := range matches {
		title := m.Metadata[vector.MetaTitle]
		if title == "" {
			title = m.DocID
		}
		items = append(items, model.EvidenceItem{
			Title:    title,
			URL:      m.Metadata[vector.MetaURL],
			Snippet:  m.Text,
			Origin:   model.OriginKnowledgeBase,
			SourceID: m.DocID,
			Score:    m.Similarity,
			Trust:    m.Trust(),
		})
	}
	return items, nil
}

// sourceError classifies err; a deadline on the sub-context is a timeout
func sourceError(origin model.EvidenceOrigin, sctx context.Context, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(sctx.Err(), context.DeadlineExceeded)
	return &model.RetrievalError{Source: origin, Timeout: timeout, Err: err}
}

// searchQuery derives a web query from claim text
func searchQuery(text string) string {
	q := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "."))
	if len(q) > maxQueryLength {
		q = util.Truncate(q, maxQueryLength)
		if i := strings.LastIndexByte(q, ' '); i > maxQueryLength/2 {
			q = q[:i]
		}
	}
	return q
}
