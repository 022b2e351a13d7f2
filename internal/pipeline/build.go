package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/truthguard/internal/cache"
	"github.com/ppiankov/truthguard/internal/credibility"
	"github.com/ppiankov/truthguard/internal/extract"
	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/retrieve"
	"github.com/ppiankov/truthguard/internal/score"
	"github.com/ppiankov/truthguard/internal/search"
	"github.com/ppiankov/truthguard/internal/util"
	"github.com/ppiankov/truthguard/internal/validate"
	"github.com/ppiankov/truthguard/internal/vector"
	"github.com/ppiankov/truthguard/internal/verdict"
	"github.com/ppiankov/truthguard/internal/worker"
)

// Build wires a pipeline from configuration. opts are applied last so
// callers can add an observer or recorder.
func Build(ctx context.Context, cfg *model.Config, opts ...Option) (*Pipeline, error) {
	if err := validate.New().Config(cfg); err != nil {
		return nil, err
	}
	log := logging.WithComponent("pipeline")
	store := cache.New(cfg.Cache)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		log.Warn("no LLM provider configured, claims will resolve unverified")
	}

	web, err := search.NewProvider(cfg.Search, cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	throttled := search.NewThrottled(web, limiter, store, cfg.Search.CacheTTL)

	kb, err := OpenKnowledgeBase(ctx, cfg, store)
	if err != nil {
		log.Warn("knowledge base unavailable, using web evidence only", "error", err)
		kb = nil
	}

	var (
		kbSearcher  retrieve.KnowledgeSearcher
		kbContext   extract.ContextSearcher
		pipelineOps []Option
	)
	if kb != nil {
		kbSearcher, kbContext = kb, kb
		pipelineOps = append(pipelineOps, WithDocuments(kb), WithCloser(kb))
	}

	var retrieveOpts []retrieve.Option
	if cfg.Retrieval.Enrich {
		client := util.NewHTTPClient(int(cfg.HTTP.Timeout.Seconds()), cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
		fetcher := retrieve.NewFetcher(cfg.HTTP,
			retrieve.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, client, cfg.HTTP.Timeout)),
			retrieve.WithHostLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
			retrieve.WithPageCache(store, cfg.Cache.DiskTTL),
		)
		retrieveOpts = append(retrieveOpts, retrieve.WithEnricher(retrieve.NewEnricher(fetcher)))
	}

	if provider != nil && cfg.Analysis.SummaryWithLLM {
		pipelineOps = append(pipelineOps, WithSummarizer(provider))
	}
	pipelineOps = append(pipelineOps,
		WithAnalyzer(score.NewAnalyzer(cfg.Analysis)),
		WithConcurrency(cfg.Concurrency.Claims),
		WithTopK(cfg.Retrieval.TopK),
	)

	return New(
		extract.New(cfg.Extraction, provider, kbContext),
		retrieve.New(throttled, kbSearcher, cfg.Retrieval, retrieveOpts...),
		credibility.NewScorer(&cfg.Credibility),
		verdict.New(provider, cfg.Synthesis, cfg.Debate),
		append(pipelineOps, opts...)...,
	), nil
}

// OpenKnowledgeBase opens the configured vector index behind a cached
// embedder. It returns nil when the knowledge base is disabled.
func OpenKnowledgeBase(ctx context.Context, cfg *model.Config, store cache.Cache) (*vector.KnowledgeBase, error) {
	if strings.EqualFold(cfg.Knowledge.Backend, "none") {
		return nil, nil
	}

	apiKey := cfg.Embedding.APIKey
	if apiKey == "" && strings.EqualFold(cfg.LLM.Provider, cfg.Embedding.Provider) {
		apiKey = cfg.LLM.APIKey
	}
	embedder, err := llm.NewEmbedder(cfg.Embedding, apiKey, cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if embedder == nil {
		return nil, nil
	}
	embedder = llm.NewCachedEmbedder(embedder, store, cfg.Embedding.Model, cfg.Cache.DiskTTL)

	index, err := vector.Open(ctx, cfg.Knowledge, embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}
	return vector.NewKnowledgeBase(index, embedder, cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap), nil
}
