package model

import "time"

// Config is the complete TruthGuard configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Embedding    EmbeddingConfig    `yaml:"embedding" mapstructure:"embedding"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	Knowledge    KnowledgeConfig    `yaml:"knowledge" mapstructure:"knowledge"`
	Retrieval    RetrievalConfig    `yaml:"retrieval" mapstructure:"retrieval"`
	Credibility  CredibilityConfig  `yaml:"credibility" mapstructure:"credibility"`
	Synthesis    SynthesisConfig    `yaml:"synthesis" mapstructure:"synthesis"`
	Debate       DebateConfig       `yaml:"debate" mapstructure:"debate"`
	Extraction   ExtractionConfig   `yaml:"extraction" mapstructure:"extraction"`
	Analysis     AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	History      HistoryConfig      `yaml:"history" mapstructure:"history"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures the judge endpoint
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai anthropic ollama"`
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// EmbeddingConfig configures the embedding function. The same model must be
// used at ingestion and query time.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai ollama"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension" validate:"gt=0"`
}

// SearchConfig configures the web search provider
type SearchConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=duckduckgo ddg serper brave"`
	APIKey   string        `yaml:"-" mapstructure:"api_key"`
	Region   string        `yaml:"region" mapstructure:"region"`
	BaseURL  string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// KnowledgeConfig configures the curated vector knowledge base
type KnowledgeConfig struct {
	Backend      string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory pgvector none"`
	DSN          string `yaml:"-" mapstructure:"dsn"`
	Table        string `yaml:"table" mapstructure:"table"`
	ChunkSize    int    `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gt=0"`
	ChunkOverlap int    `yaml:"chunk_overlap" mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	SnapshotPath string `yaml:"snapshot_path,omitempty" mapstructure:"snapshot_path"` // memory backend persistence
}

// RetrievalConfig configures evidence retrieval
type RetrievalConfig struct {
	TopK       int           `yaml:"top_k" mapstructure:"top_k" validate:"gte=1,lte=20"`
	WebTimeout time.Duration `yaml:"web_timeout" mapstructure:"web_timeout"`
	KBTimeout  time.Duration `yaml:"kb_timeout" mapstructure:"kb_timeout"`
	Enrich     bool          `yaml:"enrich" mapstructure:"enrich"` // Fetch pages to extend short snippets
}

// CredibilityConfig holds the source credibility table
type CredibilityConfig struct {
	FactCheckDomains  []string           `yaml:"fact_check_domains" mapstructure:"fact_check_domains"`
	PrimaryDomains    []string           `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains  []string           `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	UnreliableDomains []string           `yaml:"unreliable_domains" mapstructure:"unreliable_domains"`
	DomainScores      map[string]float64 `yaml:"domain_scores,omitempty" mapstructure:"domain_scores"` // Explicit overrides
	FactCheckScore    float64            `yaml:"fact_check_score" mapstructure:"fact_check_score" validate:"gte=0,lte=1"`
	PrimaryScore      float64            `yaml:"primary_score" mapstructure:"primary_score" validate:"gte=0,lte=1"`
	SecondaryScore    float64            `yaml:"secondary_score" mapstructure:"secondary_score" validate:"gte=0,lte=1"`
	UnreliableScore   float64            `yaml:"unreliable_score" mapstructure:"unreliable_score" validate:"gte=0,lte=1"`
	UnknownScore      float64            `yaml:"unknown_score" mapstructure:"unknown_score" validate:"gte=0,lte=1"`
	KBBaseTrust       float64            `yaml:"kb_base_trust" mapstructure:"kb_base_trust" validate:"gte=0,lte=1"`
}

// SynthesisConfig configures the single-pass judge
type SynthesisConfig struct {
	Temperature             float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens               int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout                 time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxEvidence             int           `yaml:"max_evidence" mapstructure:"max_evidence"`
	EvidenceTokenBudget     int           `yaml:"evidence_token_budget" mapstructure:"evidence_token_budget"`
	UnverifiedMaxConfidence float64       `yaml:"unverified_max_confidence" mapstructure:"unverified_max_confidence" validate:"gte=0,lte=1"`
	Tokenizer               string        `yaml:"tokenizer" mapstructure:"tokenizer"` // tiktoken encoding or model name
}

// DebateConfig configures multi-judge debate mode
type DebateConfig struct {
	Judges              int           `yaml:"judges" mapstructure:"judges" validate:"gte=3,lte=5"`
	JudgeTimeout        time.Duration `yaml:"judge_timeout" mapstructure:"judge_timeout"`
	DisagreementPenalty float64       `yaml:"disagreement_penalty" mapstructure:"disagreement_penalty" validate:"gte=0,lte=1"`
	Temperature         float64       `yaml:"temperature" mapstructure:"temperature"`
}

// ExtractionConfig selects claim extraction strategies
type ExtractionConfig struct {
	Rule      bool `yaml:"rule" mapstructure:"rule"`
	LLM       bool `yaml:"llm" mapstructure:"llm"`
	UseKB     bool `yaml:"use_kb" mapstructure:"use_kb"` // Give the LLM strategy knowledge-base context
	MaxClaims int  `yaml:"max_claims" mapstructure:"max_claims" validate:"gte=1"`
	MinLength int  `yaml:"min_length" mapstructure:"min_length"`
	MaxLength int  `yaml:"max_length" mapstructure:"max_length"`
}

// AnalysisConfig holds the document accuracy bucket thresholds (percent)
type AnalysisConfig struct {
	MostlyAccurateTrue float64 `yaml:"mostly_accurate_true" mapstructure:"mostly_accurate_true"`
	MostlyFalseFalse   float64 `yaml:"mostly_false_false" mapstructure:"mostly_false_false"`
	MisleadingShare    float64 `yaml:"misleading_share" mapstructure:"misleading_share"`
	MixedTrue          float64 `yaml:"mixed_true" mapstructure:"mixed_true"`
	SummaryWithLLM     bool    `yaml:"summary_with_llm" mapstructure:"summary_with_llm"`
}

// ConcurrencyConfig bounds fan-out
type ConcurrencyConfig struct {
	Claims  int `yaml:"claims" mapstructure:"claims" validate:"gte=1"`   // Claims verified in parallel per run
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"` // Batch workers
}

// RateLimitingConfig limits calls to external providers
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig configures the search/embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Directory string        `yaml:"directory" mapstructure:"directory"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig configures outbound page fetches
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// HistoryConfig configures the persistence collaborator
type HistoryConfig struct {
	Backend   string        `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=none memory redis postgres"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisDB   int           `yaml:"redis_db" mapstructure:"redis_db"`
	DSN       string        `yaml:"-" mapstructure:"dsn"`
	Prefix    string        `yaml:"prefix" mapstructure:"prefix"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     30,
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		Search: SearchConfig{
			Provider: "duckduckgo",
			Region:   "us-en",
			CacheTTL: time.Hour,
		},
		Knowledge: KnowledgeConfig{
			Backend:      "memory",
			Table:        "kb_chunks",
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Retrieval: RetrievalConfig{
			TopK:       5,
			WebTimeout: 10 * time.Second,
			KBTimeout:  5 * time.Second,
		},
		Credibility: CredibilityConfig{
			FactCheckDomains: []string{
				"snopes.com", "politifact.com", "factcheck.org", "fullfact.org",
				"checkyourfact.com", "leadstories.com", "apnews.com", "afp.com",
			},
			PrimaryDomains: []string{
				"who.int", "cdc.gov", "nih.gov", "nasa.gov", "noaa.gov",
				"europa.eu", "un.org", "nature.com", "science.org",
				"thelancet.com", "nejm.org", "doi.org", "pubmed.ncbi.nlm.nih.gov",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "reuters.com", "bbc.co.uk",
				"bbc.com", "nytimes.com", "theguardian.com", "npr.org",
			},
			UnreliableDomains: []string{
				"infowars.com", "naturalnews.com", "beforeitsnews.com",
				"worldnewsdailyreport.com", "theonion.com",
			},
			FactCheckScore:  0.9,
			PrimaryScore:    0.85,
			SecondaryScore:  0.7,
			UnreliableScore: 0.2,
			UnknownScore:    0.5,
			KBBaseTrust:     0.8,
		},
		Synthesis: SynthesisConfig{
			Temperature:             0.2,
			MaxTokens:               600,
			Timeout:                 45 * time.Second,
			MaxEvidence:             8,
			EvidenceTokenBudget:     2000,
			UnverifiedMaxConfidence: 0.5,
			Tokenizer:               "cl100k_base",
		},
		Debate: DebateConfig{
			Judges:              3,
			JudgeTimeout:        30 * time.Second,
			DisagreementPenalty: 0.5,
			Temperature:         0.4,
		},
		Extraction: ExtractionConfig{
			Rule:      true,
			LLM:       false,
			UseKB:     true,
			MaxClaims: 20,
			MinLength: 15,
			MaxLength: 500,
		},
		Analysis: AnalysisConfig{
			MostlyAccurateTrue: 70,
			MostlyFalseFalse:   50,
			MisleadingShare:    40,
			MixedTrue:          50,
			SummaryWithLLM:     true,
		},
		Concurrency: ConcurrencyConfig{
			Claims:  4,
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: "",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "TruthGuard/0.1 (+https://github.com/ppiankov/truthguard)",
			MaxBodyBytes: 2_000_000,
		},
		History: HistoryConfig{
			Backend: "none",
			Prefix:  "truthguard:",
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
