package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/truthguard/internal/cache"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/util"
	"github.com/sashabaranov/go-openai"
)

// Embedder maps text to fixed-dimension vectors. The same embedder must be
// used at ingestion and query time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// NewEmbedder builds the embedder described by cfg
func NewEmbedder(cfg model.EmbeddingConfig, apiKey string, httpConfig model.HTTPConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required for embeddings")
		}
		return NewOpenAIEmbedder(Config{
			APIKey:     apiKey,
			BaseURL:    cfg.BaseURL,
			HTTPProxy:  httpConfig.HTTPProxy,
			HTTPSProxy: httpConfig.HTTPSProxy,
			NoProxy:    httpConfig.NoProxy,
		}, cfg.Model, cfg.Dimension), nil
	case "ollama":
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimension), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", cfg.Provider)
	}
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an OpenAI embedder
func NewOpenAIEmbedder(config Config, modelName string, dimension int) *OpenAIEmbedder {
	if modelName == "" {
		modelName = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client:    newOpenAIClient(config),
		model:     modelName,
		dimension: dimension,
	}
}

// Embed returns the vector for one text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns vectors aligned with texts
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// Dimension returns the configured vector size
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// OllamaEmbedder calls Ollama's /api/embeddings endpoint
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllamaEmbedder creates an Ollama embedder
func NewOllamaEmbedder(baseURL, modelName string, dimension int) *OllamaEmbedder {
	if modelName == "" {
		modelName = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		baseURL:    ollamaBaseURL(baseURL),
		model:      modelName,
		dimension:  dimension,
		httpClient: util.NewHTTPClient(60, "", "", ""),
	}
}

// Embed returns the vector for one text
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaEmbedResponse
	err := postJSON(ctx, e.httpClient, e.baseURL+"/api/embeddings",
		ollamaEmbedRequest{Model: e.model, Prompt: text}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings error: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds texts one request at a time
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Dimension returns the configured vector size
func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}

// CachedEmbedder memoizes single-text embeddings (claim queries repeat
// across compare mode and batch runs)
type CachedEmbedder struct {
	Embedder
	cache     cache.Cache
	namespace string
	ttl       time.Duration
}

// NewCachedEmbedder wraps e; a nil cache disables memoization
func NewCachedEmbedder(e Embedder, c cache.Cache, modelName string, ttl time.Duration) Embedder {
	if c == nil || e == nil {
		return e
	}
	return &CachedEmbedder{Embedder: e, cache: c, namespace: "embed:" + modelName, ttl: ttl}
}

// Embed returns a cached vector when present
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(c.namespace, text)
	var vec []float32
	if cache.GetJSON(c.cache, key, &vec) && len(vec) > 0 {
		return vec, nil
	}

	vec, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = cache.SetJSON(c.cache, key, vec, c.ttl)
	return vec, nil
}
