package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/util"
)

// Result is one organic web search hit
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider is a web search backend
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// ErrUnsupportedProvider is returned for unknown provider names
var ErrUnsupportedProvider = errors.New("unsupported search provider")

// NewProvider builds the search provider named in cfg
func NewProvider(cfg model.SearchConfig, httpCfg model.HTTPConfig) (Provider, error) {
	client := util.NewHTTPClient(int(httpCfg.Timeout.Seconds()), httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)

	switch strings.ToLower(cfg.Provider) {
	case "duckduckgo", "ddg", "":
		return &DuckDuckGo{
			BaseURL:   cfg.BaseURL,
			Region:    cfg.Region,
			UserAgent: httpCfg.UserAgent,
			Client:    client,
		}, nil
	case "serper":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("serper API key is required")
		}
		return &Serper{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Region: cfg.Region, Client: client}, nil
	case "brave":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("brave API key is required")
		}
		return &Brave{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Region: cfg.Region, Client: client}, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: duckduckgo, serper, brave)", ErrUnsupportedProvider, cfg.Provider)
	}
}

// Domain returns the host of rawURL without a leading "www."
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func clientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

// regionParts splits "us-en" into country "us" and language "en"
func regionParts(region string) (country, lang string) {
	parts := strings.SplitN(strings.ToLower(region), "-", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

func truncate(results []Result, k int) []Result {
	if k > 0 && len(results) > k {
		return results[:k]
	}
	return results
}
