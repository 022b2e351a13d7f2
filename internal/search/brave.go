package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search web API
type Brave struct {
	APIKey  string
	BaseURL string
	Region  string
	Client  *http.Client
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Snippet string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Name returns the provider name
func (b *Brave) Name() string {
	return "brave"
}

// Search returns up to k organic results
func (b *Brave) Search(ctx context.Context, query string, k int) ([]Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(k))
	if country, lang := regionParts(b.Region); country != "" {
		params.Set("country", country)
		params.Set("search_lang", lang)
	}

	endpoint := b.BaseURL
	if endpoint == "" {
		endpoint = braveURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := clientOrDefault(b.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave returned HTTP %d", resp.StatusCode)
	}

	var raw braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	out := make([]Result, 0, len(raw.Web.Results))
	for _, r := range raw.Web.Results {
		if r.URL == "" {
			continue
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return truncate(out, k), nil
}
