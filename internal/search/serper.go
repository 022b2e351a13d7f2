package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const serperURL = "https://google.serper.dev/search"

// Serper queries the serper.dev Google proxy
type Serper struct {
	APIKey  string
	BaseURL string
	Region  string
	Client  *http.Client
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Name returns the provider name
func (s *Serper) Name() string {
	return "serper"
}

// Search returns up to k organic results
func (s *Serper) Search(ctx context.Context, query string, k int) ([]Result, error) {
	// https://serper.dev/ docs
	payload := map[string]any{"q": query, "num": k}
	if country, lang := regionParts(s.Region); country != "" {
		payload["gl"] = country
		payload["hl"] = lang
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := s.BaseURL
	if endpoint == "" {
		endpoint = serperURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := clientOrDefault(s.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper returned HTTP %d", resp.StatusCode)
	}

	var raw serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	out := make([]Result, 0, len(raw.Organic))
	for _, it := range raw.Organic {
		if it.Link == "" {
			continue
		}
		out = append(out, Result{Title: it.Title, URL: it.Link, Snippet: it.Snippet})
	}
	return truncate(out, k), nil
}
