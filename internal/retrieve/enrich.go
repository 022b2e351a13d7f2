package retrieve

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/model"
)

const (
	minSnippetLength = 120
	maxSnippetLength = 600
	enrichParallel   = 3
)

// PageReader returns the visible text of a page. *Fetcher satisfies it.
type PageReader interface {
	Text(ctx context.Context, rawURL string) (string, error)
}

// Enricher replaces short web snippets with a passage from the page itself
type Enricher struct {
	pages PageReader
}

// NewEnricher creates an enricher reading pages through pages
func NewEnricher(pages PageReader) *Enricher {
	return &Enricher{pages: pages}
}

// Enrich returns a copy of items in which snippets shorter than 120
// characters are replaced by the page passage around the first query
// keyword. Items whose page cannot be read keep their snippet.
func (e *Enricher) Enrich(ctx context.Context, query string, items []model.EvidenceItem) []model.EvidenceItem {
	out := make([]model.EvidenceItem, len(items))
	copy(out, items)

	keywords := keywordsOf(query)
	if len(keywords) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(enrichParallel)
	for i := range out {
		if out[i].URL == "" || len(out[i].Snippet) >= minSnippetLength {
			continue
		}
		g.Go(func() error {
			text, err := e.pages.Text(ctx, out[i].URL)
			if err != nil {
				logging.WithComponent("retrieve").Debug("enrichment skipped", "url", out[i].URL, "error", err)
				return nil
			}
			if passage := passageAround(text, keywords, maxSnippetLength); len(passage) > len(out[i].Snippet) {
				out[i].Snippet = passage
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "have": true,
	"were": true, "been": true, "their": true, "there": true, "which": true,
	"about": true, "into": true, "than": true, "they": true, "what": true,
	"when": true, "where": true, "will": true, "would": true, "does": true,
}

// keywordsOf returns the lowercased content words of query, longest first
func keywordsOf(query string) []string {
	var words []string
	seen := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) <= 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	// Longer words are more specific
	for i := 1; i < len(words); i++ {
		for j := i; j > 0 && len(words[j]) > len(words[j-1]); j-- {
			words[j], words[j-1] = words[j-1], words[j]
		}
	}
	return words
}

// passageAround returns at most max bytes of text starting shortly before
// the first keyword hit, trimmed to word boundaries
func passageAround(text string, keywords []string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	lower := strings.ToLower(text)

	hit := -1
	for _, k := range keywords {
		if i := strings.Index(lower, k); i >= 0 {
			hit = i
			break
		}
	}
	if hit < 0 {
		return ""
	}

	start := hit - max/6
	if start < 0 {
		start = 0
	} else if sp := strings.IndexByte(text[start:hit], ' '); sp >= 0 {
		start += sp + 1
	}

	end := start + max
	if end >= len(text) {
		end = len(text)
	} else if sp := strings.LastIndexByte(text[start:end], ' '); sp > 0 {
		end = start + sp
	}

	passage := text[start:end]
	if start > 0 {
		passage = "..." + passage
	}
	if end < len(text) {
		passage += "..."
	}
	return passage
}
