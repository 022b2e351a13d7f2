package verdict

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ppiankov/truthguard/internal/logging"
)

// TokenCounter counts the tokens of a text for the evidence budget
type TokenCounter func(text string) int

// EstimateTokens approximates one token per four bytes
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

var (
	encodingsMu sync.Mutex
	encodings   = make(map[string]*tiktoken.Tiktoken)
)

// NewTokenCounter returns a tiktoken counter for an encoding or model name.
// "estimate", an empty name, or an encoding that cannot be loaded fall back
// to EstimateTokens.
func NewTokenCounter(name string) TokenCounter {
	name = strings.TrimSpace(name)
	if name == "" || name == "estimate" {
		return EstimateTokens
	}

	encodingsMu.Lock()
	defer encodingsMu.Unlock()

	enc, ok := encodings[name]
	if !ok {
		var err error
		enc, err = tiktoken.EncodingForModel(name)
		if err != nil {
			enc, err = tiktoken.GetEncoding(name)
		}
		if err != nil {
			logging.WithComponent("verdict").Warn("tokenizer unavailable, estimating", "encoding", name, "error", err)
			return EstimateTokens
		}
		encodings[name] = enc
	}

	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}
}
