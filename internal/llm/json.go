package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedJSON is returned when a completion cannot be decoded
var ErrMalformedJSON = errors.New("malformed JSON response")

// correctionPrompt is sent once after a malformed response
const correctionPrompt = "Your previous reply was not valid JSON for the requested schema (%v). " +
	"Reply again with only the JSON object."

// StripCodeFence removes a surrounding markdown code fence, if any
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop a language tag such as ```json
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON decodes a model reply into T. Prose around the outermost
// JSON object is tolerated.
func DecodeJSON[T any](text string) (T, error) {
	var out T
	s := StripCodeFence(text)
	if s == "" {
		return out, fmt.Errorf("%w: empty response", ErrMalformedJSON)
	}

	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out, nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return out, fmt.Errorf("%w: no JSON object found", ErrMalformedJSON)
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return out, nil
}

// CompleteJSON runs a JSON-mode completion and decodes it into T. A reply
// that fails to decode or fails check is retried once with a corrective
// instruction; the second failure is returned wrapping ErrMalformedJSON.
func CompleteJSON[T any](ctx context.Context, p Provider, req CompletionRequest, check func(T) error) (T, error) {
	var zero T
	req.JSONMode = true

	prompt := req.Prompt
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			req.Prompt = prompt + "\n\n" + fmt.Sprintf(correctionPrompt, lastErr)
		}

		resp, err := p.Complete(ctx, req)
		if err != nil {
			return zero, err
		}

		out, err := DecodeJSON[T](resp.Text)
		if err == nil && check != nil {
			if cerr := check(out); cerr != nil {
				err = fmt.Errorf("%w: %v", ErrMalformedJSON, cerr)
			}
		}
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return zero, lastErr
}
