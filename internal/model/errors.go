package model

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned when a verification request fails validation
var ErrInvalidRequest = errors.New("invalid request")

// ErrJudgeAbstain marks a debate judge that did not produce a usable opinion
var ErrJudgeAbstain = errors.New("judge abstained")

// ExtractionError is fatal for a run: the input had nothing to extract from
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extraction: " + e.Reason
}

// RetrievalError reports a failed evidence source. It is recoverable:
// the source contributes no evidence and the claim continues.
type RetrievalError struct {
	Source  EvidenceOrigin
	Timeout bool
	Err     error
}

func (e *RetrievalError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("retrieval timeout (%s): %v", e.Source, e.Err)
	}
	return fmt.Sprintf("retrieval error (%s): %v", e.Source, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// SynthesisErrorKind classifies a synthesis failure
type SynthesisErrorKind string

const (
	SynthesisParse   SynthesisErrorKind = "parse"
	SynthesisTimeout SynthesisErrorKind = "timeout"
	SynthesisLLM     SynthesisErrorKind = "llm"
)

// SynthesisError reports a judge call that could not produce a verdict.
// It is downgraded to an unverified result, never propagated out of a run.
type SynthesisError struct {
	Kind SynthesisErrorKind
	Err  error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis %s error: %v", e.Kind, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// IsSynthesisKind reports whether err is a SynthesisError of the given kind
func IsSynthesisKind(err error, kind SynthesisErrorKind) bool {
	var se *SynthesisError
	return errors.As(err, &se) && se.Kind == kind
}
