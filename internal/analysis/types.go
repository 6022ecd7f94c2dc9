// Package analysis drives streaming repository analyses against the
// supported LLM providers. One adapter exists per wire-protocol family;
// the orchestrator routes a request to its family, streams tokens to the
// caller's sink and settles cost accounting on completion.
package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"starscope/internal/models"
	"starscope/internal/registry"
	"starscope/internal/utils"
)

// Config is the per-request configuration for one analysis. The credential
// arrives already decrypted; it is carried opaquely and never parsed.
type Config struct {
	Provider   registry.ID
	Credential string
	Model      string // defaults to the provider's default model
	MaxTokens  int    // defaults to DefaultMaxTokens
	Endpoint   string // overrides the registry endpoint; required for the custom provider
}

// DefaultMaxTokens caps the generated analysis length unless overridden.
const DefaultMaxTokens = 800

// temperature is fixed for all providers.
const temperature = 0.7

// Result is the outcome of a completed analysis.
type Result struct {
	Content    string      `json:"content"`
	TokenCount int         `json:"token_count"`
	Cost       float64     `json:"cost"`
	Model      string      `json:"model"`
	Provider   registry.ID `json:"provider"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Sink receives the streaming output of one analysis. OnToken fires zero or
// more times, strictly before exactly one of OnComplete or OnError.
type Sink interface {
	OnToken(token string)
	OnComplete(result Result)
	OnError(err error)
}

// Adapter runs one analysis against a single wire-protocol family.
type Adapter interface {
	Run(ctx context.Context, repo models.Repository, cfg Config, sink Sink)
}

var (
	// ErrMissingCredential is returned before any network call when a
	// provider requires auth and no credential was supplied.
	ErrMissingCredential = errors.New("missing credential")

	// ErrMissingEndpoint is returned when the custom provider is selected
	// without an endpoint override.
	ErrMissingEndpoint = errors.New("missing custom endpoint")
)

// guardedSink enforces the callback contract on behalf of adapters: tokens
// are dropped once a terminal callback fired, and only the first terminal
// callback reaches the caller.
type guardedSink struct {
	inner     Sink
	logger    *utils.Logger
	requestID string

	mu   sync.Mutex
	done bool
}

func newGuardedSink(inner Sink, logger *utils.Logger, requestID string) *guardedSink {
	return &guardedSink{inner: inner, logger: logger, requestID: requestID}
}

func (s *guardedSink) OnToken(token string) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done || token == "" {
		return
	}
	s.inner.OnToken(token)
}

func (s *guardedSink) OnComplete(result Result) {
	if !s.settle() {
		return
	}
	s.logger.Debug("analysis completed", "request_id", s.requestID, "provider", result.Provider, "model", result.Model, "tokens", result.TokenCount)
	s.inner.OnComplete(result)
}

func (s *guardedSink) OnError(err error) {
	if !s.settle() {
		return
	}
	s.logger.Debug("analysis failed", "request_id", s.requestID, "error", err)
	s.inner.OnError(err)
}

func (s *guardedSink) settle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	s.done = true
	return true
}
