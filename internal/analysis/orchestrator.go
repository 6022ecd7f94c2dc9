package analysis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"starscope/internal/models"
	"starscope/internal/registry"
	"starscope/internal/utils"
)

// Analyzer is the entry point for repository analyses. It owns one adapter
// per wire-protocol family and routes each request by provider identifier.
// It imposes no timeout of its own: a stuck stream is the caller's to
// abandon through the context.
type Analyzer struct {
	client   *http.Client
	logger   *utils.Logger
	adapters map[registry.ID]Adapter
}

// NewAnalyzer creates an analyzer with a shared HTTP client. The client has
// no overall timeout because streaming responses are open-ended; callers
// cancel through the context instead.
func NewAnalyzer() *Analyzer {
	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return newAnalyzer(client, utils.NewLogger("analyzer"), simulatedChunkDelay)
}

func newAnalyzer(client *http.Client, logger *utils.Logger, delay time.Duration) *Analyzer {
	a := &Analyzer{
		client: client,
		logger: logger,
	}

	openAI := &openAIAdapter{client: client, logger: logger}
	a.adapters = map[registry.ID]Adapter{
		// Native chat-completions streaming, endpoint-parameterized.
		registry.OpenAI:     openAI,
		registry.DeepSeek:   openAI,
		registry.Mistral:    openAI,
		registry.ZAI:        openAI,
		registry.Replicate:  openAI,
		registry.Together:   openAI,
		registry.Perplexity: openAI,
		registry.Fireworks:  openAI,
		registry.LMStudio:   openAI,
		registry.LocalAI:    openAI,
		registry.Custom:     openAI,

		registry.Anthropic: &anthropicAdapter{client: client, logger: logger},

		// Single-shot providers with simulated streaming.
		registry.Google:      &googleAdapter{client: client, logger: logger, delay: delay},
		registry.Cohere:      &cohereAdapter{client: client, logger: logger, delay: delay},
		registry.HuggingFace: &huggingFaceAdapter{client: client, logger: logger, delay: delay},

		registry.Ollama: &ollamaAdapter{client: client, logger: logger},
	}
	return a
}

// AnalyzeRepository runs one analysis to completion, pushing output through
// the sink. Configuration problems are returned synchronously before any
// network traffic; once dispatch happens the outcome arrives through
// exactly one terminal sink callback. There are no retries: a failure is
// terminal for this request and the analyzer is immediately ready for a
// fresh one.
func (a *Analyzer) AnalyzeRepository(ctx context.Context, repo models.Repository, cfg Config, sink Sink) error {
	desc, err := registry.Describe(cfg.Provider)
	if err != nil {
		return err
	}
	if cfg.Provider == registry.Custom && cfg.Endpoint == "" {
		return fmt.Errorf("%w: provider %q needs an endpoint override", ErrMissingEndpoint, cfg.Provider)
	}
	if desc.RequiresAuth && cfg.Credential == "" {
		return fmt.Errorf("%w: provider %q requires auth", ErrMissingCredential, cfg.Provider)
	}

	adapter, ok := a.adapters[cfg.Provider]
	if !ok {
		// The catalog and the routing table cover the same closed set;
		// reaching this is a bug, not a runtime condition.
		return fmt.Errorf("%w: no adapter for %q", registry.ErrUnknownProvider, cfg.Provider)
	}

	requestID := uuid.NewString()
	a.logger.Debug("analysis started", "request_id", requestID, "provider", cfg.Provider, "repository", repo.FullName)

	adapter.Run(ctx, repo, cfg, newGuardedSink(sink, a.logger, requestID))
	return nil
}
