package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"starscope/internal/models"
	"starscope/internal/prompt"
	"starscope/internal/registry"
	"starscope/internal/utils"
)

// openAIAdapter covers every provider wire-compatible with the chat
// completions streaming schema: OpenAI itself, the hosts that override only
// the base URL (DeepSeek, Mistral, Z.ai), the generic OpenAI-compatible
// providers, the local OpenAI-compatible servers, and the user-defined
// custom endpoint.
type openAIAdapter struct {
	client *http.Client
	logger *utils.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage"`
}

func (a *openAIAdapter) Run(ctx context.Context, repo models.Repository, cfg Config, sink Sink) {
	desc, err := registry.Describe(cfg.Provider)
	if err != nil {
		sink.OnError(err)
		return
	}
	model, maxTokens, endpoint := resolveRequest(desc, cfg)
	userPrompt := prompt.Build(repo)

	payload := map[string]any{
		"model": model,
		"messages": []chatMessage{
			{Role: "system", Content: prompt.SystemInstruction},
			{Role: "user", Content: userPrompt},
		},
		"max_tokens":  maxTokens,
		"stream":      true,
		"temperature": temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		sink.OnError(fmt.Errorf("failed to marshal request: %w", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		sink.OnError(fmt.Errorf("failed to create request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Credential)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		sink.OnError(fmt.Errorf("%s request failed: %w", desc.Name, err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		sink.OnError(statusError(desc, resp))
		return
	}

	var content strings.Builder
	var usage *chatUsage

	stream := newStreamReader(resp.Body)
	for {
		data, done, err := stream.Next()
		if err != nil {
			sink.OnError(fmt.Errorf("%s stream read failed: %w", desc.Name, err))
			return
		}
		if done {
			break
		}

		var chunk chatChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			sink.OnError(fmt.Errorf("%s sent a malformed stream chunk: %w", desc.Name, err))
			return
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				content.WriteString(delta)
				sink.OnToken(delta)
			}
		}
	}

	full := content.String()
	inputTokens := prompt.EstimateTokens(userPrompt)
	outputTokens := prompt.EstimateTokens(full)
	if usage != nil && usage.CompletionTokens > 0 {
		outputTokens = usage.CompletionTokens
	}

	sink.OnComplete(Result{
		Content:    full,
		TokenCount: inputTokens + outputTokens,
		Cost:       registry.EstimateCost(desc.ID, model, inputTokens, outputTokens),
		Model:      model,
		Provider:   desc.ID,
		Timestamp:  time.Now(),
	})
}

// resolveRequest applies the per-request overrides on top of the registry
// defaults. The endpoint override wins over the catalog endpoint for any
// provider, not just the custom one.
func resolveRequest(desc *registry.ProviderDescriptor, cfg Config) (model string, maxTokens int, endpoint string) {
	model = cfg.Model
	if model == "" {
		model = desc.DefaultModel
	}
	maxTokens = cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	endpoint = cfg.Endpoint
	if endpoint == "" {
		endpoint = desc.Endpoint
	}
	return model, maxTokens, strings.TrimSuffix(endpoint, "/")
}

// statusError reads up to a small amount of the error body for context and
// reports the provider's status text.
func statusError(desc *registry.ProviderDescriptor, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("%s API error: %s", desc.Name, resp.Status)
	}
	return fmt.Errorf("%s API error: %s: %s", desc.Name, resp.Status, msg)
}
