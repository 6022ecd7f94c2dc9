package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"starscope/internal/models"
	"starscope/internal/prompt"
	"starscope/internal/registry"
	"starscope/internal/utils"
)

const anthropicVersion = "2023-06-01"

// anthropicAdapter speaks the Messages streaming protocol, which has its own
// event taxonomy. Unlike the chat-completions family, usage accounting here
// is authoritative: the stream reports exact input and output token counts.
type anthropicAdapter struct {
	client *http.Client
	logger *utils.Logger
}

// messageEvent is the union of the stream event shapes we care about; every
// other event type is ignored.
type messageEvent struct {
	Type    string `json:"type"`
	Message struct {
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	} `json:"message"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *anthropicAdapter) Run(ctx context.Context, repo models.Repository, cfg Config, sink Sink) {
	desc, err := registry.Describe(cfg.Provider)
	if err != nil {
		sink.OnError(err)
		return
	}
	model, maxTokens, endpoint := resolveRequest(desc, cfg)
	userPrompt := prompt.Build(repo)

	payload := map[string]any{
		"model":       model,
		"max_tokens":  maxTokens,
		"system":      prompt.SystemInstruction,
		"messages":    []chatMessage{{Role: "user", Content: userPrompt}},
		"stream":      true,
		"temperature": temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		sink.OnError(fmt.Errorf("failed to marshal request: %w", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		sink.OnError(fmt.Errorf("failed to create request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", cfg.Credential)
	req.Header.Set("anthropic-version", anthropicVersion)

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
	inputTokens, outputTokens := 0, 0

	stream := newStreamReader(resp.Body)
loop:
	for {
		data, done, err := stream.Next()
		if err != nil {
			sink.OnError(fmt.Errorf("%s stream read failed: %w", desc.Name, err))
			return
		}
		if done {
			break
		}

		var ev messageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			sink.OnError(fmt.Errorf("%s sent a malformed stream event: %w", desc.Name, err))
			return
		}

		switch ev.Type {
		case "message_start":
			inputTokens = ev.Message.Usage.InputTokens
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				content.WriteString(ev.Delta.Text)
				sink.OnToken(ev.Delta.Text)
			}
		case "message_delta":
			outputTokens = ev.Usage.OutputTokens
		case "message_stop":
			break loop
		}
	}

	full := content.String()
	if inputTokens == 0 {
		inputTokens = prompt.EstimateTokens(userPrompt)
	}
	if outputTokens == 0 {
		outputTokens = prompt.EstimateTokens(full)
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
