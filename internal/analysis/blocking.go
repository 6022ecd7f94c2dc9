package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"starscope/internal/models"
	"starscope/internal/prompt"
	"starscope/internal/registry"
	"starscope/internal/utils"
)

// The adapters in this file cover providers without token-level streaming:
// one blocking request returns the whole text, which is then replayed
// through the sink in small slices for visual parity with the streaming
// families. The replay is cosmetic; the completion itself is atomic.

// completeSimulated replays content through the sink and settles the result
// with word-count token estimates on both sides.
func completeSimulated(ctx context.Context, desc *registry.ProviderDescriptor, model, userPrompt, content string, sink Sink, delay time.Duration) {
	if err := chunkAndDelay(ctx, content, sink, delay); err != nil {
		sink.OnError(err)
		return
	}

	inputTokens := prompt.EstimateTokens(userPrompt)
	outputTokens := prompt.EstimateTokens(content)

	sink.OnComplete(Result{
		Content:    content,
		TokenCount: inputTokens + outputTokens,
		Cost:       registry.EstimateCost(desc.ID, model, inputTokens, outputTokens),
		Model:      model,
		Provider:   desc.ID,
		Timestamp:  time.Now(),
	})
}

// postJSON issues one blocking JSON request and decodes the response body
// into out. A non-success status is a protocol error.
func postJSON(ctx context.Context, client *http.Client, desc *registry.ProviderDescriptor, endpoint, bearer string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", desc.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(desc, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s sent a malformed response: %w", desc.Name, err)
	}
	return nil
}

// googleAdapter calls the Gemini generateContent endpoint. The credential
// travels as a query parameter, per that API's convention.
type googleAdapter struct {
	client *http.Client
	logger *utils.Logger
	delay  time.Duration
}

func (a *googleAdapter) Run(ctx context.Context, repo models.Repository, cfg Config, sink Sink) {
	desc, err := registry.Describe(cfg.Provider)
	if err != nil {
		sink.OnError(err)
		return
	}
	model, maxTokens, endpoint := resolveRequest(desc, cfg)
	userPrompt := prompt.Build(repo)

	requestURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", endpoint, model, url.QueryEscape(cfg.Credential))
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": userPrompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     temperature,
			"maxOutputTokens": maxTokens,
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := postJSON(ctx, a.client, desc, requestURL, "", payload, &response); err != nil {
		sink.OnError(err)
		return
	}

	content := ""
	if len(response.Candidates) > 0 && len(response.Candidates[0].Content.Parts) > 0 {
		content = response.Candidates[0].Content.Parts[0].Text
	}

	completeSimulated(ctx, desc, model, userPrompt, content, sink, a.delay)
}

// cohereAdapter calls the Cohere chat endpoint.
type cohereAdapter struct {
	client *http.Client
	logger *utils.Logger
	delay  time.Duration
}

func (a *cohereAdapter) Run(ctx context.Context, repo models.Repository, cfg Config, sink Sink) {
	desc, err := registry.Describe(cfg.Provider)
	if err != nil {
		sink.OnError(err)
		return
	}
	model, maxTokens, endpoint := resolveRequest(desc, cfg)
	userPrompt := prompt.Build(repo)

	payload := map[string]any{
		"model":       model,
		"message":     userPrompt,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	var response struct {
		Text string `json:"text"`
	}
	if err := postJSON(ctx, a.client, desc, endpoint+"/chat", cfg.Credential, payload, &response); err != nil {
		sink.OnError(err)
		return
	}

	completeSimulated(ctx, desc, model, userPrompt, response.Text, sink, a.delay)
}

// huggingFaceAdapter calls the Inference API, whose response is either a
// bare object or a one-element array depending on the model.
type huggingFaceAdapter struct {
	client *http.Client
	logger *utils.Logger
	delay  time.Duration
}

func (a *huggingFaceAdapter) Run(ctx context.Context, repo models.Repository, cfg Config, sink Sink) {
	desc, err := registry.Describe(cfg.Provider)
	if err != nil {
		sink.OnError(err)
		return
	}
	model, maxTokens, endpoint := resolveRequest(desc, cfg)
	userPrompt := prompt.Build(repo)

	payload := map[string]any{
		"inputs": userPrompt,
		"parameters": map[string]any{
			"temperature":    temperature,
			"max_new_tokens": maxTokens,
		},
	}

	var raw json.RawMessage
	if err := postJSON(ctx, a.client, desc, endpoint+"/"+model, cfg.Credential, payload, &raw); err != nil {
		sink.OnError(err)
		return
	}

	type generated struct {
		GeneratedText string `json:"generated_text"`
	}
	var content string
	var list []generated
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		content = list[0].GeneratedText
	} else {
		var single generated
		if err := json.Unmarshal(raw, &single); err != nil {
			sink.OnError(fmt.Errorf("%s sent a malformed response: %w", desc.Name, err))
			return
		}
		content = single.GeneratedText
	}

	completeSimulated(ctx, desc, model, userPrompt, content, sink, a.delay)
}
