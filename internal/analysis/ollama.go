package analysis

import (
	"bufio"
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

// ollamaAdapter reads the newline-delimited JSON stream of a local Ollama
// server. Lines that fail to parse are skipped rather than failing the
// stream: local servers may emit heartbeats or partial lines.
type ollamaAdapter struct {
	client *http.Client
	logger *utils.Logger
}

type ollamaLine struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (a *ollamaAdapter) Run(ctx context.Context, repo models.Repository, cfg Config, sink Sink) {
	desc, err := registry.Describe(cfg.Provider)
	if err != nil {
		sink.OnError(err)
		return
	}
	model, _, endpoint := resolveRequest(desc, cfg)
	userPrompt := prompt.Build(repo)

	payload := map[string]any{
		"model":  model,
		"prompt": userPrompt,
		"stream": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		sink.OnError(fmt.Errorf("failed to marshal request: %w", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/generate", bytes.NewReader(body))
	if err != nil {
		sink.OnError(fmt.Errorf("failed to create request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		sink.OnError(fmt.Errorf("Ollama not running. Please start Ollama and load a model. (%v)", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		sink.OnError(statusError(desc, resp))
		return
	}

	var content strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaLine
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Not fatal: skip heartbeat or partial lines.
			a.logger.Debug("skipping malformed stream line", "provider", desc.ID)
			continue
		}
		if chunk.Response != "" {
			content.WriteString(chunk.Response)
			sink.OnToken(chunk.Response)
		}
	}
	if err := scanner.Err(); err != nil {
		sink.OnError(fmt.Errorf("%s stream read failed: %w", desc.Name, err))
		return
	}

	full := content.String()
	tokens := prompt.EstimateTokens(full)

	sink.OnComplete(Result{
		Content:    full,
		TokenCount: tokens,
		Cost:       registry.EstimateCost(desc.ID, model, 0, tokens), // local models carry no pricing
		Model:      model,
		Provider:   desc.ID,
		Timestamp:  time.Now(),
	})
}
