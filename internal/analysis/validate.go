package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"starscope/internal/registry"
)

const validateTimeout = 10 * time.Second

// ValidateCredential checks whether a credential works against its provider
// by issuing a minimal request. Local no-auth providers are checked for
// reachability only. The result is a plain boolean: any failure, including
// network trouble, reads as "not valid".
func (a *Analyzer) ValidateCredential(ctx context.Context, cfg Config) bool {
	desc, err := registry.Describe(cfg.Provider)
	if err != nil {
		return false
	}
	model, _, endpoint := resolveRequest(desc, cfg)

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	switch cfg.Provider {
	case registry.OpenAI, registry.DeepSeek, registry.Mistral, registry.ZAI:
		payload := map[string]any{
			"model":      model,
			"messages":   []chatMessage{{Role: "user", Content: "Test"}},
			"max_tokens": 5,
		}
		return a.probeRequest(ctx, http.MethodPost, endpoint+"/chat/completions", cfg.Credential, payload, nil)

	case registry.Anthropic:
		payload := map[string]any{
			"model":      model,
			"max_tokens": 10,
			"messages":   []chatMessage{{Role: "user", Content: "Test"}},
		}
		headers := map[string]string{
			"x-api-key":         cfg.Credential,
			"anthropic-version": anthropicVersion,
		}
		return a.probeRequest(ctx, http.MethodPost, endpoint+"/messages", "", payload, headers)

	default:
		if !desc.RequiresAuth {
			return a.probeRequest(ctx, http.MethodHead, endpoint, "", nil, nil)
		}
		return a.probeRequest(ctx, http.MethodHead, endpoint, cfg.Credential, nil, nil)
	}
}

// probeRequest issues one request and reports whether it got a 2xx back.
func (a *Analyzer) probeRequest(ctx context.Context, method, url, bearer string, payload any, headers map[string]string) bool {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return false
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return false
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
