// Package probe discovers LLM servers running on the local machine and
// lists the models they have loaded. A server that is not running is a
// normal outcome, reported as an unavailable status rather than an error.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"starscope/internal/registry"
	"starscope/internal/utils"
)

// probeTimeout bounds every probe. Local servers answer in milliseconds;
// anything slower is treated as absent.
const probeTimeout = 3 * time.Second

// quickCheckTimeout bounds the lightweight reachability check.
const quickCheckTimeout = 1 * time.Second

// Model is one model reported by a local server. Size and Modified are
// only populated by servers that report them.
type Model struct {
	Name     string `json:"name"`
	Size     int64  `json:"size,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// Status describes one local service at probe time.
type Status struct {
	Provider  registry.ID `json:"provider"`
	Available bool        `json:"available"`
	Models    []Model     `json:"models"`
	Error     string      `json:"error,omitempty"`
}

// Prober checks which local LLM services are up.
type Prober struct {
	client  *http.Client
	logger  *utils.Logger
	timeout time.Duration
}

func NewProber() *Prober {
	return newProber(&http.Client{}, utils.NewLogger("probe"), probeTimeout)
}

func newProber(client *http.Client, logger *utils.Logger, timeout time.Duration) *Prober {
	return &Prober{client: client, logger: logger, timeout: timeout}
}

// Probe checks one local provider at its registry endpoint.
func (p *Prober) Probe(ctx context.Context, id registry.ID) Status {
	desc, err := registry.Describe(id)
	if err != nil {
		return Status{Provider: id, Models: []Model{}, Error: err.Error()}
	}
	return p.ProbeEndpoint(ctx, id, desc.Endpoint)
}

// ProbeEndpoint checks one local provider at an explicit endpoint. Ollama
// speaks its own tags format; every other local service is assumed to be
// OpenAI-compatible.
func (p *Prober) ProbeEndpoint(ctx context.Context, id registry.ID, endpoint string) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		models []Model
		err    error
	)
	if id == registry.Ollama {
		models, err = p.fetchOllamaModels(ctx, endpoint)
	} else {
		models, err = p.fetchOpenAIModels(ctx, endpoint)
	}
	if err != nil {
		p.logger.Debug("local service not reachable", "provider", id, "error", err)
		return Status{Provider: id, Models: []Model{}, Error: err.Error()}
	}

	return Status{Provider: id, Available: true, Models: models}
}

// Discover probes every local provider in the catalog concurrently and
// returns a status for each one, reachable or not.
func (p *Prober) Discover(ctx context.Context) map[registry.ID]Status {
	locals := registry.ListLocal()

	var mu sync.Mutex
	statuses := make(map[registry.ID]Status, len(locals))

	g, ctx := errgroup.WithContext(ctx)
	for _, desc := range locals {
		g.Go(func() error {
			status := p.Probe(ctx, desc.ID)
			mu.Lock()
			statuses[desc.ID] = status
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return statuses
}

// QuickCheck reports whether anything answers at the endpoint, without
// listing models.
func (p *Prober) QuickCheck(ctx context.Context, endpoint string) bool {
	ctx, cancel := context.WithTimeout(ctx, quickCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// fetchOllamaModels lists models through the Ollama tags endpoint.
func (p *Prober) fetchOllamaModels(ctx context.Context, endpoint string) ([]Model, error) {
	var response struct {
		Models []struct {
			Name       string `json:"name"`
			Size       int64  `json:"size"`
			ModifiedAt string `json:"modified_at"`
		} `json:"models"`
	}
	if err := p.getJSON(ctx, endpoint+"/tags", &response); err != nil {
		return nil, err
	}

	models := make([]Model, 0, len(response.Models))
	for _, m := range response.Models {
		models = append(models, Model{Name: m.Name, Size: m.Size, Modified: m.ModifiedAt})
	}
	return models, nil
}

// fetchOpenAIModels lists models through the OpenAI-compatible models
// endpoint used by LM Studio and LocalAI.
func (p *Prober) fetchOpenAIModels(ctx context.Context, endpoint string) ([]Model, error) {
	var response struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := p.getJSON(ctx, endpoint+"/models", &response); err != nil {
		return nil, err
	}

	models := make([]Model, 0, len(response.Data))
	for _, m := range response.Data {
		models = append(models, Model{Name: m.ID})
	}
	return models, nil
}

func (p *Prober) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("service not responding: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service answered with status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed model listing: %w", err)
	}
	return nil
}
