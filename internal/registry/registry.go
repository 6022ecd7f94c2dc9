package registry

import (
	"errors"
	"fmt"
)

// ID identifies one of the supported providers. The identifier space is
// closed: values outside the catalog are a programming error.
type ID string

const (
	// Tier 1: major cloud providers
	OpenAI    ID = "openai"
	Anthropic ID = "anthropic"
	ZAI       ID = "zai"
	Google    ID = "google"
	DeepSeek  ID = "deepseek"
	Mistral   ID = "mistral"
	Cohere    ID = "cohere"
	// Tier 2: specialized providers
	HuggingFace ID = "huggingface"
	Replicate   ID = "replicate"
	Together    ID = "together"
	Perplexity  ID = "perplexity"
	Fireworks   ID = "fireworks"
	// Tier 3: local servers and user-defined endpoints
	Ollama   ID = "ollama"
	LMStudio ID = "lmstudio"
	LocalAI  ID = "localai"
	Custom   ID = "custom"
)

// AuthScheme describes how a credential is attached to requests.
type AuthScheme string

const (
	AuthBearer AuthScheme = "bearer"
	AuthAPIKey AuthScheme = "api-key"
	AuthNone   AuthScheme = "none"
	AuthCustom AuthScheme = "custom"
)

// Pricing is the per-1K-token price pair for a model. Models without a
// pricing entry are accounted as free.
type Pricing struct {
	InputPerKTokens  float64
	OutputPerKTokens float64
}

// ModelDescriptor describes one model offered by a provider.
type ModelDescriptor struct {
	ID            string
	Name          string
	Description   string
	ContextWindow int
	Pricing       *Pricing
}

// RateLimit carries advisory rate-limit hints for a provider.
type RateLimit struct {
	RequestsPerMinute int
	TokensPerMinute   int
}

// ProviderDescriptor is the immutable capability record for one provider.
type ProviderDescriptor struct {
	ID                ID
	Name              string
	Description       string
	Website           string
	Endpoint          string
	RequiresAuth      bool
	SupportsStreaming bool
	IsLocal           bool
	Auth              AuthScheme
	DefaultModel      string
	Models            []ModelDescriptor
	RateLimit         *RateLimit
	SetupInstructions string
}

// Model returns the model descriptor with the given identifier, if present.
func (d *ProviderDescriptor) Model(id string) (*ModelDescriptor, bool) {
	for i := range d.Models {
		if d.Models[i].ID == id {
			return &d.Models[i], true
		}
	}
	return nil, false
}

// ErrUnknownProvider is returned when an identifier is not in the catalog.
var ErrUnknownProvider = errors.New("unknown provider")

// Describe returns the descriptor for a provider identifier.
func Describe(id ID) (*ProviderDescriptor, error) {
	desc, ok := catalog[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return desc, nil
}

// ListAll returns every descriptor in catalog order.
func ListAll() []*ProviderDescriptor {
	out := make([]*ProviderDescriptor, 0, len(catalogOrder))
	for _, id := range catalogOrder {
		out = append(out, catalog[id])
	}
	return out
}

// ListCloud returns the descriptors of providers that are not local.
func ListCloud() []*ProviderDescriptor {
	var out []*ProviderDescriptor
	for _, d := range ListAll() {
		if !d.IsLocal {
			out = append(out, d)
		}
	}
	return out
}

// ListLocal returns the descriptors of locally-hosted providers.
func ListLocal() []*ProviderDescriptor {
	var out []*ProviderDescriptor
	for _, d := range ListAll() {
		if d.IsLocal {
			out = append(out, d)
		}
	}
	return out
}

// EstimateCost computes the USD cost of a request against a model's pricing
// table. It is total: unknown providers, unknown models and models without
// pricing all yield 0.
func EstimateCost(id ID, model string, inputTokens, outputTokens int) float64 {
	desc, ok := catalog[id]
	if !ok {
		return 0
	}
	info, ok := desc.Model(model)
	if !ok || info.Pricing == nil {
		return 0
	}
	inputCost := float64(inputTokens) / 1000 * info.Pricing.InputPerKTokens
	outputCost := float64(outputTokens) / 1000 * info.Pricing.OutputPerKTokens
	return inputCost + outputCost
}
